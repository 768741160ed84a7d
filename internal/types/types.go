package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the source-language types the lowering understands.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindUint
	KindFloat
	KindPointer
	KindReference
	KindArray
	KindClass
	// KindParam is a template type parameter awaiting substitution.
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindArray:
		return "array"
	case KindClass:
		return "class"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats in bits.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width24  Width = 24
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
//
// Name carries the source spelling of builtins ("unsigned char", "uint8_t"),
// the qualified name of classes and the name of template parameters. Two
// builtins of the same width and signedness stay distinct types because
// overloads and mangled names are keyed by spelling.
type Type struct {
	Kind  Kind
	Elem  TypeID
	Count uint32 // for arrays
	Width Width  // for numeric primitives
	Const bool
	Name  string
}

// MakePointer describes T*.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeReference describes T& (const T& when isConst is set).
func MakeReference(elem TypeID, isConst bool) Type {
	return Type{Kind: KindReference, Elem: elem, Const: isConst}
}

// MakeArray describes T[n].
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeClass describes a class type by its qualified name.
func MakeClass(name string) Type {
	return Type{Kind: KindClass, Name: name}
}

// MakeParam describes a template type parameter.
func MakeParam(name string) Type {
	return Type{Kind: KindParam, Name: name}
}

// IsNumeric reports integer, bool and floating kinds.
func (k Kind) IsNumeric() bool {
	return k == KindBool || k == KindInt || k == KindUint || k == KindFloat
}

// IsInteger reports signed and unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k == KindInt || k == KindUint
}
