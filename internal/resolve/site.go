package resolve

import (
	"xclower/internal/mono"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// CallKind tells how a call site names its callee.
type CallKind uint8

const (
	// CallFree is `f(args)`, `ns::f(args)`, `Class::f(args)` or an
	// unqualified sibling member call with implicit this.
	CallFree CallKind = iota
	// CallMethod is `obj.m(args)` or `p->m(args)`.
	CallMethod
	// CallOperator is an operator expression with at least one class operand.
	CallOperator
	// CallCtor is a construction of Class.
	CallCtor
)

func (k CallKind) String() string {
	switch k {
	case CallFree:
		return "call"
	case CallMethod:
		return "method call"
	case CallOperator:
		return "operator"
	case CallCtor:
		return "construction"
	}
	return "unknown"
}

// Arg describes one argument as the matcher needs it. Type is the value
// type (the referenced type for lvalues of reference type).
type Arg struct {
	Type    types.TypeID
	LValue  bool
	Literal bool // integer literal; Int holds its value
	Int     int64
	Null    bool
}

// CallSite is a call waiting for a declaration.
type CallSite struct {
	Kind CallKind
	// Name is the callee name; for CallOperator the operator symbol.
	Name string
	// Scope is an explicit qualification, outermost first.
	Scope []string
	// Qualifier is an explicit `Base::` on a method call.
	Qualifier string
	// Receiver is the class type of the object for CallMethod.
	Receiver types.TypeID
	// Class is the constructed class for CallCtor.
	Class symbols.ClassID
	// Args are the explicit arguments; for CallOperator all operands, left
	// operand first.
	Args         []Arg
	TemplateArgs []mono.Arg
	Unary        bool
	Postfix      bool
	// Caller is the function whose body holds the call; Instance is set
	// when that body belongs to a template instance.
	Caller   *symbols.Func
	Instance *mono.Instance
	Span     source.Span
}

// Conv is the implicit conversion applied to one argument.
type Conv uint8

const (
	ConvExact Conv = iota
	// ConvDecay is array-to-pointer decay; it ranks as exact.
	ConvDecay
	ConvNumeric
	// ConvLiteral converts an integer literal to a type it fits.
	ConvLiteral
	ConvDerivedToBase
	ConvNull
)

// Rank is the conversion's cost: exact 0, widening 1.
func (c Conv) Rank() int {
	switch c {
	case ConvExact, ConvDecay:
		return 0
	}
	return 1
}

func (c Conv) String() string {
	switch c {
	case ConvExact:
		return "exact"
	case ConvDecay:
		return "decay"
	case ConvNumeric:
		return "numeric"
	case ConvLiteral:
		return "literal"
	case ConvDerivedToBase:
		return "derived-to-base"
	case ConvNull:
		return "null"
	}
	return "unknown"
}

// ResolvedCall is the declaration a call site binds to. It is not mutated
// after Resolve returns it.
type ResolvedCall struct {
	Func *symbols.Func
	// Instance is the template specialization, nil for ordinary functions.
	Instance *mono.Instance
	Name     string
	ArgTypes []types.TypeID
	// Params are the concrete parameter types, receiver excluded.
	Params []types.TypeID
	Convs  []Conv
	// Cost is the candidate's tier: 0 when every argument is exact, else 1.
	Cost   int
	Result types.TypeID
	// Owner is the class declaring the member, NoClassID for free functions.
	Owner symbols.ClassID
	// Receiver is set when the callee takes an object pointer first.
	Receiver bool
	// ImplicitThis marks receiver calls on the caller's own object.
	ImplicitThis bool
	// MemberOperator marks operators bound to a member: the left operand is
	// the receiver and Params cover the remaining operands.
	MemberOperator bool
	Span           source.Span
}

// IsTemplate reports calls bound to a template instance.
func (rc *ResolvedCall) IsTemplate() bool { return rc.Instance != nil }
