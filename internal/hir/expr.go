package hir

import (
	"xclower/internal/source"
	"xclower/internal/types"
)

// ExprKind enumerates expression kinds of the typed input tree.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	// ExprVarRef names a local, a parameter or a namespace-scope global.
	ExprVarRef
	ExprThis
	// ExprField accesses a data member; a nil Object means implicit this.
	ExprField
	// ExprStaticMember names a class static data member.
	ExprStaticMember
	// ExprCall calls a free function, a static member function or, from
	// inside a member function, a sibling member with implicit this.
	ExprCall
	// ExprMethodCall calls a member function on an explicit receiver.
	ExprMethodCall
	ExprUnary
	ExprBinary
	// ExprAssign covers plain and compound assignment.
	ExprAssign
	// ExprConstruct is a functional-cast temporary, `Point(1, 2)`.
	ExprConstruct
	ExprCast
	ExprCond
	ExprIndex
	// ExprTemplateValue references a non-type template parameter.
	ExprTemplateValue
	// ExprUnsupported carries new/delete/throw/typeid/dynamic_cast and friends.
	ExprUnsupported
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprThis:
		return "This"
	case ExprField:
		return "Field"
	case ExprStaticMember:
		return "StaticMember"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprAssign:
		return "Assign"
	case ExprConstruct:
		return "Construct"
	case ExprCast:
		return "Cast"
	case ExprCond:
		return "Cond"
	case ExprIndex:
		return "Index"
	case ExprTemplateValue:
		return "TemplateValue"
	case ExprUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Expr is a typed expression. Type is the source-language type of the
// value; for lvalues of reference type it is the referenced type.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralChar
	LiteralString
	LiteralNull
)

// LiteralData holds a literal. Text is the source spelling; Int is filled
// for integer, char and bool literals.
type LiteralData struct {
	Kind LiteralKind
	Text string
	Int  int64
}

func (LiteralData) exprData() {}

// VarKind tells where a named variable lives.
type VarKind uint8

const (
	VarLocal VarKind = iota
	VarParam
	VarGlobal
)

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Name string
	Kind VarKind
}

func (VarRefData) exprData() {}

// ThisData holds data for ExprThis.
type ThisData struct{}

func (ThisData) exprData() {}

// FieldData holds data for ExprField. Owner is the class that declares the
// field, which matters once base fields are flattened and possibly renamed.
type FieldData struct {
	Object *Expr
	Field  string
	Owner  string
	Arrow  bool
}

func (FieldData) exprData() {}

// StaticMemberData holds data for ExprStaticMember.
type StaticMemberData struct {
	Class string
	Name  string
}

func (StaticMemberData) exprData() {}

// TemplateArg is an explicit template argument: a type or a constant.
type TemplateArg struct {
	Type    types.TypeID
	Value   string
	IsValue bool
}

// CallData holds data for ExprCall.
type CallData struct {
	Name         string
	Scope        []string // explicit qualification, outermost first
	TemplateArgs []TemplateArg
	Args         []*Expr
}

func (CallData) exprData() {}

// MethodCallData holds data for ExprMethodCall. Qualifier holds an explicit
// `Base::` qualification, which binds the call to that class statically.
type MethodCallData struct {
	Receiver     *Expr
	Arrow        bool
	Qualifier    string
	Method       string
	TemplateArgs []TemplateArg
	Args         []*Expr
}

func (MethodCallData) exprData() {}

// UnaryData holds data for ExprUnary. Op is one of - + ! ~ ++ -- & *.
type UnaryData struct {
	Op      string
	Operand *Expr
	Postfix bool
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    string
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// AssignData holds data for ExprAssign; Op is "=" or a compound operator.
type AssignData struct {
	Op     string
	Target *Expr
	Value  *Expr
}

func (AssignData) exprData() {}

// ConstructData holds data for ExprConstruct; the class is Expr.Type.
type ConstructData struct {
	Args []*Expr
}

func (ConstructData) exprData() {}

// CastData holds data for ExprCast; the target type is Expr.Type.
type CastData struct {
	Operand *Expr
}

func (CastData) exprData() {}

// CondData holds data for ExprCond (c ? a : b).
type CondData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (CondData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// TemplateValueData holds data for ExprTemplateValue.
type TemplateValueData struct {
	Name string
}

func (TemplateValueData) exprData() {}

// UnsupportedData holds data for ExprUnsupported.
type UnsupportedData struct {
	Feature string
}

func (UnsupportedData) exprData() {}

// Initializer is one entry of a constructor's member-initializer list.
// For the base entry Name is the base class name.
type Initializer struct {
	Name string
	Args []*Expr
	Span source.Span
}

// IsLValue reports expressions that designate storage.
func (e *Expr) IsLValue() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprVarRef, ExprField, ExprStaticMember, ExprIndex:
		return true
	case ExprUnary:
		d := e.Data.(UnaryData)
		return d.Op == "*" || ((d.Op == "++" || d.Op == "--") && !d.Postfix)
	case ExprAssign:
		return true
	}
	return false
}
