package symbols

import (
	"strings"

	"xclower/internal/hir"
	"xclower/internal/source"
	"xclower/internal/types"
)

// FuncKind classifies callable declarations.
type FuncKind uint8

const (
	FuncFree FuncKind = iota
	FuncMethod
	FuncStatic
	FuncCtor
	FuncDtor
)

func (k FuncKind) String() string {
	switch k {
	case FuncFree:
		return "function"
	case FuncMethod:
		return "method"
	case FuncStatic:
		return "static method"
	case FuncCtor:
		return "constructor"
	case FuncDtor:
		return "destructor"
	}
	return "unknown"
}

// Param is a declared function parameter.
type Param struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// TemplateParam is a template parameter: a type (`typename T`) or a
// constant (`int N`, with Type the constant's type).
type TemplateParam struct {
	Name    string
	IsValue bool
	Type    types.TypeID
}

// Func is a callable declaration. Operators keep their symbol in Operator;
// constructors and destructors are identified by Kind.
type Func struct {
	ID             FuncID
	Name           string
	Operator       string
	Postfix        bool
	Kind           FuncKind
	Scope          []string
	Class          ClassID
	Params         []Param
	Result         types.TypeID
	TemplateParams []TemplateParam
	Body           *hir.Block
	BaseInit       *hir.Initializer
	MemberInits    []hir.Initializer
	Virtual        bool
	Const          bool
	// Implicit marks declarations the table synthesized (default constructors).
	Implicit bool
	Span     source.Span
}

// IsTemplate reports function templates.
func (f *Func) IsTemplate() bool { return len(f.TemplateParams) > 0 }

// HasReceiver reports functions that take the implicit object pointer.
func (f *Func) HasReceiver() bool {
	return f.Class.IsValid() && (f.Kind == FuncMethod || f.Kind == FuncCtor || f.Kind == FuncDtor)
}

// IsOperator reports operator functions.
func (f *Func) IsOperator() bool { return f.Operator != "" }

// ParamTypes lists the declared parameter types.
func (f *Func) ParamTypes() []types.TypeID {
	out := make([]types.TypeID, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

// Field is a non-static data member. Init is the default member initializer.
type Field struct {
	Name string
	Type types.TypeID
	Init *hir.Expr
	Span source.Span
}

// Static is a static data member or a namespace-scope global: one storage
// slot for the whole program.
type Static struct {
	Name   string
	Type   types.TypeID
	Init   *hir.Expr
	Args   []*hir.Expr
	Direct bool
	Span   source.Span
}

// HasInit reports whether the slot is initialized explicitly.
func (s *Static) HasInit() bool { return s.Init != nil || s.Direct }

// Class is a class or struct declaration.
type Class struct {
	ID    ClassID
	Name  string
	Scope []string
	// BaseNames are the bases as written; Bases holds the resolved ids with
	// NoClassID for names the table does not know.
	BaseNames      []string
	Bases          []ClassID
	VirtualBase    bool
	Fields         []Field
	Statics        []Static
	Methods        []FuncID
	Ctors          []FuncID
	Dtor           FuncID
	TemplateParams []TemplateParam
	Span           source.Span
}

// QualifiedName joins the enclosing namespaces and the class name with ::.
func (c *Class) QualifiedName() string {
	return Qualify(c.Scope, c.Name)
}

// Field returns the field named name declared by c itself.
func (c *Class) Field(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Static returns the static member named name declared by c itself.
func (c *Class) Static(name string) (*Static, bool) {
	for i := range c.Statics {
		if c.Statics[i].Name == name {
			return &c.Statics[i], true
		}
	}
	return nil, false
}

// HasMember reports a field or static data member named name declared by c.
func (c *Class) HasMember(name string) bool {
	_, f := c.Field(name)
	_, s := c.Static(name)
	return f || s
}

// Global is a namespace-scope variable.
type Global struct {
	ID    GlobalID
	Scope []string
	Static
}

// QualifiedName joins the enclosing namespaces and the global name with ::.
func (g *Global) QualifiedName() string {
	return Qualify(g.Scope, g.Name)
}

// Qualify joins scope components and a name with ::.
func Qualify(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, "::") + "::" + name
}
