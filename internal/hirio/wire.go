// Package hirio decodes the front end's interchange documents (JSON or
// msgpack) into the symbol table and typed bodies the lowering consumes.
//
// Types travel as spellings ("const Point&", "uint8_t*", "T") and are
// parsed against builtins, declared classes and the template parameters
// in scope. Spans are byte offsets into the document's files, indexed in
// the order the files are listed.
package hirio

// Document is one translation unit as the front end saw it.
type Document struct {
	Files     []File     `json:"files,omitempty"`
	Classes   []Class    `json:"classes,omitempty"`
	Functions []Func     `json:"functions,omitempty"`
	Globals   []Variable `json:"globals,omitempty"`
}

// File is a source file spans point into. Content is optional; without it
// the file is read from disk when present there.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// Span is a byte range in Files[File].
type Span struct {
	File  uint32 `json:"file"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Class lists members in declaration order. Methods carries every member
// function, constructors and the destructor included, told apart by Kind.
type Class struct {
	Name           string          `json:"name"`
	Scope          []string        `json:"scope,omitempty"`
	Bases          []string        `json:"bases,omitempty"`
	VirtualBase    bool            `json:"virtual_base,omitempty"`
	Fields         []Variable      `json:"fields,omitempty"`
	Statics        []Variable      `json:"statics,omitempty"`
	Methods        []Func          `json:"methods,omitempty"`
	TemplateParams []TemplateParam `json:"template_params,omitempty"`
	Span           Span            `json:"span"`
}

// Variable is a field, a static data member or a namespace-scope global.
type Variable struct {
	Name   string   `json:"name"`
	Scope  []string `json:"scope,omitempty"`
	Type   string   `json:"type"`
	Init   *Expr    `json:"init,omitempty"`
	Args   []*Expr  `json:"args,omitempty"`
	Direct bool     `json:"direct,omitempty"`
	Span   Span     `json:"span"`
}

type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Span Span   `json:"span"`
}

// TemplateParam is a type parameter, or a value parameter when Type is set.
type TemplateParam struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Func kinds as spelled in documents.
const (
	KindFunction = "function"
	KindMethod   = "method"
	KindStatic   = "static"
	KindCtor     = "ctor"
	KindDtor     = "dtor"
)

type Func struct {
	Name           string          `json:"name,omitempty"`
	Operator       string          `json:"operator,omitempty"`
	Postfix        bool            `json:"postfix,omitempty"`
	Kind           string          `json:"kind,omitempty"`
	Scope          []string        `json:"scope,omitempty"`
	Params         []Param         `json:"params,omitempty"`
	Result         string          `json:"result,omitempty"`
	TemplateParams []TemplateParam `json:"template_params,omitempty"`
	Body           *Block          `json:"body,omitempty"`
	BaseInit       *Initializer    `json:"base_init,omitempty"`
	MemberInits    []Initializer   `json:"member_inits,omitempty"`
	Virtual        bool            `json:"virtual,omitempty"`
	Const          bool            `json:"const,omitempty"`
	Span           Span            `json:"span"`
}

type Initializer struct {
	Name string  `json:"name"`
	Args []*Expr `json:"args,omitempty"`
	Span Span    `json:"span"`
}

type Block struct {
	Stmts []*Stmt `json:"stmts,omitempty"`
	Span  Span    `json:"span"`
}

// Stmt is a tagged union over statement kinds; Kind selects which fields
// are meaningful.
type Stmt struct {
	Kind string `json:"kind"`

	Name   string  `json:"name,omitempty"`
	Type   string  `json:"type,omitempty"`
	Init   *Expr   `json:"init,omitempty"`
	Args   []*Expr `json:"args,omitempty"`
	Direct bool    `json:"direct,omitempty"`
	Static bool    `json:"static,omitempty"`

	Expr    *Expr  `json:"expr,omitempty"`
	Cond    *Expr  `json:"cond,omitempty"`
	Then    *Block `json:"then,omitempty"`
	Else    *Block `json:"else,omitempty"`
	Body    *Block `json:"body,omitempty"`
	ForInit *Stmt  `json:"for_init,omitempty"`
	Post    *Expr  `json:"post,omitempty"`
	Feature string `json:"feature,omitempty"`
	Span    Span   `json:"span"`
}

// Expr is a tagged union over expression kinds. Type is the value's type;
// for lvalues of reference type it names the referenced type.
type Expr struct {
	Kind string `json:"kind"`
	Type string `json:"type,omitempty"`

	Lit  string `json:"lit,omitempty"`
	Text string `json:"text,omitempty"`
	Int  int64  `json:"int,omitempty"`

	Name  string   `json:"name,omitempty"`
	Var   string   `json:"var,omitempty"`
	Scope []string `json:"scope,omitempty"`

	Object *Expr  `json:"object,omitempty"`
	Field  string `json:"field,omitempty"`
	Owner  string `json:"owner,omitempty"`
	Arrow  bool   `json:"arrow,omitempty"`
	Class  string `json:"class,omitempty"`

	Receiver     *Expr         `json:"receiver,omitempty"`
	Qualifier    string        `json:"qualifier,omitempty"`
	Method       string        `json:"method,omitempty"`
	TemplateArgs []TemplateArg `json:"template_args,omitempty"`
	Args         []*Expr       `json:"args,omitempty"`

	Op      string `json:"op,omitempty"`
	Operand *Expr  `json:"operand,omitempty"`
	Postfix bool   `json:"postfix,omitempty"`
	Left    *Expr  `json:"left,omitempty"`
	Right   *Expr  `json:"right,omitempty"`
	Target  *Expr  `json:"target,omitempty"`
	Value   *Expr  `json:"value,omitempty"`
	Cond    *Expr  `json:"cond,omitempty"`
	Then    *Expr  `json:"then,omitempty"`
	Else    *Expr  `json:"else,omitempty"`
	Index   *Expr  `json:"index,omitempty"`

	Feature string `json:"feature,omitempty"`
	Span    Span   `json:"span"`
}

// TemplateArg is an explicit template argument: a type spelling, or a
// constant when Value is set.
type TemplateArg struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}
