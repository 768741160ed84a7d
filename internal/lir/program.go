// Package lir is the flat procedural program the lowering produces: plain
// aggregates, storage slots, procedures whose bodies contain only direct
// calls, and the directive stream an emitter replays against the source.
package lir

import "xclower/internal/source"

// Type is a target type spelling: a builtin spelling, an aggregate name,
// or either followed by pointer stars ("Counter*", "const char*").
type Type string

// Ptr returns the pointer type to t.
func (t Type) Ptr() Type { return t + "*" }

// IsPtr reports pointer spellings.
func (t Type) IsPtr() bool { return len(t) > 0 && t[len(t)-1] == '*' }

// Elem strips one pointer level.
func (t Type) Elem() Type {
	if t.IsPtr() {
		return t[:len(t)-1]
	}
	return t
}

// Field is one member of an aggregate.
type Field struct {
	Name   string `json:"name" msgpack:"name"`
	Type   Type   `json:"type" msgpack:"type"`
	Offset int    `json:"offset" msgpack:"offset"`
	// Origin is the source member ("Device::id").
	Origin string `json:"origin,omitempty" msgpack:"origin,omitempty"`
}

// PlaceholderField keeps aggregates without members legal in the target.
const PlaceholderField = "__empty"

// Struct is a flattened class.
type Struct struct {
	Name   string  `json:"name" msgpack:"name"`
	Source string  `json:"source" msgpack:"source"`
	Base   string  `json:"base,omitempty" msgpack:"base,omitempty"`
	Fields []Field `json:"fields" msgpack:"fields"`
	Size   int     `json:"size" msgpack:"size"`
	Align  int     `json:"align" msgpack:"align"`
}

// Global is one storage slot: a namespace-scope variable, a class static
// or a function-local static. Init is a load-time constant initializer;
// dynamic initialization happens in code behind Guard.
type Global struct {
	Name   string `json:"name" msgpack:"name"`
	Type   Type   `json:"type" msgpack:"type"`
	Init   *Expr  `json:"init,omitempty" msgpack:"init,omitempty"`
	Guard  string `json:"guard,omitempty" msgpack:"guard,omitempty"`
	Source string `json:"source" msgpack:"source"`
}

// ProcKind tells where a procedure came from.
type ProcKind uint8

const (
	ProcFunc ProcKind = iota
	ProcMethod
	ProcInit
	ProcCleanup
	ProcInstance
	// ProcStaticInit is the synthesized __static_init.
	ProcStaticInit
)

func (k ProcKind) String() string {
	switch k {
	case ProcFunc:
		return "func"
	case ProcMethod:
		return "method"
	case ProcInit:
		return "init"
	case ProcCleanup:
		return "cleanup"
	case ProcInstance:
		return "instance"
	case ProcStaticInit:
		return "static-init"
	}
	return "unknown"
}

// Param is a procedure parameter; the receiver comes first as "self".
type Param struct {
	Name string `json:"name" msgpack:"name"`
	Type Type   `json:"type" msgpack:"type"`
}

// Proc is a target procedure.
type Proc struct {
	Name   string   `json:"name" msgpack:"name"`
	Kind   ProcKind `json:"kind" msgpack:"kind"`
	Source string   `json:"source" msgpack:"source"`
	Params []Param  `json:"params" msgpack:"params"`
	Result Type     `json:"result" msgpack:"result"`
	Body   []*Stmt  `json:"body" msgpack:"body"`
	// Seq orders procedures of one unit; the driver sorts by unit then Seq.
	Seq int `json:"-" msgpack:"-"`
}

// DirectiveKind enumerates the edits an emitter applies to the source.
type DirectiveKind uint8

const (
	// DirRename replaces a source name with its flat name.
	DirRename DirectiveKind = iota
	// DirRestructure replaces a class with an aggregate plus procedures.
	DirRestructure
	// DirInsertCall inserts an explicit init, cleanup or setup call.
	DirInsertCall
	// DirReorder marks a member-initializer list executed in declaration
	// order rather than written order.
	DirReorder
)

func (k DirectiveKind) String() string {
	switch k {
	case DirRename:
		return "rename"
	case DirRestructure:
		return "restructure"
	case DirInsertCall:
		return "insert-call"
	case DirReorder:
		return "reorder"
	}
	return "unknown"
}

// Directive is one lowering edit.
type Directive struct {
	Kind   DirectiveKind `json:"kind" msgpack:"kind"`
	From   string        `json:"from,omitempty" msgpack:"from,omitempty"`
	To     string        `json:"to,omitempty" msgpack:"to,omitempty"`
	Detail string        `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Span   source.Span   `json:"span" msgpack:"span"`
}

// Program is the complete lowering result, in emission order.
type Program struct {
	Structs    []*Struct   `json:"structs" msgpack:"structs"`
	Globals    []*Global   `json:"globals" msgpack:"globals"`
	Procs      []*Proc     `json:"procs" msgpack:"procs"`
	Directives []Directive `json:"directives" msgpack:"directives"`
}

// Proc finds a procedure by name.
func (p *Program) Proc(name string) *Proc {
	for _, pr := range p.Procs {
		if pr.Name == name {
			return pr
		}
	}
	return nil
}

// Struct finds an aggregate by name.
func (p *Program) Struct(name string) *Struct {
	for _, s := range p.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}
