// Package lifetime schedules construction and destruction. It walks typed
// bodies once with a scope stack, binds every call site through the
// resolver, and records for each statement which objects are built before
// it, which temporaries it needs, and which cleanups run on each exit edge.
// The rewriter turns these plans into procedures without resolving anything
// itself.
package lifetime

import (
	"xclower/internal/hir"
	"xclower/internal/layout"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/resolve"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// MemberCleanupLabel is where an early return inside a destructor body jumps.
const MemberCleanupLabel = "__cleanup_members"

// StaticInitName is the synthesized procedure running dynamic static
// initializers.
const StaticInitName = "__static_init"

// Object is a class value owned by a scope: destroyed by calling Cleanup on
// its address when the scope exits.
type Object struct {
	Name    string
	Class   *symbols.Class
	Cleanup string
	Span    source.Span
}

// Var is what a variable reference lowers to.
type Var struct {
	Name string
	// Ref marks reference locals and parameters, held as pointers.
	Ref  bool
	Type types.TypeID
}

// DeclKind tells how a declaration gets its value.
type DeclKind uint8

const (
	// DeclScalar is a plain local initialized (or not) by Value.
	DeclScalar DeclKind = iota
	// DeclRef binds a reference local to the lvalue Value.
	DeclRef
	// DeclCtor constructs a class object by calling Call with Args.
	DeclCtor
	// DeclCopyCtor copies Value through the declared copy constructor Call.
	DeclCopyCtor
	// DeclValue initializes a class object from a value: a call result
	// (moved) or a memberwise copy of an lvalue.
	DeclValue
	// DeclStatic is a function-local static; Slot holds its storage.
	DeclStatic
)

// Decl is the plan of one declaration (local, static slot or member).
type Decl struct {
	Kind   DeclKind
	Name   string
	Type   types.TypeID
	Object *Object
	Call   *resolve.ResolvedCall
	Args   []*hir.Expr
	Value  *hir.Expr
	Slot   *StaticSlot
}

// TempKind tells how a temporary is produced.
type TempKind uint8

const (
	// TempCtor is an explicit construction, `Point(1, 2)`.
	TempCtor TempKind = iota
	// TempValue holds a class-valued call result.
	TempValue
	// TempCopy copies an lvalue for a by-value parameter through the copy
	// constructor.
	TempCopy
)

// Temp is a class value hoisted in front of its statement.
type Temp struct {
	Kind  TempKind
	Name  string
	Expr  *hir.Expr
	Class *symbols.Class
	// Call is the constructor for TempCtor and TempCopy.
	Call    *resolve.ResolvedCall
	Cleanup string
	// Moved temporaries are handed to a callee by value and not destroyed
	// by the caller.
	Moved bool
}

// Exit is the plan of one return, break or continue.
type Exit struct {
	// Cleanups run in this order before control leaves.
	Cleanups []*Object
	// Moved is the local handed to the caller by `return local`.
	Moved *Object
	// Ret names the temporary the return value is evaluated into before
	// cleanups run; empty when the value is returned directly.
	Ret string
	// Construct is set for `return T(args)`; Copy for returning a class
	// lvalue through its copy constructor.
	Construct *resolve.ResolvedCall
	Copy      *resolve.ResolvedCall
	// Label replaces the return jump (destructor bodies).
	Label string
}

// FuncPlan is the schedule of one procedure body.
type FuncPlan struct {
	Func     *symbols.Func
	Instance *mono.Instance
	Name     string
	// Class is the receiver class for procedures taking self.
	Class *symbols.Class

	Calls  map[*hir.Expr]*resolve.ResolvedCall
	Vars   map[*hir.Expr]*Var
	Fields map[*hir.Expr]layout.Slot
	Decls  map[*hir.Stmt]*Decl
	Temps  map[*hir.Stmt][]*Temp
	TempOf map[*hir.Expr]*Temp
	Exits  map[*hir.Stmt]*Exit
	// Ends lists the cleanups at the closing brace of each block.
	Ends map[*hir.Block][]*Object
	// LoopEnds lists cleanups of for-init objects after the loop.
	LoopEnds map[*hir.Stmt][]*Object
	// Owned are by-value class parameters.
	Owned   []*Object
	Params  map[string]*Var
	Statics []*StaticSlot
	// Returns is set when a destructor body jumps to MemberCleanupLabel.
	Returns bool
	IsMain  bool
}

// InitPlan is the schedule of one init procedure.
type InitPlan struct {
	Ctor    *symbols.Func
	Name    string
	Base    *BaseInit
	Members []*MemberInit
	// Body holds the constructor body and the bindings of every
	// initializer expression.
	Body *FuncPlan
	// Written lists the member-initializer names in written order when it
	// differs from declaration order.
	Written []string
}

// BaseInit calls the base class init procedure on self.
type BaseInit struct {
	Class *symbols.Class
	Call  *resolve.ResolvedCall
	Args  []*hir.Expr
}

// MemberInit initializes one own member. Kind is DeclScalar (Value
// assigned, nil leaves the member untouched), DeclCtor, DeclCopyCtor or
// DeclValue.
type MemberInit struct {
	Decl
	Field *symbols.Field
	Slot  layout.Slot
	// Zero is `: count()`, value-initialization of a scalar.
	Zero bool
}

// CleanupPlan is the schedule of the cleanup procedure.
type CleanupPlan struct {
	Name string
	// Body is the destructor body, nil when none is declared.
	Body *FuncPlan
	// Members are class-typed members in reverse declaration order; their
	// Name is the slot's target name.
	Members []*Object
	// Base is the base cleanup procedure, empty for root classes.
	Base string
}

// ClassPlan gathers the init procedures and the cleanup procedure of a class.
type ClassPlan struct {
	Class   *symbols.Class
	Layout  *layout.ClassLayout
	Inits   []*InitPlan
	Cleanup *CleanupPlan
}

// StaticSlot is the single storage location of a class static member, a
// namespace-scope global or a function-local static.
type StaticSlot struct {
	Name string
	// Guard is the first-use flag; empty for load-time initialized slots.
	Guard  string
	Source string
	Type   types.TypeID
	// Const is the load-time initializer (nil means zero).
	Const *hir.Expr
	// Init is the dynamic initializer, run once behind Guard.
	Init *Decl
	Span source.Span

	key mangle.Key
}

// Dynamic reports slots initialized in code.
func (s *StaticSlot) Dynamic() bool { return s.Init != nil }

// StaticPlan orders the program-wide slots: class statics in class then
// member order, followed by globals in declaration order.
type StaticPlan struct {
	Slots []*StaticSlot
	// Init holds the bindings of dynamic initializers; nil when every slot
	// is load-time initialized.
	Init *FuncPlan
	// Failed names the slots dropped because their initializer failed.
	Failed []string
}
