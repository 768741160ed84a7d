package lifetime

import (
	"errors"
	"fmt"
	"strings"

	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/layout"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/resolve"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// Planner builds plans. It shares the resolver's memo state and the layout
// cache; the layouts of every class should be flattened before planning.
type Planner struct {
	Table    *symbols.Table
	Resolver *resolve.Resolver
	Layouts  *layout.Engine
	Mangler  *mangle.Mangler
}

// New creates a planner.
func New(tab *symbols.Table, r *resolve.Resolver, layouts *layout.Engine, m *mangle.Mangler) *Planner {
	return &Planner{Table: tab, Resolver: r, Layouts: layouts, Mangler: m}
}

type scopeKind uint8

const (
	scopeFunc scopeKind = iota
	scopeBlock
	// scopeLoop is a loop body: the target of break and continue.
	scopeLoop
	scopeFor
)

type scope struct {
	kind    scopeKind
	objects []*Object
	vars    map[string]*Var
}

// funcPlanner carries the walk state of one body.
type funcPlanner struct {
	p    *Planner
	in   *types.Interner
	plan *FuncPlan
	// caller is the declaration resolution runs from; for static
	// initializers it is a synthesized context.
	caller *symbols.Func
	dtor   bool
	scopes []*scope
	errs   []error

	// per full-expression state
	cur     *hir.Stmt
	pending int
	cond    int
	tempsOK bool

	temps, rets int
	statics     map[string]bool
}

func (p *Planner) newFuncPlanner(f *symbols.Func, inst *mono.Instance, name string) *funcPlanner {
	plan := &FuncPlan{
		Func:     f,
		Instance: inst,
		Name:     name,
		Class:    p.Table.Class(f.Class),
		Calls:    make(map[*hir.Expr]*resolve.ResolvedCall),
		Vars:     make(map[*hir.Expr]*Var),
		Fields:   make(map[*hir.Expr]layout.Slot),
		Decls:    make(map[*hir.Stmt]*Decl),
		Temps:    make(map[*hir.Stmt][]*Temp),
		TempOf:   make(map[*hir.Expr]*Temp),
		Exits:    make(map[*hir.Stmt]*Exit),
		Ends:     make(map[*hir.Block][]*Object),
		LoopEnds: make(map[*hir.Stmt][]*Object),
		Params:   make(map[string]*Var),
	}
	plan.IsMain = f.Name == "main" && !f.Class.IsValid() && len(f.Scope) == 0
	return &funcPlanner{
		p:       p,
		in:      p.Table.Types,
		plan:    plan,
		caller:  f,
		dtor:    f.Kind == symbols.FuncDtor,
		statics: map[string]bool{},
	}
}

func (fp *funcPlanner) fail(err error) {
	if err != nil {
		fp.errs = append(fp.errs, err)
	}
}

func (fp *funcPlanner) failf(code diag.Code, sp source.Span, format string, args ...any) {
	fp.fail(diag.Errorf(code, sp, format, args...))
}

func (fp *funcPlanner) err() error {
	return errors.Join(fp.errs...)
}

func (fp *funcPlanner) push(kind scopeKind) *scope {
	s := &scope{kind: kind, vars: map[string]*Var{}}
	fp.scopes = append(fp.scopes, s)
	return s
}

func (fp *funcPlanner) pop() *scope {
	s := fp.scopes[len(fp.scopes)-1]
	fp.scopes = fp.scopes[:len(fp.scopes)-1]
	return s
}

func (fp *funcPlanner) top() *scope { return fp.scopes[len(fp.scopes)-1] }

func (fp *funcPlanner) lookup(name string) (*Var, bool) {
	for i := len(fp.scopes) - 1; i >= 0; i-- {
		if v, ok := fp.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// typeOf applies the instance substitution to a type of the body.
func (fp *funcPlanner) typeOf(id types.TypeID) types.TypeID {
	return fp.plan.Instance.Type(id)
}

// valueClass returns the class of a by-value class type, nil for scalars,
// pointers and references.
func (p *Planner) valueClass(id types.TypeID) *symbols.Class {
	id = p.Table.Types.Unqualified(id)
	if p.Table.Types.Kind(id) != types.KindClass {
		return nil
	}
	return p.Table.ClassOfType(id)
}

func (fp *funcPlanner) valueClass(id types.TypeID) *symbols.Class {
	return fp.p.valueClass(fp.typeOf(id))
}

// exprClass is the class of an expression's value (references looked
// through).
func (fp *funcPlanner) exprClass(e *hir.Expr) *symbols.Class {
	if e == nil {
		return nil
	}
	return fp.valueClass(fp.in.StripRef(e.Type))
}

// layoutOf returns the flattened layout; a failed class poisons the caller.
func (p *Planner) layoutOf(c *symbols.Class) (*layout.ClassLayout, error) {
	l, err := p.Layouts.Flatten(c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: class %s", diag.ErrPoisoned, c.QualifiedName())
	}
	return l, nil
}

// CleanupName is the mangled cleanup procedure of c.
func (p *Planner) CleanupName(c *symbols.Class) (string, error) {
	return p.Mangler.Mangle(mangle.CleanupKey(c))
}

func (fp *funcPlanner) object(name string, c *symbols.Class, sp source.Span) *Object {
	cleanup, err := fp.p.CleanupName(c)
	if err != nil {
		fp.failf(diag.LowUnsupportedConstruct, sp, "cleanup of %s: %v", c.QualifiedName(), err)
	}
	if _, err := fp.p.layoutOf(c); err != nil {
		fp.fail(err)
	}
	return &Object{Name: name, Class: c, Cleanup: cleanup, Span: sp}
}

// localName keeps source names unless they clash with names the lowering
// introduces.
func localName(name string) string {
	if name == "self" || strings.HasPrefix(name, "__") {
		return name + "_"
	}
	return name
}

func (fp *funcPlanner) newTemp() string {
	n := fmt.Sprintf("__tmp%d", fp.temps)
	fp.temps++
	return n
}

func (fp *funcPlanner) newRet() string {
	n := fmt.Sprintf("__ret%d", fp.rets)
	fp.rets++
	return n
}

// params registers the parameters in the function scope; by-value class
// parameters are owned by it.
func (fp *funcPlanner) params(params []types.TypeID) {
	root := fp.top()
	for i, prm := range fp.caller.Params {
		t := prm.Type
		if i < len(params) {
			t = params[i]
		}
		v := &Var{Name: localName(prm.Name), Ref: fp.in.IsRef(t), Type: t}
		fp.plan.Params[prm.Name] = v
		root.vars[prm.Name] = v
		if c := fp.valueClass(t); c != nil {
			obj := fp.object(v.Name, c, prm.Span)
			fp.plan.Owned = append(fp.plan.Owned, obj)
			root.objects = append(root.objects, obj)
		}
	}
}

// PlanFunc schedules the body of a free function, member function or
// template instance (inst non-nil).
func (p *Planner) PlanFunc(f *symbols.Func, inst *mono.Instance) (*FuncPlan, error) {
	name := ""
	params := f.ParamTypes()
	if inst != nil {
		name = inst.Name
		params = inst.Params
	} else {
		n, err := p.Resolver.Callee(f)
		if err != nil {
			return nil, diag.Errorf(diag.LowUnsupportedConstruct, f.Span, "%s: %v", p.Table.OverloadKey(f), err)
		}
		name = n
	}
	if c := p.Table.Class(f.Class); c != nil {
		if _, err := p.layoutOf(c); err != nil {
			return nil, err
		}
	}
	fp := p.newFuncPlanner(f, inst, name)
	fp.push(scopeFunc)
	fp.params(params)
	if f.Body != nil {
		fp.body(f.Body)
	}
	fp.pop()
	return fp.plan, fp.err()
}

// body walks the outermost block; the function scope ends with it.
func (fp *funcPlanner) body(b *hir.Block) {
	fp.block(b, scopeBlock)
	// parameters die after the body's own objects
	root := fp.scopes[0]
	fp.plan.Ends[b] = append(fp.plan.Ends[b], reversed(root.objects)...)
}

func reversed(objs []*Object) []*Object {
	out := make([]*Object, 0, len(objs))
	for i := len(objs) - 1; i >= 0; i-- {
		out = append(out, objs[i])
	}
	return out
}
