// Package mono owns the function-template instantiations of one run.
//
// Instances are memoized by (template, arguments). The resolver asks for an
// instance when it picks a template candidate; the driver drains new
// instances in rounds and lowers their bodies, which may request further
// instances. A request that is already on its own request chain, or a chain
// deeper than MaxDepth, fails with TemplateInstantiationCycle.
package mono

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// DefaultMaxDepth bounds nested instantiation requests.
const DefaultMaxDepth = 32

type instKey struct {
	fn   symbols.FuncID
	args string
}

// Table memoizes instances. It is shared by units lowering in parallel.
type Table struct {
	Symbols  *symbols.Table
	Mangler  *mangle.Mangler
	MaxDepth int

	mu      sync.Mutex
	byKey   map[instKey]*Instance
	all     []*Instance
	pending []*Instance
}

// NewTable creates an empty instantiation table.
func NewTable(tab *symbols.Table, m *mangle.Mangler, maxDepth int) *Table {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Table{
		Symbols:  tab,
		Mangler:  m,
		MaxDepth: maxDepth,
		byKey:    make(map[instKey]*Instance),
	}
}

// Ensure returns the instance of fn for args, creating it on first request.
// parent is the instance whose body makes the request (nil from ordinary
// code). A repeated request from elsewhere gets the existing instance; a
// request made while that same instance is still being instantiated up the
// parent chain is a cycle.
func (t *Table) Ensure(fn symbols.FuncID, args []Arg, site source.Span, parent *Instance) (*Instance, error) {
	f := t.Symbols.Func(fn)
	if f == nil || !f.IsTemplate() {
		return nil, fmt.Errorf("mono: function#%d is not a template", fn)
	}
	if len(args) != len(f.TemplateParams) {
		return nil, diag.Errorf(diag.LowUnresolvedTemplateParameter, site,
			"%s expects %d template arguments, got %d", t.Symbols.OverloadKey(f), len(f.TemplateParams), len(args))
	}
	key := instKey{fn: fn, args: argsKey(args)}

	t.mu.Lock()
	defer t.mu.Unlock()
	if inst, ok := t.byKey[key]; ok {
		if parent.requests(key) {
			return nil, t.selfCycleError(f, inst, parent, site)
		}
		return inst, nil
	}

	depth := 1
	if parent != nil {
		depth = parent.Depth + 1
	}
	inst := &Instance{
		Template: fn,
		Args:     slices.Clone(args),
		Site:     site,
		Parent:   parent,
		Depth:    depth,
	}
	if depth > t.MaxDepth {
		return nil, t.cycleError(f, inst)
	}

	inst.Values = make(map[string]string)
	bind := make(map[string]types.TypeID)
	for i, p := range f.TemplateParams {
		if p.IsValue {
			inst.Values[p.Name] = args[i].Value
			continue
		}
		bind[p.Name] = args[i].Type
	}
	inst.Subst = types.NewSubst(t.Symbols.Types, bind)
	for _, p := range f.Params {
		inst.Params = append(inst.Params, inst.Subst.Type(p.Type))
	}
	inst.Result = inst.Subst.Type(f.Result)

	k, err := mangle.FuncKey(t.Symbols, f, inst.Params, MangleArgs(t.Symbols.Types, args))
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, site, "%s: %v", inst.Display(t.Symbols), err)
	}
	name, err := t.Mangler.Mangle(k)
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, site, "%s: %v", inst.Display(t.Symbols), err)
	}
	inst.Name = name
	inst.Seq = len(t.all)

	t.byKey[key] = inst
	t.all = append(t.all, inst)
	t.pending = append(t.pending, inst)
	return inst, nil
}

func (t *Table) cycleError(f *symbols.Func, inst *Instance) *diag.Error {
	chain := inst.Chain()
	names := make([]string, 0, len(chain))
	for _, c := range chain {
		names = append(names, c.Display(t.Symbols))
	}
	err := diag.Errorf(diag.LowTemplateInstantiationCycle, chain[0].Site,
		"instantiation of %s exceeds depth %d", t.Symbols.OverloadKey(f), t.MaxDepth)
	// the notes show where the chain starts repeating
	for i, c := range chain {
		if i == 0 || i > 3 && i < len(chain)-2 {
			continue
		}
		err.WithNote(c.Site, "required by "+names[i])
	}
	err.WithNote(source.Span{}, "chain: "+strings.Join(names[:min(len(names), 6)], " -> ")+" ...")
	return err
}

func (t *Table) selfCycleError(f *symbols.Func, inst, parent *Instance, site source.Span) *diag.Error {
	err := diag.Errorf(diag.LowTemplateInstantiationCycle, site,
		"%s requires itself while it is being instantiated", inst.Display(t.Symbols))
	var names []string
	for _, c := range parent.Chain() {
		names = append(names, c.Display(t.Symbols))
		if c != inst {
			err.WithNote(c.Site, "required by "+c.Display(t.Symbols))
		}
	}
	names = append(names, inst.Display(t.Symbols))
	err.WithNote(f.Span, "chain: "+strings.Join(names, " -> "))
	return err
}

// requests reports whether key is i or one of the instances that asked for it.
func (i *Instance) requests(key instKey) bool {
	for c := i; c != nil; c = c.Parent {
		if c.Template == key.fn && argsKey(c.Args) == key.args {
			return true
		}
	}
	return false
}

// Drain returns the instances created since the previous call, ordered by
// template declaration and mangled name so lowering order does not depend
// on which unit asked first.
func (t *Table) Drain() []*Instance {
	t.mu.Lock()
	out := t.pending
	t.pending = nil
	t.mu.Unlock()
	slices.SortFunc(out, compareInstances)
	return out
}

// All returns every instance in the canonical order.
func (t *Table) All() []*Instance {
	t.mu.Lock()
	out := slices.Clone(t.all)
	t.mu.Unlock()
	slices.SortFunc(out, compareInstances)
	return out
}

// Len reports how many instances exist.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.all)
}

func compareInstances(a, b *Instance) int {
	if c := cmp.Compare(a.Template, b.Template); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
