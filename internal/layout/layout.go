// Package layout flattens single-inheritance class hierarchies into plain
// aggregates. A derived layout always starts with its base's layout, slot for
// slot, so a pointer to the derived aggregate is usable as a pointer to the
// base aggregate.
package layout

import (
	"fmt"
	"sync"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// Slot is one member of a flattened aggregate.
type Slot struct {
	// Name is the field name in the declaring class, Target the member name
	// in the aggregate (they differ when a derived class shadows a base field).
	Name   string
	Target string
	Owner  symbols.ClassID
	Type   types.TypeID
	Offset int
	Size   int
	Align  int
}

// ClassLayout is the flattened form of one class.
type ClassLayout struct {
	Class  symbols.ClassID
	Name   string // qualified source name
	Struct string // mangled aggregate name
	Base   symbols.ClassID
	Slots  []Slot
	// Prefix is the number of leading slots inherited from the base chain.
	Prefix int
	Size   int
	Align  int
}

// Lookup finds the slot contributed by owner for field.
func (l *ClassLayout) Lookup(owner symbols.ClassID, field string) (Slot, bool) {
	for _, s := range l.Slots {
		if s.Owner == owner && s.Name == field {
			return s, true
		}
	}
	return Slot{}, false
}

// LookupName finds the most derived slot named field.
func (l *ClassLayout) LookupName(field string) (Slot, bool) {
	for i := len(l.Slots) - 1; i >= 0; i-- {
		if l.Slots[i].Name == field {
			return l.Slots[i], true
		}
	}
	return Slot{}, false
}

// Engine computes and memoizes class layouts.
type Engine struct {
	Table   *symbols.Table
	Mangler *mangle.Mangler
	Target  Target

	mu    sync.Mutex
	cache *cache
}

// New creates an Engine over the table.
func New(tab *symbols.Table, m *mangle.Mangler, target Target) *Engine {
	return &Engine{
		Table:   tab,
		Mangler: m,
		Target:  target,
		cache:   newCache(),
	}
}

type layoutState struct {
	stack []symbols.ClassID
	index map[symbols.ClassID]int
}

func newLayoutState() *layoutState {
	return &layoutState{index: make(map[symbols.ClassID]int, 8)}
}

// Flatten returns the layout of class id, computing the base chain first.
func (e *Engine) Flatten(id symbols.ClassID) (*ClassLayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.flatten(id, newLayoutState(), true)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Cached returns a layout computed earlier without computing anything.
func (e *Engine) Cached(id symbols.ClassID) (*ClassLayout, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.cache.get(id)
	if !ok || ent.err != nil {
		return nil, false
	}
	return ent.layout, true
}

// flatten computes the layout of id. viaBase tells whether id is reached as
// a base (a cycle is an inheritance cycle) or as a by-value member type (a
// cycle means infinite size).
func (e *Engine) flatten(id symbols.ClassID, state *layoutState, viaBase bool) (*ClassLayout, *LayoutError) {
	c := e.Table.Class(id)
	if c == nil {
		panic(fmt.Sprintf("layout: unknown class#%d", id))
	}
	if ent, ok := e.cache.get(id); ok {
		return ent.layout, ent.err
	}
	if idx, ok := state.index[id]; ok {
		if !viaBase {
			return nil, &LayoutError{Kind: LayoutErrRecursiveValue, Class: id}
		}
		cycle := append(append([]symbols.ClassID(nil), state.stack[idx:]...), id)
		err := e.cycleError(c, cycle)
		for _, member := range cycle[:len(cycle)-1] {
			e.cache.put(member, entry{err: err})
		}
		return nil, err
	}

	state.index[id] = len(state.stack)
	state.stack = append(state.stack, id)
	l, err := e.compute(c, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, id)

	if prev, ok := e.cache.get(id); ok && prev.err != nil {
		// a cycle closed through this class while it was on the stack
		return nil, prev.err
	}
	e.cache.put(id, entry{layout: l, err: err})
	return l, err
}

func (e *Engine) compute(c *symbols.Class, state *layoutState) (*ClassLayout, *LayoutError) {
	if err := e.check(c); err != nil {
		return nil, err
	}
	structName, mErr := e.Mangler.Mangle(mangle.StructKey(c))
	if mErr != nil {
		return nil, e.fail(LayoutErrClassTemplate, c, diag.LowUnsupportedConstruct, "class %s: %v", c.QualifiedName(), mErr)
	}
	out := &ClassLayout{Class: c.ID, Name: c.QualifiedName(), Struct: structName, Align: 1}

	taken := map[string]bool{}
	if len(c.Bases) == 1 {
		base, err := e.flatten(c.Bases[0], state, true)
		if err != nil {
			if err.Kind == LayoutErrInheritanceCycle && inCycle(err, c.QualifiedName()) {
				return nil, err
			}
			return nil, &LayoutError{Kind: LayoutErrPoisoned, Class: c.ID}
		}
		out.Base = base.Class
		out.Slots = append(out.Slots, base.Slots...)
		out.Prefix = len(base.Slots)
		out.Size = base.Size
		out.Align = base.Align
		for _, s := range base.Slots {
			taken[s.Target] = true
		}
	}

	for _, f := range c.Fields {
		size, align, err := e.sizeOf(f.Type, state)
		if err != nil {
			if err.Kind == LayoutErrRecursiveValue {
				return nil, e.fail(LayoutErrRecursiveValue, c, diag.LowUnsupportedConstruct,
					"class %s contains itself by value through field %s", c.QualifiedName(), f.Name)
			}
			return nil, &LayoutError{Kind: LayoutErrPoisoned, Class: c.ID}
		}
		target := f.Name
		if taken[target] {
			target = c.Name + "_" + f.Name
			for n := 2; taken[target]; n++ {
				target = fmt.Sprintf("%s_%s_%d", c.Name, f.Name, n)
			}
		}
		taken[target] = true
		offset := roundUp(out.Size, align)
		out.Slots = append(out.Slots, Slot{
			Name:   f.Name,
			Target: target,
			Owner:  c.ID,
			Type:   f.Type,
			Offset: offset,
			Size:   size,
			Align:  align,
		})
		out.Size = offset + size
		out.Align = max(out.Align, align)
	}
	out.Size = roundUp(out.Size, out.Align)
	if out.Size == 0 {
		// empty aggregates still occupy one byte
		out.Size = 1
	}
	return out, nil
}

func inCycle(err *LayoutError, name string) bool {
	for _, n := range err.Cycle {
		if n == name {
			return true
		}
	}
	return false
}

// check rejects classes outside the single-inheritance, non-virtual subset.
func (e *Engine) check(c *symbols.Class) *LayoutError {
	switch {
	case len(c.TemplateParams) > 0:
		return e.fail(LayoutErrClassTemplate, c, diag.LowUnsupportedConstruct, "class template %s is not supported", c.QualifiedName())
	case c.VirtualBase:
		return e.fail(LayoutErrVirtualBase, c, diag.LowUnsupportedConstruct, "virtual inheritance in %s is not supported", c.QualifiedName())
	case len(c.BaseNames) > 1:
		return e.fail(LayoutErrMultipleBases, c, diag.LowUnsupportedConstruct,
			"class %s has %d bases; only single inheritance is supported", c.QualifiedName(), len(c.BaseNames))
	case len(c.BaseNames) == 1 && (len(c.Bases) == 0 || !c.Bases[0].IsValid()):
		return e.fail(LayoutErrUnknownBase, c, diag.InputUnknownSymbol, "base class %s of %s is not declared", c.BaseNames[0], c.QualifiedName())
	}
	ids := append(append([]symbols.FuncID{}, c.Methods...), c.Dtor)
	for _, id := range ids {
		if f := e.Table.Func(id); f != nil && f.Virtual {
			return e.fail(LayoutErrVirtualDispatch, c, diag.LowUnsupportedConstruct,
				"virtual function %s::%s needs dynamic dispatch", c.QualifiedName(), f.Name).
				withNote(f)
		}
	}
	return nil
}

func (le *LayoutError) withNote(f *symbols.Func) *LayoutError {
	le.Diag.WithNote(f.Span, "declared virtual here")
	return le
}
