// Package rewrite turns lifetime plans into lir procedures. Every call
// site, variable and field it meets has been bound by the planner; the
// rewriter only spells the result out: receivers become explicit pointers,
// references become pointers, operators and constructions become direct
// procedure calls, and scope exits get their cleanup calls.
package rewrite

import (
	"fmt"
	"strings"

	"xclower/internal/layout"
	"xclower/internal/lifetime"
	"xclower/internal/lir"
	"xclower/internal/mangle"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// Rewriter emits lir for planned units. It reads the symbol table and the
// layout cache and holds no per-unit state, so units may be rewritten
// concurrently.
type Rewriter struct {
	Table   *symbols.Table
	Layouts *layout.Engine
	Mangler *mangle.Mangler
	// StaticInit tells that the program has a static initialization
	// procedure; main calls it first.
	StaticInit bool
}

// New creates a rewriter.
func New(tab *symbols.Table, layouts *layout.Engine, m *mangle.Mangler) *Rewriter {
	return &Rewriter{Table: tab, Layouts: layouts, Mangler: m}
}

// Output is what one unit contributes to the program.
type Output struct {
	Structs    []*lir.Struct
	Globals    []*lir.Global
	Procs      []*lir.Proc
	Directives []lir.Directive
}

// Type spells a source type in the target: references become pointers to
// the referenced type, classes become their aggregate names, and top-level
// const is dropped.
func (rw *Rewriter) Type(id types.TypeID) lir.Type {
	in := rw.Table.Types
	if in.IsRef(id) {
		id = in.Pointer(in.Elem(id))
	} else {
		id = in.Unqualified(id)
	}
	return lir.Type(in.SpellWith(id, rw.structName))
}

func (rw *Rewriter) structName(class string) string {
	id, ok := rw.Table.ClassByName(class)
	if !ok {
		return class
	}
	if l, ok := rw.Layouts.Cached(id); ok {
		return l.Struct
	}
	if name, err := rw.Mangler.Mangle(mangle.StructKey(rw.Table.Class(id))); err == nil {
		return name
	}
	return class
}

// classType is the aggregate type of c.
func (rw *Rewriter) classType(c *symbols.Class) lir.Type {
	return lir.Type(rw.structName(c.QualifiedName()))
}

// valueClass returns the class of a by-value class type.
func (rw *Rewriter) valueClass(id types.TypeID) *symbols.Class {
	in := rw.Table.Types
	id = in.Unqualified(id)
	if in.Kind(id) != types.KindClass {
		return nil
	}
	return rw.Table.ClassOfType(id)
}

// Struct converts a flattened layout into an aggregate definition.
func (rw *Rewriter) Struct(l *layout.ClassLayout) *lir.Struct {
	s := &lir.Struct{Name: l.Struct, Source: l.Name, Size: l.Size, Align: l.Align}
	if base := rw.Table.Class(l.Base); base != nil {
		s.Base = string(rw.classType(base))
	}
	for _, slot := range l.Slots {
		origin := slot.Name
		if owner := rw.Table.Class(slot.Owner); owner != nil {
			origin = owner.QualifiedName() + "::" + slot.Name
		}
		s.Fields = append(s.Fields, lir.Field{
			Name:   slot.Target,
			Type:   rw.Type(slot.Type),
			Offset: slot.Offset,
			Origin: origin,
		})
	}
	return s
}

// sameBase compares pointer types ignoring const on the pointee.
func sameBase(a, b lir.Type) bool {
	return strings.TrimPrefix(string(a), "const ") == strings.TrimPrefix(string(b), "const ")
}

// display is the source-level name of a planned procedure.
func (rw *Rewriter) display(plan *lifetime.FuncPlan) string {
	if plan.Instance != nil {
		return plan.Instance.Display(rw.Table)
	}
	f := plan.Func
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = rw.Table.Types.Spell(p.Type)
	}
	return fmt.Sprintf("%s(%s)", rw.Table.OverloadKey(f), strings.Join(params, ", "))
}
