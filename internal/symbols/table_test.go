package symbols

import (
	"testing"

	"xclower/internal/types"
)

func newTable() *Table {
	return NewTable(types.NewInterner(types.DefaultDataModel()), nil)
}

func TestOverloadSetsKeepDeclarationOrder(t *testing.T) {
	tab := newTable()
	b := tab.Types.Builtins()
	mu := tab.AddClass(&Class{Name: "MathUtils"})
	first := tab.AddFunc(&Func{Name: "add", Kind: FuncStatic, Class: mu, Params: []Param{{Name: "a", Type: b.Int}, {Name: "b", Type: b.Int}}})
	second := tab.AddFunc(&Func{Name: "add", Kind: FuncStatic, Class: mu, Params: []Param{{Name: "a", Type: b.Float}, {Name: "b", Type: b.Float}}})
	op := tab.AddFunc(&Func{Name: "operator+", Operator: "+", Kind: FuncMethod, Class: mu})

	got := tab.Overloads("MathUtils::add")
	if len(got) != 2 || got[0] != first || got[1] != second {
		t.Fatalf("overloads: %v", got)
	}
	if ids := tab.Overloads("MathUtils::operator+"); len(ids) != 1 || ids[0] != op {
		t.Fatalf("operator key: %v", ids)
	}
	if c := tab.Class(mu); len(c.Methods) != 3 {
		t.Fatalf("methods not linked: %v", c.Methods)
	}
}

func TestLookupClassInnermostFirst(t *testing.T) {
	tab := newTable()
	outer := tab.AddClass(&Class{Name: "Pin"})
	inner := tab.AddClass(&Class{Name: "Pin", Scope: []string{"hw"}})
	if id, ok := tab.LookupClass("Pin", []string{"hw"}); !ok || id != inner {
		t.Fatalf("expected hw::Pin, got %d", id)
	}
	if id, ok := tab.LookupClass("Pin", nil); !ok || id != outer {
		t.Fatalf("expected ::Pin, got %d", id)
	}
	if _, ok := tab.LookupClass("Led", []string{"hw"}); ok {
		t.Fatalf("unknown class resolved")
	}
}

func TestDerivesFromAndCycles(t *testing.T) {
	tab := newTable()
	a := tab.AddClass(&Class{Name: "A", BaseNames: []string{"B"}})
	b := tab.AddClass(&Class{Name: "B", BaseNames: []string{"A"}})
	c := tab.AddClass(&Class{Name: "C", BaseNames: []string{"Missing"}})
	tab.ResolveBases()

	if !tab.DerivesFrom(a, b) || !tab.DerivesFrom(b, a) {
		t.Fatalf("cyclic bases must still be walked")
	}
	if tab.DerivesFrom(c, a) {
		t.Fatalf("unrelated")
	}
	if got := tab.Class(c).Bases; len(got) != 1 || got[0].IsValid() {
		t.Fatalf("unknown base must resolve to NoClassID, got %v", got)
	}
}

func TestImplicitCtor(t *testing.T) {
	tab := newTable()
	id := tab.AddClass(&Class{Name: "Plain"})
	c := tab.Class(id)
	tab.EnsureImplicitCtor(c)
	tab.EnsureImplicitCtor(c)
	if len(c.Ctors) != 1 || !tab.Func(c.Ctors[0]).Implicit {
		t.Fatalf("expected one implicit ctor, got %v", c.Ctors)
	}
	if tab.DefaultCtor(c) == nil {
		t.Fatalf("implicit ctor must be the default ctor")
	}
}
