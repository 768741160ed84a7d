package layout

import (
	"errors"
	"testing"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

type fixture struct {
	tab *symbols.Table
	eng *Engine
}

func newFixture() *fixture {
	tab := symbols.NewTable(types.NewInterner(types.DefaultDataModel()), nil)
	return &fixture{tab: tab, eng: New(tab, mangle.New(), TargetFor(tab.Types.Model(), 1))}
}

func (f *fixture) class(name string, base string, fields ...string) symbols.ClassID {
	c := &symbols.Class{Name: name}
	if base != "" {
		c.BaseNames = []string{base}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		id, err := f.tab.Types.Parse(fields[i+1], func(n string) (types.TypeID, bool) {
			return f.tab.Types.Class(n), true
		})
		if err != nil {
			panic(err)
		}
		c.Fields = append(c.Fields, symbols.Field{Name: fields[i], Type: id})
	}
	return f.tab.AddClass(c)
}

func TestPrefixProperty(t *testing.T) {
	f := newFixture()
	device := f.class("Device", "", "id", "uint8_t", "enabled", "bool")
	sensor := f.class("Sensor", "Device", "reading", "int")
	thermo := f.class("Thermo", "Sensor", "scale", "float")
	f.tab.ResolveBases()

	base, err := f.eng.Flatten(device)
	if err != nil {
		t.Fatal(err)
	}
	mid, err := f.eng.Flatten(sensor)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := f.eng.Flatten(thermo)
	if err != nil {
		t.Fatal(err)
	}
	for _, pair := range [][2]*ClassLayout{{base, mid}, {mid, leaf}, {base, leaf}} {
		b, d := pair[0], pair[1]
		if d.Prefix < len(b.Slots) {
			t.Fatalf("%s prefix %d shorter than %s", d.Name, d.Prefix, b.Name)
		}
		for i, s := range b.Slots {
			if d.Slots[i] != s {
				t.Fatalf("%s slot %d = %+v, want %+v", d.Name, i, d.Slots[i], s)
			}
		}
	}
	if len(leaf.Slots) != 4 || leaf.Slots[3].Name != "scale" {
		t.Fatalf("unexpected leaf slots %+v", leaf.Slots)
	}
	// uint8_t + bool + int(16) + float(32), packed
	if leaf.Size != 1+1+2+4 {
		t.Fatalf("size %d", leaf.Size)
	}
	if leaf.Slots[3].Offset != 4 {
		t.Fatalf("offset of scale %d", leaf.Slots[3].Offset)
	}
}

func TestRootClassHasEmptyPrefix(t *testing.T) {
	f := newFixture()
	id := f.class("Empty", "")
	l, err := f.eng.Flatten(id)
	if err != nil {
		t.Fatal(err)
	}
	if l.Prefix != 0 || len(l.Slots) != 0 || l.Size != 1 || l.Struct != "Empty" {
		t.Fatalf("unexpected layout %+v", l)
	}
}

func TestShadowedFieldRenamed(t *testing.T) {
	f := newFixture()
	base := f.class("Base", "", "value", "int", "Derived_value", "int")
	derived := f.class("Derived", "Base", "value", "int")
	f.tab.ResolveBases()

	l, err := f.eng.Flatten(derived)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{l.Slots[0].Target, l.Slots[1].Target, l.Slots[2].Target}
	want := []string{"value", "Derived_value", "Derived_value_2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("targets %v, want %v", got, want)
		}
	}
	if s, ok := l.Lookup(base, "value"); !ok || s.Target != "value" {
		t.Fatalf("base lookup %+v", s)
	}
	if s, ok := l.LookupName("value"); !ok || s.Owner != derived {
		t.Fatalf("most derived lookup %+v", s)
	}
	if s, ok := l.Lookup(derived, "value"); !ok || s.Target != "Derived_value_2" {
		t.Fatalf("derived lookup %+v", s)
	}
}

func TestInheritanceCycle(t *testing.T) {
	f := newFixture()
	a := f.class("A", "B")
	b := f.class("B", "A")
	c := f.class("C", "A")
	f.tab.ResolveBases()

	_, errA := f.eng.Flatten(a)
	_, errB := f.eng.Flatten(b)
	_, errC := f.eng.Flatten(c)

	if diag.CodeOf(errA) != diag.LowInheritanceCycle {
		t.Fatalf("A: %v", errA)
	}
	if errA != errB {
		t.Fatalf("members of one cycle must share one error")
	}
	var le *LayoutError
	if !errors.As(errA, &le) || len(le.Cycle) != 3 || le.Cycle[0] != le.Cycle[2] {
		t.Fatalf("cycle path %v", le)
	}
	if !errors.Is(errC, diag.ErrPoisoned) {
		t.Fatalf("derived of a cycle must be poisoned, got %v", errC)
	}
}

func TestSelfInheritance(t *testing.T) {
	f := newFixture()
	a := f.class("Loop", "Loop")
	f.tab.ResolveBases()
	_, err := f.eng.Flatten(a)
	if diag.CodeOf(err) != diag.LowInheritanceCycle {
		t.Fatalf("got %v", err)
	}
}

func TestRejectedShapes(t *testing.T) {
	f := newFixture()
	f.class("A", "")
	f.class("B", "")
	multi := f.tab.AddClass(&symbols.Class{Name: "M", BaseNames: []string{"A", "B"}})
	unknown := f.class("U", "Nope")
	tmpl := f.tab.AddClass(&symbols.Class{Name: "Buffer", TemplateParams: []symbols.TemplateParam{{Name: "T"}}})
	virt := f.class("V", "")
	f.tab.AddFunc(&symbols.Func{Name: "run", Kind: symbols.FuncMethod, Class: virt, Virtual: true})
	node := f.class("Node", "", "next", "Node")
	f.tab.ResolveBases()

	cases := []struct {
		id   symbols.ClassID
		code diag.Code
	}{
		{multi, diag.LowUnsupportedConstruct},
		{unknown, diag.InputUnknownSymbol},
		{tmpl, diag.LowUnsupportedConstruct},
		{virt, diag.LowUnsupportedConstruct},
		{node, diag.LowUnsupportedConstruct},
	}
	for _, c := range cases {
		_, err := f.eng.Flatten(c.id)
		if got := diag.CodeOf(err); got != c.code {
			t.Fatalf("%s: got %v (%v)", f.tab.Class(c.id).Name, got, err)
		}
	}
}

func TestIdempotentLayouts(t *testing.T) {
	build := func() *ClassLayout {
		f := newFixture()
		f.class("Device", "", "id", "uint8_t")
		id := f.class("Led", "Device", "pin", "uint8_t", "level", "unsigned int")
		f.tab.ResolveBases()
		l, err := f.eng.Flatten(id)
		if err != nil {
			t.Fatal(err)
		}
		return l
	}
	a, b := build(), build()
	if len(a.Slots) != len(b.Slots) || a.Size != b.Size || a.Struct != b.Struct {
		t.Fatalf("layouts differ: %+v vs %+v", a, b)
	}
	for i := range a.Slots {
		if a.Slots[i] != b.Slots[i] {
			t.Fatalf("slot %d differs", i)
		}
	}
}

func TestAlignment(t *testing.T) {
	f := newFixture()
	f.eng.Target = Target{PtrSize: 4, MaxAlign: 4}
	id := f.class("Mixed", "", "flag", "char", "count", "long", "ptr", "char*")
	l, err := f.eng.Flatten(id)
	if err != nil {
		t.Fatal(err)
	}
	if l.Slots[1].Offset != 4 || l.Slots[2].Offset != 8 || l.Size != 12 || l.Align != 4 {
		t.Fatalf("layout %+v", l)
	}
}
