package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"xclower/internal/source"
	"xclower/internal/types"
)

// Table is the read-only symbol table the front end hands to the lowering:
// classes, overload sets and globals, each in declaration order. The zero
// index of every arena is a sentinel.
type Table struct {
	Types *types.Interner
	Files *source.FileSet

	classes []*Class
	funcs   []*Func
	globals []*Global

	classByName  map[string]ClassID
	globalByName map[string]GlobalID
	overloads    map[string][]FuncID
}

// NewTable builds an empty table over the given interner and file set.
func NewTable(in *types.Interner, files *source.FileSet) *Table {
	if files == nil {
		files = source.NewFileSet()
	}
	return &Table{
		Types:        in,
		Files:        files,
		classes:      []*Class{nil},
		funcs:        []*Func{nil},
		globals:      []*Global{nil},
		classByName:  make(map[string]ClassID),
		globalByName: make(map[string]GlobalID),
		overloads:    make(map[string][]FuncID),
	}
}

func nextID(n int) uint32 {
	id, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("symbol arena overflow: %w", err))
	}
	return id
}

// AddClass registers a class. Bases are resolved later by ResolveBases.
func (t *Table) AddClass(c *Class) ClassID {
	c.ID = ClassID(nextID(len(t.classes)))
	t.classes = append(t.classes, c)
	t.classByName[c.QualifiedName()] = c.ID
	return c.ID
}

// AddFunc registers a function and links members into their class.
func (t *Table) AddFunc(f *Func) FuncID {
	f.ID = FuncID(nextID(len(t.funcs)))
	t.funcs = append(t.funcs, f)
	key := t.OverloadKey(f)
	t.overloads[key] = append(t.overloads[key], f.ID)
	if c := t.Class(f.Class); c != nil {
		switch f.Kind {
		case FuncCtor:
			c.Ctors = append(c.Ctors, f.ID)
		case FuncDtor:
			c.Dtor = f.ID
		default:
			c.Methods = append(c.Methods, f.ID)
		}
	}
	return f.ID
}

// AddGlobal registers a namespace-scope variable.
func (t *Table) AddGlobal(g *Global) GlobalID {
	g.ID = GlobalID(nextID(len(t.globals)))
	t.globals = append(t.globals, g)
	t.globalByName[g.QualifiedName()] = g.ID
	return g.ID
}

// OverloadKey is the qualified name an overload set is keyed by:
// "f", "ns::f", "Point::operator+", "Counter::Counter".
func (t *Table) OverloadKey(f *Func) string {
	name := f.Name
	if f.IsOperator() {
		name = "operator" + f.Operator
	}
	if c := t.Class(f.Class); c != nil {
		return c.QualifiedName() + "::" + name
	}
	return Qualify(f.Scope, name)
}

// ResolveBases maps every class's BaseNames to ids, searching the class's
// enclosing namespaces innermost first.
func (t *Table) ResolveBases() {
	for _, c := range t.Classes() {
		c.Bases = c.Bases[:0]
		for _, name := range c.BaseNames {
			id, _ := t.LookupClass(name, c.Scope)
			c.Bases = append(c.Bases, id)
		}
	}
}

// Class returns the class for id, nil for the sentinel or unknown ids.
func (t *Table) Class(id ClassID) *Class {
	if !id.IsValid() || int(id) >= len(t.classes) {
		return nil
	}
	return t.classes[id]
}

// Func returns the function for id.
func (t *Table) Func(id FuncID) *Func {
	if !id.IsValid() || int(id) >= len(t.funcs) {
		return nil
	}
	return t.funcs[id]
}

// Global returns the global for id.
func (t *Table) Global(id GlobalID) *Global {
	if !id.IsValid() || int(id) >= len(t.globals) {
		return nil
	}
	return t.globals[id]
}

// Classes lists classes in declaration order.
func (t *Table) Classes() []*Class { return t.classes[1:] }

// Funcs lists functions in declaration order.
func (t *Table) Funcs() []*Func { return t.funcs[1:] }

// Globals lists globals in declaration order.
func (t *Table) Globals() []*Global { return t.globals[1:] }

// ClassByName looks a class up by its fully qualified name.
func (t *Table) ClassByName(name string) (ClassID, bool) {
	id, ok := t.classByName[name]
	return id, ok
}

// LookupClass resolves name as seen from scope: innermost namespace first.
func (t *Table) LookupClass(name string, scope []string) (ClassID, bool) {
	for i := len(scope); i >= 0; i-- {
		if id, ok := t.classByName[Qualify(scope[:i], name)]; ok {
			return id, true
		}
	}
	return NoClassID, false
}

// LookupGlobal resolves a global name as seen from scope.
func (t *Table) LookupGlobal(name string, scope []string) (GlobalID, bool) {
	for i := len(scope); i >= 0; i-- {
		if id, ok := t.globalByName[Qualify(scope[:i], name)]; ok {
			return id, true
		}
	}
	return NoGlobalID, false
}

// Overloads returns the overload set stored under a qualified name.
func (t *Table) Overloads(qualified string) []FuncID {
	return t.overloads[qualified]
}

// Base returns the single resolved base of c.
func (t *Table) Base(c *Class) *Class {
	if c == nil || len(c.Bases) == 0 {
		return nil
	}
	return t.Class(c.Bases[0])
}

// ClassOfType returns the class named by a class (or reference/pointer to
// class) type.
func (t *Table) ClassOfType(id types.TypeID) *Class {
	name := t.Types.ClassOf(id)
	if name == "" {
		return nil
	}
	cid, ok := t.classByName[name]
	if !ok {
		return nil
	}
	return t.classes[cid]
}

// DerivesFrom reports whether d equals b or inherits from it. Cyclic
// hierarchies terminate once a class repeats.
func (t *Table) DerivesFrom(d, b ClassID) bool {
	seen := []ClassID{}
	for cur := t.Class(d); cur != nil; cur = t.Base(cur) {
		if cur.ID == b {
			return true
		}
		if slices.Contains(seen, cur.ID) {
			return false
		}
		seen = append(seen, cur.ID)
	}
	return false
}

// DefaultCtor returns the constructor callable without arguments, if any.
func (t *Table) DefaultCtor(c *Class) *Func {
	for _, id := range c.Ctors {
		if f := t.Func(id); f != nil && len(f.Params) == 0 {
			return f
		}
	}
	return nil
}

// EnsureImplicitCtor synthesizes the implicit default constructor for classes
// that declare none. Called once by the loader after all members are known.
func (t *Table) EnsureImplicitCtor(c *Class) {
	if len(c.Ctors) > 0 {
		return
	}
	t.AddFunc(&Func{
		Name:     c.Name,
		Kind:     FuncCtor,
		Class:    c.ID,
		Scope:    c.Scope,
		Result:   t.Types.Builtins().Void,
		Body:     nil,
		Implicit: true,
		Span:     c.Span,
	})
}
