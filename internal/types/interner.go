package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitives the lowering refers to directly.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	Char    TypeID
	Int     TypeID
	Uint    TypeID
	Long    TypeID
	Float   TypeID
	Double  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Substitution interns new types while units lower in parallel, hence the lock.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	byName   map[string]TypeID
	builtins Builtins
	model    DataModel
}

// NewInterner constructs an interner seeded with the builtin primitives of dm.
func NewInterner(dm DataModel) *Interner {
	in := &Interner{
		index:  make(map[Type]TypeID, 64),
		byName: make(map[string]TypeID, len(builtinSpecs)),
		model:  dm.normalized(),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	for _, b := range builtinSpecs {
		id := in.internRaw(Type{Kind: b.kind, Width: b.width(in.model), Name: b.spelling})
		in.byName[b.spelling] = id
	}
	in.builtins.Void = in.byName["void"]
	in.builtins.Bool = in.byName["bool"]
	in.builtins.Char = in.byName["char"]
	in.builtins.Int = in.byName["int"]
	in.builtins.Uint = in.byName["unsigned int"]
	in.builtins.Long = in.byName["long"]
	in.builtins.Float = in.byName["float"]
	in.builtins.Double = in.byName["double"]
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Model returns the target data model the builtins were sized with.
func (in *Interner) Model() DataModel {
	return in.model
}

// Builtin looks a primitive up by spelling; aliases are accepted.
func (in *Interner) Builtin(spelling string) (TypeID, bool) {
	id, ok := in.byName[CanonicalBuiltin(spelling)]
	return id, ok
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.RLock()
	id, ok := in.index[t]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage; callers hold the write lock.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

func (in *Interner) Pointer(elem TypeID) TypeID { return in.Intern(MakePointer(elem)) }

func (in *Interner) Reference(elem TypeID, isConst bool) TypeID {
	return in.Intern(MakeReference(elem, isConst))
}

func (in *Interner) Class(name string) TypeID { return in.Intern(MakeClass(name)) }

func (in *Interner) Param(name string) TypeID { return in.Intern(MakeParam(name)) }

func (in *Interner) Array(elem TypeID, n uint32) TypeID { return in.Intern(MakeArray(elem, n)) }

// WithConst returns id with its top-level const flag set to c.
func (in *Interner) WithConst(id TypeID, c bool) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Const == c {
		return id
	}
	tt.Const = c
	return in.Intern(tt)
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) Kind(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Unqualified strips the top-level const.
func (in *Interner) Unqualified(id TypeID) TypeID {
	return in.WithConst(id, false)
}

// StripRef returns the referenced type of T& (unqualified), or id unchanged.
func (in *Interner) StripRef(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindReference {
		return id
	}
	return in.Unqualified(tt.Elem)
}

// Elem returns the element of pointers, references and arrays.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	switch tt.Kind {
	case KindPointer, KindReference, KindArray:
		return tt.Elem
	}
	return NoTypeID
}

// IsRef reports T&.
func (in *Interner) IsRef(id TypeID) bool { return in.Kind(id) == KindReference }

// IsPointer reports T*.
func (in *Interner) IsPointer(id TypeID) bool { return in.Kind(id) == KindPointer }

// ClassName returns the class name of a class type (through const), or "".
func (in *Interner) ClassName(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return ""
	}
	return tt.Name
}

// ClassOf returns the class named by T, T&, const T& or T*, or "".
func (in *Interner) ClassOf(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return ""
	}
	switch tt.Kind {
	case KindClass:
		return tt.Name
	case KindReference, KindPointer:
		return in.ClassName(tt.Elem)
	}
	return ""
}
