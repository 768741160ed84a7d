package mangle

import (
	"fmt"

	"xclower/internal/symbols"
	"xclower/internal/types"
)

// TypeName reduces a type to the base-type spelling used in keys: const,
// references, pointers and arrays are dropped.
func TypeName(in *types.Interner, id types.TypeID) string {
	tt, ok := in.Lookup(in.Base(id))
	if !ok {
		return "void"
	}
	return tt.Name
}

// TemplateTypeArg spells a type template argument. Only plain types keep a
// readable token; compound types are hashed by their full spelling.
func TemplateTypeArg(in *types.Interner, id types.TypeID) TemplateArg {
	tt, ok := in.Lookup(in.Unqualified(id))
	if ok && (tt.Kind != types.KindPointer && tt.Kind != types.KindReference && tt.Kind != types.KindArray) {
		return TemplateArg{Type: tt.Name}
	}
	return TemplateArg{Type: in.Spell(id)}
}

// ClassScope returns the qualifying path of a class: namespaces then name.
func ClassScope(c *symbols.Class) []string {
	out := make([]string, 0, len(c.Scope)+1)
	out = append(out, c.Scope...)
	return append(out, c.Name)
}

// FuncKey builds the key of a (possibly instantiated) function. params are
// the concrete parameter types; targs are empty for non-templates.
func FuncKey(tab *symbols.Table, f *symbols.Func, params []types.TypeID, targs []TemplateArg) (Key, error) {
	k := Key{Name: f.Name, Scope: f.Scope, TemplateArgs: targs}
	if c := tab.Class(f.Class); c != nil {
		k.Scope = ClassScope(c)
	}
	for _, p := range params {
		k.Params = append(k.Params, TypeName(tab.Types, p))
	}
	switch {
	case f.Kind == symbols.FuncCtor:
		k.Kind = EntityCtor
		k.Name = ""
	case f.Kind == symbols.FuncDtor:
		k.Kind = EntityDtor
		k.Name = ""
	case f.IsOperator():
		arity := len(params)
		if f.HasReceiver() {
			arity++
		}
		postfix := f.Postfix
		word, ok := OperatorWord(f.Operator, arity == 1 && !postfix, postfix)
		if !ok {
			return Key{}, fmt.Errorf("%w: operator%s", ErrUnsupportedOperator, f.Operator)
		}
		k.Kind = EntityOperator
		k.Operator = word
		k.Name = ""
	default:
		k.Kind = EntityFunction
	}
	return k, nil
}

// StructKey names the flattened aggregate of c.
func StructKey(c *symbols.Class) Key {
	return Key{Kind: EntityStruct, Scope: c.Scope, Name: c.Name}
}

// StaticKey names the storage slot (or its guard) of a class static member.
func StaticKey(c *symbols.Class, name string, guard bool) Key {
	return Key{Kind: EntityStatic, Scope: ClassScope(c), Name: name, Guard: guard}
}

// GlobalKey names a namespace-scope variable (or its guard).
func GlobalKey(g *symbols.Global, guard bool) Key {
	return Key{Kind: EntityGlobal, Scope: g.Scope, Name: g.Name, Guard: guard}
}

// LocalStaticKey names a function-local static of the procedure owner.
func LocalStaticKey(owner, name string, guard bool) Key {
	return Key{Kind: EntityLocalStatic, Owner: owner, Name: name, Guard: guard}
}

// CleanupKey names the cleanup procedure of c, declared or not.
func CleanupKey(c *symbols.Class) Key {
	return Key{Kind: EntityDtor, Scope: ClassScope(c)}
}
