package mangle

import (
	"math/rand/v2"
	"testing"
)

func TestDemangleRoundTrip(t *testing.T) {
	keys := []Key{
		{Kind: EntityFunction, Scope: []string{"Counter"}, Name: "increment"},
		{Kind: EntityFunction, Scope: []string{"MathUtils"}, Name: "add", Params: []string{"int", "int"}},
		{Kind: EntityCtor, Scope: []string{"hw", "Led"}, Params: []string{"uint8_t"}},
		{Kind: EntityDtor, Scope: []string{"Led"}},
		{Kind: EntityOperator, Scope: []string{"Point"}, Operator: "less_equal", Params: []string{"Point"}},
		{Kind: EntityOperator, Operator: "compound_shift_left", Params: []string{"Bits", "int"}},
		{Kind: EntityFunction, Name: "fill", TemplateArgs: []TemplateArg{{Type: "int"}, {Value: "-8", IsValue: true}, {Type: "hw::Led"}}, Params: []string{"hw::Led"}},
		{Kind: EntityFunction, Name: "_hidden_", Params: []string{"unsigned long long"}},
		{Kind: EntityFunction, Scope: []string{"compound"}, Name: "init"},
		{Kind: EntityOperator, Scope: []string{"Counter", "compound"}, Operator: "add"},
		{Kind: EntityFunction, Scope: []string{"Counter"}, Name: "increment"},
		{Kind: EntityOperator, Scope: []string{"Counter"}, Operator: "post_increment"},
		{Kind: EntityLocalStatic, Owner: "tick_2int", Name: "count"},
		{Kind: EntityStatic, Scope: []string{"Counter"}, Name: "globalCount", Guard: true},
	}
	for _, k := range keys {
		name, err := Mangle(k)
		if err != nil {
			t.Fatalf("mangle %s: %v", k.Display(), err)
		}
		back, err := Demangle(name)
		if err != nil {
			t.Fatalf("demangle %q: %v", name, err)
		}
		if back.Fingerprint() != k.Fingerprint() {
			t.Fatalf("round trip of %q:\n got %#v\nwant %#v", name, back, k)
		}
	}
}

func TestDemangleRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "a__", "f_2", "f_3", "f_5zz", "x-y", "f_2int_", "Point_frobnicate_6_2int_extra_1", "compound_add_add_6", "init_foo"} {
		if _, err := Demangle(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

var (
	identAlphabet = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_äß")
	typePool      = []string{"int", "unsigned int", "char", "unsigned char", "float", "double", "long long", "uint8_t", "int16_t", "bool", "size_t"}
	operatorPool  = []string{"add", "subtract", "equals", "not_equals", "assign", "compound_add", "less_equal", "post_increment", "index", "call", "bit_not"}
	reservedPool  = []string{"init", "cleanup", "add", "compound", "uint", "int8_t", "less"}
)

func randIdent(r *rand.Rand) string {
	if r.IntN(10) == 0 {
		return reservedPool[r.IntN(len(reservedPool))]
	}
	n := 1 + r.IntN(6)
	out := make([]rune, 0, n+1)
	first := identAlphabet[r.IntN(52)]
	out = append(out, first)
	for range n {
		out = append(out, identAlphabet[r.IntN(len(identAlphabet))])
	}
	return string(out)
}

func randType(r *rand.Rand) string {
	if r.IntN(3) == 0 {
		if r.IntN(2) == 0 {
			return randIdent(r) + "::" + randIdent(r)
		}
		return randIdent(r)
	}
	return typePool[r.IntN(len(typePool))]
}

func randKey(r *rand.Rand) Key {
	k := Key{}
	for range r.IntN(3) {
		k.Scope = append(k.Scope, randIdent(r))
	}
	switch r.IntN(6) {
	case 0:
		k.Kind = EntityCtor
		if len(k.Scope) == 0 {
			k.Scope = []string{randIdent(r)}
		}
	case 1:
		k.Kind = EntityOperator
		k.Operator = operatorPool[r.IntN(len(operatorPool))]
	default:
		k.Kind = EntityFunction
		k.Name = randIdent(r)
		for range r.IntN(3) {
			if r.IntN(3) == 0 {
				k.TemplateArgs = append(k.TemplateArgs, TemplateArg{Value: []string{"0", "7", "-3", "128"}[r.IntN(4)], IsValue: true})
			} else {
				k.TemplateArgs = append(k.TemplateArgs, TemplateArg{Type: randType(r)})
			}
		}
	}
	for range r.IntN(4) {
		k.Params = append(k.Params, randType(r))
	}
	return k
}

func TestNoCollisionsAcrossRandomKeys(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	m := New()
	seen := make(map[string]string)
	distinct := 0
	for distinct < 10000 {
		k := randKey(r)
		fp := k.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		name, err := m.Mangle(k)
		if err != nil {
			t.Fatalf("key %s: %v", k.Display(), err)
		}
		seen[fp] = name
		distinct++

		back, err := Demangle(name)
		if err != nil {
			t.Fatalf("demangle %q (%s): %v", name, k.Display(), err)
		}
		if back.Fingerprint() != fp {
			t.Fatalf("%q demangles to %s, want %s", name, back.Display(), k.Display())
		}
	}
	if m.Len() != 10000 {
		t.Fatalf("expected 10000 memoized names, got %d", m.Len())
	}
}
