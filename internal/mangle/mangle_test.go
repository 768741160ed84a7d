package mangle

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func TestMangleExamples(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"method", Key{Kind: EntityFunction, Scope: []string{"Counter"}, Name: "increment"}, "Counter_increment"},
		{"overload", Key{Kind: EntityFunction, Name: "sum", Params: []string{"int", "int"}}, "sum_2int_int"},
		{"overload float", Key{Kind: EntityFunction, Name: "sum", Params: []string{"float", "float"}}, "sum_2float_float"},
		{"operator-word user name", Key{Kind: EntityFunction, Scope: []string{"MathUtils"}, Name: "add", Params: []string{"int", "int"}}, "MathUtils_add_2int_int"},
		{"free add", Key{Kind: EntityFunction, Name: "add", Params: []string{"int", "int"}}, "add_2int_int"},
		{"reserved user name", Key{Kind: EntityFunction, Scope: []string{"Counter"}, Name: "init"}, "Counter_init_6"},
		{"ctor", Key{Kind: EntityCtor, Scope: []string{"Counter"}, Params: []string{"int"}}, "Counter_init_2int"},
		{"default ctor", Key{Kind: EntityCtor, Scope: []string{"Counter"}}, "Counter_init"},
		{"dtor", Key{Kind: EntityDtor, Scope: []string{"Counter"}}, "Counter_cleanup"},
		{"operator", Key{Kind: EntityOperator, Scope: []string{"Point"}, Operator: "add", Params: []string{"Point"}}, "Point_add_6_2Point"},
		{"compound operator", Key{Kind: EntityOperator, Scope: []string{"Point"}, Operator: "compound_add", Params: []string{"Point"}}, "Point_compound_add_6_2Point"},
		{"operator head in scope", Key{Kind: EntityOperator, Scope: []string{"compound"}, Operator: "add"}, "compound_6_add_6"},
		{"prefix increment", Key{Kind: EntityOperator, Scope: []string{"Counter"}, Operator: "increment"}, "Counter_increment_6"},
		{"template", Key{Kind: EntityFunction, Name: "getMax", TemplateArgs: []TemplateArg{{Type: "int"}}, Params: []string{"int", "int"}}, "getMax_1int_2int_int"},
		{"template uint8", Key{Kind: EntityFunction, Name: "getMax", TemplateArgs: []TemplateArg{{Type: "uint8_t"}}, Params: []string{"uint8_t", "uint8_t"}}, "getMax_1uint8_0t_2uint8_0t_uint8_0t"},
		{"value arg", Key{Kind: EntityFunction, Name: "fill", TemplateArgs: []TemplateArg{{Type: "int"}, {Value: "8", IsValue: true}}}, "fill_1int_38"},
		{"negative value arg", Key{Kind: EntityFunction, Name: "shift", TemplateArgs: []TemplateArg{{Value: "-2", IsValue: true}, {Type: "char"}}}, "shift_1_3n2_char"},
		{"multi-word builtin", Key{Kind: EntityFunction, Name: "f", Params: []string{"unsigned int", "long long"}}, "f_2uint_llong"},
		{"qualified class param", Key{Kind: EntityFunction, Name: "blink", Params: []string{"hw::Led", "int"}}, "blink_2hw_9Led_int"},
		{"underscore", Key{Kind: EntityFunction, Name: "set_pin"}, "set_0pin"},
		{"static slot", Key{Kind: EntityStatic, Scope: []string{"Counter"}, Name: "globalCount"}, "Counter_globalCount_7"},
		{"static guard", Key{Kind: EntityStatic, Scope: []string{"Counter"}, Name: "globalCount", Guard: true}, "Counter_globalCount_8"},
		{"local static", LocalStaticKey("tick_2int", "count", false), "tick_2int_4count_7"},
		{"global", Key{Kind: EntityGlobal, Name: "led"}, "led"},
		{"struct in namespace", Key{Kind: EntityStruct, Scope: []string{"hw"}, Name: "Led"}, "hw_Led"},
		{"unicode", Key{Kind: EntityFunction, Name: "größe"}, "gr_5u0000f6_5u0000dfe"},
	}
	for _, tt := range tests {
		got, err := Mangle(tt.key)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnsupportedOperator(t *testing.T) {
	_, err := Mangle(Key{Kind: EntityOperator, Scope: []string{"P"}, Operator: "arrow"})
	be.True(t, errors.Is(err, ErrUnsupportedOperator))

	_, ok := OperatorWord("->", false, false)
	be.Equal(t, ok, false)
	_, ok = OperatorWord(",", false, false)
	be.Equal(t, ok, false)
}

func TestOperatorWords(t *testing.T) {
	cases := []struct {
		op             string
		unary, postfix bool
		want           string
	}{
		{"+", false, false, "add"},
		{"-", false, false, "subtract"},
		{"==", false, false, "equals"},
		{"=", false, false, "assign"},
		{"+=", false, false, "compound_add"},
		{"-", true, false, "negate"},
		{"++", true, false, "increment"},
		{"++", false, true, "post_increment"},
		{"!", false, false, "logical_not"},
	}
	for _, c := range cases {
		got, ok := OperatorWord(c.op, c.unary, c.postfix)
		be.True(t, ok)
		be.Equal(t, got, c.want)
	}
}

func TestManglerMemoAndCollision(t *testing.T) {
	m := New()
	k := Key{Kind: EntityFunction, Name: "f", Params: []string{"int"}}
	a, err := m.Mangle(k)
	be.Err(t, err, nil)
	b, err := m.Mangle(k)
	be.Err(t, err, nil)
	be.Equal(t, a, b)
	be.Equal(t, m.Len(), 1)

	// A class and a parameterless function of the same name.
	_, err = m.Mangle(Key{Kind: EntityFunction, Name: "Led"})
	be.Err(t, err, nil)
	_, err = m.Mangle(Key{Kind: EntityStruct, Name: "Led"})
	be.True(t, errors.Is(err, ErrCollision))

	m.Reserve("__static_init")
	_, err = m.Mangle(Key{Kind: EntityFunction, Name: "__static_init"})
	be.Err(t, err, nil) // user spelling escapes its underscores
}

func TestUserMethodAndOperatorStayDistinct(t *testing.T) {
	m := New()
	method, err := m.Mangle(Key{Kind: EntityFunction, Scope: []string{"Counter"}, Name: "increment"})
	be.Err(t, err, nil)
	op, err := m.Mangle(Key{Kind: EntityOperator, Scope: []string{"Counter"}, Operator: "increment"})
	be.Err(t, err, nil)
	be.Equal(t, method, "Counter_increment")
	be.Equal(t, op, "Counter_increment_6")
}

func TestInvalidKeys(t *testing.T) {
	_, err := Mangle(Key{Kind: EntityFunction})
	be.True(t, errors.Is(err, ErrInvalidKey))
	_, err = Mangle(Key{Kind: EntityLocalStatic, Name: "n"})
	be.True(t, errors.Is(err, ErrInvalidKey))
}
