package lir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func sample() *Program {
	self := Ident("self", "Counter*")
	return &Program{
		Structs: []*Struct{
			{Name: "Counter", Source: "Counter", Fields: []Field{{Name: "count", Type: "int"}, {Name: "step", Type: "int", Offset: 2}}, Size: 4, Align: 1},
			{Name: "Empty", Source: "Empty", Size: 1, Align: 1},
		},
		Globals: []*Global{
			{Name: "Counter_total_7", Type: "int", Init: Lit("0", "int"), Source: "Counter::total"},
			{Name: "led_7", Type: "Led", Guard: "led_8", Source: "led"},
		},
		Procs: []*Proc{
			{Name: "Counter_init", Kind: ProcInit, Params: []Param{{Name: "self", Type: "Counter*"}}, Result: "void", Body: []*Stmt{
				Do(Assign("=", Member(Deref(self), "count", "int"), Lit("0", "int"))),
				Do(Assign("=", Member(Deref(self), "step", "int"), Lit("1", "int"))),
			}},
			{Name: "main", Kind: ProcFunc, Result: "int", Body: []*Stmt{
				Decl("c", "Counter", nil),
				Do(Call("Counter_init", "void", AddrOf(Ident("c", "Counter")))),
				Block(Decl("buf", "char[4]", nil)),
				Return(Lit("0", "int")),
			}},
		},
	}
}

func TestDumpListing(t *testing.T) {
	out := sample().String()
	for _, want := range []string{
		"typedef struct Counter {\n    int count;\n    int step;\n} Counter;",
		"    char __empty;",
		"int Counter_total_7 = 0;",
		"Led led_7;\nbool led_8 = 0;",
		"void Counter_init(Counter* self);",
		"int main(void);",
		"    self->count = 0;",
		"    Counter_init(&c);",
		"        char buf[4];",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing lacks %q:\n%s", want, out)
		}
	}
}

func TestExprFolding(t *testing.T) {
	x := Ident("x", "int")
	be.Equal(t, Deref(AddrOf(x)), x)
	p := Ident("p", "int*")
	be.Equal(t, AddrOf(Deref(p)), p)
	be.Equal(t, Cast("int", x), x)
	be.Equal(t, AddrOf(x).Type, Type("int*"))
	be.Equal(t, Deref(p).Type, Type("int"))
}

func TestExprParentheses(t *testing.T) {
	a, b, c := Ident("a", "int"), Ident("b", "int"), Ident("c", "int")
	cases := []struct {
		e    *Expr
		want string
	}{
		{Binary("*", Binary("+", a, b, "int"), c, "int"), "(a + b) * c"},
		{Binary("+", a, Binary("*", b, c, "int"), "int"), "a + b * c"},
		{Binary("-", a, Binary("-", b, c, "int"), "int"), "a - (b - c)"},
		{Unary("-", Unary("-", a, false), false), "- -a"},
		{Unary("++", a, true), "a++"},
		{Deref(Binary("+", Ident("p", "int*"), b, "int*")), "*(p + b)"},
		{Cond(a, b, Assign("=", c, a), "int"), "a ? b : (c = a)"},
		{Call("f", "int", Assign("=", a, b), c), "f(a = b, c)"},
		{Compound("int", Lit("3", "int")), "(int){3}"},
		{Cast("long", Binary("+", a, b, "int")), "(long)(a + b)"},
	}
	for _, tc := range cases {
		be.Equal(t, ExprString(tc.e), tc.want)
	}
}

func TestCallsInEvaluationOrder(t *testing.T) {
	body := []*Stmt{
		Do(Call("outer", "void", Call("inner", "int"))),
		If(Call("check", "bool"), []*Stmt{Do(Call("then", "void"))}, []*Stmt{Do(Call("else", "void"))}),
	}
	be.Equal(t, Calls(body), []string{"inner", "outer", "check", "then", "else"})
}

func TestDirectives(t *testing.T) {
	var buf bytes.Buffer
	err := DumpDirectives(&buf, []Directive{
		{Kind: DirRename, From: "Counter::increment", To: "Counter_increment"},
		{Kind: DirReorder, From: "Counter::Counter", Detail: "step, count"},
	})
	be.Err(t, err, nil)
	be.Equal(t, buf.String(), "rename Counter::increment -> Counter_increment\nreorder Counter::Counter [step, count]\n")
}

func TestEncodings(t *testing.T) {
	p := sample()
	var buf bytes.Buffer
	be.Err(t, WriteJSON(&buf, p), nil)
	back, err := ReadJSON(&buf)
	be.Err(t, err, nil)
	be.Equal(t, back.String(), p.String())

	data, err := MarshalMsgpack(p)
	be.Err(t, err, nil)
	back, err = UnmarshalMsgpack(data)
	be.Err(t, err, nil)
	be.Equal(t, back.String(), p.String())
}

func TestTypeBase(t *testing.T) {
	tests := map[Type]string{
		"const Point* const": "Point",
		"Point[4]":           "Point",
		"unsigned int":       "unsigned int",
		"Counter**":          "Counter",
	}
	for in, want := range tests {
		be.Equal(t, in.Base(), want)
	}
}

func TestProcRefsSkipLocals(t *testing.T) {
	pr := &Proc{
		Name:   "run",
		Params: []Param{{Name: "self", Type: "Sensor*"}},
		Result: "void",
		Body: []*Stmt{
			Decl("c", "Counter", nil),
			Do(Call("Counter_init", "void", AddrOf(Ident("c", "Counter")))),
			Do(Assign("=", Ident("led", "Led"), Ident("c", "Counter"))),
		},
	}
	be.Equal(t, pr.Refs(), []string{"Sensor", "void", "Counter", "Counter_init", "Led", "led"})
}
