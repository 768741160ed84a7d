package resolve

import (
	"testing"

	"github.com/nalgeon/be"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

type world struct {
	tab *symbols.Table
	in  *types.Interner
	r   *Resolver
}

func newWorld() *world {
	in := types.NewInterner(types.DefaultDataModel())
	tab := symbols.NewTable(in, nil)
	m := mangle.New()
	return &world{tab: tab, in: in, r: New(tab, m, mono.NewTable(tab, m, 0), nil)}
}

func (w *world) ty(spelling string) types.TypeID {
	id, err := w.in.Parse(spelling, func(name string) (types.TypeID, bool) {
		if len(name) == 1 {
			return w.in.Param(name), true
		}
		return w.in.Class(name), true
	})
	if err != nil {
		panic(err)
	}
	return id
}

func (w *world) fn(f *symbols.Func, params ...string) *symbols.Func {
	for i, p := range params {
		f.Params = append(f.Params, symbols.Param{Name: string(rune('a' + i)), Type: w.ty(p)})
	}
	if f.Result == types.NoTypeID {
		f.Result = w.in.Builtins().Void
	}
	w.tab.AddFunc(f)
	return f
}

func (w *world) class(name, base string) *symbols.Class {
	c := &symbols.Class{Name: name}
	if base != "" {
		c.BaseNames = []string{base}
	}
	w.tab.AddClass(c)
	w.tab.ResolveBases()
	return c
}

func lit(in *types.Interner, v int64) Arg {
	return Arg{Type: in.Builtins().Int, Literal: true, Int: v}
}

func (w *world) val(spelling string) Arg {
	return Arg{Type: w.ty(spelling), LValue: true}
}

func TestOverloadsByArity(t *testing.T) {
	w := newWorld()
	two := w.fn(&symbols.Func{Name: "add"}, "int", "int")
	w.fn(&symbols.Func{Name: "add"}, "float", "float")
	w.fn(&symbols.Func{Name: "add"}, "int", "int", "int")

	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "add", Args: []Arg{lit(w.in, 10), lit(w.in, 20)}})
	be.Err(t, err, nil)
	be.True(t, rc.Func == two)
	be.Equal(t, rc.Name, "add_2int_int")
	be.Equal(t, rc.Cost, 0)

	rc, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "add", Args: []Arg{w.val("float"), w.val("float")}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "add_2float_float")

	rc, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "add", Args: []Arg{lit(w.in, 1), lit(w.in, 2), lit(w.in, 3)}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "add_2int_int_int")
}

func TestWideningRanks(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "scale"}, "long")
	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "scale", Args: []Arg{w.val("short")}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Convs, []Conv{ConvNumeric})
	be.Equal(t, rc.Cost, 1)

	_, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "scale", Args: []Arg{w.val("double")}})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)
}

func TestAmbiguousCall(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "put"}, "long")
	w.fn(&symbols.Func{Name: "put"}, "float")
	_, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "put", Args: []Arg{w.val("int")}})
	be.Equal(t, diag.CodeOf(err), diag.LowAmbiguousCall)
	de, _ := diag.AsError(err)
	be.Equal(t, len(de.Diag.Notes), 2)
}

func TestWideningTierIsFlat(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "mix"}, "long", "long")
	w.fn(&symbols.Func{Name: "mix"}, "long", "int")
	_, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "mix", Args: []Arg{w.val("int"), w.val("int")}})
	be.Equal(t, diag.CodeOf(err), diag.LowAmbiguousCall)

	exact := w.fn(&symbols.Func{Name: "mix"}, "int", "int")
	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "mix", Args: []Arg{w.val("int"), w.val("int")}})
	be.Err(t, err, nil)
	be.True(t, rc.Func == exact)
	be.Equal(t, rc.Cost, 0)
}

func TestNonTemplateBeatsTemplate(t *testing.T) {
	w := newWorld()
	plain := w.fn(&symbols.Func{Name: "getMax", Result: w.ty("int")}, "int", "int")
	w.fn(&symbols.Func{Name: "getMax", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T", "T")

	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "getMax", Args: []Arg{w.val("int"), w.val("int")}})
	be.Err(t, err, nil)
	be.True(t, rc.Func == plain)
	be.True(t, !rc.IsTemplate())
	be.Equal(t, w.r.Instances.Len(), 0)
}

func TestTemplateInstancesShared(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "getMax", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T", "T")

	call := func(args ...Arg) *ResolvedCall {
		t.Helper()
		rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "getMax", Args: args})
		if err != nil {
			t.Fatal(err)
		}
		return rc
	}
	i1 := call(lit(w.in, 10), lit(w.in, 20))
	f1 := call(w.val("float"), w.val("float"))
	u1 := call(w.val("uint8_t"), w.val("uint8_t"))
	i2 := call(w.val("int"), lit(w.in, 3))

	be.Equal(t, w.r.Instances.Len(), 3)
	be.True(t, i1.Instance == i2.Instance)
	be.Equal(t, i1.Name, "getMax_1int_2int_int")
	be.Equal(t, f1.Name, "getMax_1float_2float_float")
	be.Equal(t, u1.Name, "getMax_1uint8_0t_2uint8_0t_uint8_0t")
	be.Equal(t, i1.Result, w.in.Builtins().Int)
}

func TestExplicitTemplateArgumentConverts(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "getMax", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T", "T")
	u8 := w.ty("uint8_t")

	rc, err := w.r.Resolve(&CallSite{
		Kind:         CallFree,
		Name:         "getMax",
		TemplateArgs: []mono.Arg{{Type: u8}},
		Args:         []Arg{lit(w.in, 100), lit(w.in, 150)},
	})
	be.Err(t, err, nil)
	be.Equal(t, rc.Params, []types.TypeID{u8, u8})
	be.Equal(t, rc.Convs, []Conv{ConvLiteral, ConvLiteral})

	_, err = w.r.Resolve(&CallSite{
		Kind:         CallFree,
		Name:         "getMax",
		TemplateArgs: []mono.Arg{{Type: u8}},
		Args:         []Arg{lit(w.in, 100), lit(w.in, 300)},
	})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)
}

func TestDeductionConflict(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "getMax", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T", "T")
	_, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "getMax", Args: []Arg{w.val("int"), w.val("float")}})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)
}

func TestUnresolvedTemplateParameter(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "zero", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}})
	_, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "zero"})
	be.Equal(t, diag.CodeOf(err), diag.LowUnresolvedTemplateParameter)

	w.fn(&symbols.Func{Name: "fill", TemplateParams: []symbols.TemplateParam{{Name: "T"}, {Name: "N", IsValue: true, Type: w.ty("int")}}}, "T")
	_, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "fill", Args: []Arg{lit(w.in, 1)}})
	be.Equal(t, diag.CodeOf(err), diag.LowUnresolvedTemplateParameter)

	rc, err := w.r.Resolve(&CallSite{
		Kind:         CallFree,
		Name:         "fill",
		TemplateArgs: []mono.Arg{{Type: w.ty("int")}, {Value: "8", IsValue: true}},
		Args:         []Arg{lit(w.in, 1)},
	})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "fill_1int_38_2int")
}

func TestDeduceThroughReferenceAndPointer(t *testing.T) {
	w := newWorld()
	w.fn(&symbols.Func{Name: "swap", TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T&", "T&")
	w.fn(&symbols.Func{Name: "first", Result: w.ty("T"), TemplateParams: []symbols.TemplateParam{{Name: "T"}}}, "T*")

	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "swap", Args: []Arg{w.val("long"), w.val("long")}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "swap_1long_2long_long")

	_, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "swap", Args: []Arg{lit(w.in, 1), lit(w.in, 2)}})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)

	rc, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "first", Args: []Arg{w.val("char[4]")}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Result, w.ty("char"))
	be.Equal(t, rc.Convs, []Conv{ConvDecay})
}

func TestMemberLookupAndHiding(t *testing.T) {
	w := newWorld()
	device := w.class("Device", "")
	sensor := w.class("Sensor", "Device")
	baseDescribe := w.fn(&symbols.Func{Name: "describe", Kind: symbols.FuncMethod, Class: device.ID})
	ownDescribe := w.fn(&symbols.Func{Name: "describe", Kind: symbols.FuncMethod, Class: sensor.ID})
	getID := w.fn(&symbols.Func{Name: "getId", Kind: symbols.FuncMethod, Class: device.ID, Result: w.ty("int")})

	recv := w.ty("Sensor")
	rc, err := w.r.Resolve(&CallSite{Kind: CallMethod, Name: "describe", Receiver: recv})
	be.Err(t, err, nil)
	be.True(t, rc.Func == ownDescribe)
	be.Equal(t, rc.Name, "Sensor_describe")

	rc, err = w.r.Resolve(&CallSite{Kind: CallMethod, Name: "describe", Receiver: recv, Qualifier: "Device"})
	be.Err(t, err, nil)
	be.True(t, rc.Func == baseDescribe)

	rc, err = w.r.Resolve(&CallSite{Kind: CallMethod, Name: "getId", Receiver: recv})
	be.Err(t, err, nil)
	be.True(t, rc.Func == getID)
	be.Equal(t, rc.Owner, device.ID)
	be.True(t, rc.Receiver)

	// Device::describe() from inside Sensor::describe binds statically
	rc, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "describe", Scope: []string{"Device"}, Caller: ownDescribe})
	be.Err(t, err, nil)
	be.True(t, rc.Func == baseDescribe)
	be.True(t, rc.ImplicitThis)
}

func TestImplicitThisNeedsObject(t *testing.T) {
	w := newWorld()
	counter := w.class("Counter", "")
	inc := w.fn(&symbols.Func{Name: "increment", Kind: symbols.FuncMethod, Class: counter.ID})
	reset := w.fn(&symbols.Func{Name: "reset", Kind: symbols.FuncMethod, Class: counter.ID})
	create := w.fn(&symbols.Func{Name: "make", Kind: symbols.FuncStatic, Class: counter.ID})

	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "increment", Caller: reset})
	be.Err(t, err, nil)
	be.True(t, rc.Func == inc)
	be.True(t, rc.ImplicitThis)

	_, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "increment", Caller: create})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)
}

func TestStaticMemberOverloads(t *testing.T) {
	w := newWorld()
	mu := w.class("MathUtils", "")
	w.fn(&symbols.Func{Name: "add", Kind: symbols.FuncStatic, Class: mu.ID}, "int", "int")
	w.fn(&symbols.Func{Name: "add", Kind: symbols.FuncStatic, Class: mu.ID}, "float", "float")

	rc, err := w.r.Resolve(&CallSite{Kind: CallFree, Name: "add", Scope: []string{"MathUtils"}, Args: []Arg{w.val("float"), lit(w.in, 2)}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "MathUtils_add_2float_float")
	be.True(t, !rc.Receiver)
}

func TestOperators(t *testing.T) {
	w := newWorld()
	point := w.class("Point", "")
	add := w.fn(&symbols.Func{Name: "operator+", Operator: "+", Kind: symbols.FuncMethod, Class: point.ID, Result: w.ty("Point")}, "const Point&")
	w.fn(&symbols.Func{Name: "operator*", Operator: "*", Kind: symbols.FuncMethod, Class: point.ID, Result: w.ty("Point")}, "int")
	eq := w.fn(&symbols.Func{Name: "operator==", Operator: "==", Result: w.ty("bool")}, "const Point&", "const Point&")

	p := w.val("Point")
	rc, err := w.r.Resolve(&CallSite{Kind: CallOperator, Name: "+", Args: []Arg{p, p}})
	be.Err(t, err, nil)
	be.True(t, rc.Func == add)
	be.True(t, rc.MemberOperator)
	be.Equal(t, rc.Name, "Point_add_6_2Point")

	rc, err = w.r.Resolve(&CallSite{Kind: CallOperator, Name: "*", Args: []Arg{p, lit(w.in, 3)}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "Point_multiply_6_2int")

	rc, err = w.r.Resolve(&CallSite{Kind: CallOperator, Name: "==", Args: []Arg{p, p}})
	be.Err(t, err, nil)
	be.True(t, rc.Func == eq)
	be.True(t, !rc.MemberOperator)
	be.Equal(t, rc.Name, "equals_6_2Point_Point")

	_, err = w.r.Resolve(&CallSite{Kind: CallOperator, Name: "-", Args: []Arg{p, p}})
	be.Equal(t, diag.CodeOf(err), diag.LowNoMatchingOverload)
}

func TestConstructorsAndDerivedArguments(t *testing.T) {
	w := newWorld()
	counter := w.class("Counter", "")
	w.fn(&symbols.Func{Name: "Counter", Kind: symbols.FuncCtor, Class: counter.ID})
	w.fn(&symbols.Func{Name: "Counter", Kind: symbols.FuncCtor, Class: counter.ID}, "int")
	copyCtor := w.fn(&symbols.Func{Name: "Counter", Kind: symbols.FuncCtor, Class: counter.ID}, "const Counter&")

	rc, err := w.r.Resolve(&CallSite{Kind: CallCtor, Class: counter.ID, Args: []Arg{lit(w.in, 5)}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "Counter_init_2int")
	rc, err = w.r.Resolve(&CallSite{Kind: CallCtor, Class: counter.ID})
	be.Err(t, err, nil)
	be.Equal(t, rc.Name, "Counter_init")
	be.True(t, w.r.CopyCtor(counter) == copyCtor)

	w.class("Device", "")
	w.class("Sensor", "Device")
	w.fn(&symbols.Func{Name: "report"}, "Device&")
	rc, err = w.r.Resolve(&CallSite{Kind: CallFree, Name: "report", Args: []Arg{w.val("Sensor")}})
	be.Err(t, err, nil)
	be.Equal(t, rc.Convs, []Conv{ConvDerivedToBase})
}
