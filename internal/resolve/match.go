package resolve

import (
	"xclower/internal/mono"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

type failure uint8

const (
	failNone failure = iota
	failArity
	failArgument
	failDeduction
	failUnresolved
	failNoObject
)

type evaluation struct {
	cand       candidate
	params     []types.TypeID
	convs      []Conv
	cost       int
	result     types.TypeID
	targs      []mono.Arg
	fail       failure
	unresolved string
}

func (ev *evaluation) ok() bool { return ev.fail == failNone }

func (r *Resolver) evaluate(site *CallSite, cand candidate) *evaluation {
	f := cand.fn
	ev := &evaluation{cand: cand, result: f.Result}
	args := site.Args
	if cand.receiverArg {
		args = args[1:]
	}
	if len(args) != len(f.Params) {
		ev.fail = failArity
		return ev
	}
	if cand.implicit && !r.hasObject(site, f) {
		ev.fail = failNoObject
		return ev
	}
	params := f.ParamTypes()
	convertible := make([]bool, len(params))
	for i := range convertible {
		convertible[i] = true
	}
	if f.IsTemplate() {
		if !r.deduce(site, ev, args) {
			return ev
		}
		subst := ev.substitution(r.Table.Types, f)
		for i, p := range params {
			if r.Table.Types.ContainsParam(p) {
				convertible[i] = r.onlyExplicit(p, f, len(site.TemplateArgs))
			}
			params[i] = subst.Type(p)
		}
		ev.result = subst.Type(f.Result)
	}
	ev.params = params
	for i, a := range args {
		conv, ok := r.convert(params[i], a)
		if !ok || (!convertible[i] && conv.Rank() > 0) {
			ev.fail = failArgument
			return ev
		}
		ev.convs = append(ev.convs, conv)
		ev.cost = max(ev.cost, conv.Rank())
	}
	return ev
}

// hasObject reports whether an implicit-this call of f is possible from
// the caller: the caller must itself run on an object of f's class.
func (r *Resolver) hasObject(site *CallSite, f *symbols.Func) bool {
	caller := site.Caller
	if caller == nil || !caller.HasReceiver() {
		return false
	}
	return r.Table.DerivesFrom(caller.Class, f.Class)
}

// deduce binds template parameters: explicit arguments first, the rest by
// unifying parameter types with argument types.
func (r *Resolver) deduce(site *CallSite, ev *evaluation, args []Arg) bool {
	f := ev.cand.fn
	if len(site.TemplateArgs) > len(f.TemplateParams) {
		ev.fail = failArity
		return false
	}
	bind := map[string]types.TypeID{}
	values := map[string]string{}
	for i, ta := range site.TemplateArgs {
		tp := f.TemplateParams[i]
		if tp.IsValue != ta.IsValue {
			ev.fail = failDeduction
			return false
		}
		if tp.IsValue {
			values[tp.Name] = ta.Value
		} else {
			bind[tp.Name] = ta.Type
		}
	}
	for i, p := range f.Params {
		if !r.Table.Types.ContainsParam(p.Type) || r.onlyExplicit(p.Type, f, len(site.TemplateArgs)) {
			continue
		}
		if !r.unify(p.Type, args[i].Type, bind) {
			ev.fail = failDeduction
			return false
		}
	}
	ev.targs = make([]mono.Arg, len(f.TemplateParams))
	for i, tp := range f.TemplateParams {
		if tp.IsValue {
			v, ok := values[tp.Name]
			if !ok {
				ev.fail, ev.unresolved = failUnresolved, tp.Name
				return false
			}
			ev.targs[i] = mono.Arg{Value: v, IsValue: true}
			continue
		}
		t, ok := bind[tp.Name]
		if !ok {
			ev.fail, ev.unresolved = failUnresolved, tp.Name
			return false
		}
		ev.targs[i] = mono.Arg{Type: t}
	}
	return true
}

func (ev *evaluation) substitution(in *types.Interner, f *symbols.Func) *types.Subst {
	bind := make(map[string]types.TypeID, len(ev.targs))
	for i, tp := range f.TemplateParams {
		if !tp.IsValue {
			bind[tp.Name] = ev.targs[i].Type
		}
	}
	return types.NewSubst(in, bind)
}

// onlyExplicit reports parameter types built solely from explicitly given
// template arguments; such positions accept implicit conversions.
func (r *Resolver) onlyExplicit(p types.TypeID, f *symbols.Func, explicit int) bool {
	in := r.Table.Types
	tt, ok := in.Lookup(p)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindParam:
		for i, tp := range f.TemplateParams {
			if tp.Name == tt.Name {
				return i < explicit
			}
		}
		return false
	case types.KindPointer, types.KindReference, types.KindArray:
		return r.onlyExplicit(tt.Elem, f, explicit)
	}
	return true
}

// unify matches a parameter type against an argument type structurally.
// References are looked through; no conversions are considered.
func (r *Resolver) unify(p, a types.TypeID, bind map[string]types.TypeID) bool {
	in := r.Table.Types
	pt, ok := in.Lookup(p)
	if !ok {
		return false
	}
	a = in.StripRef(a)
	switch pt.Kind {
	case types.KindReference:
		return r.unify(pt.Elem, a, bind)
	case types.KindParam:
		if pt.Const {
			a = in.Unqualified(a)
		}
		if prev, ok := bind[pt.Name]; ok {
			return prev == a
		}
		bind[pt.Name] = a
		return true
	case types.KindPointer:
		at, ok := in.Lookup(a)
		if !ok || (at.Kind != types.KindPointer && at.Kind != types.KindArray) {
			return false
		}
		return r.unify(pt.Elem, at.Elem, bind)
	case types.KindArray:
		at, ok := in.Lookup(a)
		if !ok || at.Kind != types.KindArray || at.Count != pt.Count {
			return false
		}
		return r.unify(pt.Elem, at.Elem, bind)
	}
	return true
}

// convert ranks passing a to a parameter of type p.
func (r *Resolver) convert(p types.TypeID, a Arg) (Conv, bool) {
	in := r.Table.Types
	pt, ok := in.Lookup(p)
	if !ok {
		return 0, false
	}
	if pt.Kind != types.KindReference {
		return r.convertValue(in.Unqualified(p), a)
	}
	elem := in.Unqualified(pt.Elem)
	if !pt.Const && !a.LValue {
		return 0, false
	}
	arg := in.Unqualified(in.StripRef(a.Type))
	if arg == elem {
		return ConvExact, true
	}
	if r.derives(arg, elem) {
		return ConvDerivedToBase, true
	}
	if pt.Const {
		// binds to a converted temporary
		return r.convertValue(elem, a)
	}
	return 0, false
}

func (r *Resolver) convertValue(p types.TypeID, a Arg) (Conv, bool) {
	in := r.Table.Types
	arg := in.Unqualified(in.StripRef(a.Type))
	if arg == p {
		return ConvExact, true
	}
	pt, okP := in.Lookup(p)
	at, okA := in.Lookup(arg)
	if !okP || !okA {
		return 0, false
	}
	switch {
	case a.Null && pt.Kind == types.KindPointer:
		return ConvNull, true
	case at.Kind == types.KindArray && pt.Kind == types.KindPointer:
		if in.Unqualified(at.Elem) == in.Unqualified(pt.Elem) {
			return ConvDecay, true
		}
		return 0, false
	case at.Kind == types.KindPointer && pt.Kind == types.KindPointer:
		ae, pe := in.MustLookup(at.Elem), in.MustLookup(pt.Elem)
		if ae.Const && !pe.Const {
			return 0, false
		}
		if in.Unqualified(at.Elem) == in.Unqualified(pt.Elem) {
			return ConvExact, true
		}
		if r.derives(in.Unqualified(at.Elem), in.Unqualified(pt.Elem)) {
			return ConvDerivedToBase, true
		}
		return 0, false
	case at.Kind == types.KindClass && pt.Kind == types.KindClass:
		if r.derives(arg, p) {
			return ConvDerivedToBase, true
		}
		return 0, false
	case a.Literal && at.Kind.IsInteger() && pt.Kind.IsNumeric() && pt.Kind != types.KindBool:
		if in.LiteralFits(a.Int, p) {
			return ConvLiteral, true
		}
		return 0, false
	case in.Widens(arg, p):
		return ConvNumeric, true
	}
	return 0, false
}

// derives reports a class type d strictly derived from class type b.
func (r *Resolver) derives(d, b types.TypeID) bool {
	dc, bc := r.Table.ClassOfType(d), r.Table.ClassOfType(b)
	if dc == nil || bc == nil || dc.ID == bc.ID {
		return false
	}
	if r.Table.Types.Kind(d) != types.KindClass || r.Table.Types.Kind(b) != types.KindClass {
		return false
	}
	return r.Table.DerivesFrom(dc.ID, bc.ID)
}
