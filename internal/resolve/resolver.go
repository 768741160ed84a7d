// Package resolve binds call sites to declarations: ordinary overloads,
// members found through the base chain, operators and constructors, and
// function templates instantiated on demand.
//
// Every argument is ranked exact (0) or widening (1), and a candidate sits in
// the tier of its worst argument. Only the exact tier beats the widening tier:
// how many arguments widen does not matter. Inside the winning tier a
// non-template beats a template, and any remaining tie is an AmbiguousCall.
package resolve

import (
	"fmt"
	"strings"

	"xclower/internal/diag"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/symbols"
	"xclower/internal/trace"
	"xclower/internal/types"
)

// Resolver answers call-site queries. It only reads the symbol table; the
// mangler and the instance table are its shared memo state.
type Resolver struct {
	Table     *symbols.Table
	Mangler   *mangle.Mangler
	Instances *mono.Table
	Tracer    trace.Tracer
}

// New creates a resolver.
func New(tab *symbols.Table, m *mangle.Mangler, inst *mono.Table, tr trace.Tracer) *Resolver {
	if tr == nil {
		tr = trace.Nop
	}
	return &Resolver{Table: tab, Mangler: m, Instances: inst, Tracer: tr}
}

// Resolve picks the declaration site calls.
func (r *Resolver) Resolve(site *CallSite) (*ResolvedCall, error) {
	cands := r.candidates(site)
	evals := make([]*evaluation, 0, len(cands))
	for _, c := range cands {
		evals = append(evals, r.evaluate(site, c))
	}
	best, err := r.selectBest(site, evals)
	if err != nil {
		return nil, err
	}
	rc, err := r.bind(site, best)
	if err != nil {
		return nil, err
	}
	if r.Tracer.Level().ShouldEmit(trace.ScopeNode) {
		trace.Point(r.Tracer, trace.ScopeNode, "resolve", fmt.Sprintf("%s -> %s (tier %d)", r.describeSite(site), rc.Name, rc.Cost))
	}
	return rc, nil
}

func (r *Resolver) selectBest(site *CallSite, evals []*evaluation) (*evaluation, error) {
	var best []*evaluation
	for _, ev := range evals {
		if !ev.ok() {
			continue
		}
		switch {
		case len(best) == 0 || ev.cost < best[0].cost:
			best = []*evaluation{ev}
		case ev.cost == best[0].cost:
			best = append(best, ev)
		}
	}
	if len(best) == 0 {
		return nil, r.noMatch(site, evals)
	}
	if len(best) > 1 {
		var plain []*evaluation
		for _, ev := range best {
			if !ev.cand.fn.IsTemplate() {
				plain = append(plain, ev)
			}
		}
		if len(plain) > 0 {
			best = plain
		}
	}
	if len(best) > 1 {
		err := diag.Errorf(diag.LowAmbiguousCall, site.Span, "%s is ambiguous", r.describeSite(site))
		for _, ev := range best {
			err.WithNote(ev.cand.fn.Span, "candidate: "+r.describeFunc(ev.cand.fn))
		}
		return nil, err
	}
	return best[0], nil
}

func (r *Resolver) noMatch(site *CallSite, evals []*evaluation) error {
	unresolved := len(evals) > 0
	for _, ev := range evals {
		if ev.fail != failUnresolved {
			unresolved = false
		}
	}
	if unresolved {
		ev := evals[0]
		err := diag.Errorf(diag.LowUnresolvedTemplateParameter, site.Span,
			"cannot determine template parameter %s of %s", ev.unresolved, r.describeFunc(ev.cand.fn))
		for _, other := range evals[1:] {
			err.WithNote(other.cand.fn.Span, fmt.Sprintf("parameter %s of %s is not deducible either", other.unresolved, r.describeFunc(other.cand.fn)))
		}
		return err
	}
	if len(evals) == 0 {
		return diag.Errorf(diag.LowNoMatchingOverload, site.Span, "no declaration matches %s", r.describeSite(site))
	}
	err := diag.Errorf(diag.LowNoMatchingOverload, site.Span, "no overload matches %s", r.describeSite(site))
	for _, ev := range evals {
		err.WithNote(ev.cand.fn.Span, "candidate: "+r.describeFunc(ev.cand.fn)+": "+ev.fail.String())
	}
	return err
}

func (f failure) String() string {
	switch f {
	case failArity:
		return "wrong number of arguments"
	case failArgument:
		return "argument types do not convert"
	case failDeduction:
		return "template arguments conflict"
	case failUnresolved:
		return "template parameter not deducible"
	case failNoObject:
		return "needs an object"
	}
	return "viable"
}

func (r *Resolver) bind(site *CallSite, ev *evaluation) (*ResolvedCall, error) {
	f := ev.cand.fn
	rc := &ResolvedCall{
		Func:           f,
		Params:         ev.params,
		Convs:          ev.convs,
		Cost:           ev.cost,
		Result:         ev.result,
		Owner:          f.Class,
		Receiver:       f.HasReceiver(),
		ImplicitThis:   ev.cand.implicit,
		MemberOperator: ev.cand.receiverArg,
		Span:           site.Span,
	}
	for _, a := range site.Args {
		rc.ArgTypes = append(rc.ArgTypes, a.Type)
	}
	if f.IsTemplate() {
		inst, err := r.Instances.Ensure(f.ID, ev.targs, site.Span, site.Instance)
		if err != nil {
			return nil, err
		}
		rc.Instance = inst
		rc.Name = inst.Name
		return rc, nil
	}
	name, err := r.Callee(f)
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, site.Span, "%s: %v", r.describeFunc(f), err)
	}
	rc.Name = name
	return rc, nil
}

// Callee returns the mangled name of a non-template declaration.
func (r *Resolver) Callee(f *symbols.Func) (string, error) {
	k, err := mangle.FuncKey(r.Table, f, f.ParamTypes(), nil)
	if err != nil {
		return "", err
	}
	return r.Mangler.Mangle(k)
}

// CopyCtor returns the user-declared copy constructor of c, if any.
func (r *Resolver) CopyCtor(c *symbols.Class) *symbols.Func {
	self := r.Table.Types.Class(c.QualifiedName())
	for _, id := range c.Ctors {
		f := r.Table.Func(id)
		if f == nil || len(f.Params) != 1 {
			continue
		}
		p := f.Params[0].Type
		if r.Table.Types.IsRef(p) && r.Table.Types.StripRef(p) == self {
			return f
		}
	}
	return nil
}

// HasOperator reports a member operator op anywhere in c's chain.
func (r *Resolver) HasOperator(c *symbols.Class, op string) bool {
	return c != nil && len(r.memberSet(c.ID, "operator"+op)) > 0
}

func (r *Resolver) describeSite(site *CallSite) string {
	in := r.Table.Types
	args := make([]string, len(site.Args))
	for i, a := range site.Args {
		args[i] = in.Spell(a.Type)
	}
	switch site.Kind {
	case CallOperator:
		return "operator" + site.Name + "(" + strings.Join(args, ", ") + ")"
	case CallCtor:
		name := "<class>"
		if c := r.Table.Class(site.Class); c != nil {
			name = c.QualifiedName()
		}
		return name + "(" + strings.Join(args, ", ") + ")"
	case CallMethod:
		return in.Spell(site.Receiver) + "::" + site.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return symbols.Qualify(site.Scope, site.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (r *Resolver) describeFunc(f *symbols.Func) string {
	in := r.Table.Types
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = in.Spell(p.Type)
	}
	s := r.Table.OverloadKey(f)
	if f.IsTemplate() {
		tps := make([]string, len(f.TemplateParams))
		for i, tp := range f.TemplateParams {
			tps[i] = tp.Name
		}
		s += "<" + strings.Join(tps, ", ") + ">"
	}
	return s + "(" + strings.Join(params, ", ") + ")"
}

// ArgOf describes a typed value for matching.
func ArgOf(in *types.Interner, t types.TypeID, lvalue bool) Arg {
	return Arg{Type: in.StripRef(t), LValue: lvalue}
}
