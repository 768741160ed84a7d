package lifetime

import (
	"errors"
	"slices"

	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/layout"
	"xclower/internal/source"
	"xclower/internal/symbols"
)

// PlanClass plans every init procedure of c and its cleanup procedure.
// The layout error of c itself is returned as is; it is the class's own
// report.
func (p *Planner) PlanClass(c *symbols.Class) (*ClassPlan, error) {
	l, err := p.Layouts.Flatten(c.ID)
	if err != nil {
		return nil, err
	}
	cp := &ClassPlan{Class: c, Layout: l}
	var errs []error
	for _, id := range c.Ctors {
		f := p.Table.Func(id)
		if f == nil {
			continue
		}
		if f.IsTemplate() {
			errs = append(errs, diag.Errorf(diag.LowUnsupportedConstruct, f.Span, "constructor template of %s", c.QualifiedName()))
			continue
		}
		ip, err := p.planInit(c, l, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cp.Inits = append(cp.Inits, ip)
	}
	cl, err := p.planCleanup(c, l)
	if err != nil {
		errs = append(errs, err)
	}
	cp.Cleanup = cl
	return cp, errors.Join(errs...)
}

func (p *Planner) planInit(c *symbols.Class, l *layout.ClassLayout, f *symbols.Func) (*InitPlan, error) {
	name, err := p.Resolver.Callee(f)
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, f.Span, "constructor of %s: %v", c.QualifiedName(), err)
	}
	fp := p.newFuncPlanner(f, nil, name)
	fp.push(scopeFunc)
	fp.params(f.ParamTypes())
	ip := &InitPlan{Ctor: f, Name: name, Body: fp.plan}

	if base := p.Table.Base(c); base != nil {
		ip.Base = fp.baseInit(c, base, f)
	}

	given := make(map[string]hir.Initializer, len(f.MemberInits))
	var written []string
	for _, mi := range f.MemberInits {
		if _, ok := c.Field(mi.Name); !ok {
			fp.failf(diag.InputUnknownSymbol, mi.Span, "%s has no member %s to initialize", c.QualifiedName(), mi.Name)
			continue
		}
		if _, dup := given[mi.Name]; dup {
			fp.failf(diag.InputMalformed, mi.Span, "member %s initialized twice", mi.Name)
			continue
		}
		given[mi.Name] = mi
		written = append(written, mi.Name)
	}
	var declared []string
	for i := range c.Fields {
		fld := &c.Fields[i]
		if _, ok := given[fld.Name]; ok {
			declared = append(declared, fld.Name)
		}
		slot, _ := l.Lookup(c.ID, fld.Name)
		m := &MemberInit{Field: fld, Slot: slot}
		m.Name = slot.Target
		m.Type = fld.Type
		fp.full(nil, false)
		if in, ok := given[fld.Name]; ok {
			fp.memberInit(m, nil, in.Args, true, in.Span)
		} else {
			fp.memberInit(m, fld.Init, nil, false, fld.Span)
		}
		ip.Members = append(ip.Members, m)
	}
	if !slices.Equal(written, declared) {
		ip.Written = written
	}

	if f.Body != nil {
		fp.body(f.Body)
	}
	fp.pop()
	return ip, fp.err()
}

func (fp *funcPlanner) baseInit(c, base *symbols.Class, f *symbols.Func) *BaseInit {
	if bi := f.BaseInit; bi != nil {
		if id, ok := fp.p.Table.LookupClass(bi.Name, c.Scope); !ok || id != base.ID {
			fp.failf(diag.InputUnknownSymbol, bi.Span, "%s is not the base of %s", bi.Name, c.QualifiedName())
			return nil
		}
		fp.full(nil, false)
		fp.bindExprs(bi.Args)
		rc := fp.construct(base, bi.Args, bi.Span)
		fp.scanArgs(bi.Args, rc)
		return &BaseInit{Class: base, Call: rc, Args: bi.Args}
	}
	if fp.p.Table.DefaultCtor(base) == nil {
		fp.failf(diag.LowMissingBaseInitializer, f.Span, "constructor of %s must initialize base %s, which has no default constructor",
			c.QualifiedName(), base.QualifiedName())
		return nil
	}
	return &BaseInit{Class: base, Call: fp.construct(base, nil, f.Span)}
}

// memberInit plans one member from `: m(args)` (given) or its default
// member initializer (init).
func (fp *funcPlanner) memberInit(m *MemberInit, init *hir.Expr, args []*hir.Expr, given bool, sp source.Span) {
	t := m.Type
	switch mc := fp.valueClass(t); {
	case mc != nil:
		fp.classInit(&m.Decl, mc, init, args, sp)
		cleanup, _ := fp.p.CleanupName(mc)
		m.Object = &Object{Name: m.Name, Class: mc, Cleanup: cleanup, Span: sp}
	case fp.in.IsRef(t):
		m.Kind = DeclRef
		v := init
		if v == nil && len(args) == 1 {
			v = args[0]
		}
		if v == nil {
			fp.failf(diag.LowUnsupportedConstruct, sp, "reference member %s is not initialized", m.Field.Name)
			return
		}
		fp.bind(v)
		if !fp.refBindable(v) {
			fp.failf(diag.LowUnsupportedConstruct, sp, "reference member %s must bind to an lvalue", m.Field.Name)
		}
		fp.scan(v, posAddress)
		m.Value = v
	default:
		m.Kind = DeclScalar
		switch {
		case !given:
			// nil leaves the member untouched
			m.Value = init
		case len(args) == 0:
			m.Zero = true
		case len(args) == 1:
			m.Value = args[0]
		default:
			fp.failf(diag.InputMalformed, sp, "member %s: %d initializers for a scalar", m.Field.Name, len(args))
			return
		}
		fp.bind(m.Value)
		fp.scan(m.Value, posValue)
	}
}

func (p *Planner) planCleanup(c *symbols.Class, l *layout.ClassLayout) (*CleanupPlan, error) {
	name, err := p.CleanupName(c)
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, c.Span, "cleanup of %s: %v", c.QualifiedName(), err)
	}
	cp := &CleanupPlan{Name: name}
	var errs []error
	if f := p.Table.Func(c.Dtor); f != nil {
		fp := p.newFuncPlanner(f, nil, name)
		fp.push(scopeFunc)
		if f.Body != nil {
			fp.body(f.Body)
		}
		fp.pop()
		cp.Body = fp.plan
		if err := fp.err(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(c.Fields) - 1; i >= 0; i-- {
		fld := &c.Fields[i]
		mc := p.valueClass(fld.Type)
		if mc == nil {
			continue
		}
		slot, _ := l.Lookup(c.ID, fld.Name)
		cleanup, err := p.CleanupName(mc)
		if err != nil {
			errs = append(errs, diag.Errorf(diag.LowUnsupportedConstruct, fld.Span, "cleanup of %s: %v", mc.QualifiedName(), err))
			continue
		}
		cp.Members = append(cp.Members, &Object{Name: slot.Target, Class: mc, Cleanup: cleanup, Span: fld.Span})
	}
	if base := p.Table.Base(c); base != nil {
		n, err := p.CleanupName(base)
		if err != nil {
			errs = append(errs, err)
		}
		cp.Base = n
	}
	return cp, errors.Join(errs...)
}
