package lifetime

import (
	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/mangle"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// slot allocates the storage name of a static. The guard is named later,
// only for dynamically initialized slots.
func (p *Planner) slot(k mangle.Key, src string, t types.TypeID, sp source.Span) (*StaticSlot, error) {
	name, err := p.Mangler.Mangle(k)
	if err != nil {
		return nil, diag.Errorf(diag.LowUnsupportedConstruct, sp, "static %s: %v", src, err)
	}
	return &StaticSlot{Name: name, Source: src, Type: t, Span: sp, key: k}, nil
}

func (p *Planner) guard(s *StaticSlot) error {
	k := s.key
	k.Guard = true
	name, err := p.Mangler.Mangle(k)
	if err != nil {
		return diag.Errorf(diag.LowUnsupportedConstruct, s.Span, "guard of %s: %v", s.Source, err)
	}
	s.Guard = name
	return nil
}

// staticInit decides between load-time and first-use initialization.
// Constant scalar initializers (and none at all) are load-time; anything
// else runs once behind the guard.
func (fp *funcPlanner) staticInit(s *StaticSlot, t types.TypeID, init *hir.Expr, args []*hir.Expr, direct bool, sp source.Span) {
	fp.tempsOK = false
	c := fp.valueClass(t)
	if c == nil {
		v := init
		if v == nil && direct {
			if len(args) > 1 {
				fp.failf(diag.InputMalformed, sp, "static %s: %d initializers for a scalar", s.Source, len(args))
				return
			}
			if len(args) == 1 {
				v = args[0]
			}
		}
		fp.bind(v)
		if !fp.in.IsRef(t) && (v == nil || fp.isConstant(v)) {
			s.Const = v
			return
		}
		d := &Decl{Kind: DeclScalar, Name: s.Name, Type: t, Value: v}
		if fp.in.IsRef(t) {
			d.Kind = DeclRef
			if v == nil || !fp.refBindable(v) {
				fp.failf(diag.LowUnsupportedConstruct, sp, "reference %s must bind to an lvalue", s.Source)
				return
			}
			fp.scan(v, posAddress)
		} else {
			fp.scan(v, posValue)
		}
		s.Init = d
	} else {
		d := &Decl{Name: s.Name, Type: t}
		fp.classInit(d, c, init, args, sp)
		// static objects live until the program ends
		d.Object = &Object{Name: s.Name, Class: c, Span: sp}
		s.Init = d
	}
	fp.fail(fp.p.guard(s))
}

// isConstant reports initializers that need no code at run time.
func (fp *funcPlanner) isConstant(e *hir.Expr) bool {
	if e == nil {
		return true
	}
	if fp.plan.Calls[e] != nil {
		return false
	}
	switch d := e.Data.(type) {
	case hir.LiteralData, hir.TemplateValueData:
		return true
	case hir.UnaryData:
		switch d.Op {
		case "-", "+", "!", "~":
			return fp.isConstant(d.Operand)
		}
		return false
	case hir.BinaryData:
		return fp.isConstant(d.Left) && fp.isConstant(d.Right)
	case hir.CastData:
		return fp.isConstant(d.Operand)
	case hir.CondData:
		return fp.isConstant(d.Cond) && fp.isConstant(d.Then) && fp.isConstant(d.Else)
	}
	return false
}

// PlanStatics plans class static members and namespace-scope globals in
// the documented order: class statics in class then member order, then
// globals in declaration order. A slot whose initializer fails is dropped
// alone; statics of classes whose layout failed are skipped without a
// report (the class reports it).
func (p *Planner) PlanStatics() (*StaticPlan, error) {
	void := p.Table.Types.Builtins().Void
	root := &symbols.Func{Name: StaticInitName, Kind: symbols.FuncFree, Result: void}
	fp := p.newFuncPlanner(root, nil, StaticInitName)
	fp.push(scopeFunc)
	plan := &StaticPlan{}
	dynamic := false

	add := func(caller *symbols.Func, k mangle.Key, src string, st *symbols.Static) {
		fp.caller = caller
		fp.full(nil, false)
		mark := len(fp.errs)
		s, err := p.slot(k, src, st.Type, st.Span)
		if err != nil {
			fp.fail(err)
			return
		}
		fp.staticInit(s, st.Type, st.Init, st.Args, st.Direct, st.Span)
		if len(fp.errs) > mark {
			plan.Failed = append(plan.Failed, s.Name)
			return
		}
		dynamic = dynamic || s.Dynamic()
		plan.Slots = append(plan.Slots, s)
	}

	for _, c := range p.Table.Classes() {
		if len(c.Statics) == 0 {
			continue
		}
		if _, err := p.layoutOf(c); err != nil {
			continue
		}
		caller := &symbols.Func{Name: StaticInitName, Kind: symbols.FuncStatic, Class: c.ID, Scope: c.Scope, Result: void}
		for i := range c.Statics {
			st := &c.Statics[i]
			add(caller, mangle.StaticKey(c, st.Name, false), c.QualifiedName()+"::"+st.Name, st)
		}
	}
	for _, g := range p.Table.Globals() {
		caller := &symbols.Func{Name: StaticInitName, Kind: symbols.FuncFree, Scope: g.Scope, Result: void}
		add(caller, mangle.GlobalKey(g, false), g.QualifiedName(), &g.Static)
	}
	fp.pop()
	if dynamic {
		plan.Init = fp.plan
	}
	return plan, fp.err()
}
