package lifetime

import (
	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/mangle"
	"xclower/internal/resolve"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

func (fp *funcPlanner) block(b *hir.Block, kind scopeKind) {
	if b == nil {
		return
	}
	s := fp.push(kind)
	for _, st := range b.Stmts {
		fp.stmt(st)
	}
	fp.pop()
	fp.plan.Ends[b] = reversed(s.objects)
}

// full prepares the per full-expression state for statement st.
func (fp *funcPlanner) full(st *hir.Stmt, temps bool) {
	fp.cur = st
	fp.pending = 0
	fp.cond = 0
	fp.tempsOK = temps
}

func (fp *funcPlanner) stmt(st *hir.Stmt) {
	if st == nil {
		return
	}
	switch d := st.Data.(type) {
	case hir.DeclData:
		fp.full(st, true)
		fp.decl(st, d)
	case hir.ExprStmtData:
		fp.full(st, true)
		fp.bind(d.Expr)
		fp.scan(d.Expr, posDiscard)
	case hir.ReturnData:
		fp.full(st, true)
		fp.ret(st, d)
	case hir.BreakData, hir.ContinueData:
		fp.loopExit(st)
	case hir.IfStmtData:
		fp.condition(st, d.Cond)
		fp.block(d.Then, scopeBlock)
		fp.block(d.Else, scopeBlock)
	case hir.WhileData:
		fp.condition(st, d.Cond)
		fp.block(d.Body, scopeLoop)
	case hir.ForData:
		s := fp.push(scopeFor)
		fp.stmt(d.Init)
		fp.condition(st, d.Cond)
		fp.condition(st, d.Post)
		fp.block(d.Body, scopeLoop)
		fp.pop()
		fp.plan.LoopEnds[st] = reversed(s.objects)
	case hir.BlockStmtData:
		fp.block(d.Block, scopeBlock)
	case hir.UnsupportedStmtData:
		fp.failf(diag.LowUnsupportedConstruct, st.Span, "%s is not supported", d.Feature)
	default:
		fp.failf(diag.InputMalformed, st.Span, "unexpected statement %s", st.Kind)
	}
}

// condition plans an expression evaluated repeatedly or conditionally:
// temporaries have nowhere to live there.
func (fp *funcPlanner) condition(st *hir.Stmt, e *hir.Expr) {
	if e == nil {
		return
	}
	fp.full(st, false)
	fp.bind(e)
	fp.scan(e, posValue)
}

// cleanupsTo collects the objects to destroy when leaving every scope up to
// and including the innermost scope of kind stop (the whole function when
// stop is scopeFunc).
func (fp *funcPlanner) cleanupsTo(stop scopeKind) []*Object {
	var out []*Object
	for i := len(fp.scopes) - 1; i >= 0; i-- {
		s := fp.scopes[i]
		out = append(out, reversed(s.objects)...)
		if stop != scopeFunc && s.kind == stop {
			break
		}
	}
	return out
}

func (fp *funcPlanner) loopExit(st *hir.Stmt) {
	inLoop := false
	for _, s := range fp.scopes {
		if s.kind == scopeLoop {
			inLoop = true
		}
	}
	if !inLoop {
		fp.failf(diag.InputMalformed, st.Span, "%s outside a loop", st.Kind)
		return
	}
	fp.plan.Exits[st] = &Exit{Cleanups: fp.cleanupsTo(scopeLoop)}
}

func (fp *funcPlanner) ret(st *hir.Stmt, d hir.ReturnData) {
	exit := &Exit{}
	fp.plan.Exits[st] = exit
	fp.retPlan(st, d, exit)
	if exit.Ret == "" && d.Value != nil && exit.Moved == nil && fp.cleanTemps(st) {
		// the value may read a temporary destroyed before the jump
		exit.Ret = fp.newRet()
	}
}

func (fp *funcPlanner) cleanTemps(st *hir.Stmt) bool {
	for _, t := range fp.plan.Temps[st] {
		if !t.Moved {
			return true
		}
	}
	return false
}

func (fp *funcPlanner) retPlan(st *hir.Stmt, d hir.ReturnData, exit *Exit) {
	all := fp.cleanupsTo(scopeFunc)
	if fp.dtor {
		exit.Label = MemberCleanupLabel
		fp.plan.Returns = true
	}
	if d.Value == nil {
		exit.Cleanups = all
		return
	}
	result := fp.typeOf(fp.caller.Result)
	if fp.plan.Instance != nil {
		result = fp.plan.Instance.Result
	}
	c := fp.valueClass(result)
	if c == nil {
		fp.bind(d.Value)
		fp.scan(d.Value, posValue)
		exit.Cleanups = all
		if len(all) > 0 {
			exit.Ret = fp.newRet()
		}
		return
	}
	switch data := d.Value.Data.(type) {
	case hir.ConstructData:
		fp.bindExprs(data.Args)
		rc := fp.construct(c, data.Args, d.Value.Span)
		exit.Construct = rc
		fp.scanArgs(data.Args, rc)
		exit.Ret = fp.newRet()
		exit.Cleanups = all
		return
	case hir.VarRefData:
		fp.bind(d.Value)
		if obj := fp.owned(data.Name); obj != nil && fp.valueClass(d.Value.Type) == c {
			exit.Moved = obj
			exit.Cleanups = without(all, obj)
			if len(exit.Cleanups) > 0 {
				exit.Ret = fp.newRet()
			}
			return
		}
		fp.returnCopy(exit, d.Value, c)
		exit.Cleanups = all
		return
	}
	fp.bind(d.Value)
	if d.Value.IsLValue() {
		fp.returnCopy(exit, d.Value, c)
	} else {
		fp.scan(d.Value, posDirect)
	}
	exit.Cleanups = all
	if len(all) > 0 || exit.Copy != nil {
		exit.Ret = fp.newRet()
	}
}

// returnCopy returns a class lvalue that stays alive: a copy is made.
func (fp *funcPlanner) returnCopy(exit *Exit, v *hir.Expr, c *symbols.Class) {
	fp.scan(v, posValue)
	if fp.p.Resolver.CopyCtor(c) == nil {
		return
	}
	exit.Copy = fp.construct(c, []*hir.Expr{v}, v.Span)
	if exit.Ret == "" {
		exit.Ret = fp.newRet()
	}
}

// owned finds the scope object that a local or by-value parameter name
// denotes.
func (fp *funcPlanner) owned(name string) *Object {
	v, ok := fp.lookup(name)
	if !ok {
		return nil
	}
	for i := len(fp.scopes) - 1; i >= 0; i-- {
		for _, obj := range fp.scopes[i].objects {
			if obj.Name == v.Name {
				return obj
			}
		}
	}
	return nil
}

func without(objs []*Object, drop *Object) []*Object {
	out := make([]*Object, 0, len(objs))
	for _, o := range objs {
		if o != drop {
			out = append(out, o)
		}
	}
	return out
}

func (fp *funcPlanner) decl(st *hir.Stmt, d hir.DeclData) {
	t := fp.typeOf(d.Type)
	name := localName(d.Name)
	if d.Static {
		fp.localStatic(st, d, t)
		return
	}
	if fp.in.Kind(t) == types.KindArray && fp.valueClass(fp.in.Base(t)) != nil {
		fp.failf(diag.LowUnsupportedConstruct, st.Span, "array of class objects %s", d.Name)
		return
	}
	plan := &Decl{Name: name, Type: t}
	fp.plan.Decls[st] = plan
	v := &Var{Name: name, Type: t}
	c := fp.valueClass(t)
	switch {
	case fp.in.IsRef(t):
		plan.Kind = DeclRef
		v.Ref = true
		plan.Value = d.Init
		fp.bind(d.Init)
		if d.Init == nil || !fp.refBindable(d.Init) {
			fp.failf(diag.LowUnsupportedConstruct, st.Span, "reference %s must bind to an lvalue", d.Name)
		}
		fp.scan(d.Init, posAddress)
	case c != nil:
		fp.classInit(plan, c, d.Init, d.Args, st.Span)
		plan.Object = fp.object(name, c, st.Span)
		fp.top().objects = append(fp.top().objects, plan.Object)
	default:
		plan.Kind = DeclScalar
		plan.Value = d.Init
		fp.bind(d.Init)
		fp.scan(d.Init, posValue)
	}
	fp.top().vars[d.Name] = v
}

// refBindable reports initializers a reference local can point at.
func (fp *funcPlanner) refBindable(e *hir.Expr) bool {
	if e.IsLValue() {
		return true
	}
	if rc := fp.plan.Calls[e]; rc != nil && fp.in.IsRef(rc.Result) {
		return true
	}
	return false
}

// classInit fills plan for an object of class c initialized by `= init`
// or `(args)`. Used for locals, members and static slots.
func (fp *funcPlanner) classInit(plan *Decl, c *symbols.Class, init *hir.Expr, args []*hir.Expr, sp source.Span) {
	if init == nil && len(args) == 1 {
		// `Point q(p)` copies like `Point q = p`
		if src := fp.exprClass(args[0]); src != nil && fp.p.Table.DerivesFrom(src.ID, c.ID) {
			init, args = args[0], nil
		}
	}
	if init != nil {
		if cd, ok := init.Data.(hir.ConstructData); ok && fp.exprClass(init) == c {
			args, init = cd.Args, nil
		}
	}
	if init == nil {
		fp.bindExprs(args)
		plan.Kind = DeclCtor
		plan.Args = args
		plan.Call = fp.construct(c, args, sp)
		fp.scanArgs(args, plan.Call)
		return
	}
	fp.bind(init)
	src := fp.exprClass(init)
	switch {
	case src != nil && init.Kind != hir.ExprConstruct && !fp.refBindable(init):
		// call result: moved into the object
		plan.Kind = DeclValue
		plan.Value = init
		fp.scan(init, posDirect)
		if src != c && !fp.p.Table.DerivesFrom(src.ID, c.ID) {
			fp.failf(diag.LowNoMatchingOverload, init.Span, "cannot initialize %s from %s", c.QualifiedName(), src.QualifiedName())
		}
	case src != nil && fp.p.Table.DerivesFrom(src.ID, c.ID) && fp.p.Resolver.CopyCtor(c) == nil:
		plan.Kind = DeclValue
		plan.Value = init
		fp.scan(init, posValue)
	case src != nil && fp.p.Table.DerivesFrom(src.ID, c.ID):
		plan.Kind = DeclCopyCtor
		plan.Value = init
		plan.Call = fp.construct(c, []*hir.Expr{init}, init.Span)
		fp.scan(init, posAddress)
	default:
		// converting constructor: `Counter c = 5;`
		plan.Kind = DeclCtor
		plan.Args = []*hir.Expr{init}
		plan.Call = fp.construct(c, plan.Args, init.Span)
		fp.scanArgs(plan.Args, plan.Call)
	}
}

// construct resolves the constructor of c for args.
func (fp *funcPlanner) construct(c *symbols.Class, args []*hir.Expr, sp source.Span) *resolve.ResolvedCall {
	site := &resolve.CallSite{
		Kind:     resolve.CallCtor,
		Class:    c.ID,
		Args:     fp.args(args),
		Caller:   fp.caller,
		Instance: fp.plan.Instance,
		Span:     sp,
	}
	rc, err := fp.p.Resolver.Resolve(site)
	if err != nil {
		fp.fail(err)
		return nil
	}
	return rc
}

func (fp *funcPlanner) localStatic(st *hir.Stmt, d hir.DeclData, t types.TypeID) {
	if fp.statics[d.Name] {
		fp.failf(diag.LowUnsupportedConstruct, st.Span, "two function-local statics named %s", d.Name)
		return
	}
	fp.statics[d.Name] = true
	slot, err := fp.p.slot(mangle.LocalStaticKey(fp.plan.Name, d.Name, false), d.Name, t, st.Span)
	if err != nil {
		fp.fail(err)
		return
	}
	fp.plan.Statics = append(fp.plan.Statics, slot)
	fp.plan.Decls[st] = &Decl{Kind: DeclStatic, Name: slot.Name, Type: t, Slot: slot}
	fp.top().vars[d.Name] = &Var{Name: slot.Name, Type: t}
	fp.staticInit(slot, t, d.Init, d.Args, d.Direct, st.Span)
}
