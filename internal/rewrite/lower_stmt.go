package rewrite

import (
	"xclower/internal/hir"
	"xclower/internal/lifetime"
	"xclower/internal/lir"
)

// block lowers b and appends the cleanups of its closing brace unless
// control cannot reach it.
func (fl *funcLowerer) block(b *hir.Block) []*lir.Stmt {
	if b == nil {
		return nil
	}
	var out []*lir.Stmt
	for _, st := range b.Stmts {
		out = append(out, fl.stmt(st)...)
		if terminates(st) {
			return out
		}
	}
	return append(out, fl.cleanups(fl.plan.Ends[b], b.Span)...)
}

// terminates reports whether control never falls out of st: a jump, an if
// whose branches both jump, or a block holding a jump.
func terminates(st *hir.Stmt) bool {
	if st == nil {
		return false
	}
	switch d := st.Data.(type) {
	case hir.ReturnData, hir.BreakData, hir.ContinueData:
		return true
	case hir.IfStmtData:
		return d.Else != nil && blockTerminates(d.Then) && blockTerminates(d.Else)
	case hir.BlockStmtData:
		return blockTerminates(d.Block)
	}
	return false
}

func blockTerminates(b *hir.Block) bool {
	if b == nil {
		return false
	}
	for _, st := range b.Stmts {
		if terminates(st) {
			return true
		}
	}
	return false
}

func (fl *funcLowerer) stmt(st *hir.Stmt) []*lir.Stmt {
	if st == nil {
		return nil
	}
	switch d := st.Data.(type) {
	case hir.DeclData:
		return fl.withTemps(st, func() []*lir.Stmt { return fl.decl(st) })
	case hir.ExprStmtData:
		return fl.withTemps(st, func() []*lir.Stmt { return []*lir.Stmt{lir.Do(fl.expr(d.Expr))} })
	case hir.ReturnData:
		return fl.ret(st, d)
	case hir.BreakData:
		return append(fl.cleanups(fl.exit(st).Cleanups, st.Span), &lir.Stmt{Kind: lir.StmtBreak})
	case hir.ContinueData:
		return append(fl.cleanups(fl.exit(st).Cleanups, st.Span), &lir.Stmt{Kind: lir.StmtContinue})
	case hir.IfStmtData:
		var els []*lir.Stmt
		if d.Else != nil {
			els = fl.block(d.Else)
		}
		return []*lir.Stmt{lir.If(fl.expr(d.Cond), fl.block(d.Then), els)}
	case hir.WhileData:
		kind := lir.StmtWhile
		if st.Kind == hir.StmtDoWhile {
			kind = lir.StmtDoWhile
		}
		return []*lir.Stmt{{Kind: kind, Expr: fl.expr(d.Cond), Body: fl.block(d.Body)}}
	case hir.ForData:
		return fl.forLoop(st, d)
	case hir.BlockStmtData:
		return []*lir.Stmt{lir.Block(fl.block(d.Block)...)}
	}
	fl.errorf("%s: unexpected %s statement", fl.plan.Name, st.Kind)
	return nil
}

func (fl *funcLowerer) exit(st *hir.Stmt) *lifetime.Exit {
	if e := fl.plan.Exits[st]; e != nil {
		return e
	}
	fl.errorf("%s: exit without a plan", fl.plan.Name)
	return &lifetime.Exit{}
}

// forLoop keeps a scalar init inside the loop header; anything else is
// declared in a block around the loop, which also holds the cleanups of
// objects declared by the init.
func (fl *funcLowerer) forLoop(st *hir.Stmt, d hir.ForData) []*lir.Stmt {
	loop := &lir.Stmt{Kind: lir.StmtFor, Body: fl.block(d.Body)}
	init := fl.stmt(d.Init)
	if d.Cond != nil {
		loop.Expr = fl.expr(d.Cond)
	}
	if d.Post != nil {
		loop.Post = fl.expr(d.Post)
	}
	ends := fl.plan.LoopEnds[st]
	if len(init) == 1 && len(ends) == 0 && init[0].Kind == lir.StmtDecl {
		loop.Init = init[0]
		return []*lir.Stmt{loop}
	}
	if len(init) == 0 && len(ends) == 0 {
		return []*lir.Stmt{loop}
	}
	body := append(init, loop)
	body = append(body, fl.cleanups(ends, st.Span)...)
	return []*lir.Stmt{lir.Block(body...)}
}

// withTemps surrounds a statement with the construction and destruction of
// its temporaries.
func (fl *funcLowerer) withTemps(st *hir.Stmt, lower func() []*lir.Stmt) []*lir.Stmt {
	temps := fl.plan.Temps[st]
	out := fl.tempInits(temps)
	out = append(out, lower()...)
	return append(out, fl.tempCleanups(temps)...)
}

func (fl *funcLowerer) tempInits(temps []*lifetime.Temp) []*lir.Stmt {
	var out []*lir.Stmt
	for _, t := range temps {
		ty := fl.rw.classType(t.Class)
		tmp := lir.Ident(t.Name, ty)
		fl.bypass = t.Expr
		switch t.Kind {
		case lifetime.TempCtor:
			d, _ := t.Expr.Data.(hir.ConstructData)
			out = append(out, lir.Decl(t.Name, ty, nil))
			out = append(out, fl.construct(tmp, t.Call, d.Args))
		case lifetime.TempValue:
			out = append(out, lir.Decl(t.Name, ty, fl.expr(t.Expr)))
		case lifetime.TempCopy:
			out = append(out, lir.Decl(t.Name, ty, nil))
			out = append(out, fl.construct(tmp, t.Call, []*hir.Expr{t.Expr}))
		}
		fl.bypass = nil
	}
	return out
}

func (fl *funcLowerer) tempCleanups(temps []*lifetime.Temp) []*lir.Stmt {
	var out []*lir.Stmt
	for i := len(temps) - 1; i >= 0; i-- {
		t := temps[i]
		if t.Moved {
			continue
		}
		out = append(out, lir.Do(lir.Call(t.Cleanup, "void", lir.AddrOf(lir.Ident(t.Name, fl.rw.classType(t.Class))))))
	}
	return out
}

func (fl *funcLowerer) decl(st *hir.Stmt) []*lir.Stmt {
	d := fl.plan.Decls[st]
	if d == nil {
		fl.errorf("%s: declaration without a plan", fl.plan.Name)
		return nil
	}
	t := fl.rw.Type(d.Type)
	switch d.Kind {
	case lifetime.DeclStatic:
		return fl.guarded(d.Slot)
	case lifetime.DeclScalar:
		var init *lir.Expr
		if d.Value != nil {
			init = fl.expr(d.Value)
		}
		return []*lir.Stmt{lir.Decl(d.Name, t, init)}
	case lifetime.DeclRef:
		return []*lir.Stmt{lir.Decl(d.Name, t, fl.addressOf(d.Value, t.Elem()))}
	case lifetime.DeclValue:
		return []*lir.Stmt{lir.Decl(d.Name, t, fl.classValue(d.Value, d.Object.Class))}
	}
	out := []*lir.Stmt{lir.Decl(d.Name, t, nil)}
	out = append(out, fl.initInto(lir.Ident(d.Name, t), d)...)
	if d.Call != nil {
		fl.directive(lir.DirInsertCall, d.Name, d.Call.Name, "init", st.Span)
	}
	return out
}

// initInto stores the planned initial value into target.
func (fl *funcLowerer) initInto(target *lir.Expr, d *lifetime.Decl) []*lir.Stmt {
	switch d.Kind {
	case lifetime.DeclCtor:
		return []*lir.Stmt{fl.construct(target, d.Call, d.Args)}
	case lifetime.DeclCopyCtor:
		return []*lir.Stmt{fl.construct(target, d.Call, []*hir.Expr{d.Value})}
	case lifetime.DeclValue:
		return []*lir.Stmt{lir.Do(lir.Assign("=", target, fl.classValue(d.Value, d.Object.Class)))}
	case lifetime.DeclRef:
		return []*lir.Stmt{lir.Do(lir.Assign("=", target, fl.addressOf(d.Value, target.Type.Elem())))}
	case lifetime.DeclScalar:
		if d.Value == nil {
			return nil
		}
		return []*lir.Stmt{lir.Do(lir.Assign("=", target, fl.expr(d.Value)))}
	}
	fl.errorf("%s: cannot store a %d declaration", fl.plan.Name, d.Kind)
	return nil
}

func (fl *funcLowerer) ret(st *hir.Stmt, d hir.ReturnData) []*lir.Stmt {
	exit := fl.exit(st)
	temps := fl.plan.Temps[st]
	out := fl.tempInits(temps)
	t := fl.typeOf(fl.result)
	var value *lir.Expr
	switch {
	case d.Value == nil:
	case exit.Construct != nil:
		args, _ := d.Value.Data.(hir.ConstructData)
		out = append(out, lir.Decl(exit.Ret, t, nil), fl.construct(lir.Ident(exit.Ret, t), exit.Construct, args.Args))
		value = lir.Ident(exit.Ret, t)
	case exit.Copy != nil:
		out = append(out, lir.Decl(exit.Ret, t, nil), fl.construct(lir.Ident(exit.Ret, t), exit.Copy, []*hir.Expr{d.Value}))
		value = lir.Ident(exit.Ret, t)
	default:
		switch c := fl.rw.valueClass(fl.plan.Instance.Type(fl.result)); {
		case exit.Moved != nil:
			value = lir.Ident(exit.Moved.Name, t)
		case c != nil:
			value = fl.classValue(d.Value, c)
		case fl.in.IsRef(fl.result):
			value = fl.addressOf(d.Value, t.Elem())
		default:
			value = fl.expr(d.Value)
		}
		if exit.Ret != "" {
			out = append(out, lir.Decl(exit.Ret, t, value))
			value = lir.Ident(exit.Ret, t)
		}
	}
	out = append(out, fl.tempCleanups(temps)...)
	out = append(out, fl.cleanups(exit.Cleanups, st.Span)...)
	if exit.Label != "" {
		return append(out, lir.Goto(exit.Label))
	}
	return append(out, lir.Return(value))
}

// guarded runs the dynamic initializer of a static slot once.
func (fl *funcLowerer) guarded(s *lifetime.StaticSlot) []*lir.Stmt {
	if !s.Dynamic() {
		return nil
	}
	guard := lir.Ident(s.Guard, "bool")
	body := fl.initInto(lir.Ident(s.Name, fl.rw.Type(s.Type)), s.Init)
	body = append(body, lir.Do(lir.Assign("=", guard, lir.Lit("1", "bool"))))
	fl.directive(lir.DirInsertCall, s.Source, s.Guard, "guard", s.Span)
	return []*lir.Stmt{lir.If(lir.Unary("!", guard, false), body, nil)}
}

// global declares the storage of a static slot.
func (fl *funcLowerer) global(s *lifetime.StaticSlot) *lir.Global {
	g := &lir.Global{Name: s.Name, Type: fl.rw.Type(s.Type), Guard: s.Guard, Source: s.Source}
	if s.Const != nil {
		g.Init = fl.expr(s.Const)
	}
	fl.directive(lir.DirRename, s.Source, s.Name, "static", s.Span)
	return g
}
