package lifetime

import (
	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/resolve"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// pos is the way a value is consumed by its parent.
type pos uint8

const (
	posValue pos = iota
	// posAddress needs storage: receivers and reference bindings.
	posAddress
	// posDirect initializes a declared object or the return value.
	posDirect
	// posMove passes a class by value.
	posMove
	// posDiscard is the top of an expression statement.
	posDiscard
)

// scan walks e in evaluation order and decides which class values become
// temporaries. pending counts calls and stores already evaluated in place
// in the current full-expression: hoisting a temporary in front of the
// statement after one of them would reorder side effects.
func (fp *funcPlanner) scan(e *hir.Expr, at pos) {
	if e == nil {
		return
	}
	before := fp.pending
	rc := fp.plan.Calls[e]
	switch d := e.Data.(type) {
	case hir.CallData:
		fp.scanArgs(d.Args, rc)
	case hir.MethodCallData:
		if d.Arrow {
			fp.scan(d.Receiver, posValue)
		} else {
			fp.scan(d.Receiver, posAddress)
		}
		fp.scanArgs(d.Args, rc)
	case hir.ConstructData:
		fp.scanArgs(d.Args, rc)
	case hir.FieldData:
		if d.Arrow {
			fp.scan(d.Object, posValue)
		} else {
			fp.scan(d.Object, posAddress)
		}
	case hir.UnaryData:
		switch {
		case rc != nil:
			fp.scanOperands(rc, d.Operand)
		case d.Op == "&":
			fp.scan(d.Operand, posAddress)
		default:
			fp.scan(d.Operand, posValue)
		}
	case hir.BinaryData:
		switch {
		case rc != nil:
			fp.scanOperands(rc, d.Left, d.Right)
		case d.Op == "&&" || d.Op == "||":
			fp.scan(d.Left, posValue)
			fp.cond++
			fp.scan(d.Right, posValue)
			fp.cond--
		default:
			fp.scan(d.Left, posValue)
			fp.scan(d.Right, posValue)
		}
	case hir.AssignData:
		if rc != nil {
			fp.scanOperands(rc, d.Target, d.Value)
		} else {
			fp.scan(d.Target, posAddress)
			fp.scan(d.Value, posValue)
		}
	case hir.IndexData:
		if rc != nil {
			fp.scanOperands(rc, d.Object, d.Index)
		} else {
			fp.scan(d.Object, posValue)
			fp.scan(d.Index, posValue)
		}
	case hir.CondData:
		fp.scan(d.Cond, posValue)
		fp.cond++
		fp.scan(d.Then, posValue)
		fp.scan(d.Else, posValue)
		fp.cond--
	case hir.CastData:
		fp.scan(d.Operand, posValue)
	}
	fp.settle(e, at, before)
}

func (fp *funcPlanner) scanArgs(args []*hir.Expr, rc *resolve.ResolvedCall) {
	for i, a := range args {
		at := posValue
		if rc != nil && i < len(rc.Params) {
			at = fp.argPos(rc.Params[i])
		}
		fp.scan(a, at)
	}
}

func (fp *funcPlanner) scanOperands(rc *resolve.ResolvedCall, operands ...*hir.Expr) {
	if rc.MemberOperator {
		fp.scan(operands[0], posAddress)
		fp.scanArgs(operands[1:], rc)
		return
	}
	fp.scanArgs(operands, rc)
}

func (fp *funcPlanner) argPos(param types.TypeID) pos {
	switch {
	case fp.in.IsRef(param):
		return posAddress
	case fp.p.valueClass(param) != nil:
		return posMove
	}
	return posValue
}

// classRvalue reports constructions and calls returning a class by value.
func (fp *funcPlanner) classRvalue(e *hir.Expr) bool {
	if e.Kind == hir.ExprConstruct {
		return true
	}
	rc := fp.plan.Calls[e]
	return rc != nil && !fp.in.IsRef(rc.Result) && fp.p.valueClass(rc.Result) != nil
}

func (fp *funcPlanner) effectful(e *hir.Expr) bool {
	if fp.plan.Calls[e] != nil {
		return true
	}
	switch d := e.Data.(type) {
	case hir.CallData, hir.MethodCallData, hir.AssignData:
		return true
	case hir.UnaryData:
		return d.Op == "++" || d.Op == "--"
	}
	return false
}

func (fp *funcPlanner) settle(e *hir.Expr, at pos, before int) {
	c := fp.exprClass(e)
	switch {
	case c != nil && fp.classRvalue(e):
		switch {
		case at == posDirect && e.Kind != hir.ExprConstruct:
			fp.pending++
		case at == posMove && e.Kind != hir.ExprConstruct:
			fp.pending++
		default:
			fp.hoist(e, c, at == posMove, before, tempKind(e), fp.plan.Calls[e])
		}
	case c != nil && at == posMove && fp.p.Resolver.CopyCtor(c) != nil:
		if rc := fp.construct(c, []*hir.Expr{e}, e.Span); rc != nil {
			fp.hoist(e, c, true, before, TempCopy, rc)
		}
	case fp.effectful(e):
		fp.pending++
	}
}

// tempKind tells how a hoisted class value is produced.
func tempKind(e *hir.Expr) TempKind {
	if e.Kind == hir.ExprConstruct {
		return TempCtor
	}
	return TempValue
}

func (fp *funcPlanner) hoist(e *hir.Expr, c *symbols.Class, moved bool, before int, kind TempKind, call *resolve.ResolvedCall) {
	// everything evaluated inside e moves in front of the statement with it
	fp.pending = before
	switch {
	case !fp.tempsOK || fp.cur == nil:
		fp.failf(diag.LowUnsupportedConstruct, e.Span, "temporary %s cannot be materialized in this position", c.QualifiedName())
		return
	case fp.cond > 0:
		fp.failf(diag.LowUnsupportedConstruct, e.Span, "temporary %s in a conditionally evaluated operand", c.QualifiedName())
		return
	case before > 0:
		fp.failf(diag.LowUnsupportedConstruct, e.Span, "temporary %s would be constructed before an earlier call of the same expression", c.QualifiedName())
		return
	}
	t := &Temp{Kind: kind, Name: fp.newTemp(), Expr: e, Class: c, Call: call, Moved: moved}
	t.Cleanup = fp.object(t.Name, c, e.Span).Cleanup
	fp.plan.Temps[fp.cur] = append(fp.plan.Temps[fp.cur], t)
	fp.plan.TempOf[e] = t
}
