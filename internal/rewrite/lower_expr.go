package rewrite

import (
	"xclower/internal/hir"
	"xclower/internal/lir"
	"xclower/internal/symbols"
)

func (fl *funcLowerer) expr(e *hir.Expr) *lir.Expr {
	if e == nil {
		fl.errorf("%s: missing expression", fl.plan.Name)
		return lir.Lit("0", "int")
	}
	if t := fl.plan.TempOf[e]; t != nil && e != fl.bypass {
		return lir.Ident(t.Name, fl.rw.classType(t.Class))
	}
	if rc := fl.plan.Calls[e]; rc != nil && e.Kind != hir.ExprConstruct {
		return fl.call(e, rc)
	}
	switch d := e.Data.(type) {
	case hir.LiteralData:
		text := d.Text
		if d.Kind == hir.LiteralNull {
			text = "NULL"
		}
		return lir.Lit(text, fl.valueType(e))
	case hir.VarRefData, hir.StaticMemberData:
		return fl.variable(e)
	case hir.ThisData:
		return fl.self()
	case hir.FieldData:
		return fl.field(e, d)
	case hir.UnaryData:
		switch d.Op {
		case "&":
			return lir.AddrOf(fl.expr(d.Operand))
		case "*":
			return lir.Deref(fl.expr(d.Operand))
		}
		return lir.Unary(d.Op, fl.expr(d.Operand), d.Postfix)
	case hir.BinaryData:
		return lir.Binary(d.Op, fl.expr(d.Left), fl.expr(d.Right), fl.valueType(e))
	case hir.AssignData:
		target := fl.expr(d.Target)
		if c := fl.exprClass(d.Target); c != nil {
			// memberwise copy
			return lir.Assign("=", target, fl.classValue(d.Value, c))
		}
		return lir.Assign(d.Op, target, fl.expr(d.Value))
	case hir.IndexData:
		return lir.Index(fl.expr(d.Object), fl.expr(d.Index), fl.valueType(e))
	case hir.CastData:
		return lir.Cast(fl.valueType(e), fl.expr(d.Operand))
	case hir.CondData:
		return lir.Cond(fl.expr(d.Cond), fl.expr(d.Then), fl.expr(d.Else), fl.valueType(e))
	case hir.TemplateValueData:
		v, ok := fl.plan.Instance.Value(d.Name)
		if !ok {
			fl.errorf("%s: template value %s is unbound", fl.plan.Name, d.Name)
		}
		return lir.Lit(v, fl.valueType(e))
	case hir.ConstructData:
		fl.errorf("%s: construction outside a declaration", fl.plan.Name)
	default:
		fl.errorf("%s: unexpected %s expression", fl.plan.Name, e.Kind)
	}
	return lir.Lit("0", "int")
}

func (fl *funcLowerer) variable(e *hir.Expr) *lir.Expr {
	v := fl.plan.Vars[e]
	if v == nil {
		fl.errorf("%s: unbound variable", fl.plan.Name)
		return lir.Lit("0", "int")
	}
	id := lir.Ident(v.Name, fl.rw.Type(v.Type))
	if v.Ref {
		return lir.Deref(id)
	}
	return id
}

func (fl *funcLowerer) field(e *hir.Expr, d hir.FieldData) *lir.Expr {
	slot, ok := fl.plan.Fields[e]
	if !ok {
		fl.errorf("%s: unbound field %s", fl.plan.Name, d.Field)
		return lir.Lit("0", "int")
	}
	var obj *lir.Expr
	switch {
	case d.Object == nil:
		obj = lir.Deref(fl.self())
	case d.Arrow:
		obj = lir.Deref(fl.expr(d.Object))
	default:
		obj = fl.expr(d.Object)
	}
	m := lir.Member(obj, slot.Target, fl.rw.Type(slot.Type))
	if fl.in.IsRef(slot.Type) {
		return lir.Deref(m)
	}
	return m
}

func addressable(e *lir.Expr) bool {
	switch e.Kind {
	case lir.ExprIdent, lir.ExprMember, lir.ExprIndex, lir.ExprDeref:
		return true
	}
	return false
}

// addressOf yields a pointer to e's value; values without storage get a
// compound literal of type elem.
func (fl *funcLowerer) addressOf(e *hir.Expr, elem lir.Type) *lir.Expr {
	v := fl.expr(e)
	if addressable(v) {
		return lir.AddrOf(v)
	}
	if elem == "" {
		elem = v.Type
	}
	return lir.AddrOf(lir.Compound(elem, v))
}

// classValue is e's value as an object of class to; a derived object is
// viewed through its base prefix.
func (fl *funcLowerer) classValue(e *hir.Expr, to *symbols.Class) *lir.Expr {
	from := fl.exprClass(e)
	if from == nil || from == to {
		return fl.expr(e)
	}
	want := fl.rw.classType(to)
	return lir.Deref(lir.Cast(want.Ptr(), fl.addressOf(e, "")))
}
