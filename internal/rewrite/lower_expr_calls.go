package rewrite

import (
	"xclower/internal/hir"
	"xclower/internal/lir"
	"xclower/internal/resolve"
	"xclower/internal/types"
)

// call lowers a bound call, method call or operator into a direct call.
func (fl *funcLowerer) call(e *hir.Expr, rc *resolve.ResolvedCall) *lir.Expr {
	var args []*lir.Expr
	switch d := e.Data.(type) {
	case hir.CallData:
		if rc.Receiver {
			args = append(args, fl.receiver(rc, nil, false))
		}
		args = append(args, fl.arguments(rc, d.Args)...)
	case hir.MethodCallData:
		if rc.Receiver {
			args = append(args, fl.receiver(rc, d.Receiver, d.Arrow))
		}
		args = append(args, fl.arguments(rc, d.Args)...)
	case hir.UnaryData, hir.BinaryData, hir.AssignData, hir.IndexData:
		operands := hir.Children(e)
		if rc.MemberOperator {
			args = append(args, fl.receiver(rc, operands[0], false))
			operands = operands[1:]
		}
		args = append(args, fl.arguments(rc, operands)...)
	default:
		fl.errorf("%s: %s is not a call", fl.plan.Name, e.Kind)
	}
	out := lir.Call(rc.Name, fl.rw.Type(rc.Result), args...)
	if fl.in.IsRef(rc.Result) {
		return lir.Deref(out)
	}
	return out
}

// construct calls an init procedure on target.
func (fl *funcLowerer) construct(target *lir.Expr, rc *resolve.ResolvedCall, args []*hir.Expr) *lir.Stmt {
	if rc == nil {
		fl.errorf("%s: unresolved construction", fl.plan.Name)
		return lir.Do(lir.Lit("0", "int"))
	}
	all := append([]*lir.Expr{lir.AddrOf(target)}, fl.arguments(rc, args)...)
	return lir.Do(lir.Call(rc.Name, "void", all...))
}

// receiver is the object pointer passed first to a member procedure, cast
// to the declaring class when the object is of a derived class.
func (fl *funcLowerer) receiver(rc *resolve.ResolvedCall, obj *hir.Expr, arrow bool) *lir.Expr {
	var p *lir.Expr
	switch {
	case rc.ImplicitThis || obj == nil:
		p = fl.self()
	case arrow:
		p = fl.expr(obj)
	default:
		p = fl.addressOf(obj, "")
	}
	owner := fl.rw.Table.Class(rc.Owner)
	if owner == nil {
		return p
	}
	want := fl.rw.classType(owner).Ptr()
	if sameBase(p.Type, want) {
		return p
	}
	return lir.Cast(want, p)
}

func (fl *funcLowerer) arguments(rc *resolve.ResolvedCall, args []*hir.Expr) []*lir.Expr {
	out := make([]*lir.Expr, len(args))
	for i, a := range args {
		if i < len(rc.Params) {
			out[i] = fl.argument(a, rc.Params[i])
		} else {
			out[i] = fl.expr(a)
		}
	}
	return out
}

// argument passes a to a parameter of type param: references by address
// (rvalues through a compound literal), classes by value through their
// base prefix, pointers cast between related classes.
func (fl *funcLowerer) argument(a *hir.Expr, param types.TypeID) *lir.Expr {
	pt := fl.rw.Type(param)
	if fl.in.IsRef(param) {
		p := fl.addressOf(a, fl.rw.Type(fl.in.StripRef(param)))
		if p.Type.IsPtr() && !sameBase(p.Type, pt) {
			return lir.Cast(pt, p)
		}
		return p
	}
	if c := fl.rw.valueClass(param); c != nil {
		return fl.classValue(a, c)
	}
	v := fl.expr(a)
	if v.Type.IsPtr() && pt.IsPtr() && !sameBase(v.Type, pt) {
		return lir.Cast(pt, v)
	}
	return v
}
