package rewrite

import (
	"fmt"

	"xclower/internal/hir"
	"xclower/internal/lifetime"
	"xclower/internal/lir"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// funcLowerer rewrites one planned body.
type funcLowerer struct {
	rw   *Rewriter
	in   *types.Interner
	plan *lifetime.FuncPlan
	// selfType is the receiver pointer type, empty without a receiver.
	selfType lir.Type
	result   types.TypeID
	// bypass is the expression a temporary is being initialized from; it
	// lowers to its value instead of the temporary's name.
	bypass *hir.Expr
	dirs   []lir.Directive
	err    error
}

func (rw *Rewriter) newFuncLowerer(plan *lifetime.FuncPlan) *funcLowerer {
	fl := &funcLowerer{rw: rw, in: rw.Table.Types, plan: plan}
	if plan.Class != nil && plan.Func != nil && plan.Func.HasReceiver() {
		fl.selfType = rw.classType(plan.Class).Ptr()
	}
	switch {
	case plan.Instance != nil:
		fl.result = plan.Instance.Result
	case plan.Func != nil:
		fl.result = plan.Func.Result
	default:
		fl.result = rw.Table.Types.Builtins().Void
	}
	return fl
}

func (fl *funcLowerer) errorf(format string, args ...any) {
	if fl.err == nil {
		fl.err = fmt.Errorf("rewrite: "+format, args...)
	}
}

func (fl *funcLowerer) directive(kind lir.DirectiveKind, from, to, detail string, sp source.Span) {
	fl.dirs = append(fl.dirs, lir.Directive{Kind: kind, From: from, To: to, Detail: detail, Span: sp})
}

// typeOf applies the instance substitution and spells the result.
func (fl *funcLowerer) typeOf(id types.TypeID) lir.Type {
	return fl.rw.Type(fl.plan.Instance.Type(id))
}

// valueType is the target type of an expression's value.
func (fl *funcLowerer) valueType(e *hir.Expr) lir.Type {
	return fl.rw.Type(fl.in.StripRef(fl.plan.Instance.Type(e.Type)))
}

func (fl *funcLowerer) exprClass(e *hir.Expr) *symbols.Class {
	return fl.rw.valueClass(fl.in.StripRef(fl.plan.Instance.Type(e.Type)))
}

func (fl *funcLowerer) self() *lir.Expr {
	if fl.selfType == "" {
		fl.errorf("%s: receiver used outside a member function", fl.plan.Name)
	}
	return lir.Ident("self", fl.selfType)
}

// member addresses a member of the receiver.
func (fl *funcLowerer) member(name string, t lir.Type) *lir.Expr {
	return lir.Member(lir.Deref(fl.self()), name, t)
}

func (fl *funcLowerer) params() []lir.Param {
	var out []lir.Param
	if fl.selfType != "" {
		out = append(out, lir.Param{Name: "self", Type: fl.selfType})
	}
	if fl.plan.Func == nil {
		return out
	}
	for _, p := range fl.plan.Func.Params {
		v := fl.plan.Params[p.Name]
		if v == nil {
			fl.errorf("%s: parameter %s was not planned", fl.plan.Name, p.Name)
			continue
		}
		out = append(out, lir.Param{Name: v.Name, Type: fl.rw.Type(v.Type)})
	}
	return out
}

// cleanups calls the cleanup procedure of every object, in order.
func (fl *funcLowerer) cleanups(objs []*lifetime.Object, sp source.Span) []*lir.Stmt {
	out := make([]*lir.Stmt, 0, len(objs))
	for _, o := range objs {
		obj := lir.Ident(o.Name, fl.rw.classType(o.Class))
		out = append(out, lir.Do(lir.Call(o.Cleanup, "void", lir.AddrOf(obj))))
		fl.directive(lir.DirInsertCall, o.Name, o.Cleanup, "cleanup", sp)
	}
	return out
}

// Func rewrites a free function, member function or template instance.
func (rw *Rewriter) Func(plan *lifetime.FuncPlan) (*Output, error) {
	fl := rw.newFuncLowerer(plan)
	kind := lir.ProcFunc
	switch {
	case plan.Instance != nil:
		kind = lir.ProcInstance
	case plan.Func.HasReceiver():
		kind = lir.ProcMethod
	}
	src := rw.display(plan)
	proc := &lir.Proc{
		Name:   plan.Name,
		Kind:   kind,
		Source: src,
		Params: fl.params(),
		Result: fl.typeOf(fl.result),
	}
	span := plan.Func.Span
	if plan.Instance != nil {
		span = plan.Instance.Site
	}
	fl.directive(lir.DirRename, src, plan.Name, kind.String(), span)

	if plan.IsMain && rw.StaticInit {
		proc.Body = append(proc.Body, lir.Do(lir.Call(lifetime.StaticInitName, "void")))
		fl.directive(lir.DirInsertCall, "main", lifetime.StaticInitName, "static-init", plan.Func.Span)
	}
	proc.Body = append(proc.Body, fl.block(plan.Func.Body)...)

	out := &Output{Procs: []*lir.Proc{proc}}
	for _, s := range plan.Statics {
		out.Globals = append(out.Globals, fl.global(s))
	}
	out.Directives = fl.dirs
	return out, fl.err
}
