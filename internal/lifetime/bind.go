package lifetime

import (
	"strconv"

	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/mangle"
	"xclower/internal/mono"
	"xclower/internal/resolve"
	"xclower/internal/symbols"
)

func (fp *funcPlanner) bindExprs(es []*hir.Expr) {
	for _, e := range es {
		fp.bind(e)
	}
}

// bind resolves everything e names, operands first: call sites, variables,
// fields and static members.
func (fp *funcPlanner) bind(e *hir.Expr) {
	if e == nil {
		return
	}
	fp.bindExprs(hir.Children(e))
	switch d := e.Data.(type) {
	case hir.VarRefData:
		fp.bindVar(e, d)
	case hir.StaticMemberData:
		fp.bindStatic(e, d)
	case hir.FieldData:
		fp.bindField(e, d)
	case hir.ThisData:
		if !fp.caller.HasReceiver() {
			fp.failf(diag.InputMalformed, e.Span, "this outside a member function")
		}
	case hir.CallData:
		fp.resolve(e, &resolve.CallSite{
			Kind:         resolve.CallFree,
			Name:         d.Name,
			Scope:        d.Scope,
			TemplateArgs: fp.templateArgs(d.TemplateArgs),
			Args:         fp.args(d.Args),
		})
	case hir.MethodCallData:
		recv := fp.in.StripRef(fp.typeOf(d.Receiver.Type))
		if d.Arrow {
			recv = fp.in.Elem(recv)
		}
		if fp.p.valueClass(recv) == nil {
			fp.failf(diag.InputMalformed, e.Span, "method %s called on non-class %s", d.Method, fp.in.Spell(recv))
			return
		}
		fp.resolve(e, &resolve.CallSite{
			Kind:         resolve.CallMethod,
			Name:         d.Method,
			Qualifier:    d.Qualifier,
			Receiver:     recv,
			TemplateArgs: fp.templateArgs(d.TemplateArgs),
			Args:         fp.args(d.Args),
		})
	case hir.ConstructData:
		c := fp.exprClass(e)
		if c == nil {
			fp.failf(diag.InputBadType, e.Span, "construction of non-class %s", fp.in.Spell(fp.typeOf(e.Type)))
			return
		}
		fp.resolve(e, &resolve.CallSite{Kind: resolve.CallCtor, Class: c.ID, Args: fp.args(d.Args)})
	case hir.UnaryData:
		if d.Op == "&" || d.Op == "*" || fp.exprClass(d.Operand) == nil {
			return
		}
		fp.operator(e, d.Op, true, d.Postfix, d.Operand)
	case hir.BinaryData:
		if fp.exprClass(d.Left) == nil && fp.exprClass(d.Right) == nil {
			return
		}
		fp.operator(e, d.Op, false, false, d.Left, d.Right)
	case hir.AssignData:
		tc := fp.exprClass(d.Target)
		if tc == nil {
			return
		}
		if d.Op == "=" && !fp.p.Resolver.HasOperator(tc, "=") {
			// memberwise copy
			if vc := fp.exprClass(d.Value); vc == nil || !fp.p.Table.DerivesFrom(vc.ID, tc.ID) {
				fp.failf(diag.LowNoMatchingOverload, e.Span, "cannot assign %s to %s", fp.in.Spell(fp.typeOf(d.Value.Type)), tc.QualifiedName())
			}
			return
		}
		fp.operator(e, d.Op, false, false, d.Target, d.Value)
	case hir.IndexData:
		if fp.exprClass(d.Object) != nil {
			fp.operator(e, "[]", false, false, d.Object, d.Index)
		}
	case hir.CastData:
		if fp.exprClass(e) != nil {
			fp.failf(diag.LowUnsupportedConstruct, e.Span, "cast to class %s", fp.in.Spell(fp.typeOf(e.Type)))
		}
	case hir.TemplateValueData:
		if _, ok := fp.plan.Instance.Value(d.Name); !ok {
			fp.failf(diag.LowUnresolvedTemplateParameter, e.Span, "template value %s has no argument here", d.Name)
		}
	case hir.UnsupportedData:
		fp.failf(diag.LowUnsupportedConstruct, e.Span, "%s is not supported", d.Feature)
	}
}

func (fp *funcPlanner) operator(e *hir.Expr, op string, unary, postfix bool, operands ...*hir.Expr) {
	fp.resolve(e, &resolve.CallSite{
		Kind:    resolve.CallOperator,
		Name:    op,
		Args:    fp.args(operands),
		Unary:   unary,
		Postfix: postfix,
	})
}

func (fp *funcPlanner) resolve(e *hir.Expr, site *resolve.CallSite) {
	site.Caller = fp.caller
	site.Instance = fp.plan.Instance
	site.Span = e.Span
	rc, err := fp.p.Resolver.Resolve(site)
	if err != nil {
		fp.fail(err)
		return
	}
	fp.plan.Calls[e] = rc
}

func (fp *funcPlanner) args(es []*hir.Expr) []resolve.Arg {
	out := make([]resolve.Arg, 0, len(es))
	for _, e := range es {
		out = append(out, fp.arg(e))
	}
	return out
}

func (fp *funcPlanner) arg(e *hir.Expr) resolve.Arg {
	a := resolve.Arg{Type: fp.in.StripRef(fp.typeOf(e.Type)), LValue: fp.refBindable(e)}
	switch d := e.Data.(type) {
	case hir.LiteralData:
		switch d.Kind {
		case hir.LiteralInt:
			a.Literal, a.Int = true, d.Int
		case hir.LiteralNull:
			a.Null = true
		}
	case hir.UnaryData:
		if lit, ok := d.Operand.Data.(hir.LiteralData); ok && d.Op == "-" && lit.Kind == hir.LiteralInt {
			a.Literal, a.Int = true, -lit.Int
		}
	case hir.TemplateValueData:
		if v, ok := fp.plan.Instance.Value(d.Name); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				a.Literal, a.Int = true, n
			}
		}
	}
	return a
}

func (fp *funcPlanner) templateArgs(tas []hir.TemplateArg) []mono.Arg {
	out := make([]mono.Arg, 0, len(tas))
	for _, ta := range tas {
		if ta.IsValue {
			v := ta.Value
			if bound, ok := fp.plan.Instance.Value(v); ok {
				v = bound
			}
			out = append(out, mono.Arg{Value: v, IsValue: true})
			continue
		}
		out = append(out, mono.Arg{Type: fp.typeOf(ta.Type)})
	}
	return out
}

func (fp *funcPlanner) bindVar(e *hir.Expr, d hir.VarRefData) {
	if d.Kind != hir.VarGlobal {
		if v, ok := fp.lookup(d.Name); ok {
			fp.plan.Vars[e] = v
			return
		}
		fp.failf(diag.InputUnknownSymbol, e.Span, "unknown variable %s", d.Name)
		return
	}
	id, ok := fp.p.Table.LookupGlobal(d.Name, fp.caller.Scope)
	if !ok {
		fp.failf(diag.InputUnknownSymbol, e.Span, "unknown global %s", d.Name)
		return
	}
	g := fp.p.Table.Global(id)
	name, err := fp.p.Mangler.Mangle(mangle.GlobalKey(g, false))
	if err != nil {
		fp.failf(diag.LowUnsupportedConstruct, e.Span, "global %s: %v", g.QualifiedName(), err)
		return
	}
	fp.plan.Vars[e] = &Var{Name: name, Type: g.Type, Ref: fp.in.IsRef(g.Type)}
}

func (fp *funcPlanner) bindStatic(e *hir.Expr, d hir.StaticMemberData) {
	id, ok := fp.p.Table.LookupClass(d.Class, fp.caller.Scope)
	if !ok {
		fp.failf(diag.InputUnknownSymbol, e.Span, "unknown class %s", d.Class)
		return
	}
	for c := fp.p.Table.Class(id); c != nil; c = fp.p.Table.Base(c) {
		s, ok := c.Static(d.Name)
		if !ok {
			continue
		}
		name, err := fp.p.Mangler.Mangle(mangle.StaticKey(c, d.Name, false))
		if err != nil {
			fp.failf(diag.LowUnsupportedConstruct, e.Span, "static %s::%s: %v", c.QualifiedName(), d.Name, err)
			return
		}
		fp.plan.Vars[e] = &Var{Name: name, Type: s.Type}
		return
	}
	fp.failf(diag.InputUnknownSymbol, e.Span, "%s has no static member %s", d.Class, d.Name)
}

func (fp *funcPlanner) bindField(e *hir.Expr, d hir.FieldData) {
	var c *symbols.Class
	if d.Object == nil {
		c = fp.plan.Class
		if c == nil || !fp.caller.HasReceiver() {
			fp.failf(diag.InputMalformed, e.Span, "field %s used without an object", d.Field)
			return
		}
	} else {
		t := fp.in.StripRef(fp.typeOf(d.Object.Type))
		if d.Arrow {
			t = fp.in.Elem(t)
		}
		c = fp.p.valueClass(t)
	}
	if c == nil {
		fp.failf(diag.InputMalformed, e.Span, "field %s of a non-class value", d.Field)
		return
	}
	l, err := fp.p.layoutOf(c)
	if err != nil {
		fp.fail(err)
		return
	}
	if d.Owner != "" {
		if owner, ok := fp.p.Table.LookupClass(d.Owner, c.Scope); ok {
			if slot, ok := l.Lookup(owner, d.Field); ok {
				fp.plan.Fields[e] = slot
				return
			}
		}
	}
	if slot, ok := l.LookupName(d.Field); ok {
		fp.plan.Fields[e] = slot
		return
	}
	fp.failf(diag.InputUnknownSymbol, e.Span, "%s has no field %s", c.QualifiedName(), d.Field)
}
