package hirio

import (
	"strconv"
	"strings"

	"xclower/internal/diag"
	"xclower/internal/hir"
	"xclower/internal/source"
	"xclower/internal/types"
)

func (l *loader) block(b *Block, sc *scope) *hir.Block {
	out := &hir.Block{Span: l.span(b.Span)}
	for _, s := range b.Stmts {
		if st := l.stmt(s, sc); st != nil {
			out.Stmts = append(out.Stmts, st)
		}
	}
	return out
}

func (l *loader) optBlock(b *Block, sc *scope) *hir.Block {
	if b == nil {
		return nil
	}
	return l.block(b, sc)
}

func (l *loader) stmt(s *Stmt, sc *scope) *hir.Stmt {
	if s == nil {
		return nil
	}
	sp := l.span(s.Span)
	st := &hir.Stmt{Span: sp}
	switch s.Kind {
	case "decl":
		st.Kind = hir.StmtDecl
		args := l.exprs(s.Args, sc)
		st.Data = hir.DeclData{
			Name:   s.Name,
			Type:   l.typ(s.Type, sc, sp),
			Init:   l.optExpr(s.Init, sc),
			Args:   args,
			Direct: s.Direct || len(args) > 0,
			Static: s.Static,
		}
	case "expr":
		st.Kind = hir.StmtExpr
		if s.Expr == nil {
			l.failf(diag.InputMalformed, sp, "expression statement without an expression")
			return nil
		}
		st.Data = hir.ExprStmtData{Expr: l.expr(s.Expr, sc)}
	case "return":
		st.Kind = hir.StmtReturn
		st.Data = hir.ReturnData{Value: l.optExpr(s.Expr, sc)}
	case "break":
		st.Kind, st.Data = hir.StmtBreak, hir.BreakData{}
	case "continue":
		st.Kind, st.Data = hir.StmtContinue, hir.ContinueData{}
	case "if":
		st.Kind = hir.StmtIf
		st.Data = hir.IfStmtData{Cond: l.expr(s.Cond, sc), Then: l.body(s.Then, sc), Else: l.optBlock(s.Else, sc)}
	case "while", "do_while":
		st.Kind = hir.StmtWhile
		if s.Kind == "do_while" {
			st.Kind = hir.StmtDoWhile
		}
		st.Data = hir.WhileData{Cond: l.expr(s.Cond, sc), Body: l.body(s.Body, sc)}
	case "for":
		st.Kind = hir.StmtFor
		st.Data = hir.ForData{
			Init: l.stmt(s.ForInit, sc),
			Cond: l.optExpr(s.Cond, sc),
			Post: l.optExpr(s.Post, sc),
			Body: l.body(s.Body, sc),
		}
	case "block":
		st.Kind = hir.StmtBlock
		st.Data = hir.BlockStmtData{Block: l.body(s.Body, sc)}
	case "unsupported":
		st.Kind = hir.StmtUnsupported
		st.Data = hir.UnsupportedStmtData{Feature: s.Feature}
	default:
		l.failf(diag.InputMalformed, sp, "unknown statement kind %q", s.Kind)
		return nil
	}
	return st
}

// body reads a required block; a missing one is an empty block.
func (l *loader) body(b *Block, sc *scope) *hir.Block {
	if b == nil {
		return &hir.Block{}
	}
	return l.block(b, sc)
}

func (l *loader) exprs(xs []*Expr, sc *scope) []*hir.Expr {
	if len(xs) == 0 {
		return nil
	}
	out := make([]*hir.Expr, 0, len(xs))
	for _, x := range xs {
		out = append(out, l.expr(x, sc))
	}
	return out
}

func (l *loader) optExpr(x *Expr, sc *scope) *hir.Expr {
	if x == nil {
		return nil
	}
	return l.expr(x, sc)
}

var exprKinds = map[string]hir.ExprKind{
	"literal":        hir.ExprLiteral,
	"var":            hir.ExprVarRef,
	"this":           hir.ExprThis,
	"field":          hir.ExprField,
	"static_member":  hir.ExprStaticMember,
	"call":           hir.ExprCall,
	"method_call":    hir.ExprMethodCall,
	"unary":          hir.ExprUnary,
	"binary":         hir.ExprBinary,
	"assign":         hir.ExprAssign,
	"construct":      hir.ExprConstruct,
	"cast":           hir.ExprCast,
	"cond":           hir.ExprCond,
	"index":          hir.ExprIndex,
	"template_value": hir.ExprTemplateValue,
	"unsupported":    hir.ExprUnsupported,
}

var varKinds = map[string]hir.VarKind{
	"":       hir.VarLocal,
	"local":  hir.VarLocal,
	"param":  hir.VarParam,
	"global": hir.VarGlobal,
}

func (l *loader) expr(x *Expr, sc *scope) *hir.Expr {
	if x == nil {
		l.failf(diag.InputMalformed, source.Span{}, "missing expression")
		return &hir.Expr{Kind: hir.ExprUnsupported, Data: hir.UnsupportedData{Feature: "missing expression"}}
	}
	sp := l.span(x.Span)
	kind, ok := exprKinds[x.Kind]
	if !ok {
		l.failf(diag.InputMalformed, sp, "unknown expression kind %q", x.Kind)
		return &hir.Expr{Kind: hir.ExprUnsupported, Span: sp, Data: hir.UnsupportedData{Feature: x.Kind}}
	}
	e := &hir.Expr{Kind: kind, Span: sp, Type: l.typ(x.Type, sc, sp)}
	switch kind {
	case hir.ExprLiteral:
		e.Data = l.literal(x, sp)
	case hir.ExprVarRef:
		vk, ok := varKinds[x.Var]
		if !ok {
			l.failf(diag.InputMalformed, sp, "unknown variable kind %q", x.Var)
		}
		e.Data = hir.VarRefData{Name: x.Name, Kind: vk}
	case hir.ExprThis:
		e.Data = hir.ThisData{}
	case hir.ExprField:
		e.Data = hir.FieldData{Object: l.optExpr(x.Object, sc), Field: x.Field, Owner: x.Owner, Arrow: x.Arrow}
	case hir.ExprStaticMember:
		e.Data = hir.StaticMemberData{Class: x.Class, Name: x.Name}
	case hir.ExprCall:
		e.Data = hir.CallData{Name: x.Name, Scope: x.Scope, TemplateArgs: l.templateArgs(x.TemplateArgs, sc, sp), Args: l.exprs(x.Args, sc)}
	case hir.ExprMethodCall:
		e.Data = hir.MethodCallData{
			Receiver:     l.expr(x.Receiver, sc),
			Arrow:        x.Arrow,
			Qualifier:    x.Qualifier,
			Method:       x.Method,
			TemplateArgs: l.templateArgs(x.TemplateArgs, sc, sp),
			Args:         l.exprs(x.Args, sc),
		}
	case hir.ExprUnary:
		e.Data = hir.UnaryData{Op: x.Op, Operand: l.expr(x.Operand, sc), Postfix: x.Postfix}
	case hir.ExprBinary:
		e.Data = hir.BinaryData{Op: x.Op, Left: l.expr(x.Left, sc), Right: l.expr(x.Right, sc)}
	case hir.ExprAssign:
		op := x.Op
		if op == "" {
			op = "="
		}
		e.Data = hir.AssignData{Op: op, Target: l.expr(x.Target, sc), Value: l.expr(x.Value, sc)}
	case hir.ExprConstruct:
		e.Data = hir.ConstructData{Args: l.exprs(x.Args, sc)}
	case hir.ExprCast:
		e.Data = hir.CastData{Operand: l.expr(x.Operand, sc)}
	case hir.ExprCond:
		e.Data = hir.CondData{Cond: l.expr(x.Cond, sc), Then: l.expr(x.Then, sc), Else: l.expr(x.Else, sc)}
	case hir.ExprIndex:
		e.Data = hir.IndexData{Object: l.expr(x.Object, sc), Index: l.expr(x.Index, sc)}
	case hir.ExprTemplateValue:
		if _, ok := sc.templateParam(x.Name); !ok {
			l.failf(diag.InputUnknownSymbol, sp, "template parameter %s is not in scope", x.Name)
		}
		e.Data = hir.TemplateValueData{Name: x.Name}
	case hir.ExprUnsupported:
		e.Data = hir.UnsupportedData{Feature: x.Feature}
	}
	return e
}

func (l *loader) literal(x *Expr, sp source.Span) hir.LiteralData {
	d := hir.LiteralData{Text: x.Text, Int: x.Int}
	switch x.Lit {
	case "", "int":
		d.Kind = hir.LiteralInt
		if d.Text == "" {
			d.Text = strconv.FormatInt(d.Int, 10)
		} else if v, ok := parseInt(d.Text); ok {
			d.Int = v
		}
	case "float":
		d.Kind = hir.LiteralFloat
	case "bool":
		d.Kind = hir.LiteralBool
		if d.Text == "" {
			d.Text = strconv.FormatBool(d.Int != 0)
		}
		if d.Text == "true" {
			d.Int = 1
		}
	case "char":
		d.Kind = hir.LiteralChar
	case "string":
		d.Kind = hir.LiteralString
	case "null":
		d.Kind = hir.LiteralNull
		d.Text = "nullptr"
	default:
		d.Kind = hir.LiteralInt
		l.failf(diag.InputMalformed, sp, "unknown literal kind %q", x.Lit)
	}
	return d
}

// parseInt reads C integer spellings: decimal, 0x hex, 0 octal, 0b binary,
// with u/l suffixes.
func parseInt(text string) (int64, bool) {
	t := strings.TrimRight(strings.ToLower(text), "ul")
	if strings.HasPrefix(t, "0b") {
		v, err := strconv.ParseInt(t[2:], 2, 64)
		return v, err == nil
	}
	v, err := strconv.ParseInt(t, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(t, 0, 64)
		if uerr != nil {
			return 0, false
		}
		return int64(u), true // #nosec G115 -- wraps like the C literal would
	}
	return v, true
}

func (l *loader) templateArgs(args []TemplateArg, sc *scope, sp source.Span) []hir.TemplateArg {
	var out []hir.TemplateArg
	for _, a := range args {
		if a.Value != "" {
			out = append(out, hir.TemplateArg{Value: a.Value, IsValue: true, Type: types.NoTypeID})
			continue
		}
		out = append(out, hir.TemplateArg{Type: l.typ(a.Type, sc, sp)})
	}
	return out
}
