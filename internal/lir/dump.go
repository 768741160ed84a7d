package lir

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions configures program dumping.
type DumpOptions struct {
	// Prototypes prints a declaration for every procedure before the bodies.
	Prototypes bool
}

// Dump writes p as a C-like listing: aggregates, storage slots, prototypes
// and procedure bodies, in that order.
func Dump(w io.Writer, p *Program, opts DumpOptions) error {
	if w == nil || p == nil {
		return nil
	}
	var b strings.Builder
	for _, s := range p.Structs {
		dumpStruct(&b, s)
	}
	if len(p.Globals) > 0 {
		for _, g := range p.Globals {
			dumpGlobal(&b, g)
		}
		b.WriteByte('\n')
	}
	if opts.Prototypes && len(p.Procs) > 0 {
		for _, pr := range p.Procs {
			b.WriteString(signature(pr))
			b.WriteString(";\n")
		}
		b.WriteByte('\n')
	}
	for i, pr := range p.Procs {
		if i > 0 {
			b.WriteByte('\n')
		}
		dumpProc(&b, pr)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the full listing.
func (p *Program) String() string {
	var b strings.Builder
	_ = Dump(&b, p, DumpOptions{Prototypes: true})
	return b.String()
}

// DumpDirectives writes one line per directive.
func DumpDirectives(w io.Writer, dirs []Directive) error {
	var b strings.Builder
	for _, d := range dirs {
		b.WriteString(d.Kind.String())
		if d.From != "" {
			b.WriteString(" " + d.From)
		}
		if d.To != "" {
			b.WriteString(" -> " + d.To)
		}
		if d.Detail != "" {
			b.WriteString(" [" + d.Detail + "]")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func dumpStruct(b *strings.Builder, s *Struct) {
	fmt.Fprintf(b, "typedef struct %s {\n", s.Name)
	if len(s.Fields) == 0 {
		fmt.Fprintf(b, "    char %s;\n", PlaceholderField)
	}
	for _, f := range s.Fields {
		fmt.Fprintf(b, "    %s;\n", declare(f.Type, f.Name))
	}
	fmt.Fprintf(b, "} %s;\n\n", s.Name)
}

func dumpGlobal(b *strings.Builder, g *Global) {
	b.WriteString(declare(g.Type, g.Name))
	if g.Init != nil {
		b.WriteString(" = " + ExprString(g.Init))
	}
	b.WriteString(";\n")
	if g.Guard != "" {
		fmt.Fprintf(b, "bool %s = 0;\n", g.Guard)
	}
}

func signature(pr *Proc) string {
	params := make([]string, len(pr.Params))
	for i, p := range pr.Params {
		params[i] = declare(p.Type, p.Name)
	}
	list := strings.Join(params, ", ")
	if list == "" {
		list = "void"
	}
	result := pr.Result
	if result == "" {
		result = "void"
	}
	return fmt.Sprintf("%s %s(%s)", result, pr.Name, list)
}

func dumpProc(b *strings.Builder, pr *Proc) {
	b.WriteString(signature(pr))
	b.WriteString(" {\n")
	dumpStmts(b, pr.Body, 1)
	b.WriteString("}\n")
}

// declare spells a declarator, moving array bounds behind the name.
func declare(t Type, name string) string {
	s := string(t)
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i] + " " + name + s[i:]
	}
	return s + " " + name
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
}

func dumpStmts(b *strings.Builder, ss []*Stmt, depth int) {
	for _, s := range ss {
		dumpStmt(b, s, depth)
	}
}

func dumpStmt(b *strings.Builder, s *Stmt, depth int) {
	if s == nil {
		return
	}
	if s.Kind == StmtLabel {
		// labels hang one level out, and need a statement after them
		indent(b, max(depth-1, 0))
		fmt.Fprintf(b, "%s: ;\n", s.Label)
		return
	}
	indent(b, depth)
	switch s.Kind {
	case StmtDecl:
		b.WriteString(declare(s.Type, s.Name))
		if s.Expr != nil {
			b.WriteString(" = " + ExprString(s.Expr))
		}
		b.WriteString(";\n")
	case StmtExpr:
		b.WriteString(ExprString(s.Expr) + ";\n")
	case StmtReturn:
		if s.Expr == nil {
			b.WriteString("return;\n")
		} else {
			b.WriteString("return " + ExprString(s.Expr) + ";\n")
		}
	case StmtIf:
		fmt.Fprintf(b, "if (%s) {\n", ExprString(s.Expr))
		dumpStmts(b, s.Body, depth+1)
		indent(b, depth)
		if len(s.Else) > 0 {
			b.WriteString("} else {\n")
			dumpStmts(b, s.Else, depth+1)
			indent(b, depth)
		}
		b.WriteString("}\n")
	case StmtWhile:
		fmt.Fprintf(b, "while (%s) {\n", ExprString(s.Expr))
		dumpStmts(b, s.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case StmtDoWhile:
		b.WriteString("do {\n")
		dumpStmts(b, s.Body, depth+1)
		indent(b, depth)
		fmt.Fprintf(b, "} while (%s);\n", ExprString(s.Expr))
	case StmtFor:
		init := ""
		if s.Init != nil {
			var ib strings.Builder
			dumpStmt(&ib, s.Init, 0)
			init = strings.TrimSuffix(strings.TrimSpace(ib.String()), ";")
		}
		cond, post := "", ""
		if s.Expr != nil {
			cond = ExprString(s.Expr)
		}
		if s.Post != nil {
			post = ExprString(s.Post)
		}
		fmt.Fprintf(b, "for (%s; %s; %s) {\n", init, cond, post)
		dumpStmts(b, s.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case StmtBlock:
		b.WriteString("{\n")
		dumpStmts(b, s.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case StmtBreak:
		b.WriteString("break;\n")
	case StmtContinue:
		b.WriteString("continue;\n")
	case StmtGoto:
		fmt.Fprintf(b, "goto %s;\n", s.Label)
	default:
		fmt.Fprintf(b, "/* stmt kind %d */\n", s.Kind)
	}
}

const (
	precAssign  = 2
	precCond    = 3
	precPrefix  = 15
	precPostfix = 16
)

var binaryPrec = map[string]int{
	"||": 4, "&&": 5, "|": 6, "^": 7, "&": 8,
	"==": 9, "!=": 9,
	"<": 10, "<=": 10, ">": 10, ">=": 10,
	"<<": 11, ">>": 11,
	"+": 12, "-": 12,
	"*": 13, "/": 13, "%": 13,
	",": 1,
}

func prec(e *Expr) int {
	switch e.Kind {
	case ExprAssign:
		return precAssign
	case ExprCond:
		return precCond
	case ExprBinary:
		if p, ok := binaryPrec[e.Name]; ok {
			return p
		}
		return precCond
	case ExprUnary:
		if e.Postfix {
			return precPostfix
		}
		return precPrefix
	case ExprCast, ExprAddrOf, ExprDeref:
		return precPrefix
	}
	return precPostfix
}

// ExprString renders e in C syntax with minimal parentheses.
func ExprString(e *Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeOperand(b *strings.Builder, e *Expr, min int) {
	if e != nil && prec(e) < min {
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
		return
	}
	writeExpr(b, e)
}

func writeExpr(b *strings.Builder, e *Expr) {
	if e == nil {
		b.WriteString("/* nil */")
		return
	}
	switch e.Kind {
	case ExprIdent, ExprLit:
		b.WriteString(e.Name)
	case ExprCall:
		b.WriteString(e.Name + "(")
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeOperand(b, a, precAssign)
		}
		b.WriteByte(')')
	case ExprUnary:
		if e.Postfix {
			writeOperand(b, e.Args[0], precPostfix)
			b.WriteString(e.Name)
			return
		}
		b.WriteString(e.Name)
		if inner := e.Args[0]; inner.Kind == ExprUnary && !inner.Postfix && inner.Name[0] == e.Name[0] {
			// keep "- -x" from reading as "--x"
			b.WriteByte(' ')
		}
		writeOperand(b, e.Args[0], precPrefix)
	case ExprBinary:
		p := prec(e)
		writeOperand(b, e.Args[0], p)
		b.WriteString(" " + e.Name + " ")
		writeOperand(b, e.Args[1], p+1)
	case ExprAssign:
		writeOperand(b, e.Args[0], precPrefix)
		b.WriteString(" " + e.Name + " ")
		writeOperand(b, e.Args[1], precAssign)
	case ExprMember:
		writeOperand(b, e.Args[0], precPostfix)
		if e.Arrow {
			b.WriteString("->")
		} else {
			b.WriteByte('.')
		}
		b.WriteString(e.Field)
	case ExprIndex:
		writeOperand(b, e.Args[0], precPostfix)
		b.WriteByte('[')
		writeExpr(b, e.Args[1])
		b.WriteByte(']')
	case ExprCast:
		b.WriteString("(" + string(e.Type) + ")")
		writeOperand(b, e.Args[0], precPrefix)
	case ExprCond:
		writeOperand(b, e.Args[0], precCond+1)
		b.WriteString(" ? ")
		writeOperand(b, e.Args[1], precAssign)
		b.WriteString(" : ")
		writeOperand(b, e.Args[2], precCond)
	case ExprAddrOf:
		b.WriteByte('&')
		writeOperand(b, e.Args[0], precPrefix)
	case ExprDeref:
		b.WriteByte('*')
		writeOperand(b, e.Args[0], precPrefix)
	case ExprCompound:
		b.WriteString("(" + string(e.Type) + "){")
		writeExpr(b, e.Args[0])
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "/* expr kind %d */", e.Kind)
	}
}
