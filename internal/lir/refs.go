package lir

import (
	"slices"
	"strings"
)

// Base strips qualifiers, pointers and array bounds: "const Point* const"
// and "Point[4]" are both "Point".
func (t Type) Base() string {
	s := string(t)
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "*", " ")
	words := strings.Fields(s)
	words = slices.DeleteFunc(words, func(w string) bool { return w == "const" || w == "volatile" })
	return strings.Join(words, " ")
}

// Refs lists the program-level names a procedure depends on: called
// procedures, aggregates named by its types and slots it reads or writes.
// Parameters and locals are left out.
func (pr *Proc) Refs() []string {
	local := map[string]bool{}
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !local[name] && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, p := range pr.Params {
		local[p.Name] = true
		add(p.Type.Base())
	}
	add(pr.Result.Base())

	var expr func(e *Expr)
	expr = func(e *Expr) {
		if e == nil {
			return
		}
		switch e.Kind {
		case ExprCall:
			add(e.Name)
		case ExprIdent:
			add(e.Name)
		}
		if e.Type != "" {
			add(e.Type.Base())
		}
		for _, a := range e.Args {
			expr(a)
		}
	}
	var stmts func(ss []*Stmt)
	stmts = func(ss []*Stmt) {
		for _, s := range ss {
			if s == nil {
				continue
			}
			if s.Kind == StmtDecl {
				local[s.Name] = true
				add(s.Type.Base())
			}
			if s.Init != nil {
				stmts([]*Stmt{s.Init})
			}
			expr(s.Expr)
			stmts(s.Body)
			expr(s.Post)
			stmts(s.Else)
		}
	}
	stmts(pr.Body)
	return out
}
