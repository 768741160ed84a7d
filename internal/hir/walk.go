package hir

// Children returns the direct operands of e in evaluation order.
func Children(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case FieldData:
		return nonNil(d.Object)
	case CallData:
		return d.Args
	case MethodCallData:
		return append(nonNil(d.Receiver), d.Args...)
	case UnaryData:
		return nonNil(d.Operand)
	case BinaryData:
		return nonNil(d.Left, d.Right)
	case AssignData:
		return nonNil(d.Target, d.Value)
	case ConstructData:
		return d.Args
	case CastData:
		return nonNil(d.Operand)
	case CondData:
		return nonNil(d.Cond, d.Then, d.Else)
	case IndexData:
		return nonNil(d.Object, d.Index)
	}
	return nil
}

func nonNil(es ...*Expr) []*Expr {
	out := make([]*Expr, 0, len(es))
	for _, e := range es {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Walk visits e and its operands in evaluation order (operands before the
// operation itself when post is true, pre-order otherwise). Returning false
// from fn in pre-order skips the subtree.
func Walk(e *Expr, post bool, fn func(*Expr) bool) {
	if e == nil {
		return
	}
	if !post && !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, post, fn)
	}
	if post {
		fn(e)
	}
}

// WalkStmts visits every expression reachable from the statements of b,
// including nested blocks, in source order.
func WalkStmts(b *Block, fn func(*Expr) bool) {
	if b == nil {
		return
	}
	for _, st := range b.Stmts {
		walkStmt(st, fn)
	}
}

func walkStmt(st *Stmt, fn func(*Expr) bool) {
	if st == nil {
		return
	}
	switch d := st.Data.(type) {
	case DeclData:
		Walk(d.Init, false, fn)
		for _, a := range d.Args {
			Walk(a, false, fn)
		}
	case ExprStmtData:
		Walk(d.Expr, false, fn)
	case ReturnData:
		Walk(d.Value, false, fn)
	case IfStmtData:
		Walk(d.Cond, false, fn)
		WalkStmts(d.Then, fn)
		WalkStmts(d.Else, fn)
	case WhileData:
		Walk(d.Cond, false, fn)
		WalkStmts(d.Body, fn)
	case ForData:
		walkStmt(d.Init, fn)
		Walk(d.Cond, false, fn)
		Walk(d.Post, false, fn)
		WalkStmts(d.Body, fn)
	case BlockStmtData:
		WalkStmts(d.Block, fn)
	}
}
