package lir

// ExprKind enumerates target expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	// ExprLit holds the literal's target spelling in Name.
	ExprLit
	// ExprCall calls the procedure Name.
	ExprCall
	// ExprUnary applies Name to Args[0]; Postfix for x++ and x--.
	ExprUnary
	ExprBinary
	// ExprAssign is plain or compound assignment; Name is the operator.
	ExprAssign
	// ExprMember reads Field of Args[0]; Arrow for pointer operands.
	ExprMember
	ExprIndex
	ExprCast
	ExprCond
	ExprAddrOf
	ExprDeref
	// ExprCompound is a compound literal `(T){Args[0]}` used to bind a
	// value to a pointer parameter.
	ExprCompound
)

// Expr is a target expression. Type is the value type when known.
type Expr struct {
	Kind    ExprKind `json:"kind" msgpack:"kind"`
	Type    Type     `json:"type,omitempty" msgpack:"type,omitempty"`
	Name    string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Field   string   `json:"field,omitempty" msgpack:"field,omitempty"`
	Arrow   bool     `json:"arrow,omitempty" msgpack:"arrow,omitempty"`
	Postfix bool     `json:"postfix,omitempty" msgpack:"postfix,omitempty"`
	Args    []*Expr  `json:"args,omitempty" msgpack:"args,omitempty"`
}

// Ident references a variable, parameter or slot.
func Ident(name string, t Type) *Expr {
	return &Expr{Kind: ExprIdent, Name: name, Type: t}
}

// Lit is a literal in target spelling.
func Lit(text string, t Type) *Expr {
	return &Expr{Kind: ExprLit, Name: text, Type: t}
}

// Call calls proc with args.
func Call(proc string, result Type, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Name: proc, Type: result, Args: args}
}

// Unary applies a prefix (or postfix) operator.
func Unary(op string, x *Expr, postfix bool) *Expr {
	return &Expr{Kind: ExprUnary, Name: op, Type: x.Type, Postfix: postfix, Args: []*Expr{x}}
}

// Binary applies a binary operator.
func Binary(op string, l, r *Expr, t Type) *Expr {
	return &Expr{Kind: ExprBinary, Name: op, Type: t, Args: []*Expr{l, r}}
}

// Assign stores v into target; op is "=" or a compound operator.
func Assign(op string, target, v *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Name: op, Type: target.Type, Args: []*Expr{target, v}}
}

// Member reads a field. Dereferences fold into the arrow form.
func Member(obj *Expr, field string, t Type) *Expr {
	if obj.Kind == ExprDeref {
		return &Expr{Kind: ExprMember, Field: field, Type: t, Arrow: true, Args: []*Expr{obj.Args[0]}}
	}
	return &Expr{Kind: ExprMember, Field: field, Type: t, Args: []*Expr{obj}}
}

// Index reads element i of x.
func Index(x, i *Expr, t Type) *Expr {
	return &Expr{Kind: ExprIndex, Type: t, Args: []*Expr{x, i}}
}

// Cast converts x to t.
func Cast(t Type, x *Expr) *Expr {
	if x.Type == t {
		return x
	}
	return &Expr{Kind: ExprCast, Type: t, Args: []*Expr{x}}
}

// Cond is c ? a : b.
func Cond(c, a, b *Expr, t Type) *Expr {
	return &Expr{Kind: ExprCond, Type: t, Args: []*Expr{c, a, b}}
}

// AddrOf takes the address of x; &*p folds to p.
func AddrOf(x *Expr) *Expr {
	if x.Kind == ExprDeref {
		return x.Args[0]
	}
	return &Expr{Kind: ExprAddrOf, Type: x.Type.Ptr(), Args: []*Expr{x}}
}

// Deref reads through p; *&x folds to x.
func Deref(p *Expr) *Expr {
	if p.Kind == ExprAddrOf {
		return p.Args[0]
	}
	return &Expr{Kind: ExprDeref, Type: p.Type.Elem(), Args: []*Expr{p}}
}

// Compound builds the compound literal (t){v}.
func Compound(t Type, v *Expr) *Expr {
	return &Expr{Kind: ExprCompound, Type: t, Args: []*Expr{v}}
}

// StmtKind enumerates target statements.
type StmtKind uint8

const (
	// StmtDecl declares Name of Type, optionally initialized with Expr.
	StmtDecl StmtKind = iota
	StmtExpr
	// StmtReturn returns Expr (nil for void).
	StmtReturn
	// StmtIf runs Body when Expr holds, Else otherwise.
	StmtIf
	StmtWhile
	StmtDoWhile
	// StmtFor has Init, Expr as condition, Post, Body.
	StmtFor
	StmtBlock
	StmtBreak
	StmtContinue
	StmtGoto
	StmtLabel
)

// Stmt is a target statement.
type Stmt struct {
	Kind  StmtKind `json:"kind" msgpack:"kind"`
	Name  string   `json:"name,omitempty" msgpack:"name,omitempty"`
	Type  Type     `json:"type,omitempty" msgpack:"type,omitempty"`
	Expr  *Expr    `json:"expr,omitempty" msgpack:"expr,omitempty"`
	Init  *Stmt    `json:"init,omitempty" msgpack:"init,omitempty"`
	Post  *Expr    `json:"post,omitempty" msgpack:"post,omitempty"`
	Body  []*Stmt  `json:"body,omitempty" msgpack:"body,omitempty"`
	Else  []*Stmt  `json:"else,omitempty" msgpack:"else,omitempty"`
	Label string   `json:"label,omitempty" msgpack:"label,omitempty"`
}

// Decl declares a local.
func Decl(name string, t Type, init *Expr) *Stmt {
	return &Stmt{Kind: StmtDecl, Name: name, Type: t, Expr: init}
}

// Do wraps an expression statement.
func Do(e *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Expr: e}
}

// Return returns v (nil for void procedures).
func Return(v *Expr) *Stmt {
	return &Stmt{Kind: StmtReturn, Expr: v}
}

// If builds a conditional.
func If(c *Expr, then, els []*Stmt) *Stmt {
	return &Stmt{Kind: StmtIf, Expr: c, Body: then, Else: els}
}

// Block groups statements into a nested scope.
func Block(body ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtBlock, Body: body}
}

// Goto jumps to label.
func Goto(label string) *Stmt {
	return &Stmt{Kind: StmtGoto, Label: label}
}

// Label marks a jump target.
func Label(label string) *Stmt {
	return &Stmt{Kind: StmtLabel, Label: label}
}

// Calls returns, in order, the procedure names called anywhere in body.
func Calls(body []*Stmt) []string {
	var out []string
	var expr func(e *Expr)
	expr = func(e *Expr) {
		if e == nil {
			return
		}
		for _, a := range e.Args {
			expr(a)
		}
		if e.Kind == ExprCall {
			out = append(out, e.Name)
		}
	}
	var stmts func(ss []*Stmt)
	stmts = func(ss []*Stmt) {
		for _, s := range ss {
			if s == nil {
				continue
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
	stmts(body)
	return out
}
