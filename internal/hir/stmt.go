package hir

import (
	"xclower/internal/source"
	"xclower/internal/types"
)

// StmtKind enumerates statement kinds of the typed input tree.
type StmtKind uint8

const (
	// StmtDecl declares a local variable (optionally static).
	StmtDecl StmtKind = iota
	StmtExpr
	StmtReturn
	StmtBreak
	StmtContinue
	StmtIf
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtBlock
	// StmtUnsupported carries a construct the front end accepted but that has
	// no flat lowering (try/catch, throw statements).
	StmtUnsupported
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtDecl:
		return "Decl"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtDoWhile:
		return "DoWhile"
	case StmtFor:
		return "For"
	case StmtBlock:
		return "Block"
	case StmtUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Stmt represents a statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// DeclData holds data for StmtDecl.
//
// `T x = e;` sets Init; `T x(a, b);` and `T x{a, b};` set Args and Direct.
// `T x;` leaves both empty and default-initializes.
type DeclData struct {
	Name   string
	Type   types.TypeID
	Init   *Expr
	Args   []*Expr
	Direct bool
	Static bool
}

func (DeclData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct{}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct{}

func (ContinueData) stmtData() {}

// IfStmtData holds data for StmtIf.
type IfStmtData struct {
	Cond *Expr
	Then *Block
	Else *Block // nil if no else branch
}

func (IfStmtData) stmtData() {}

// WhileData holds data for StmtWhile and StmtDoWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

// ForData holds data for StmtFor.
type ForData struct {
	Init *Stmt // nil if none
	Cond *Expr // nil if none
	Post *Expr // nil if none
	Body *Block
}

func (ForData) stmtData() {}

// BlockStmtData holds data for StmtBlock.
type BlockStmtData struct {
	Block *Block
}

func (BlockStmtData) stmtData() {}

// UnsupportedStmtData names the rejected construct.
type UnsupportedStmtData struct {
	Feature string
}

func (UnsupportedStmtData) stmtData() {}

// Block is a braced statement list; every block opens a lifetime scope.
type Block struct {
	Stmts []*Stmt
	Span  source.Span
}
