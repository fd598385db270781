package frontend

import "github.com/Christiano300/mcn-ls/internal/diag"

// Expr is any MCN expression or statement node. MCN is expression
// oriented: statements are just expressions restricted to statement
// position by the parser.
type Expr interface {
	Span() diag.Range
}

// Ident is a named reference with its source span.
type Ident struct {
	Name string
	Loc  diag.Range
}

// NumberLit is a 16-bit numeric literal.
type NumberLit struct {
	Value int16
	Loc   diag.Range
}

// IdentExpr is an identifier in expression position.
type IdentExpr struct {
	Name string
	Loc  diag.Range
}

// DebugExpr is the `debug` expression.
type DebugExpr struct {
	Loc diag.Range
}

// BinaryExpr is an arithmetic or bitwise operation.
type BinaryExpr struct {
	Left, Right Expr
	Op          Operator
	Loc         diag.Range
}

// CompareExpr is a comparison; only valid as a loop or branch condition.
type CompareExpr struct {
	Left, Right Expr
	Op          EqOperator
	Loc         diag.Range
}

// AssignExpr is `name = value`.
type AssignExpr struct {
	Name  Ident
	Value Expr
	Loc   diag.Range
}

// CompoundAssignExpr is `name op= value`.
type CompoundAssignExpr struct {
	Name  Ident
	Op    Operator
	Value Expr
	Loc   diag.Range
}

// InlineDecl is `inline name = const-expr`, a compile-time constant.
type InlineDecl struct {
	Name  Ident
	Value Expr
	Loc   diag.Range
}

// VarDecl is `var name`, reserving a variable slot.
type VarDecl struct {
	Name Ident
	Loc  diag.Range
}

// UseStmt is `use mod` or `use mod.sub`, loading compiler modules.
type UseStmt struct {
	Path []Ident
	Loc  diag.Range
}

// PassStmt is the empty statement.
type PassStmt struct {
	Loc diag.Range
}

// ForeverStmt is `forever … end`.
type ForeverStmt struct {
	Body []Expr
	Loc  diag.Range
}

// WhileStmt is `while cond … end`.
type WhileStmt struct {
	Cond Expr
	Body []Expr
	Loc  diag.Range
}

// Branch is one `elif` arm of a conditional.
type Branch struct {
	Cond Expr
	Body []Expr
}

// IfStmt is `if cond … (elif cond …)* (else …)? end`.
type IfStmt struct {
	Cond  Expr
	Body  []Expr
	Elifs []Branch
	Else  []Expr // nil when absent
	Loc   diag.Range
}

// CallExpr is `callee(args…)`.
type CallExpr struct {
	Fn   Expr
	Args []Expr
	Loc  diag.Range
}

// MemberExpr is `object.property`.
type MemberExpr struct {
	Object   Expr
	Property Ident
	Loc      diag.Range
}

func (e *NumberLit) Span() diag.Range          { return e.Loc }
func (e *IdentExpr) Span() diag.Range          { return e.Loc }
func (e *DebugExpr) Span() diag.Range          { return e.Loc }
func (e *BinaryExpr) Span() diag.Range         { return e.Loc }
func (e *CompareExpr) Span() diag.Range        { return e.Loc }
func (e *AssignExpr) Span() diag.Range         { return e.Loc }
func (e *CompoundAssignExpr) Span() diag.Range { return e.Loc }
func (e *InlineDecl) Span() diag.Range         { return e.Loc }
func (e *VarDecl) Span() diag.Range            { return e.Loc }
func (e *UseStmt) Span() diag.Range            { return e.Loc }
func (e *PassStmt) Span() diag.Range           { return e.Loc }
func (e *ForeverStmt) Span() diag.Range        { return e.Loc }
func (e *WhileStmt) Span() diag.Range          { return e.Loc }
func (e *IfStmt) Span() diag.Range             { return e.Loc }
func (e *CallExpr) Span() diag.Range           { return e.Loc }
func (e *MemberExpr) Span() diag.Range         { return e.Loc }
