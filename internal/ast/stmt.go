package ast

import "weave/internal/lexer"

// Stmt is any statement node; Accept dispatches to the matching visitor
// method.
type Stmt interface {
	Accept(v StmtVisitor) (interface{}, error)
}

// StmtVisitor is the visitor interface behind Accept. No package in this
// module implements it: the weave analyzer and astprint dispatch on node
// types with type switches.
type StmtVisitor interface {
	VisitVarDeclaration(s *VarDeclaration) (interface{}, error)
	VisitExprStmt(s *ExprStmt) (interface{}, error)
	VisitChant(s *Chant) (interface{}, error)
	VisitBlock(s *Block) (interface{}, error)
	VisitFate(s *Fate) (interface{}, error)
	VisitWhile(s *While) (interface{}, error)
	VisitSever(s *Sever) (interface{}, error)
	VisitFlow(s *Flow) (interface{}, error)
	VisitRelease(s *Release) (interface{}, error)
	VisitSpell(s *Spell) (interface{}, error)
}

// VarDeclaration is `mark name = init;` or `bind name = init;`.
type VarDeclaration struct {
	Name        lexer.Token
	Mutable     bool
	Initializer Expr // nil if omitted
}

func (s *VarDeclaration) Accept(v StmtVisitor) (interface{}, error) { return v.VisitVarDeclaration(s) }

// ExprStmt is a bare expression used as a statement.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) Accept(v StmtVisitor) (interface{}, error) { return v.VisitExprStmt(s) }

// Chant is `chant expr;`, the print statement.
type Chant struct {
	Expression Expr
}

func (s *Chant) Accept(v StmtVisitor) (interface{}, error) { return v.VisitChant(s) }

// Block is a `{ ... }` statement sequence introducing a new scope.
type Block struct {
	Statements []Stmt
}

func (s *Block) Accept(v StmtVisitor) (interface{}, error) { return v.VisitBlock(s) }

// Fate is `fate cond { then } divert { else }`.
type Fate struct {
	Condition  Expr
	Then       Stmt
	Else       Stmt // nil if omitted
}

func (s *Fate) Accept(v StmtVisitor) (interface{}, error) { return v.VisitFate(s) }

// While is `while cond { body }`.
type While struct {
	Condition Expr
	Body      Stmt
}

func (s *While) Accept(v StmtVisitor) (interface{}, error) { return v.VisitWhile(s) }

// Sever is `sever;`, the break statement.
type Sever struct {
	Token lexer.Token
}

func (s *Sever) Accept(v StmtVisitor) (interface{}, error) { return v.VisitSever(s) }

// Flow is `flow;`, the continue statement.
type Flow struct {
	Token lexer.Token
}

func (s *Flow) Accept(v StmtVisitor) (interface{}, error) { return v.VisitFlow(s) }

// Release is `release;` or `release expr;`, the return statement.
type Release struct {
	Token lexer.Token
	Expr  Expr // nil for a bare release
}

func (s *Release) Accept(v StmtVisitor) (interface{}, error) { return v.VisitRelease(s) }

// Reagent is a spell parameter: a name and its declared weave annotation.
type Reagent struct {
	Name      lexer.Token
	WeaveName string
}

// Spell is a function definition:
// `spell name(p1: Weave, ...) :: RetWeave { body }`.
type Spell struct {
	Name        lexer.Token
	Reagents    []Reagent
	Body        Stmt
	ReturnWeave string // "" if omitted (defaults to EmptyWeave)
}

func (s *Spell) Accept(v StmtVisitor) (interface{}, error) { return v.VisitSpell(s) }
