// Package wovenast is the typed output of the weave analyzer: the same
// shape as internal/ast, but every expression carries its derived weave,
// every variable reference carries its resolved symbol, and every spell
// carries a fully populated SpellInfo. The code generator consumes this
// tree exclusively; it never sees the untyped internal/ast tree.
package wovenast

import (
	"weave/internal/lexer"
	"weave/internal/symbols"
	"weave/internal/weave"
)

// Expr is a typed expression node.
type Expr interface {
	Accept(v ExprVisitor) error
	ResultWeave() weave.Weave
}

// ExprVisitor is implemented by the code generator.
type ExprVisitor interface {
	VisitBinary(e *Binary) error
	VisitUnary(e *Unary) error
	VisitLiteral(e *Literal) error
	VisitVariable(e *Variable) error
	VisitGrouping(e *Grouping) error
	VisitAssignment(e *Assignment) error
	VisitCast(e *Cast) error
}

// Base carries the one thing every typed expression node has: its
// derived weave. Embedded (exported) so callers outside the package can
// build node literals directly.
type Base struct {
	Weave weave.Weave
}

func (b Base) ResultWeave() weave.Weave { return b.Weave }

// NewBase is a convenience constructor for Base, used when building typed
// nodes from outside the package.
func NewBase(w weave.Weave) Base { return Base{Weave: w} }

// Binary is a typed binary expression; Op names the underlying lexeme
// (e.g. "+", "==") so the code generator can dispatch on it directly.
type Binary struct {
	Base
	Left, Right Expr
	Op          string
	Token       lexer.Token
}

func (e *Binary) Accept(v ExprVisitor) error { return v.VisitBinary(e) }

// Unary is a typed prefix expression.
type Unary struct {
	Base
	Operand Expr
	Op      string
	Token   lexer.Token
}

func (e *Unary) Accept(v ExprVisitor) error { return v.VisitUnary(e) }

// LiteralKind mirrors ast.LiteralKind.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
)

// Literal is a typed constant.
type Literal struct {
	Base
	Kind   LiteralKind
	Number float64
	Str    string
	Bool   bool
}

func (e *Literal) Accept(v ExprVisitor) error { return v.VisitLiteral(e) }

// Variable is a typed name reference, resolved to its declaring symbol.
type Variable struct {
	Base
	Name   string
	Symbol symbols.Symbol
	Token  lexer.Token
}

func (e *Variable) Accept(v ExprVisitor) error { return v.VisitVariable(e) }

// Grouping is a typed parenthesized expression; its weave is its inner
// expression's weave.
type Grouping struct {
	Base
	Inner Expr
}

func (e *Grouping) Accept(v ExprVisitor) error { return v.VisitGrouping(e) }

// Assignment is a typed `name = value`; its weave is the target's weave.
type Assignment struct {
	Base
	Name   string
	Symbol symbols.Symbol
	Value  Expr
	Token  lexer.Token
}

func (e *Assignment) Accept(v ExprVisitor) error { return v.VisitAssignment(e) }

// Cast is a typed call. Gamble is true when the callee's greatest ancestor
// could not be resolved to a known spell, meaning arity/weave checks are
// deferred to the VM.
type Cast struct {
	Base
	Callee   Expr
	Reagents []Expr
	Gamble   bool
	Token    lexer.Token
}

func (e *Cast) Accept(v ExprVisitor) error { return v.VisitCast(e) }

// Stmt is a typed statement node.
type Stmt interface {
	Accept(v StmtVisitor) error
}

// StmtVisitor is implemented by the code generator.
type StmtVisitor interface {
	VisitVarDeclaration(s *VarDeclaration) error
	VisitExprStmt(s *ExprStmt) error
	VisitChant(s *Chant) error
	VisitBlock(s *Block) error
	VisitFate(s *Fate) error
	VisitWhile(s *While) error
	VisitSever(s *Sever) error
	VisitFlow(s *Flow) error
	VisitRelease(s *Release) error
	VisitSpell(s *Spell) error
}

// VarDeclaration is a typed `mark`/`bind` declaration.
type VarDeclaration struct {
	Symbol      symbols.Symbol
	Initializer Expr // never nil: the analyzer rejects a declaration without an initializer
	Token       lexer.Token
}

func (s *VarDeclaration) Accept(v StmtVisitor) error { return v.VisitVarDeclaration(s) }

// ExprStmt is a bare expression statement.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) Accept(v StmtVisitor) error { return v.VisitExprStmt(s) }

// Chant is the print statement.
type Chant struct {
	Expr Expr
}

func (s *Chant) Accept(v StmtVisitor) error { return v.VisitChant(s) }

// Block is a statement sequence; the analyzer has already validated
// everything within its own scope.
type Block struct {
	Statements []Stmt
}

func (s *Block) Accept(v StmtVisitor) error { return v.VisitBlock(s) }

// Fate is `fate cond { then } divert { else }`.
type Fate struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil if omitted
}

func (s *Fate) Accept(v StmtVisitor) error { return v.VisitFate(s) }

// While is `while cond { body }`.
type While struct {
	Condition Expr
	Body      Stmt
}

func (s *While) Accept(v StmtVisitor) error { return v.VisitWhile(s) }

// Sever is the break statement, already validated to be within a loop.
type Sever struct {
	Token lexer.Token
}

func (s *Sever) Accept(v StmtVisitor) error { return v.VisitSever(s) }

// Flow is the continue statement, already validated to be within a loop.
type Flow struct {
	Token lexer.Token
}

func (s *Flow) Accept(v StmtVisitor) error { return v.VisitFlow(s) }

// Release is the return statement, already validated against the
// enclosing spell's declared return weave.
type Release struct {
	Expr  Expr // nil for a bare release
	Token lexer.Token
}

func (s *Release) Accept(v StmtVisitor) error { return v.VisitRelease(s) }

// UpValueMeta is the compile-time record of a captured variable: its slot
// index and scope depth in the enclosing frame, in first-capture order.
type UpValueMeta struct {
	Index int
	Depth int
}

// SpellInfo fully describes a spell's static signature and capture set,
// populated by the analyzer and consumed by the code generator and by
// static call-checking at other cast sites.
type SpellInfo struct {
	Name         string
	Reagents     []symbols.Symbol
	ReturnWeave  weave.Weave
	UpvalueMetas []UpValueMeta
}

// Spell is a typed spell definition.
type Spell struct {
	Info   SpellInfo
	Symbol symbols.Symbol // the spell's own binding, where its closure value is stored
	Body   Stmt
	Token  lexer.Token
}

func (s *Spell) Accept(v StmtVisitor) error { return v.VisitSpell(s) }
