// Package parser implements a recursive-descent statement parser and a
// precedence-climbing expression parser over the weave token stream,
// grounded on the teacher's internal/parser/parser.go match/consume/check/
// peek/advance idiom and panic-and-recover error propagation.
package parser

import (
	"fmt"
	"strings"

	"weave/internal/ast"
	"weave/internal/diagnostics"
	"weave/internal/lexer"
)

// precedence maps each binary operator token to its binding power; higher
// binds tighter. Grounded on the teacher's parser.go precedence table.
var precedence = map[lexer.TokenType]int{
	lexer.TokenEqualEqual: 1,
	lexer.TokenBangEqual:  1,
	lexer.TokenLess:       2,
	lexer.TokenLessEq:     2,
	lexer.TokenGreater:    2,
	lexer.TokenGreaterEq:  2,
	lexer.TokenPlus:       3,
	lexer.TokenMinus:      3,
	lexer.TokenStar:       4,
	lexer.TokenSlash:      4,
	lexer.TokenPercent:    4,
}

// Parser consumes a token slice and produces an untyped AST. Parse errors
// are collected in Errors; Parse returns nil statements once any error has
// been recorded, per the "no partial tree downstream" propagation rule.
type Parser struct {
	tokens      []lexer.Token
	current     int
	Errors      []*diagnostics.Diagnostic
	sourceLines []string
}

// New returns a Parser over tokens, with source kept only for diagnostic
// rendering.
func New(tokens []lexer.Token, source string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(source, "\n")}
}

// parseError is the panic payload used for statement-boundary recovery.
type parseError struct{ diag *diagnostics.Diagnostic }

func (p *Parser) fail(tok lexer.Token, format string, args ...interface{}) {
	phase := diagnostics.ParsePhase
	if tok.Type == lexer.TokenError {
		phase = diagnostics.LexPhase
	}
	diag := diagnostics.New(phase, fmt.Sprintf(format, args...), tok.Line, tok.Column, tok.Lexeme)
	if tok.Line > 0 && tok.Line <= len(p.sourceLines) {
		diag.WithSource(p.sourceLines[tok.Line-1])
	}
	panic(parseError{diag})
}

// Parse consumes the whole token stream, returning the statement list, or
// nil if any ParseError was recorded (errors accumulate in p.Errors).
func (p *Parser) Parse() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		stmt, ok := p.declarationRecovering()
		if !ok {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	if len(p.Errors) > 0 {
		return nil
	}
	return stmts
}

func (p *Parser) declarationRecovering() (stmt ast.Stmt, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			pe, isParseErr := r.(parseError)
			if !isParseErr {
				panic(r)
			}
			p.Errors = append(p.Errors, pe.diag)
			ok = false
		}
	}()
	return p.declaration(), true
}

func (p *Parser) declaration() ast.Stmt {
	if p.match(lexer.TokenSpell) {
		return p.spellDeclaration()
	}
	return p.statement()
}

func (p *Parser) spellDeclaration() ast.Stmt {
	name := p.consume(lexer.TokenIdentifier, "expect spell name")
	p.consume(lexer.TokenLParen, "expect '(' after spell name")

	var reagents []ast.Reagent
	if !p.check(lexer.TokenRParen) {
		reagents = append(reagents, p.reagent())
		for p.match(lexer.TokenComma) {
			reagents = append(reagents, p.reagent())
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after reagents")

	var returnWeave string
	if p.match(lexer.TokenDoubleColon) {
		returnWeave = p.weaveName()
	}

	p.consume(lexer.TokenLBrace, "expect '{' before spell body")
	body := &ast.Block{Statements: p.block()}

	return &ast.Spell{Name: name, Reagents: reagents, Body: body, ReturnWeave: returnWeave}
}

func (p *Parser) reagent() ast.Reagent {
	name := p.consume(lexer.TokenIdentifier, "expect reagent name")
	p.consume(lexer.TokenColon, "expect ':' after reagent name")
	w := p.weaveName()
	return ast.Reagent{Name: name, WeaveName: w}
}

// weaveName parses a (possibly generic) weave annotation, e.g.
// "NumWeave" or "SpellWeave<NumWeave>", rendering it back to its source
// text form for the analyzer to resolve.
func (p *Parser) weaveName() string {
	base := p.consume(lexer.TokenIdentifier, "expect weave name")
	if p.match(lexer.TokenLess) {
		inner := p.weaveName()
		p.consume(lexer.TokenGreater, "expect '>' after generic weave argument")
		return fmt.Sprintf("%s<%s>", base.Lexeme, inner)
	}
	return base.Lexeme
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(lexer.TokenMark):
		return p.varDeclaration(true)
	case p.match(lexer.TokenBind):
		return p.varDeclaration(false)
	case p.match(lexer.TokenChant):
		return p.chantStatement()
	case p.match(lexer.TokenFate):
		return p.fateStatement()
	case p.match(lexer.TokenWhile):
		return p.whileStatement()
	case p.match(lexer.TokenSever):
		tok := p.previous()
		p.consume(lexer.TokenSemicolon, "expect ';' after sever")
		return &ast.Sever{Token: tok}
	case p.match(lexer.TokenFlow):
		tok := p.previous()
		p.consume(lexer.TokenSemicolon, "expect ';' after flow")
		return &ast.Flow{Token: tok}
	case p.match(lexer.TokenRelease):
		return p.releaseStatement()
	case p.check(lexer.TokenLBrace):
		p.advance()
		return &ast.Block{Statements: p.block()}
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) varDeclaration(mutable bool) ast.Stmt {
	name := p.consume(lexer.TokenIdentifier, "expect variable name")
	p.consume(lexer.TokenEqual, "expect '=' after variable name")
	init := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after variable declaration")
	return &ast.VarDeclaration{Name: name, Mutable: mutable, Initializer: init}
}

func (p *Parser) chantStatement() ast.Stmt {
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after chant expression")
	return &ast.Chant{Expression: expr}
}

func (p *Parser) fateStatement() ast.Stmt {
	cond := p.expression()
	p.consume(lexer.TokenLBrace, "expect '{' before fate body")
	then := &ast.Block{Statements: p.block()}

	var elseBranch ast.Stmt
	if p.match(lexer.TokenDivert) {
		if p.match(lexer.TokenFate) {
			elseBranch = p.fateStatement()
		} else {
			p.consume(lexer.TokenLBrace, "expect '{' before divert body")
			elseBranch = &ast.Block{Statements: p.block()}
		}
	}
	return &ast.Fate{Condition: cond, Then: then, Else: elseBranch}
}

func (p *Parser) whileStatement() ast.Stmt {
	cond := p.expression()
	p.consume(lexer.TokenLBrace, "expect '{' before while body")
	body := &ast.Block{Statements: p.block()}
	return &ast.While{Condition: cond, Body: body}
}

func (p *Parser) releaseStatement() ast.Stmt {
	tok := p.previous()
	var expr ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		expr = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "expect ';' after release")
	return &ast.Release{Token: tok, Expr: expr}
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, "expect ';' after expression")
	return &ast.ExprStmt{Expr: expr}
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
	}
	p.consume(lexer.TokenRBrace, "expect '}' after block")
	return stmts
}

// --- expressions ---

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.binary(0)
	if p.match(lexer.TokenEqual) {
		eq := p.previous()
		value := p.assignment()
		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assignment{Name: v.Name, Value: value}
		}
		p.fail(eq, "invalid assignment target")
	}
	return expr
}

func (p *Parser) binary(minPrec int) ast.Expr {
	left := p.unary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.binary(prec + 1)
		left = &ast.Binary{Left: left, Right: right, Operator: tok}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	if p.match(lexer.TokenBang) || p.match(lexer.TokenMinus) {
		op := p.previous()
		operand := p.unary()
		return &ast.Unary{Operand: operand, Operator: op}
	}
	return p.primary()
}

func (p *Parser) primary() ast.Expr {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenNumber:
		var n float64
		fmt.Sscanf(tok.Lexeme, "%g", &n)
		return &ast.Literal{Token: tok, Value: ast.LiteralValue{Kind: ast.LiteralNumber, Number: n}}
	case lexer.TokenString:
		return &ast.Literal{Token: tok, Value: ast.LiteralValue{Kind: ast.LiteralString, Str: tok.Lexeme}}
	case lexer.TokenTrue:
		return &ast.Literal{Token: tok, Value: ast.LiteralValue{Kind: ast.LiteralBool, Bool: true}}
	case lexer.TokenFalse:
		return &ast.Literal{Token: tok, Value: ast.LiteralValue{Kind: ast.LiteralBool, Bool: false}}
	case lexer.TokenIdentifier:
		return &ast.Variable{Name: tok}
	case lexer.TokenLParen:
		expr := p.expression()
		p.consume(lexer.TokenRParen, "expect ')' after expression")
		return &ast.Grouping{Expression: expr}
	case lexer.TokenCast:
		return p.castExpression(tok)
	default:
		p.fail(tok, "unexpected token '%s' in expression", tok.Lexeme)
		return nil
	}
}

func (p *Parser) castExpression(paren lexer.Token) ast.Expr {
	callee := p.unary()
	var args []ast.Expr
	if p.match(lexer.TokenWith) {
		args = append(args, p.expression())
		for p.match(lexer.TokenComma) {
			args = append(args, p.expression())
		}
	}
	return &ast.Cast{Callee: callee, Paren: paren, Reagents: args}
}

// --- token cursor helpers ---

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	p.fail(tok, "%s (got '%s')", msg, tok.Lexeme)
	return lexer.Token{}
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

// synchronize discards tokens until a likely statement boundary, so the
// parser can keep reporting further errors within the same run.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous().Type == lexer.TokenSemicolon {
			return
		}
		switch p.peek().Type {
		case lexer.TokenSpell, lexer.TokenMark, lexer.TokenBind, lexer.TokenFate,
			lexer.TokenWhile, lexer.TokenChant, lexer.TokenRelease:
			return
		}
		p.advance()
	}
}
