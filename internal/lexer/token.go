package lexer

import "fmt"

// TokenType enumerates lexical categories. Grounded on the teacher scanner's
// string-constant TokenType idiom.
type TokenType string

const (
	// Keywords
	TokenMark    TokenType = "MARK"
	TokenBind    TokenType = "BIND"
	TokenSpell   TokenType = "SPELL"
	TokenFate    TokenType = "FATE"
	TokenDivert  TokenType = "DIVERT"
	TokenWhile   TokenType = "WHILE"
	TokenSever   TokenType = "SEVER"
	TokenFlow    TokenType = "FLOW"
	TokenChant   TokenType = "CHANT"
	TokenRelease TokenType = "RELEASE"
	TokenCast    TokenType = "CAST"
	TokenWith    TokenType = "WITH"
	TokenTrue    TokenType = "TRUE"
	TokenFalse   TokenType = "FALSE"

	// Identifier and literals
	TokenIdentifier TokenType = "IDENTIFIER"
	TokenString     TokenType = "STRING"
	TokenNumber     TokenType = "NUMBER"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenComma       TokenType = ","
	TokenColon       TokenType = ":"
	TokenDoubleColon TokenType = "::"
	TokenSemicolon   TokenType = ";"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenPercent     TokenType = "%"
	TokenBang        TokenType = "!"
	TokenBangEqual   TokenType = "!="
	TokenEqual       TokenType = "="
	TokenEqualEqual  TokenType = "=="
	TokenGreater     TokenType = ">"
	TokenGreaterEq   TokenType = ">="
	TokenLess        TokenType = "<"
	TokenLessEq      TokenType = "<="

	TokenError TokenType = "ERROR"
	TokenEOF   TokenType = "EOF"
)

// keywords maps reserved identifiers, including the weave-name literals,
// to their token type.
var keywords = map[string]TokenType{
	"mark":        TokenMark,
	"bind":        TokenBind,
	"spell":       TokenSpell,
	"fate":        TokenFate,
	"divert":      TokenDivert,
	"while":       TokenWhile,
	"sever":       TokenSever,
	"flow":        TokenFlow,
	"chant":       TokenChant,
	"release":     TokenRelease,
	"cast":        TokenCast,
	"with":        TokenWith,
	"true":        TokenTrue,
	"false":       TokenFalse,
	"NumWeave":    TokenIdentifier,
	"TextWeave":   TokenIdentifier,
	"TruthWeave":  TokenIdentifier,
	"EmptyWeave":  TokenIdentifier,
	"SpellWeave":  TokenIdentifier,
}

// Token carries a type, lexeme, and source position: 1-based line and
// 0-based column, per the token contract.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s' (%d:%d)", t.Type, t.Lexeme, t.Line, t.Column)
}
