// Package frontend implements the MCN lexer and parser. It turns source
// text into tokens and tokens into an AST, reporting problems as
// diagnostics rather than errors so a single pass can collect everything
// wrong with a document.
package frontend

import (
	"fmt"

	"github.com/Christiano300/mcn-ls/internal/diag"
)

// TokenType is the kind of a lexical token.
type TokenType int

const (
	EOF TokenType = iota

	// Literals and identifiers
	Number
	Identifier

	// Keywords
	Inline
	If
	Elif
	Else
	Forever
	While
	End
	Pass
	Use
	Var
	Debug

	// Punctuation
	OpenParen // "(" opening a grouped expression
	OpenCall  // "(" directly following a callee, opening an argument list
	CloseParen
	Comma
	Dot
	Equals // "="

	// Operator classes; the concrete operator rides in Token.Op / Token.Eq
	BinaryOp   // + - * & | ^
	CompoundOp // += -= *= &= |= ^=
	EqOp       // == != < > <= >=
)

// Operator is an arithmetic or bitwise operator.
type Operator int

const (
	Plus Operator = iota
	Minus
	Mult
	And
	Or
	Xor
)

// String returns the operator's source spelling.
func (o Operator) String() string {
	switch o {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Mult:
		return "*"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Commutative reports whether operand order is irrelevant.
func (o Operator) Commutative() bool {
	return o != Minus
}

// EqOperator is a comparison operator.
type EqOperator int

const (
	EqualTo EqOperator = iota
	NotEqual
	Less
	Greater
	LessEq
	GreaterEq
)

// String returns the comparison's source spelling.
func (o EqOperator) String() string {
	switch o {
	case EqualTo:
		return "=="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case Greater:
		return ">"
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("eqop(%d)", int(o))
	}
}

// Opposite returns the negated comparison (== becomes != and so on).
func (o EqOperator) Opposite() EqOperator {
	switch o {
	case EqualTo:
		return NotEqual
	case NotEqual:
		return EqualTo
	case Less:
		return GreaterEq
	case Greater:
		return LessEq
	case LessEq:
		return Greater
	default: // GreaterEq
		return Less
	}
}

// Turnaround returns the comparison with swapped operands (< becomes >).
func (o EqOperator) Turnaround() EqOperator {
	switch o {
	case Less:
		return Greater
	case Greater:
		return Less
	case LessEq:
		return GreaterEq
	case GreaterEq:
		return LessEq
	default: // == and != are symmetric
		return o
	}
}

// Token is a lexical token with its source span.
type Token struct {
	Type   TokenType
	Lexeme string
	// Value is the parsed value for Number tokens.
	Value int16
	// Op is set for BinaryOp and CompoundOp tokens.
	Op Operator
	// Eq is set for EqOp tokens.
	Eq EqOperator
	Range diag.Range
}

var keywordTokens = map[string]TokenType{
	"inline":  Inline,
	"if":      If,
	"elif":    Elif,
	"elseif":  Elif, // alternate spelling, same token
	"else":    Else,
	"forever": Forever,
	"while":   While,
	"end":     End,
	"pass":    Pass,
	"use":     Use,
	"var":     Var,
	"debug":   Debug,
}
