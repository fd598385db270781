package frontend

import (
	"strconv"
	"strings"

	"github.com/Christiano300/mcn-ls/internal/diag"
	"github.com/Christiano300/mcn-ls/internal/lang"
)

// Tokenize splits MCN source into tokens. Lexing continues past errors so
// one pass reports every bad character and malformed literal; the token
// stream always ends with an EOF token.
func Tokenize(src string) ([]Token, []diag.Diagnostic) {
	l := &lexer{src: src}
	l.run()
	return l.tokens, l.diags
}

type lexer struct {
	src  string
	pos  int // byte offset into src
	line int
	col  int

	tokens []Token
	diags  []diag.Diagnostic

	// adjacency tracking for call-vs-grouping parens
	lastEnd  int
	lastType TokenType
	haveLast bool
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.pos++
			l.line++
			l.col = 0
		case c == ' ' || c == '\t' || c == '\r' || c == ';':
			// the statement separator is whitespace to the lexer
			l.advance(1)
		case c == '#':
			l.skipComment()
		case c >= '0' && c <= '9':
			l.lexNumber()
		case c == '_' || isLetter(c):
			l.lexWord()
		case c == '(':
			typ := OpenParen
			if l.haveLast && l.lastEnd == l.pos && callee(l.lastType) {
				typ = OpenCall
			}
			l.emit(typ, 1)
		case c == ')':
			l.emit(CloseParen, 1)
		case c == ',':
			l.emit(Comma, 1)
		case c == '.':
			l.emit(Dot, 1)
		default:
			l.lexOperator()
		}
	}
	l.tokens = append(l.tokens, Token{Type: EOF, Range: diag.PointRange(l.line, l.col)})
}

func (l *lexer) advance(n int) {
	l.pos += n
	l.col += n
}

func (l *lexer) skipComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.advance(1)
	}
}

// emit appends a token of n bytes starting at the current position.
func (l *lexer) emit(typ TokenType, n int) Token {
	tok := Token{
		Type:   typ,
		Lexeme: l.src[l.pos : l.pos+n],
		Range:  diag.NewRange(l.line, l.col, l.line, l.col+n),
	}
	l.advance(n)
	l.tokens = append(l.tokens, tok)
	l.lastEnd = l.pos
	l.lastType = typ
	l.haveLast = true
	return tok
}

func (l *lexer) errorf(r diag.Range, format string, args ...any) {
	l.diags = append(l.diags, diag.Errorf(diag.SourceLexer, r, format, args...))
}

func (l *lexer) lexNumber() {
	rest := l.src[l.pos:]
	var lexeme string
	var value int64
	var err error

	switch {
	case strings.HasPrefix(rest, "0x"):
		lexeme = lang.HexNumber.FindString(rest)
		if lexeme == "" {
			l.errorf(diag.NewRange(l.line, l.col, l.line, l.col+2), "malformed hex literal")
			l.advance(2)
			return
		}
		var u uint64
		u, err = strconv.ParseUint(lexeme[2:], 16, 16)
		value = int64(int16(u))
	case strings.HasPrefix(rest, "0b"):
		lexeme = lang.BinNumber.FindString(rest)
		if lexeme == "" {
			l.errorf(diag.NewRange(l.line, l.col, l.line, l.col+2), "malformed binary literal")
			l.advance(2)
			return
		}
		var u uint64
		u, err = strconv.ParseUint(lexeme[2:], 2, 16)
		value = int64(int16(u))
	default:
		lexeme = lang.DecNumber.FindString(rest)
		value, err = strconv.ParseInt(lexeme, 10, 16)
	}

	r := diag.NewRange(l.line, l.col, l.line, l.col+len(lexeme))
	if err != nil {
		l.errorf(r, "number %s does not fit in 16 bits", lexeme)
		l.advance(len(lexeme))
		return
	}
	tok := l.emit(Number, len(lexeme))
	l.tokens[len(l.tokens)-1] = Token{
		Type:   Number,
		Lexeme: tok.Lexeme,
		Value:  int16(value),
		Range:  tok.Range,
	}
}

func (l *lexer) lexWord() {
	word := lang.Ident.FindString(l.src[l.pos:])
	if typ, ok := keywordTokens[word]; ok {
		l.emit(typ, len(word))
		return
	}
	l.emit(Identifier, len(word))
}

func (l *lexer) lexOperator() {
	rest := l.src[l.pos:]

	if len(rest) >= 2 {
		if tok, ok := twoCharOps[rest[:2]]; ok {
			t := l.emit(tok.typ, 2)
			l.setOp(t, tok)
			return
		}
	}
	if tok, ok := oneCharOps[rest[:1]]; ok {
		t := l.emit(tok.typ, 1)
		l.setOp(t, tok)
		return
	}

	l.errorf(diag.NewRange(l.line, l.col, l.line, l.col+1), "unexpected character %q", rest[0])
	l.advance(1)
}

// setOp rewrites the just-emitted token with its operator payload.
func (l *lexer) setOp(t Token, spec opSpec) {
	t.Op = spec.op
	t.Eq = spec.eq
	l.tokens[len(l.tokens)-1] = t
}

type opSpec struct {
	typ TokenType
	op  Operator
	eq  EqOperator
}

var twoCharOps = map[string]opSpec{
	"+=": {typ: CompoundOp, op: Plus},
	"-=": {typ: CompoundOp, op: Minus},
	"*=": {typ: CompoundOp, op: Mult},
	"&=": {typ: CompoundOp, op: And},
	"|=": {typ: CompoundOp, op: Or},
	"^=": {typ: CompoundOp, op: Xor},
	"==": {typ: EqOp, eq: EqualTo},
	"!=": {typ: EqOp, eq: NotEqual},
	"<=": {typ: EqOp, eq: LessEq},
	">=": {typ: EqOp, eq: GreaterEq},
}

var oneCharOps = map[string]opSpec{
	"+": {typ: BinaryOp, op: Plus},
	"-": {typ: BinaryOp, op: Minus},
	"*": {typ: BinaryOp, op: Mult},
	"&": {typ: BinaryOp, op: And},
	"|": {typ: BinaryOp, op: Or},
	"^": {typ: BinaryOp, op: Xor},
	"=": {typ: Equals},
	"<": {typ: EqOp, eq: Less},
	">": {typ: EqOp, eq: Greater},
}

// callee reports whether a "(" directly after this token type opens an
// argument list rather than a grouped expression.
func callee(t TokenType) bool {
	return t == Identifier || t == CloseParen
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
