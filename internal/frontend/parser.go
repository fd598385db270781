package frontend

import (
	"fmt"

	"github.com/Christiano300/mcn-ls/internal/diag"
)

// Parse builds an AST from a token stream. Errors are collected per
// top-level statement so a broken statement does not hide problems in the
// rest of the document.
func Parse(tokens []Token) ([]Expr, []diag.Diagnostic) {
	p := &parser{tokens: tokens}
	var body []Expr
	var diags []diag.Diagnostic

	for p.at().Type != EOF {
		before := p.pos
		stmt, err := p.parseStatement()
		if err != nil {
			diags = append(diags, toDiagnostic(err))
			if p.pos == before {
				// guarantee progress after an error at the current token
				p.eat()
			}
			continue
		}
		body = append(body, stmt)
	}
	return body, diags
}

// parseError is a parse failure anchored to a source range.
type parseError struct {
	msg string
	loc diag.Range
}

func (e *parseError) Error() string { return e.msg }

func errorAt(loc diag.Range, format string, args ...any) error {
	return &parseError{msg: fmt.Sprintf(format, args...), loc: loc}
}

func toDiagnostic(err error) diag.Diagnostic {
	if pe, ok := err.(*parseError); ok {
		return diag.Errorf(diag.SourceParser, pe.loc, "%s", pe.msg)
	}
	return diag.Errorf(diag.SourceParser, diag.Range{}, "%s", err.Error())
}

// maxNestingDepth bounds recursive descent. A stack overflow is a fatal
// runtime error that no recover can contain, so overly nested input has
// to be rejected with a diagnostic before the stack runs out.
const maxNestingDepth = 1000

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// nest records one level of recursive descent. The returned func must be
// deferred to release the level.
func (p *parser) nest() (func(), error) {
	if p.depth >= maxNestingDepth {
		return nil, errorAt(p.at().Range, "code is nested too deeply (more than %d levels)", maxNestingDepth)
	}
	p.depth++
	return func() { p.depth-- }, nil
}

// at returns the current token without consuming it. The stream always
// ends with EOF, which at never advances past.
func (p *parser) at() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) eat() Token {
	tok := p.at()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// expect consumes the next token if it has the wanted type, or fails with
// the given message anchored at the token.
func (p *parser) expect(typ TokenType, format string, args ...any) (Token, error) {
	tok := p.eat()
	if tok.Type != typ {
		return Token{}, errorAt(tok.Range, format, args...)
	}
	return tok, nil
}

func (p *parser) parseStatement() (Expr, error) {
	done, err := p.nest()
	if err != nil {
		return nil, err
	}
	defer done()

	switch p.at().Type {
	case Inline:
		return p.parseInlineDecl()
	case If:
		return p.parseConditional()
	case Pass:
		tok := p.eat()
		return &PassStmt{Loc: tok.Range}, nil
	case Use:
		return p.parseUse()
	case Var:
		return p.parseVarDecl()
	case Forever:
		return p.parseForever()
	case While:
		return p.parseWhile()
	default:
		return p.parseExpression()
	}
}

func (p *parser) parseConditional() (Expr, error) {
	start := p.eat().Range // "if"

	cond, body, err := p.parseBranch(start)
	if err != nil {
		return nil, err
	}

	var elifs []Branch
	for p.at().Type == Elif {
		elifStart := p.eat().Range
		elifCond, elifBody, err := p.parseBranch(elifStart)
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, Branch{Cond: elifCond, Body: elifBody})
	}

	var alternate []Expr
	if p.at().Type == Else {
		elseStart := p.eat().Range
		for p.at().Type != End && p.at().Type != EOF {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			alternate = append(alternate, stmt)
		}
		if len(alternate) == 0 {
			return nil, errorAt(elseStart.Join(p.at().Range), "empty block")
		}
	}

	end, err := p.expect(End, "missing end for if starting at line %d", start.Start.Line+1)
	if err != nil {
		return nil, err
	}
	return &IfStmt{
		Cond:  cond,
		Body:  body,
		Elifs: elifs,
		Else:  alternate,
		Loc:   start.Join(end.Range),
	}, nil
}

// parseBranch parses a condition followed by statements up to the next
// elif / else / end.
func (p *parser) parseBranch(start diag.Range) (Expr, []Expr, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, nil, err
	}
	var body []Expr
	for {
		switch p.at().Type {
		case Elif, Else, End, EOF:
			if len(body) == 0 {
				return nil, nil, errorAt(start.Join(p.at().Range), "empty block")
			}
			return cond, body, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, nil, err
		}
		body = append(body, stmt)
	}
}

func (p *parser) parseForever() (Expr, error) {
	start := p.eat().Range
	var body []Expr
	for p.at().Type != End && p.at().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	end, err := p.expect(End, "missing end for forever starting at line %d", start.Start.Line+1)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errorAt(start.Join(end.Range), "empty block")
	}
	return &ForeverStmt{Body: body, Loc: start.Join(end.Range)}, nil
}

func (p *parser) parseWhile() (Expr, error) {
	start := p.eat().Range
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var body []Expr
	for p.at().Type != End && p.at().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	end, err := p.expect(End, "missing end for while starting at line %d", start.Start.Line+1)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errorAt(start.Join(end.Range), "empty block")
	}
	return &WhileStmt{Cond: cond, Body: body, Loc: start.Join(end.Range)}, nil
}

func (p *parser) parseUse() (Expr, error) {
	start := p.eat().Range
	tok, err := p.expect(Identifier, "invalid module name")
	if err != nil {
		return nil, err
	}
	path := []Ident{{Name: tok.Lexeme, Loc: tok.Range}}
	for p.at().Type == Dot {
		p.eat()
		tok, err := p.expect(Identifier, "invalid module name")
		if err != nil {
			return nil, err
		}
		path = append(path, Ident{Name: tok.Lexeme, Loc: tok.Range})
	}
	return &UseStmt{
		Path: path,
		Loc:  start.Join(path[len(path)-1].Loc),
	}, nil
}

func (p *parser) parseVarDecl() (Expr, error) {
	start := p.eat().Range
	tok, err := p.expect(Identifier, "invalid variable declaration")
	if err != nil {
		return nil, err
	}
	return &VarDecl{
		Name: Ident{Name: tok.Lexeme, Loc: tok.Range},
		Loc:  start.Join(tok.Range),
	}, nil
}

func (p *parser) parseInlineDecl() (Expr, error) {
	start := p.eat().Range
	tok, err := p.expect(Identifier, "invalid inline declaration")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Equals, "missing = in inline declaration"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &InlineDecl{
		Name:  Ident{Name: tok.Lexeme, Loc: tok.Range},
		Value: value,
		Loc:   start.Join(value.Span()),
	}, nil
}

func (p *parser) parseExpression() (Expr, error) {
	done, err := p.nest()
	if err != nil {
		return nil, err
	}
	defer done()
	return p.parseAssignment()
}

func (p *parser) parseAssignment() (Expr, error) {
	left, err := p.parseCompoundAssignment()
	if err != nil {
		return nil, err
	}
	if p.at().Type != Equals {
		return left, nil
	}
	ident, ok := left.(*IdentExpr)
	if !ok {
		return nil, errorAt(p.at().Range, "invalid assignment target")
	}
	p.eat()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &AssignExpr{
		Name:  Ident{Name: ident.Name, Loc: ident.Loc},
		Value: value,
		Loc:   ident.Loc.Join(value.Span()),
	}, nil
}

func (p *parser) parseCompoundAssignment() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.at().Type != CompoundOp {
		return left, nil
	}
	ident, ok := left.(*IdentExpr)
	if !ok {
		return nil, errorAt(left.Span(), "invalid assignment target")
	}
	op := p.eat().Op
	// self-recursion here does not pass back through parseExpression, so
	// it carries its own nesting level
	done, err := p.nest()
	if err != nil {
		return nil, err
	}
	defer done()
	value, err := p.parseCompoundAssignment()
	if err != nil {
		return nil, err
	}
	return &CompoundAssignExpr{
		Name:  Ident{Name: ident.Name, Loc: ident.Loc},
		Op:    op,
		Value: value,
		Loc:   ident.Loc.Join(value.Span()),
	}, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at().Type == EqOp {
		op := p.eat().Eq
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &CompareExpr{
			Left:  left,
			Right: right,
			Op:    op,
			Loc:   left.Span().Join(right.Span()),
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at().Type == BinaryOp && (p.at().Op == Plus || p.at().Op == Minus) {
		op := p.eat().Op
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:  left,
			Right: right,
			Op:    op,
			Loc:   left.Span().Join(right.Span()),
		}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}
	for p.at().Type == BinaryOp && p.at().Op != Plus && p.at().Op != Minus {
		op := p.eat().Op
		right, err := p.parseCallMember()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:  left,
			Right: right,
			Op:    op,
			Loc:   left.Span().Join(right.Span()),
		}
	}
	return left, nil
}

func (p *parser) parseCallMember() (Expr, error) {
	member, err := p.parseMember()
	if err != nil {
		return nil, err
	}
	if p.at().Type != OpenCall {
		return member, nil
	}
	args, end, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if p.at().Type == OpenCall {
		return nil, errorAt(p.at().Range, "function call chaining is not supported")
	}
	return &CallExpr{
		Fn:   member,
		Args: args,
		Loc:  member.Span().Join(end),
	}, nil
}

func (p *parser) parseArgs() ([]Expr, diag.Range, error) {
	open, err := p.expect(OpenCall, "missing opening parenthesis")
	if err != nil {
		return nil, diag.Range{}, err
	}
	var args []Expr
	if p.at().Type != CloseParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, diag.Range{}, err
			}
			args = append(args, arg)
			if p.at().Type != Comma {
				break
			}
			p.eat()
		}
	}
	closing, err := p.expect(CloseParen, "missing closing parenthesis")
	if err != nil {
		return nil, diag.Range{}, err
	}
	return args, open.Range.Join(closing.Range), nil
}

func (p *parser) parseMember() (Expr, error) {
	object, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at().Type == Dot {
		dot := p.eat().Range
		property, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		ident, ok := property.(*IdentExpr)
		if !ok {
			return nil, errorAt(dot, "member access expects an identifier")
		}
		object = &MemberExpr{
			Object:   object,
			Property: Ident{Name: ident.Name, Loc: ident.Loc},
			Loc:      object.Span().Join(ident.Loc),
		}
	}
	return object, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.eat()
	switch tok.Type {
	case Identifier:
		return &IdentExpr{Name: tok.Lexeme, Loc: tok.Range}, nil
	case Number:
		return &NumberLit{Value: tok.Value, Loc: tok.Range}, nil
	case Debug:
		return &DebugExpr{Loc: tok.Range}, nil
	case OpenParen:
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CloseParen, "expected closing parenthesis"); err != nil {
			return nil, err
		}
		return value, nil
	case EOF:
		return nil, errorAt(tok.Range, "unexpected end of file")
	default:
		return nil, errorAt(tok.Range, "unexpected token %q", tok.Lexeme)
	}
}
