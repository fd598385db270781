package frontend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) ([]Expr, int) {
	t.Helper()
	tokens, lexDiags := Tokenize(src)
	require.Empty(t, lexDiags)
	ast, diags := Parse(tokens)
	return ast, len(diags)
}

func mustParse(t *testing.T, src string) []Expr {
	t.Helper()
	ast, n := parseSource(t, src)
	require.Zero(t, n, "unexpected parse diagnostics")
	return ast
}

func TestParseAssignment(t *testing.T) {
	ast := mustParse(t, "x = 1")
	require.Len(t, ast, 1)

	assign, ok := ast[0].(*AssignExpr)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name.Name)

	lit, ok := assign.Value.(*NumberLit)
	require.True(t, ok)
	assert.Equal(t, int16(1), lit.Value)
}

func TestParsePrecedence(t *testing.T) {
	ast := mustParse(t, "x = 1 + 2 * 3")
	assign := ast[0].(*AssignExpr)

	sum, ok := assign.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, Plus, sum.Op)

	product, ok := sum.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, Mult, product.Op)
}

func TestParseBitwiseBindsLikeMultiplication(t *testing.T) {
	ast := mustParse(t, "x = 1 + 2 & 3")
	assign := ast[0].(*AssignExpr)

	sum := assign.Value.(*BinaryExpr)
	require.Equal(t, Plus, sum.Op)
	and, ok := sum.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, And, and.Op)
}

func TestParseGrouping(t *testing.T) {
	ast := mustParse(t, "x = (1 + 2) * 3")
	assign := ast[0].(*AssignExpr)

	product := assign.Value.(*BinaryExpr)
	require.Equal(t, Mult, product.Op)
	sum, ok := product.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, Plus, sum.Op)
}

func TestParseCompoundAssignment(t *testing.T) {
	ast := mustParse(t, "x += 2")
	compound, ok := ast[0].(*CompoundAssignExpr)
	require.True(t, ok)
	assert.Equal(t, "x", compound.Name.Name)
	assert.Equal(t, Plus, compound.Op)
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	tokens, _ := Tokenize("1 = 2")
	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "invalid assignment target")
}

func TestParseConditional(t *testing.T) {
	ast := mustParse(t, "if x > 1\n  y = 1\nelif x < 1\n  y = 2\nelse\n  y = 3\nend")
	require.Len(t, ast, 1)

	stmt, ok := ast[0].(*IfStmt)
	require.True(t, ok)

	cond, ok := stmt.Cond.(*CompareExpr)
	require.True(t, ok)
	assert.Equal(t, Greater, cond.Op)

	require.Len(t, stmt.Elifs, 1)
	require.Len(t, stmt.Else, 1)
	require.Len(t, stmt.Body, 1)
}

func TestParseWhile(t *testing.T) {
	ast := mustParse(t, "while x < 10\n  x += 1\nend")
	stmt, ok := ast[0].(*WhileStmt)
	require.True(t, ok)
	require.Len(t, stmt.Body, 1)
}

func TestParseForever(t *testing.T) {
	ast := mustParse(t, "forever\n  x += 1\nend")
	stmt, ok := ast[0].(*ForeverStmt)
	require.True(t, ok)
	require.Len(t, stmt.Body, 1)
}

func TestParseMissingEnd(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"if", "if x > 1\n  debug", "missing end for if starting at line 1"},
		{"while", "x = 1\nwhile x < 10\n  x += 1", "missing end for while starting at line 2"},
		{"forever", "forever\n  pass", "missing end for forever starting at line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.src)
			_, diags := Parse(tokens)
			require.NotEmpty(t, diags)
			assert.Equal(t, tt.want, diags[0].Message)
		})
	}
}

func TestParseEmptyBlock(t *testing.T) {
	tokens, _ := Tokenize("if x > 1\nend")
	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "empty block")
}

func TestParseUse(t *testing.T) {
	ast := mustParse(t, "use out")
	use, ok := ast[0].(*UseStmt)
	require.True(t, ok)
	require.Len(t, use.Path, 1)
	assert.Equal(t, "out", use.Path[0].Name)

	ast = mustParse(t, "use a.b")
	use = ast[0].(*UseStmt)
	require.Len(t, use.Path, 2)
}

func TestParseVarAndInline(t *testing.T) {
	ast := mustParse(t, "var counter\ninline limit = 10")
	require.Len(t, ast, 2)

	decl, ok := ast[0].(*VarDecl)
	require.True(t, ok)
	assert.Equal(t, "counter", decl.Name.Name)

	inline, ok := ast[1].(*InlineDecl)
	require.True(t, ok)
	assert.Equal(t, "limit", inline.Name.Name)
}

func TestParseCall(t *testing.T) {
	ast := mustParse(t, "out.write(0, x)")
	call, ok := ast[0].(*CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)

	member, ok := call.Fn.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "write", member.Property.Name)
}

func TestParseCallChainingForbidden(t *testing.T) {
	tokens, _ := Tokenize("f(1)(2)")
	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "chaining")
}

func TestParseRecoversPerStatement(t *testing.T) {
	tokens, _ := Tokenize("1 = 2\nx = 3\n1 = 4")
	ast, diags := Parse(tokens)

	// both broken statements are reported, the good one still parses
	assert.GreaterOrEqual(t, len(diags), 2)
	found := false
	for _, stmt := range ast {
		if a, ok := stmt.(*AssignExpr); ok && a.Name.Name == "x" {
			found = true
		}
	}
	assert.True(t, found, "statement between errors should survive")
}

func TestParseUnexpectedEOF(t *testing.T) {
	tokens, _ := Tokenize("x =")
	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "unexpected end of file")
}

func TestParseDepthLimitGrouping(t *testing.T) {
	deep := strings.Repeat("(", 2000) + "1" + strings.Repeat(")", 2000)
	tokens, lexDiags := Tokenize("x = " + deep)
	require.Empty(t, lexDiags)

	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "nested too deeply")
}

func TestParseDepthLimitUnclosedGroups(t *testing.T) {
	// never closed and far past the limit; must end in a diagnostic, not
	// a stack overflow
	tokens, lexDiags := Tokenize("x = " + strings.Repeat("(", 500_000))
	require.Empty(t, lexDiags)

	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "nested too deeply")
}

func TestParseDepthLimitNestedBlocks(t *testing.T) {
	tokens, lexDiags := Tokenize(strings.Repeat("if 1 == 1\n", 5000))
	require.Empty(t, lexDiags)

	_, diags := Parse(tokens)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "nested too deeply")
}

func TestParseDepthUnderLimit(t *testing.T) {
	deep := strings.Repeat("(", 500) + "1" + strings.Repeat(")", 500)
	mustParse(t, "x = "+deep)
}
