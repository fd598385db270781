package lang

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
)

// Lexer is a chroma lexer for MCN built from the token tables above, used
// by the highlight command and available to anything else that renders
// MCN source.
var Lexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      Name,
		Aliases:   []string{ID},
		Filenames: []string{"*" + FileExtension},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: LineComment + `[^\n]*`, Type: chroma.CommentSingle, Mutator: nil},
				{Pattern: `[;\s]+`, Type: chroma.TextWhitespace, Mutator: nil},
				{Pattern: chroma.Words(`\b`, `\b`, Keywords...), Type: chroma.Keyword, Mutator: nil},
				{Pattern: `0x[0-9a-f]+`, Type: chroma.LiteralNumberHex, Mutator: nil},
				{Pattern: `0b[01]+`, Type: chroma.LiteralNumberBin, Mutator: nil},
				{Pattern: `\d+`, Type: chroma.LiteralNumberInteger, Mutator: nil},
				{Pattern: `[A-Za-z_][A-Za-z0-9_]*`, Type: chroma.Name, Mutator: nil},
				{Pattern: operatorPattern(), Type: chroma.Operator, Mutator: nil},
				{Pattern: `[(),.]`, Type: chroma.Punctuation, Mutator: nil},
			},
		}
	},
)

// operatorPattern builds a regexp alternation from the operator table.
// The table is ordered longest-first, so the alternation is unambiguous.
func operatorPattern() string {
	quoted := make([]string, len(Operators))
	for i, op := range Operators {
		quoted[i] = regexp.QuoteMeta(op)
	}
	return "(" + strings.Join(quoted, "|") + ")"
}
