// Package lang is the static description of MCN's surface syntax: the
// token tables and indentation rules consumed by editor tooling (the
// highlighter, the auto-indenter) and by the frontend lexer. It is pure
// data plus lookups; the algorithms live in internal/frontend.
package lang

import "regexp"

// Name is the human-readable language name.
const Name = "MCN"

// ID is the language identifier reported by editors (textDocument.languageId).
const ID = "mcn"

// FileExtension is the canonical source file extension.
const FileExtension = ".mcn"

// Keywords is the exact MCN keyword set. An identifier is tokenized as a
// keyword only on an exact match.
var Keywords = []string{
	"inline",
	"if",
	"elif",
	"elseif",
	"else",
	"forever",
	"while",
	"end",
	"pass",
	"use",
	"var",
	"debug",
}

// Operators is the exact MCN operator set, longest forms first so the
// table can be turned into an alternation verbatim.
var Operators = []string{
	"+=", "-=", "*=", "&=", "|=", "^=",
	"==", "!=", "<=", ">=",
	"+", "-", "*", "&", "|", "^",
	"=", "<", ">",
}

// LineComment starts a comment that runs to end of line.
const LineComment = "#"

// StatementSeparator is treated as whitespace by the lexer.
const StatementSeparator = ";"

// Brackets lists the bracket pairs of the language. MCN has exactly one.
var Brackets = [][2]string{{"(", ")"}}

// Literal and identifier patterns, anchored at a token start.
var (
	HexNumber = regexp.MustCompile(`^0x[0-9a-f]+`)
	BinNumber = regexp.MustCompile(`^0b[01]+`)
	DecNumber = regexp.MustCompile(`^\d+`)
	Ident     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// IndentPattern matches lines after which the indentation of following
// lines increases (block openers).
var IndentPattern = regexp.MustCompile(`^\s*(forever|else|(if|elif|elseif|while).*)\s*$`)

// OutdentPattern matches lines whose own indentation decreases (`end`).
var OutdentPattern = regexp.MustCompile(`^\s*(end)\s*$`)

var keywordSet = func() map[string]bool {
	m := make(map[string]bool, len(Keywords))
	for _, k := range Keywords {
		m[k] = true
	}
	return m
}()

// IsKeyword reports whether s is exactly an MCN keyword.
func IsKeyword(s string) bool {
	return keywordSet[s]
}

// IndentDelta returns how a line affects indentation for editor
// auto-indent: +1 after block openers, -1 on an `end` line, 0 otherwise.
func IndentDelta(line string) int {
	switch {
	case OutdentPattern.MatchString(line):
		return -1
	case IndentPattern.MatchString(line):
		return 1
	default:
		return 0
	}
}
