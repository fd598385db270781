// Package diag defines the diagnostic model shared by the MCN frontend,
// the codegen backend and the language server. Positions are zero-based
// for both lines and columns, matching what the editor consumes.
package diag

import "fmt"

// Position is a single point in a source document.
type Position struct {
	// Line is the 0-based line number.
	Line int `json:"line"`
	// Col is the 0-based column number.
	Col int `json:"col"`
}

// Range is a span in a source document. End is exclusive, mirroring LSP
// ranges.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange creates a range from start and end line/column pairs.
func NewRange(startLine, startCol, endLine, endCol int) Range {
	return Range{
		Start: Position{Line: startLine, Col: startCol},
		End:   Position{Line: endLine, Col: endCol},
	}
}

// PointRange creates a single-point range.
func PointRange(line, col int) Range {
	return NewRange(line, col, line, col)
}

// Join returns the smallest range covering both r and other.
func (r Range) Join(other Range) Range {
	out := r
	if other.Start.Line < out.Start.Line ||
		(other.Start.Line == out.Start.Line && other.Start.Col < out.Start.Col) {
		out.Start = other.Start
	}
	if other.End.Line > out.End.Line ||
		(other.End.Line == out.End.Line && other.End.Col > out.End.Col) {
		out.End = other.End
	}
	return out
}

// Severity classifies how serious a diagnostic is.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so severities render as
// names in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic source tags.
const (
	SourceLexer    = "mcn-lexer"
	SourceParser   = "mcn-parser"
	SourceCompiler = "mcn-compiler"
	SourceInternal = "internal"
)

// Diagnostic is a structured problem report attached to a source range.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Source tags the component that produced the diagnostic.
	Source string `json:"source"`
}

// Errorf creates an error-severity diagnostic with a formatted message.
func Errorf(source string, r Range, format string, args ...any) Diagnostic {
	return Diagnostic{
		Range:    r,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Source:   source,
	}
}

// String renders the diagnostic as "line:col: severity: message" with
// 1-based line numbers for human output.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line+1, d.Range.Start.Col, d.Severity, d.Message)
}
