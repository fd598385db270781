// Package reporter provides output formatters for compile diagnostics.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Christiano300/mcn-ls/internal/diag"
)

// PrintText writes diagnostics with source snippets.
//
// Example output:
//
//	ERROR: mcn-parser - main.mcn:2
//	missing end for if starting at line 1
//
//	main.mcn:2
//	--------------------
//	   1 |     if x > 1
//	   2 | >>> debug x
//	--------------------
func PrintText(w io.Writer, file string, diagnostics []diag.Diagnostic, source []byte) error {
	sorted := make([]diag.Diagnostic, len(diagnostics))
	copy(sorted, diagnostics)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Range.Start.Line != sorted[j].Range.Start.Line {
			return sorted[i].Range.Start.Line < sorted[j].Range.Start.Line
		}
		return sorted[i].Range.Start.Col < sorted[j].Range.Start.Col
	})

	for _, d := range sorted {
		if err := printDiagnostic(w, file, d, source); err != nil {
			return err
		}
	}
	return nil
}

func printDiagnostic(w io.Writer, file string, d diag.Diagnostic, source []byte) error {
	// Header: SEVERITY: source - file:line
	if _, err := fmt.Fprintf(w, "\n%s: %s - %s:%d\n%s\n",
		strings.ToUpper(d.Severity.String()), d.Source, file, d.Range.Start.Line+1, d.Message); err != nil {
		return err
	}

	if len(source) > 0 {
		printSource(w, file, d.Range, source)
	}
	return nil
}

// printSource renders the source snippet with the affected lines marked
// by a ">>>" prefix. Line numbers are 1-based in display, 0-based
// internally.
func printSource(w io.Writer, file string, r diag.Range, source []byte) {
	lines := strings.Split(string(source), "\n")

	start := r.Start.Line + 1
	end := r.End.Line + 1
	if end < start {
		end = start
	}

	if start > len(lines) || start < 1 {
		return
	}
	if end > len(lines) {
		end = len(lines)
	}

	// 2-4 lines of context padding
	pad := 2
	if end == start {
		pad = 4
	}

	displayStart := start
	p := 0
	for p < pad {
		if start > 1 {
			start--
			p++
		}
		if end < len(lines) {
			end++
			p++
		}
		p++
	}

	fmt.Fprintf(w, "%s:%d\n", file, displayStart)
	fmt.Fprintf(w, "--------------------\n")
	for i := start; i <= end; i++ {
		pfx := "   "
		if lineInRange(i, r.Start.Line+1, r.End.Line+1) {
			pfx = ">>>"
		}
		fmt.Fprintf(w, " %3d | %s %s\n", i, pfx, lines[i-1])
	}
	fmt.Fprintf(w, "--------------------\n")
}

// lineInRange checks if a 1-based line number is within [start, end].
func lineInRange(line, start, end int) bool {
	if end < start {
		end = start
	}
	return line >= start && line <= end
}

// jsonDiagnostic is the wire shape for PrintJSON.
type jsonDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"endLine"`
	EndCol   int    `json:"endCol"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
	Message  string `json:"message"`
}

// PrintJSON writes diagnostics as a JSON array, one object per finding.
func PrintJSON(w io.Writer, file string, diagnostics []diag.Diagnostic) error {
	out := make([]jsonDiagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		out = append(out, jsonDiagnostic{
			File:     file,
			Line:     d.Range.Start.Line + 1,
			Col:      d.Range.Start.Col,
			EndLine:  d.Range.End.Line + 1,
			EndCol:   d.Range.End.Col,
			Severity: d.Severity.String(),
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
