// Package compiler wraps the MCN frontend and backend behind a single
// entry point with a hard containment guarantee: Compile always returns a
// CompileResult, whatever the input. A fault anywhere in the pipeline is
// converted into an internal-error diagnostic instead of escaping to the
// caller — one malformed document must never take down an editing
// session.
package compiler

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Christiano300/mcn-ls/internal/backend"
	"github.com/Christiano300/mcn-ls/internal/diag"
	"github.com/Christiano300/mcn-ls/internal/frontend"
)

// DefaultMaxSourceBytes bounds compile latency: a document larger than
// this is rejected with a diagnostic instead of being compiled.
const DefaultMaxSourceBytes = 1 << 20

// ErrCompile marks a failed direct compile. Callers that only need a
// has-error signal test for it with errors.Is.
var ErrCompile = errors.New("compile failed")

// CompileResult is the outcome of one compilation. Assembly is set on
// success; Diagnostics is non-empty on failure. Results are produced
// fresh on every call and never merged with prior ones.
type CompileResult struct {
	Assembly    string            `json:"assembly,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// Ok reports whether the compilation succeeded.
func (r CompileResult) Ok() bool {
	return len(r.Diagnostics) == 0
}

// Adapter runs compilations with a configured source-size bound.
// The zero value is not useful; use New.
type Adapter struct {
	maxSourceBytes int
}

// New creates an adapter. maxSourceBytes <= 0 selects the default bound.
func New(maxSourceBytes int) *Adapter {
	if maxSourceBytes <= 0 {
		maxSourceBytes = DefaultMaxSourceBytes
	}
	return &Adapter{maxSourceBytes: maxSourceBytes}
}

// Compile compiles MCN source to assembly text. It never panics: any
// fault inside the pipeline is returned as a single internal-error
// diagnostic and subsequent calls are unaffected.
func (a *Adapter) Compile(source string) (result CompileResult) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("compiler fault contained")
			result = CompileResult{Diagnostics: []diag.Diagnostic{{
				Range:    diag.PointRange(0, 0),
				Severity: diag.SeverityError,
				Message:  fmt.Sprintf("internal compiler error: %v", r),
				Source:   diag.SourceInternal,
			}}}
		}
	}()

	if len(source) > a.maxSourceBytes {
		return CompileResult{Diagnostics: []diag.Diagnostic{{
			Range:    diag.PointRange(0, 0),
			Severity: diag.SeverityError,
			Message:  fmt.Sprintf("source too large: %d bytes (max %d)", len(source), a.maxSourceBytes),
			Source:   diag.SourceCompiler,
		}}}
	}

	tokens, diags := frontend.Tokenize(source)
	if len(diags) > 0 {
		return CompileResult{Diagnostics: diags}
	}

	ast, diags := frontend.Parse(tokens)
	if len(diags) > 0 {
		return CompileResult{Diagnostics: diags}
	}

	instructions, diags := backend.Generate(ast)
	if len(diags) > 0 {
		return CompileResult{Diagnostics: diags}
	}

	return CompileResult{Assembly: backend.Format(instructions)}
}

// Text is the stateless direct-compile path for immediate feedback (a
// live preview pane). It returns the assembly on success or an error
// wrapping ErrCompile; no diagnostic detail crosses this boundary.
func Text(source string) (string, error) {
	result := New(0).Compile(source)
	if !result.Ok() {
		first := result.Diagnostics[0]
		return "", fmt.Errorf("%w: %s", ErrCompile, first.String())
	}
	return result.Assembly, nil
}
