package lspserver

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/protocol"

	"github.com/Christiano300/mcn-ls/internal/diag"
)

// publishDiagnostics compiles the document and pushes the resulting
// diagnostics to the client, tagged with the document version they were
// computed from. A compile that produces no findings still publishes an
// empty set so the editor clears earlier squiggles.
func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) {
	if doc == nil || s.out == nil {
		return
	}

	result := s.compiler.Compile(doc.Text)

	params := &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Version:     uint32(doc.Version),
		Diagnostics: toProtocolDiagnostics(result.Diagnostics),
	}
	if err := s.out.SendNotification(ctx, protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		s.log.WithError(err).WithField("uri", doc.URI).Warn("failed to publish diagnostics")
		return
	}
	s.log.WithFields(logrus.Fields{
		"uri":         doc.URI,
		"version":     doc.Version,
		"diagnostics": len(params.Diagnostics),
	}).Debug("published diagnostics")
}

// clearDiagnostics publishes an empty diagnostic set for a closed
// document.
func (s *Server) clearDiagnostics(ctx context.Context, uri string) {
	if s.out == nil {
		return
	}
	params := &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: []protocol.Diagnostic{},
	}
	if err := s.out.SendNotification(ctx, protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		s.log.WithError(err).WithField("uri", uri).Warn("failed to clear diagnostics")
	}
}

// toProtocolDiagnostics converts compiler findings to LSP diagnostics.
// The result is never nil: an empty slice serializes as [] rather than
// null, which some clients reject.
func toProtocolDiagnostics(ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: severityToLSP(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	return out
}

func severityToLSP(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityError:
		return protocol.DiagnosticSeverityError
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case diag.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

// toProtocolRange maps a compiler range onto an LSP range. Point ranges
// are stretched to the end of the token's line position so editors
// render a visible underline instead of a zero-width caret.
func toProtocolRange(r diag.Range) protocol.Range {
	start := protocol.Position{
		Line:      clampUint32(r.Start.Line),
		Character: clampUint32(r.Start.Col),
	}
	end := protocol.Position{
		Line:      clampUint32(r.End.Line),
		Character: clampUint32(r.End.Col),
	}
	if start == end {
		end.Character += 1000
	}
	return protocol.Range{Start: start, End: end}
}

func clampUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
