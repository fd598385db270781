package lspserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/Christiano300/mcn-ls/internal/diag"
)

// testPipe creates an in-memory connected pair of jsonrpc2 connections.
// Returns (clientConn, serverConn).
func testPipe(t *testing.T) (jsonrpc2.Conn, jsonrpc2.Conn) {
	t.Helper()

	// Two pipes: one for each direction.
	// client writes -> server reads (c2s)
	// server writes -> client reads (s2c)
	c2s := newPipeEnd()
	s2c := newPipeEnd()

	clientStream := jsonrpc2.NewStream(rwc{reader: s2c, writer: c2s})
	serverStream := jsonrpc2.NewStream(rwc{reader: c2s, writer: s2c})

	clientConn := jsonrpc2.NewConn(clientStream)
	serverConn := jsonrpc2.NewConn(serverStream)

	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})

	return clientConn, serverConn
}

// startServer wires a server onto the server side of the pipe. The
// handler is deliberately synchronous: messages are processed one at a
// time in delivery order.
func startServer(ctx context.Context, serverConn jsonrpc2.Conn) *Server {
	s := New(nil)
	s.transport = &connTransport{conn: serverConn}
	serverConn.Go(ctx, jsonrpc2.ReplyHandler(s.Handle))
	return s
}

// diagnosticsListener runs the client side and forwards every
// publishDiagnostics notification into the returned channel.
func diagnosticsListener(ctx context.Context, clientConn jsonrpc2.Conn) <-chan *protocol.PublishDiagnosticsParams {
	ch := make(chan *protocol.PublishDiagnosticsParams, 8)
	clientConn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == protocol.MethodTextDocumentPublishDiagnostics {
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err == nil {
				ch <- &params
			}
			return reply(ctx, nil, nil)
		}
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	})
	return ch
}

func initialize(ctx context.Context, t *testing.T, clientConn jsonrpc2.Conn) protocol.InitializeResult {
	t.Helper()
	var result protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, &protocol.InitializeParams{}, &result)
	require.NoError(t, err)
	return result
}

func openDocument(ctx context.Context, t *testing.T, clientConn jsonrpc2.Conn, uri protocol.DocumentURI, version int32, text string) {
	t.Helper()
	err := clientConn.Notify(ctx, protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "mcn",
			Version:    version,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func changeDocument(ctx context.Context, t *testing.T, clientConn jsonrpc2.Conn, uri protocol.DocumentURI, version int32, texts ...string) {
	t.Helper()
	changes := make([]protocol.TextDocumentContentChangeEvent, 0, len(texts))
	for _, text := range texts {
		changes = append(changes, protocol.TextDocumentContentChangeEvent{Text: text})
	}
	err := clientConn.Notify(ctx, protocol.MethodTextDocumentDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: changes,
	})
	require.NoError(t, err)
}

func TestInitializeHandshake(t *testing.T) {
	ctx := context.Background()
	clientConn, serverConn := testPipe(t)

	s := startServer(ctx, serverConn)
	clientConn.Go(ctx, jsonrpc2.MethodNotFoundHandler)

	var result protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{
			Name:    "test-client",
			Version: "1.0.0",
		},
	}, &result)
	require.NoError(t, err)

	assert.Equal(t, serverName, result.ServerInfo.Name)
	assert.NotEmpty(t, result.ServerInfo.Version)
	assert.Equal(t, PhaseReady, s.Phase())

	sync, ok := result.Capabilities.TextDocumentSync.(map[string]any)
	require.True(t, ok, "expected sync options object, got %T", result.Capabilities.TextDocumentSync)
	assert.Equal(t, float64(protocol.TextDocumentSyncKindFull), sync["change"])
	assert.Equal(t, true, sync["openClose"])
}

func TestSecondInitializeRejected(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	clientConn.Go(ctx, jsonrpc2.MethodNotFoundHandler)

	initialize(ctx, t, clientConn)

	var result protocol.InitializeResult
	_, err := clientConn.Call(ctx, protocol.MethodInitialize, &protocol.InitializeParams{}, &result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestRequestBeforeInitializeRejected(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	clientConn.Go(ctx, jsonrpc2.MethodNotFoundHandler)

	_, err := clientConn.Call(ctx, protocol.MethodShutdown, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestNotificationBeforeInitializeDropped(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	s := startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)

	// A didOpen before initialize must be silently dropped.
	openDocument(ctx, t, clientConn, "file:///tmp/early.mcn", 1, "x = 1\n")

	initialize(ctx, t, clientConn)
	require.Nil(t, s.documents.Current(), "document opened before initialize must not be stored")

	// The first diagnostics must belong to the post-initialize open.
	openDocument(ctx, t, clientConn, "file:///tmp/main.mcn", 1, "x = 1\n")

	select {
	case d := <-diagnosticsCh:
		assert.Equal(t, protocol.DocumentURI("file:///tmp/main.mcn"), d.URI)
	case <-ctx.Done():
		t.Fatal("timed out waiting for diagnostics")
	}
}

func TestDiagnosticsOnOpen(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)
	initialize(ctx, t, clientConn)

	// 99999 does not fit into 16 bits, so the lexer reports it.
	openDocument(ctx, t, clientConn, "file:///tmp/main.mcn", 1, "x = 99999\n")

	select {
	case d := <-diagnosticsCh:
		assert.Equal(t, protocol.DocumentURI("file:///tmp/main.mcn"), d.URI)
		assert.Equal(t, uint32(1), d.Version)
		require.NotEmpty(t, d.Diagnostics)
		found := false
		for _, pd := range d.Diagnostics {
			if pd.Source == diag.SourceLexer {
				found = true
				break
			}
		}
		assert.True(t, found, "expected a lexer diagnostic for the oversized literal")
	case <-ctx.Done():
		t.Fatal("timed out waiting for diagnostics")
	}
}

func TestDiagnosticsClearedOnClose(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)
	initialize(ctx, t, clientConn)

	uri := protocol.DocumentURI("file:///tmp/main.mcn")
	openDocument(ctx, t, clientConn, uri, 1, "x = 99999\n")
	<-diagnosticsCh

	err := clientConn.Notify(ctx, protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)

	select {
	case d := <-diagnosticsCh:
		assert.Equal(t, uri, d.URI)
		assert.Empty(t, d.Diagnostics, "expected empty diagnostics after close")
	case <-ctx.Done():
		t.Fatal("timed out waiting for clear diagnostics")
	}
}

func TestStaleVersionIgnored(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)
	initialize(ctx, t, clientConn)

	uri := protocol.DocumentURI("file:///tmp/main.mcn")
	openDocument(ctx, t, clientConn, uri, 2, "x = 1\n")
	first := <-diagnosticsCh
	require.Equal(t, uint32(2), first.Version)

	// A change carrying an older version must publish nothing. Because
	// dispatch is sequential, the very next published version proves the
	// stale one was skipped.
	changeDocument(ctx, t, clientConn, uri, 1, "x = 99999\n")
	changeDocument(ctx, t, clientConn, uri, 3, "x = 2\n")

	select {
	case d := <-diagnosticsCh:
		assert.Equal(t, uint32(3), d.Version)
		assert.Empty(t, d.Diagnostics, "stale broken text must not have been applied")
	case <-ctx.Done():
		t.Fatal("timed out waiting for diagnostics")
	}
}

func TestDidChangeAppliesFirstChangeOnly(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	s := startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)
	initialize(ctx, t, clientConn)

	uri := protocol.DocumentURI("file:///tmp/main.mcn")
	openDocument(ctx, t, clientConn, uri, 1, "x = 1\n")
	<-diagnosticsCh

	// With full sync the first change is the authoritative snapshot.
	changeDocument(ctx, t, clientConn, uri, 2, "x = 2\n", "x = 99999\n")

	select {
	case d := <-diagnosticsCh:
		assert.Equal(t, uint32(2), d.Version)
		assert.Empty(t, d.Diagnostics)
	case <-ctx.Done():
		t.Fatal("timed out waiting for diagnostics")
	}
	assert.Equal(t, "x = 2\n", s.documents.Current().Text)
	assert.Equal(t, "mcn", s.documents.Current().LanguageID)
}

func TestShutdownGatesDocumentSync(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	s := startServer(ctx, serverConn)
	diagnosticsCh := diagnosticsListener(ctx, clientConn)
	initialize(ctx, t, clientConn)

	uri := protocol.DocumentURI("file:///tmp/main.mcn")
	openDocument(ctx, t, clientConn, uri, 1, "x = 1\n")
	<-diagnosticsCh

	_, err := clientConn.Call(ctx, protocol.MethodShutdown, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseShuttingDown, s.Phase())

	// Document notifications after shutdown are dropped without faulting.
	changeDocument(ctx, t, clientConn, uri, 2, "x = 99999\n")

	// A request after shutdown gets a protocol error, which also proves
	// the preceding change was fully processed (or dropped) first.
	_, err = clientConn.Call(ctx, protocol.MethodShutdown, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "x = 1\n", s.documents.Current().Text)
	assert.Empty(t, diagnosticsCh)
}

func TestUnknownMethod(t *testing.T) {
	ctx := t.Context()
	clientConn, serverConn := testPipe(t)

	startServer(ctx, serverConn)
	clientConn.Go(ctx, jsonrpc2.MethodNotFoundHandler)
	initialize(ctx, t, clientConn)

	_, err := clientConn.Call(ctx, "textDocument/definition", nil, nil)
	require.Error(t, err)
}

func TestRangeConversion(t *testing.T) {
	tests := []struct {
		name     string
		in       diag.Range
		expected protocol.Range
	}{
		{
			name: "file-level point",
			in:   diag.PointRange(0, 0),
			expected: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 1000},
			},
		},
		{
			name: "token range",
			in:   diag.NewRange(2, 5, 2, 15),
			expected: protocol.Range{
				Start: protocol.Position{Line: 2, Character: 5},
				End:   protocol.Position{Line: 2, Character: 15},
			},
		},
		{
			name: "negative clamped",
			in:   diag.NewRange(-1, -1, 0, 3),
			expected: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toProtocolRange(tt.in))
		})
	}
}

func TestSeverityConversion(t *testing.T) {
	snaps.MatchStandaloneJSON(t, map[string]protocol.DiagnosticSeverity{
		"error":   severityToLSP(diag.SeverityError),
		"warning": severityToLSP(diag.SeverityWarning),
		"info":    severityToLSP(diag.SeverityInfo),
		"hint":    severityToLSP(diag.SeverityHint),
	})
}
