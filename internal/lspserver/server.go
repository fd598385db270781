// Package lspserver implements the Language Server Protocol server for
// MCN. It keeps the editor's view of one document synchronized with the
// compiler and publishes diagnostics on every accepted change.
//
// The server is a small state machine (Uninitialized → Initializing →
// Ready → ShuttingDown → Exited). Inbound messages are handled strictly
// one at a time in delivery order, so a change's diagnostics are always
// published before the next message is dequeued and no locking is needed
// around the document or server state. No fault inside a handler may
// terminate the hosting process.
//
// Transport: stdio (Content-Length framed JSON-RPC) for production;
// tests drive Handle directly or through an in-memory pipe.
// Protocol: LSP 3.16 types via go.lsp.dev/protocol, JSON-RPC via
// go.lsp.dev/jsonrpc2.
package lspserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/Christiano300/mcn-ls/internal/compiler"
	"github.com/Christiano300/mcn-ls/internal/lang"
	"github.com/Christiano300/mcn-ls/internal/version"
)

const serverName = "mcn-ls"

// codeServerNotInitialized is the LSP error code for requests received
// before the initialize handshake completed.
const codeServerNotInitialized jsonrpc2.Code = -32002

// Phase is the lifecycle state of the server.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
	PhaseShuttingDown
	PhaseExited
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Server is the MCN language server.
type Server struct {
	transport Transport
	// out is populated exactly once, at the initialize transition, and
	// never reassigned afterwards.
	out *Outbound

	phase     Phase
	documents *DocumentStore
	compiler  *compiler.Adapter
	log       *logrus.Entry
}

// New creates a language server. A nil adapter selects the default
// compile limits.
func New(adapter *compiler.Adapter) *Server {
	if adapter == nil {
		adapter = compiler.New(0)
	}
	return &Server{
		documents: NewDocumentStore(),
		compiler:  adapter,
		log:       logrus.WithField("component", "lsp"),
	}
}

// Phase returns the current lifecycle phase.
func (s *Server) Phase() Phase {
	return s.phase
}

// RunStdio serves LSP over stdin/stdout. It blocks until the connection
// closes or the context is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	stream := jsonrpc2.NewStream(stdioReadWriteCloser{})
	conn := jsonrpc2.NewConn(stream)
	s.transport = &connTransport{conn: conn}

	// No AsyncHandler: messages must be handled sequentially so a
	// compile (and its published diagnostics) completes before the next
	// message is dequeued.
	conn.Go(ctx, jsonrpc2.ReplyHandler(s.Handle))

	select {
	case <-ctx.Done():
		return conn.Close()
	case <-conn.Done():
		return conn.Err()
	}
}

// Handle dispatches one inbound JSON-RPC message. A request always gets
// exactly one response (result or protocol error); a notification never
// gets one. Any panic below this point is contained and answered as an
// internal error.
func (s *Server) Handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"method": req.Method(), "panic": r}).Error("handler fault contained")
			err = reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.InternalError, "internal error handling %s", req.Method()))
		}
	}()

	if done, err := s.gate(ctx, reply, req); done {
		return err
	}

	switch req.Method() {
	// Lifecycle
	case protocol.MethodInitialize:
		return s.handleInitialize(ctx, reply, req)
	case protocol.MethodInitialized:
		s.fetchClientConfiguration(ctx)
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		s.phase = PhaseShuttingDown
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		return s.handleExit(ctx, reply, req)
	case protocol.MethodSetTrace:
		return reply(ctx, nil, nil)
	case "$/cancelRequest":
		// cancellation tokens are accepted but deliberately not acted
		// upon; in-flight compiles run to completion
		return reply(ctx, nil, nil)

	// Document sync
	case protocol.MethodTextDocumentDidOpen:
		return s.handleDidOpen(ctx, reply, req)
	case protocol.MethodTextDocumentDidChange:
		return s.handleDidChange(ctx, reply, req)
	case protocol.MethodTextDocumentDidSave:
		return s.handleDidSave(ctx, reply, req)
	case protocol.MethodTextDocumentDidClose:
		return s.handleDidClose(ctx, reply, req)

	// Workspace
	case protocol.MethodWorkspaceDidChangeConfiguration:
		return reply(ctx, nil, nil)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// gate enforces the lifecycle: before initialize only initialize and
// exit are admitted; after shutdown document operations become no-ops.
// Rejection is a protocol error for requests and a silent drop for
// notifications, never a fault.
func (s *Server) gate(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) (bool, error) {
	method := req.Method()

	switch s.phase {
	case PhaseUninitialized, PhaseInitializing:
		if method == protocol.MethodInitialize || method == protocol.MethodExit {
			return false, nil
		}
		if _, isCall := req.(*jsonrpc2.Call); isCall {
			return true, reply(ctx, nil, jsonrpc2.Errorf(codeServerNotInitialized, "server not initialized: %s", method))
		}
		s.log.WithField("method", method).Debug("dropping notification before initialize")
		return true, reply(ctx, nil, nil)

	case PhaseShuttingDown, PhaseExited:
		if method == protocol.MethodExit {
			return false, nil
		}
		if _, isCall := req.(*jsonrpc2.Call); isCall {
			return true, reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.InvalidRequest, "server is shutting down"))
		}
		s.log.WithField("method", method).Debug("ignoring notification while shutting down")
		return true, reply(ctx, nil, nil)

	default:
		return false, nil
	}
}

// handleInitialize answers the handshake with the server capabilities
// and captures the outbound send handles.
func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if s.phase != PhaseUninitialized {
		return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.InvalidRequest, "server is already initialized"))
	}

	var params protocol.InitializeParams
	if len(req.Params()) > 0 {
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return replyParseError(ctx, reply, err)
		}
	}
	s.phase = PhaseInitializing

	s.log.WithField("client", clientInfoString(params.ClientInfo)).Info("initialize")

	s.out = &Outbound{
		SendNotification: s.transport.Notify,
		SendRequest:      s.transport.Call,
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// full-document sync only: every change replaces the whole text
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: version.Version(),
		},
	}

	s.phase = PhaseReady
	return reply(ctx, result, nil)
}

func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, _ jsonrpc2.Request) error {
	s.phase = PhaseExited
	_ = reply(ctx, nil, nil)
	if s.transport != nil {
		return s.transport.Close()
	}
	return nil
}

// handleDidOpen compiles the opened document and publishes diagnostics.
func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	td := params.TextDocument
	s.applyReplacement(ctx, string(td.URI), string(td.LanguageID), td.Version, td.Text)
	return reply(ctx, nil, nil)
}

// handleDidChange applies a full-text replacement and recompiles.
func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// With full sync the first content change carries the whole
	// document; further entries are not applied.
	change := params.ContentChanges[0]
	s.applyReplacement(ctx, string(params.TextDocument.URI), "", params.TextDocument.Version, change.Text)
	return reply(ctx, nil, nil)
}

// handleDidSave republishes diagnostics for the current document.
func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	if doc := s.documents.Current(); doc != nil {
		s.publishDiagnostics(ctx, doc)
	}
	return reply(ctx, nil, nil)
}

// handleDidClose drops the document and clears its diagnostics.
func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return replyParseError(ctx, reply, err)
	}

	s.documents.Close()
	s.clearDiagnostics(ctx, string(params.TextDocument.URI))
	return reply(ctx, nil, nil)
}

// applyReplacement routes a document replacement through the store. A
// stale version compiles nothing and publishes nothing, so diagnostics
// for an older text can never overwrite fresher ones.
func (s *Server) applyReplacement(ctx context.Context, uri, languageID string, version int32, text string) {
	if !s.documents.Replace(uri, languageID, version, text) {
		s.log.WithFields(logrus.Fields{"uri": uri, "version": version}).Debug("ignoring stale document update")
		return
	}
	s.publishDiagnostics(ctx, s.documents.Current())
}

// fetchClientConfiguration asks the client for the mcn configuration
// section. This runs outside the handler because a server-initiated
// request cannot be answered while the dispatch loop is blocked in a
// handler; the result only feeds logging, so ordering does not matter.
func (s *Server) fetchClientConfiguration(ctx context.Context) {
	out := s.out
	if out == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		var result []json.RawMessage
		err := out.SendRequest(ctx, protocol.MethodWorkspaceConfiguration, &protocol.ConfigurationParams{
			Items: []protocol.ConfigurationItem{{Section: lang.ID}},
		}, &result)
		if err != nil {
			s.log.WithError(err).Debug("client configuration unavailable")
			return
		}
		s.log.WithField("sections", len(result)).Debug("client configuration received")
	}()
}

// replyParseError answers a request whose params did not unmarshal.
func replyParseError(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.ParseError, "invalid params: %v", err))
}

// clientInfoString formats client info for logging.
func clientInfoString(info *protocol.ClientInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}
