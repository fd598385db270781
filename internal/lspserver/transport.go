package lspserver

import (
	"context"
	"os"

	"go.lsp.dev/jsonrpc2"
)

// Transport is the outbound half of the channel the host supplies: the
// server pushes notifications and server-initiated requests through it.
// Inbound traffic arrives separately, as calls into Server.Handle.
type Transport interface {
	Notify(ctx context.Context, method string, params any) error
	Call(ctx context.Context, method string, params, result any) error
	Close() error
}

// Outbound holds the two send handles the protocol grants the server.
// It is captured exactly once, at the initialize transition, and shared
// by reference for the rest of the server's lifetime.
type Outbound struct {
	SendNotification func(ctx context.Context, method string, params any) error
	SendRequest      func(ctx context.Context, method string, params, result any) error
}

// connTransport adapts a jsonrpc2 connection to the Transport interface.
type connTransport struct {
	conn jsonrpc2.Conn
}

func (t *connTransport) Notify(ctx context.Context, method string, params any) error {
	return t.conn.Notify(ctx, method, params)
}

func (t *connTransport) Call(ctx context.Context, method string, params, result any) error {
	_, err := t.conn.Call(ctx, method, params, result)
	return err
}

func (t *connTransport) Close() error {
	return t.conn.Close()
}

// stdioReadWriteCloser wraps stdin/stdout as an io.ReadWriteCloser for JSON-RPC.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }
