package protocol

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single request/reply exchange.
const DefaultTimeout = 2 * time.Second

// Conn is the client side of a connection to the monitoring server. Round trips are serialized, so a
// Conn may be shared by several goroutines.
type Conn struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
}

// Dial connects to the server at address.
func Dial(ctx context.Context, address string, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, timeout), nil
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn, timeout time.Duration) *Conn {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Conn{conn: conn, timeout: timeout}
}

// RemoteAddr returns the address of the server.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// RoundTrip sends req and waits for its reply. Both directions are bounded by the connection timeout
// and by the context deadline, whichever comes first.
func (c *Conn) RoundTrip(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, err
	}
	if err := WriteMessage(c.conn, req); err != nil {
		return Response{}, errors.Wrapf(err, "failed to send %s", req.Type)
	}
	payload, err := ReadFrame(ctx, c.conn)
	if err != nil {
		return Response{}, errors.Wrapf(err, "failed to receive reply to %s", req.Type)
	}
	return ParseResponse(payload)
}

// Ping sends a heartbeat and checks that it is answered with a pong.
func (c *Conn) Ping(ctx context.Context) error {
	resp, err := c.RoundTrip(ctx, NewPing())
	if err != nil {
		return err
	}
	if resp.Type != TypePong {
		return errors.Errorf("expected %s but got %q (error %q)", TypePong, resp.Type, resp.Error)
	}
	return nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
