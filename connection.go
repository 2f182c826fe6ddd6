package trapper

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/pior/trapper/protocol"
)

// Connection is a single TCP connection to a trapper collector.
// It is not safe for concurrent use; the pool hands it to one sender at a time.
type Connection struct {
	conn   net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer
	closed bool
}

// NewConnection wraps an established net.Conn.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:   conn,
		Reader: bufio.NewReader(conn),
		Writer: bufio.NewWriter(conn),
	}
}

// dialConnection opens a TCP connection to addr.
// The dialer's Timeout bounds the connect itself.
func dialConnection(ctx context.Context, dialer *net.Dialer, addr string) (*Connection, error) {
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &protocol.ConnectError{Addr: addr, Err: err}
	}
	return NewConnection(netConn), nil
}

// SendFrame writes the whole frame, flushing until every byte is written.
// A zero timeout means no write deadline.
func (c *Connection) SendFrame(frame []byte, timeout time.Duration) error {
	if c.closed {
		return &protocol.ConnectionError{Op: "write", Err: net.ErrClosed}
	}

	if err := c.conn.SetWriteDeadline(deadline(timeout)); err != nil {
		return &protocol.ConnectionError{Op: "write", Err: err}
	}

	if _, err := c.Writer.Write(frame); err != nil {
		return &protocol.ConnectionError{Op: "write", Err: err}
	}
	if err := c.Writer.Flush(); err != nil {
		return &protocol.ConnectionError{Op: "write", Err: err}
	}

	return nil
}

// ReceiveResponse waits up to timeout for one reply and returns its raw bytes.
// See protocol.ReadFrame for how the reply length is determined.
func (c *Connection) ReceiveResponse(timeout time.Duration, maxSize int) ([]byte, error) {
	if c.closed {
		return nil, &protocol.ConnectionError{Op: "read", Err: net.ErrClosed}
	}

	if err := c.conn.SetReadDeadline(deadline(timeout)); err != nil {
		return nil, &protocol.ConnectionError{Op: "read", Err: err}
	}

	return protocol.ReadFrame(c.Reader, maxSize)
}

// RemoteAddr returns the collector address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// IsClosed returns whether Close was called
func (c *Connection) IsClosed() bool {
	return c.closed
}

// Close closes the connection. Closing twice is a no-op.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
