package protocol

import (
	"errors"
	"fmt"
	"net"
)

// Error types for trapper exchanges.
// Every one of them counts as a failed attempt for the sender; they differ in
// whether the connection that produced them may be reused.

// ProtocolError is returned when a response claims the framed format but
// cannot be a valid frame: the header is truncated or the declared length is
// out of bounds.
//
// Connection handling: CLOSE, the stream position is unknown.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "trapper protocol: " + e.Message
}

// ShouldCloseConnection returns true - framing is lost
func (e *ProtocolError) ShouldCloseConnection() bool {
	return true
}

// ConnectError wraps a failed TCP connect to the collector.
//
// Connection handling: there is no connection; the next attempt dials again.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - nothing to keep
func (e *ConnectError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors on an established connection.
//
// Common causes:
//   - Connection reset or closed by the collector
//   - Read or write deadline exceeded
//   - Reply truncated before the declared length
//
// Connection handling: Connection is broken, CLOSE and RECONNECT
type ConnectionError struct {
	Op  string // read or write
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// Timeout reports whether the underlying error is a deadline expiry.
func (e *ConnectionError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ErrorWithConnectionState is implemented by all error types of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
// Unknown errors are treated conservatively and close the connection.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
