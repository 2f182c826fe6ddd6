package testutils

import (
	"bytes"
	"net"
	"sync/atomic"
	"time"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
// Reads are served from the configured reply; writes are recorded.
type ConnectionMock struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   atomic.Bool

	// WriteErr, when set, is returned by every Write.
	WriteErr error

	// ReadDeadline and WriteDeadline record the last deadlines set.
	ReadDeadline  time.Time
	WriteDeadline time.Time
}

// NewConnectionMock creates a new mock connection replying with the given bytes.
func NewConnectionMock(reply ...[]byte) *ConnectionMock {
	return &ConnectionMock{
		readBuf:  bytes.NewBuffer(bytes.Join(reply, nil)),
		writeBuf: &bytes.Buffer{},
	}
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	if m.closed.Load() {
		return 0, net.ErrClosed
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	if m.closed.Load() {
		return 0, net.ErrClosed
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.closed.Store(true)
	return nil
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	return m.closed.Load()
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 10051}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error {
	m.ReadDeadline = t
	m.WriteDeadline = t
	return nil
}

func (m *ConnectionMock) SetReadDeadline(t time.Time) error {
	m.ReadDeadline = t
	return nil
}

func (m *ConnectionMock) SetWriteDeadline(t time.Time) error {
	m.WriteDeadline = t
	return nil
}

// Written returns the raw bytes written to the mock connection.
func (m *ConnectionMock) Written() []byte {
	return m.writeBuf.Bytes()
}
