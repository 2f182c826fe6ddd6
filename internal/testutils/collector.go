package testutils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pior/trapper/protocol"
)

// Reply builds the raw bytes written back for the n-th request (0-based).
// Returning nil closes the connection without answering.
type Reply func(n int, req *protocol.Request) []byte

// Collector is an in-process trapper collector for tests.
// It records every decoded request and counts accepted connections.
type Collector struct {
	addr     string
	reply    Reply
	keepOpen bool

	accepts atomic.Int32

	mu       sync.Mutex
	requests []*protocol.Request
}

type CollectorOption func(*Collector)

// KeepConnections serves several requests per connection instead of closing
// after the first reply.
func KeepConnections() CollectorOption {
	return func(c *Collector) {
		c.keepOpen = true
	}
}

// StartCollector listens on a loopback port until the test ends.
func StartCollector(t testing.TB, reply Reply, opts ...CollectorOption) *Collector {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test collector: %v", err)
	}
	t.Cleanup(func() {
		listener.Close()
	})

	c := &Collector{
		addr:  listener.Addr().String(),
		reply: reply,
	}
	for _, opt := range opts {
		opt(c)
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			c.accepts.Add(1)
			go c.serve(conn)
		}
	}()

	return c
}

func (c *Collector) serve(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		raw, err := protocol.ReadFrame(reader, 0)
		if err != nil || len(raw) == 0 {
			return
		}

		req, err := protocol.DecodeRequest(raw)
		if err != nil {
			return
		}

		c.mu.Lock()
		n := len(c.requests)
		c.requests = append(c.requests, req)
		c.mu.Unlock()

		out := c.reply(n, req)
		if out == nil {
			return
		}
		if _, err := conn.Write(out); err != nil {
			return
		}

		if !c.keepOpen {
			return
		}
	}
}

// Addr returns the listening address as host:port.
func (c *Collector) Addr() string {
	return c.addr
}

// HostPort splits Addr for configs that take them separately.
func (c *Collector) HostPort() (string, int) {
	tcp, err := net.ResolveTCPAddr("tcp", c.addr)
	if err != nil {
		panic(err)
	}
	return tcp.IP.String(), tcp.Port
}

// Accepts returns the number of connections accepted so far.
func (c *Collector) Accepts() int {
	return int(c.accepts.Load())
}

// Requests returns the requests decoded so far, in arrival order.
func (c *Collector) Requests() []*protocol.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Request(nil), c.requests...)
}

// ResponseFrame returns a framed collector reply.
func ResponseFrame(response, info string) []byte {
	body, err := json.Marshal(map[string]string{
		protocol.FieldResponse: response,
		protocol.FieldInfo:     info,
	})
	if err != nil {
		panic(err)
	}
	return protocol.Frame(body)
}

// Success answers every request with "success" and a matching info line.
func Success() Reply {
	return func(_ int, req *protocol.Request) []byte {
		return ResponseFrame(protocol.ResponseSuccess, infoFor(len(req.Data), 0))
	}
}

// Failed answers every request with "failed".
func Failed() Reply {
	return func(_ int, req *protocol.Request) []byte {
		return ResponseFrame(protocol.ResponseFailed, infoFor(0, len(req.Data)))
	}
}

// Raw answers every request with the same bytes.
func Raw(b []byte) Reply {
	return func(int, *protocol.Request) []byte {
		return b
	}
}

// NoReply closes every connection without answering.
func NoReply() Reply {
	return func(int, *protocol.Request) []byte {
		return nil
	}
}

// Sequence uses replies in order, one per request; the last one repeats.
func Sequence(replies ...Reply) Reply {
	return func(n int, req *protocol.Request) []byte {
		return replies[min(n, len(replies)-1)](n, req)
	}
}

func infoFor(processed, failed int) string {
	return fmt.Sprintf("processed: %d; failed: %d; total: %d; seconds spent: 0.000055", processed, failed, processed+failed)
}

// UnusedAddr returns a loopback address with nothing listening on it.
func UnusedAddr(t testing.TB) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()
	return addr
}
