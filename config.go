package trapper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pior/trapper/protocol"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultPort    = 10051
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 1

	// maxRetryBackoff caps the opt-in exponential backoff between retries.
	maxRetryBackoff = 30 * time.Second
)

// Config holds configuration for a Sender.
// It is copied and resolved by New; later changes to the caller's value have
// no effect.
type Config struct {
	// Server is the collector host name or IP address.
	// Required.
	Server string

	// Port is the collector trapper port.
	// Zero means DefaultPort.
	Port int

	// Timeout bounds the connect, the frame write and the wait for a reply,
	// each separately.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// Interval is the minimum time between two connection attempts, retries
	// included.
	// Zero disables the throttle.
	Interval time.Duration

	// Retries is the total number of attempts per send (not additional ones).
	// Zero means DefaultRetries.
	Retries int

	// KeepAlive keeps the connection open between attempts and sends.
	// When false the connection is closed after every attempt.
	KeepAlive bool

	// MaxIdleTime discards a kept-alive connection idle for longer than this
	// before reusing it. Collectors usually close idle trapper connections.
	// Zero means no limit.
	MaxIdleTime time.Duration

	// Hostname is the host measurements are reported for when the caller
	// does not name one.
	// If empty, the local host name is detected once by New.
	Hostname string

	// RetryBackoff enables a pause before each retry, doubling per retry and
	// capped at 30s. It comes in addition to Interval.
	// Zero (the default) retries immediately.
	RetryBackoff time.Duration

	// MaxResponseSize caps the reply length accepted from a framed header.
	// Zero means protocol.DefaultMaxResponseSize.
	MaxResponseSize int

	// Dialer is the net.Dialer used to connect. Its Timeout is set from
	// Timeout when zero.
	// If nil, a default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory function.
	// If nil, uses NewPuddlePool.
	Pool PoolFactory

	// NewCircuitBreaker creates the circuit breaker guarding the collector.
	// Called once by New with the collector address.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[*protocol.Response]

	// Logger receives attempt-level logs.
	// If nil, logging is disabled.
	Logger *zerolog.Logger

	// for testing purposes only
	constructor func(ctx context.Context) (*Connection, error)
	hostname    func() (string, error)
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// resolve validates the config and applies defaults. The returned copy is
// what the Sender keeps.
func (c Config) resolve() (Config, error) {
	if c.Server == "" {
		return c, errors.New("trapper: server is required")
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 0 || c.Port > 65535 {
		return c, fmt.Errorf("trapper: invalid port %d", c.Port)
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < 0 {
		return c, fmt.Errorf("trapper: negative timeout %s", c.Timeout)
	}

	if c.Interval < 0 {
		return c, fmt.Errorf("trapper: negative interval %s", c.Interval)
	}

	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Retries < 0 {
		return c, fmt.Errorf("trapper: negative retries %d", c.Retries)
	}

	if c.RetryBackoff < 0 || c.MaxIdleTime < 0 {
		return c, errors.New("trapper: negative durations are not allowed")
	}

	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = protocol.DefaultMaxResponseSize
	}

	if c.Hostname == "" {
		detect := c.hostname
		if detect == nil {
			detect = os.Hostname
		}
		name, err := detect()
		if err != nil {
			return c, fmt.Errorf("trapper: detect hostname: %w", err)
		}
		if name == "" {
			return c, errors.New("trapper: detected hostname is empty")
		}
		c.Hostname = name
	}

	var dialer net.Dialer
	if c.Dialer != nil {
		dialer = *c.Dialer
	}
	if dialer.Timeout == 0 {
		dialer.Timeout = c.Timeout
	}
	c.Dialer = &dialer

	if c.Pool == nil {
		c.Pool = NewPuddlePool
	}

	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}

	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}

	return c, nil
}

// Addr returns the collector address as host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}
