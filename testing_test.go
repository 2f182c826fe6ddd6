package trapper

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testHostname = "test-host"

func testConfig(t testing.TB, addr string) Config {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return Config{
		Server:   host,
		Port:     port,
		Hostname: testHostname,
		Timeout:  time.Second,
	}
}

func newTestSender(t testing.TB, config Config) *Sender {
	t.Helper()

	s, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// fakeClock drives the throttle and backoff without sleeping.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return ctx.Err()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fakeClock) install(config *Config) {
	config.now = c.Now
	config.sleep = c.Sleep
}
