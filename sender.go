package trapper

import (
	"context"

	"github.com/pior/trapper/protocol"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Result is the outcome of a Send or BulkSend.
type Result struct {
	// OK is true when the collector answered "success" within the retry budget.
	OK bool

	// Attempts is the number of connection attempts made.
	Attempts int

	// Response is the last decoded reply, nil if no reply was decoded.
	Response *protocol.Response

	// Err is the failure of the last attempt, nil when OK.
	Err error
}

// Sender pushes measurements to one trapper collector.
//
// A Sender owns at most one connection, a bulk buffer and the throttle state.
// It is not safe for concurrent use: callers sharing one must serialize
// access themselves.
type Sender struct {
	config   Config
	addr     string
	logger   zerolog.Logger
	pool     Pool
	breaker  *gobreaker.CircuitBreaker[*protocol.Response]
	throttle *throttle
	buffer   *BulkBuffer
	stats    senderStatsCollector
	closed   bool
}

// New creates a Sender. The hostname is detected here when Config.Hostname
// is empty; no connection is opened until the first send.
func New(config Config) (*Sender, error) {
	cfg, err := config.resolve()
	if err != nil {
		return nil, err
	}

	addr := cfg.Addr()

	constructor := cfg.constructor
	if constructor == nil {
		dialer := cfg.Dialer
		constructor = func(ctx context.Context) (*Connection, error) {
			return dialConnection(ctx, dialer, addr)
		}
	}

	pool, err := cfg.Pool(constructor, 1)
	if err != nil {
		return nil, err
	}

	s := &Sender{
		config:   cfg,
		addr:     addr,
		logger:   cfg.Logger.With().Str("collector", addr).Logger(),
		pool:     pool,
		throttle: newThrottle(cfg.Interval, cfg.now, cfg.sleep),
		buffer:   newBulkBuffer(cfg.Hostname),
	}

	if cfg.NewCircuitBreaker != nil {
		s.breaker = cfg.NewCircuitBreaker(addr)
	}

	return s, nil
}

// Hostname returns the host measurements are reported for by default.
func (s *Sender) Hostname() string {
	return s.config.Hostname
}

// Addr returns the collector address as host:port.
func (s *Sender) Addr() string {
	return s.addr
}

// Buffer returns the sender's bulk buffer.
func (s *Sender) Buffer() *BulkBuffer {
	return s.buffer
}

// Send reports one value for the sender's hostname, timestamped now.
func (s *Sender) Send(ctx context.Context, key, value string) (Result, error) {
	return s.SendAt(ctx, key, value, 0)
}

// SendAt reports one value for the sender's hostname with an explicit clock.
//
// The returned error is non-nil only for invalid arguments, a closed sender
// or a done context. Connection and protocol failures are retried and only
// reflected in Result.
func (s *Sender) SendAt(ctx context.Context, key, value string, clock int64) (Result, error) {
	m, verr := newMeasurement(s.config.Hostname, Entry{Key: key, Value: value, Clock: clock}, s.buffer.now)
	if verr != nil {
		return Result{}, verr
	}

	return s.send(ctx, []protocol.Measurement{m})
}

// BulkSend stages entries (if any) in the bulk buffer, then sends the whole
// buffer as one request.
//
// Invalid entries, or a closed sender, fail the call immediately and leave
// the buffer unchanged.
// The buffer is cleared only when the collector accepts the request; on
// failure it is kept intact so a later BulkSend retries the same data.
func (s *Sender) BulkSend(ctx context.Context, entries ...Entry) (Result, error) {
	if s.closed {
		return Result{}, ErrSenderClosed
	}

	if len(entries) > 0 {
		if err := s.buffer.Add(entries...); err != nil {
			return Result{}, err
		}
	}

	if s.buffer.Len() == 0 {
		return Result{Err: ErrEmptyBuffer}, nil
	}

	res, err := s.send(ctx, s.buffer.snapshot())
	if res.OK {
		s.buffer.Clear()
	}
	return res, err
}

// Stats returns a snapshot of send statistics.
func (s *Sender) Stats() SenderStats {
	return s.stats.snapshot()
}

// PoolStats returns a snapshot of connection statistics.
func (s *Sender) PoolStats() PoolStats {
	return s.pool.Stats()
}

// BreakerState returns the circuit breaker state and counts.
// ok is false when no circuit breaker is configured.
func (s *Sender) BreakerState() (state gobreaker.State, counts gobreaker.Counts, ok bool) {
	if s.breaker == nil {
		return state, counts, false
	}
	return s.breaker.State(), s.breaker.Counts(), true
}

// Close closes the kept-alive connection, if any. The bulk buffer is
// discarded with the sender.
func (s *Sender) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pool.Close()
	return nil
}

// send runs the retry loop for one request.
func (s *Sender) send(ctx context.Context, items []protocol.Measurement) (Result, error) {
	if s.closed {
		return Result{}, ErrSenderClosed
	}

	frame := protocol.Encode(items)
	res, err := s.exec(ctx, frame, len(items))
	s.stats.recordSend(res.OK, len(items))
	return res, err
}

// exec sends frame until the collector accepts it or the retries run out.
// There is no backoff between attempts unless RetryBackoff is set; the
// throttle still applies to every attempt.
func (s *Sender) exec(ctx context.Context, frame []byte, items int) (Result, error) {
	var res Result

	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		if err := s.throttle.wait(ctx); err != nil {
			return res, err
		}
		if err := s.config.sleep(ctx, retryBackoff(s.config.RetryBackoff, attempt)); err != nil {
			return res, err
		}

		s.logger.Debug().Int("attempt", attempt).Int("bytes", len(frame)).Msg("sending")

		resp, err := s.attempt(ctx, frame)
		s.throttle.mark()

		outcome, attemptErr := classifyAttempt(resp, err)
		s.stats.recordAttempt(outcome)

		res.Attempts = attempt
		res.Response = resp
		res.Err = attemptErr

		if outcome == outcomeAccepted {
			res.OK = true
			s.logger.Info().
				Int("attempts", attempt).
				Int("items", items).
				Str("info", resp.Info).
				Msg("data accepted")
			return res, nil
		}

		event := s.logger.Warn().
			Int("attempt", attempt).
			Int("retries", s.config.Retries).
			Int("items", items).
			Str("outcome", outcome.String()).
			Err(attemptErr)
		if resp != nil && resp.Info != "" {
			event = event.Str("info", resp.Info)
		}
		event.Msg("send attempt failed")

		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}

	return res, nil
}

// attempt performs one exchange, through the circuit breaker when configured.
func (s *Sender) attempt(ctx context.Context, frame []byte) (*protocol.Response, error) {
	if s.breaker == nil {
		return s.exchange(ctx, frame)
	}

	return s.breaker.Execute(func() (*protocol.Response, error) {
		return s.exchange(ctx, frame)
	})
}

// exchange writes frame and reads one reply on the pooled connection.
// The connection goes back to the pool only with keepalive and a decoded
// reply; every other path closes it.
func (s *Sender) exchange(ctx context.Context, frame []byte) (*protocol.Response, error) {
	res, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	conn := res.Value()

	if err := conn.SendFrame(frame, s.config.Timeout); err != nil {
		res.Destroy()
		return nil, err
	}

	raw, err := conn.ReceiveResponse(s.config.Timeout, s.config.MaxResponseSize)
	if err != nil {
		res.Destroy()
		return nil, err
	}

	resp, err := protocol.Decode(raw)
	if err != nil || !s.config.KeepAlive || resp.IsIndeterminate() {
		res.Destroy()
		return resp, err
	}

	res.Release()
	return resp, nil
}

// acquire returns a connection, discarding a kept-alive one idle past MaxIdleTime.
func (s *Sender) acquire(ctx context.Context) (Resource, error) {
	for {
		res, err := s.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		if s.config.MaxIdleTime > 0 && res.IdleDuration() > s.config.MaxIdleTime {
			s.logger.Debug().Dur("idle", res.IdleDuration()).Msg("discarding idle connection")
			res.Destroy()
			continue
		}

		return res, nil
	}
}
