package trapper

import (
	"sync/atomic"
	"time"
)

// PoolStats contains statistics about a connection pool.
//
// For Prometheus integration, expose these as:
//   - Gauges: TotalConns, IdleConns, ActiveConns
//   - Counters: AcquireCount, AcquireWaitCount, CreatedConns, DestroyedConns, AcquireErrors
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait
	CreatedConns      uint64 // Total connections created
	DestroyedConns    uint64 // Total connections destroyed
	AcquireErrors     uint64 // Failed acquire attempts, dial failures included
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Total connections in pool (active + idle)
	IdleConns   int32 // Idle connections available
	ActiveConns int32 // Connections currently in use
}

// SenderStats contains statistics about send operations.
// Counters are updated atomically; a Sender itself is still single-caller.
type SenderStats struct {
	Sends        uint64 // Logical Send/BulkSend calls that reached the network loop
	SendFailures uint64 // Logical sends that exhausted their retries
	Measurements uint64 // Measurements confirmed by the collector

	Attempts        uint64 // Connection attempts, retries included
	Accepted        uint64 // Attempts answered with "success"
	Rejected        uint64 // Attempts answered with any other response
	Indeterminate   uint64 // Attempts answered with an empty or undecodable body
	ConnectErrors   uint64 // Attempts that failed to connect
	IOErrors        uint64 // Attempts that failed on read or write
	ProtocolErrors  uint64 // Attempts with a malformed frame
	BreakerRejected uint64 // Attempts refused by an open circuit breaker
}

// poolStatsCollector provides internal methods for updating pool stats.
// The zero value is ready to use.
type poolStatsCollector struct {
	acquireCount      atomic.Uint64
	acquireWaitCount  atomic.Uint64
	createdConns      atomic.Uint64
	destroyedConns    atomic.Uint64
	acquireErrors     atomic.Uint64
	acquireWaitTimeNs atomic.Uint64

	totalConns  atomic.Int32
	idleConns   atomic.Int32
	activeConns atomic.Int32
}

func (c *poolStatsCollector) recordAcquire() {
	c.acquireCount.Add(1)
}

func (c *poolStatsCollector) recordAcquireWait(duration time.Duration) {
	c.acquireWaitCount.Add(1)
	c.acquireWaitTimeNs.Add(uint64(duration.Nanoseconds()))
}

func (c *poolStatsCollector) recordCreate() {
	c.createdConns.Add(1)
	c.totalConns.Add(1)
}

func (c *poolStatsCollector) recordDestroyActive() {
	c.destroyedConns.Add(1)
	c.totalConns.Add(-1)
	c.activeConns.Add(-1)
}

func (c *poolStatsCollector) recordDestroyIdle() {
	c.destroyedConns.Add(1)
	c.totalConns.Add(-1)
	c.idleConns.Add(-1)
}

func (c *poolStatsCollector) recordAcquireError() {
	c.acquireErrors.Add(1)
}

func (c *poolStatsCollector) recordAcquireFromIdle() {
	c.idleConns.Add(-1)
	c.activeConns.Add(1)
}

func (c *poolStatsCollector) recordActivate() {
	c.activeConns.Add(1)
}

func (c *poolStatsCollector) recordRelease() {
	c.idleConns.Add(1)
	c.activeConns.Add(-1)
}

func (c *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		TotalConns:        c.totalConns.Load(),
		IdleConns:         c.idleConns.Load(),
		ActiveConns:       c.activeConns.Load(),
		AcquireCount:      c.acquireCount.Load(),
		AcquireWaitCount:  c.acquireWaitCount.Load(),
		CreatedConns:      c.createdConns.Load(),
		DestroyedConns:    c.destroyedConns.Load(),
		AcquireErrors:     c.acquireErrors.Load(),
		AcquireWaitTimeNs: c.acquireWaitTimeNs.Load(),
	}
}

// senderStatsCollector provides internal methods for updating sender stats.
type senderStatsCollector struct {
	sends        atomic.Uint64
	sendFailures atomic.Uint64
	measurements atomic.Uint64

	attempts        atomic.Uint64
	accepted        atomic.Uint64
	rejected        atomic.Uint64
	indeterminate   atomic.Uint64
	connectErrors   atomic.Uint64
	ioErrors        atomic.Uint64
	protocolErrors  atomic.Uint64
	breakerRejected atomic.Uint64
}

func (c *senderStatsCollector) recordSend(ok bool, items int) {
	c.sends.Add(1)
	if ok {
		c.measurements.Add(uint64(items))
	} else {
		c.sendFailures.Add(1)
	}
}

func (c *senderStatsCollector) recordAttempt(outcome attemptOutcome) {
	c.attempts.Add(1)

	switch outcome {
	case outcomeAccepted:
		c.accepted.Add(1)
	case outcomeRejected:
		c.rejected.Add(1)
	case outcomeIndeterminate:
		c.indeterminate.Add(1)
	case outcomeConnectError:
		c.connectErrors.Add(1)
	case outcomeIOError:
		c.ioErrors.Add(1)
	case outcomeProtocolError:
		c.protocolErrors.Add(1)
	case outcomeBreakerOpen:
		c.breakerRejected.Add(1)
	}
}

func (c *senderStatsCollector) snapshot() SenderStats {
	return SenderStats{
		Sends:           c.sends.Load(),
		SendFailures:    c.sendFailures.Load(),
		Measurements:    c.measurements.Load(),
		Attempts:        c.attempts.Load(),
		Accepted:        c.accepted.Load(),
		Rejected:        c.rejected.Load(),
		Indeterminate:   c.indeterminate.Load(),
		ConnectErrors:   c.connectErrors.Load(),
		IOErrors:        c.ioErrors.Load(),
		ProtocolErrors:  c.protocolErrors.Load(),
		BreakerRejected: c.breakerRejected.Load(),
	}
}
