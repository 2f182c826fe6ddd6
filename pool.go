package trapper

import (
	"context"
	"time"
)

// Pool holds the connection a sender reuses between sends when keepalive is on.
// A sender always creates its pool with maxSize 1, so at most one socket is
// open per sender.
type Pool interface {
	// Acquire returns the idle connection or dials a new one.
	Acquire(ctx context.Context) (Resource, error)

	// Close closes idle connections and rejects further Acquire calls.
	Close()

	// Stats returns a snapshot of pool statistics.
	Stats() PoolStats
}

// Resource is a connection checked out of a Pool.
type Resource interface {
	Value() *Connection

	// Release returns the connection to the pool for reuse.
	Release()

	// Destroy closes the connection and frees its pool slot.
	Destroy()

	// IdleDuration is the time since the connection was last released.
	IdleDuration() time.Duration
}

// PoolFactory builds a Pool around a connection constructor.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)
