package trapper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pior/trapper/internal/coarsetime"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("trapper: pool closed")

// NewChannelPool creates a new channel-based connection pool.
// This is an alternative to the puddle pool without the extra dependency
// surface; behavior is the same for a single-connection sender.
func NewChannelPool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	if maxSize < 1 {
		return nil, errors.New("trapper: pool max size must be at least 1")
	}
	return &channelPool{
		constructor: constructor,
		maxSize:     maxSize,
		resources:   make(chan *channelResource, maxSize),
	}, nil
}

// channelResource implements Resource for channel pool.
type channelResource struct {
	conn         *Connection
	pool         *channelPool
	lastUsedTime time.Time
}

func (r *channelResource) Value() *Connection {
	return r.conn
}

func (r *channelResource) Release() {
	r.lastUsedTime = coarsetime.Now()
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	r.conn.Close()
	r.pool.removeResource()
}

func (r *channelResource) IdleDuration() time.Duration {
	return time.Since(r.lastUsedTime)
}

// channelPool is a simple connection pool using a buffered channel as the idle list.
type channelPool struct {
	constructor func(ctx context.Context) (*Connection, error)
	maxSize     int32

	mu        sync.Mutex
	resources chan *channelResource
	size      int32
	closed    bool

	stats poolStatsCollector
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.stats.recordAcquireError()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	// Try to get an idle connection from the pool first
	select {
	case res, ok := <-p.resources:
		if !ok {
			p.stats.recordAcquireError()
			return nil, ErrPoolClosed
		}
		p.stats.recordAcquireFromIdle()
		return res, nil
	default:
	}

	p.mu.Lock()
	if p.size < p.maxSize {
		p.size++
		p.mu.Unlock()

		conn, err := p.constructor(ctx)
		if err != nil {
			p.mu.Lock()
			p.size--
			p.mu.Unlock()
			p.stats.recordAcquireError()
			return nil, err
		}

		p.stats.recordCreate()
		p.stats.recordActivate()

		return &channelResource{
			conn:         conn,
			pool:         p,
			lastUsedTime: coarsetime.Now(),
		}, nil
	}
	p.mu.Unlock()

	// Pool is full, wait for a connection to be released
	waitStart := time.Now()
	select {
	case res, ok := <-p.resources:
		if !ok {
			p.stats.recordAcquireError()
			return nil, ErrPoolClosed
		}
		p.stats.recordAcquireWait(time.Since(waitStart))
		p.stats.recordAcquireFromIdle()
		return res, nil
	case <-ctx.Done():
		p.stats.recordAcquireError()
		return nil, ctx.Err()
	}
}

func (p *channelPool) put(res *channelResource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		res.conn.Close()
		p.size--
		p.stats.recordDestroyActive()
		return
	}

	select {
	case p.resources <- res:
		p.stats.recordRelease()
	default:
		// Idle list is full, close this connection
		res.conn.Close()
		p.size--
		p.stats.recordDestroyActive()
	}
}

func (p *channelPool) removeResource() {
	p.mu.Lock()
	p.size--
	p.mu.Unlock()
	p.stats.recordDestroyActive()
}

func (p *channelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	// Close all idle connections
	close(p.resources)
	for res := range p.resources {
		res.conn.Close()
		p.size--
		p.stats.recordDestroyIdle()
	}
}

// Stats returns a snapshot of pool statistics.
func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
