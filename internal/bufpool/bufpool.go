// Package bufpool recycles the byte buffers used to build request bodies.
package bufpool

import (
	"bytes"
	"sync"
)

// maxRetained keeps one oversized bulk request from pinning memory in the pool.
const maxRetained = 1 << 20

type Pool struct {
	pool sync.Pool
}

func New(initialSize int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
	}
}

func (p *Pool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *Pool) Put(buf *bytes.Buffer) {
	if buf.Cap() > maxRetained {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}
