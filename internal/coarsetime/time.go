// Package coarsetime provides a clock refreshed every 50ms, for callers that
// only need second-level precision (measurement clocks, idle bookkeeping).
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	ticker := time.NewTicker(tick)
	go func() {
		for t := range ticker.C {
			now.Store(t)
		}
	}()
}

// Now returns the last stored time, at most one tick behind time.Now.
func Now() time.Time {
	return now.Load().(time.Time)
}

// Unix returns Now as a unix timestamp in seconds.
func Unix() int64 {
	return Now().Unix()
}
