package trapper

import (
	"time"

	"github.com/pior/trapper/protocol"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerConfig returns a function that creates the circuit breaker
// for a collector address, for use as Config.NewCircuitBreaker.
//
// Only connection and protocol failures count against the breaker. A collector
// answering "failed" is reachable and keeps the breaker closed.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[*protocol.Response] {
	return func(addr string) *gobreaker.CircuitBreaker[*protocol.Response] {
		settings := gobreaker.Settings{
			Name:        addr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[*protocol.Response](settings)
	}
}
