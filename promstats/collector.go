// Package promstats exposes Sender statistics as Prometheus metrics.
//
//	registry := prometheus.NewRegistry()
//	registry.MustRegister(promstats.NewCollector(sender))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
package promstats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/trapper"
)

const namespace = "trapper"

// Source is what the collector reads; *trapper.Sender implements it.
type Source interface {
	Addr() string
	Stats() trapper.SenderStats
	PoolStats() trapper.PoolStats
	BreakerState() (gobreaker.State, gobreaker.Counts, bool)
}

var (
	sendsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "sends_total"),
		"Total number of Send and BulkSend calls that reached the network loop",
		[]string{"collector", "status"}, nil, // success, failed
	)
	measurementsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "measurements_accepted_total"),
		"Total number of measurements accepted by the collector",
		[]string{"collector"}, nil,
	)
	attemptsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "attempts_total"),
		"Total number of send attempts by outcome",
		[]string{"collector", "outcome"}, nil,
	)
	poolConnectionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "connections"),
		"Connection pool statistics",
		[]string{"collector", "state"}, nil, // total, active, idle
	)
	poolCreatedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "connections_created_total"),
		"Total connections created",
		[]string{"collector"}, nil,
	)
	poolDestroyedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "connections_destroyed_total"),
		"Total connections closed",
		[]string{"collector"}, nil,
	)
	poolErrorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pool", "acquire_errors_total"),
		"Total connection acquire errors",
		[]string{"collector"}, nil,
	)
	circuitStateDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "circuit_breaker", "state"),
		"Circuit breaker state (0=closed, 1=half-open, 2=open)",
		[]string{"collector"}, nil,
	)
	circuitFailuresDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "circuit_breaker", "failures"),
		"Circuit breaker failure counts in the current interval",
		[]string{"collector", "type"}, nil, // total, consecutive
	)
)

// Collector is a prometheus.Collector reading a sender's statistics at scrape time.
type Collector struct {
	source Source
}

// NewCollector returns a collector for source.
func NewCollector(source Source) *Collector {
	return &Collector{source: source}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sendsDesc
	ch <- measurementsDesc
	ch <- attemptsDesc
	ch <- poolConnectionsDesc
	ch <- poolCreatedDesc
	ch <- poolDestroyedDesc
	ch <- poolErrorsDesc
	ch <- circuitStateDesc
	ch <- circuitFailuresDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	addr := c.source.Addr()
	stats := c.source.Stats()

	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), append([]string{addr}, labels...)...)
	}
	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, append([]string{addr}, labels...)...)
	}

	counter(sendsDesc, stats.Sends-stats.SendFailures, "success")
	counter(sendsDesc, stats.SendFailures, "failed")
	counter(measurementsDesc, stats.Measurements)

	counter(attemptsDesc, stats.Accepted, "accepted")
	counter(attemptsDesc, stats.Rejected, "rejected")
	counter(attemptsDesc, stats.Indeterminate, "indeterminate")
	counter(attemptsDesc, stats.ConnectErrors, "connect_error")
	counter(attemptsDesc, stats.IOErrors, "io_error")
	counter(attemptsDesc, stats.ProtocolErrors, "protocol_error")
	counter(attemptsDesc, stats.BreakerRejected, "breaker_open")

	pool := c.source.PoolStats()
	gauge(poolConnectionsDesc, float64(pool.TotalConns), "total")
	gauge(poolConnectionsDesc, float64(pool.ActiveConns), "active")
	gauge(poolConnectionsDesc, float64(pool.IdleConns), "idle")
	counter(poolCreatedDesc, pool.CreatedConns)
	counter(poolDestroyedDesc, pool.DestroyedConns)
	counter(poolErrorsDesc, pool.AcquireErrors)

	state, counts, ok := c.source.BreakerState()
	if !ok {
		return
	}
	gauge(circuitStateDesc, breakerStateValue(state))
	gauge(circuitFailuresDesc, float64(counts.TotalFailures), "total")
	gauge(circuitFailuresDesc, float64(counts.ConsecutiveFailures), "consecutive")
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
