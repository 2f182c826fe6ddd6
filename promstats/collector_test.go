package promstats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/pior/trapper"
	"github.com/pior/trapper/internal/testutils"
)

type fakeSource struct {
	stats   trapper.SenderStats
	pool    trapper.PoolStats
	state   gobreaker.State
	counts  gobreaker.Counts
	breaker bool
}

func (f *fakeSource) Addr() string                 { return "zabbix:10051" }
func (f *fakeSource) Stats() trapper.SenderStats   { return f.stats }
func (f *fakeSource) PoolStats() trapper.PoolStats { return f.pool }
func (f *fakeSource) BreakerState() (gobreaker.State, gobreaker.Counts, bool) {
	return f.state, f.counts, f.breaker
}

func TestCollectorSends(t *testing.T) {
	source := &fakeSource{
		stats: trapper.SenderStats{Sends: 5, SendFailures: 2, Measurements: 7},
	}

	expected := `
# HELP trapper_sends_total Total number of Send and BulkSend calls that reached the network loop
# TYPE trapper_sends_total counter
trapper_sends_total{collector="zabbix:10051",status="failed"} 2
trapper_sends_total{collector="zabbix:10051",status="success"} 3
# HELP trapper_measurements_accepted_total Total number of measurements accepted by the collector
# TYPE trapper_measurements_accepted_total counter
trapper_measurements_accepted_total{collector="zabbix:10051"} 7
`
	err := testutil.CollectAndCompare(NewCollector(source), strings.NewReader(expected),
		"trapper_sends_total", "trapper_measurements_accepted_total")
	require.NoError(t, err)
}

func TestCollectorPool(t *testing.T) {
	source := &fakeSource{
		pool: trapper.PoolStats{TotalConns: 1, IdleConns: 1, CreatedConns: 3, DestroyedConns: 2},
	}

	expected := `
# HELP trapper_pool_connections Connection pool statistics
# TYPE trapper_pool_connections gauge
trapper_pool_connections{collector="zabbix:10051",state="active"} 0
trapper_pool_connections{collector="zabbix:10051",state="idle"} 1
trapper_pool_connections{collector="zabbix:10051",state="total"} 1
# HELP trapper_pool_connections_created_total Total connections created
# TYPE trapper_pool_connections_created_total counter
trapper_pool_connections_created_total{collector="zabbix:10051"} 3
# HELP trapper_pool_connections_destroyed_total Total connections closed
# TYPE trapper_pool_connections_destroyed_total counter
trapper_pool_connections_destroyed_total{collector="zabbix:10051"} 2
`
	err := testutil.CollectAndCompare(NewCollector(source), strings.NewReader(expected),
		"trapper_pool_connections", "trapper_pool_connections_created_total", "trapper_pool_connections_destroyed_total")
	require.NoError(t, err)
}

func TestCollectorBreaker(t *testing.T) {
	source := &fakeSource{}

	// 3 send series, 7 attempt outcomes and 6 pool series; no breaker series
	require.Equal(t, 16, testutil.CollectAndCount(NewCollector(source)))

	source.breaker = true
	source.state = gobreaker.StateOpen
	source.counts = gobreaker.Counts{TotalFailures: 4, ConsecutiveFailures: 3}

	require.Equal(t, 19, testutil.CollectAndCount(NewCollector(source)))

	expected := `
# HELP trapper_circuit_breaker_state Circuit breaker state (0=closed, 1=half-open, 2=open)
# TYPE trapper_circuit_breaker_state gauge
trapper_circuit_breaker_state{collector="zabbix:10051"} 2
# HELP trapper_circuit_breaker_failures Circuit breaker failure counts in the current interval
# TYPE trapper_circuit_breaker_failures gauge
trapper_circuit_breaker_failures{collector="zabbix:10051",type="consecutive"} 3
trapper_circuit_breaker_failures{collector="zabbix:10051",type="total"} 4
`
	err := testutil.CollectAndCompare(NewCollector(source), strings.NewReader(expected),
		"trapper_circuit_breaker_state", "trapper_circuit_breaker_failures")
	require.NoError(t, err)
}

func TestCollectorWithSender(t *testing.T) {
	collector := testutils.StartCollector(t, testutils.Success())
	host, port := collector.HostPort()

	sender, err := trapper.New(trapper.Config{
		Server:            host,
		Port:              port,
		Hostname:          "web-01",
		Timeout:           time.Second,
		NewCircuitBreaker: trapper.NewCircuitBreakerConfig(1, time.Minute, time.Second),
	})
	require.NoError(t, err)
	t.Cleanup(func() { sender.Close() })

	res, err := sender.Send(context.Background(), "app.up", "1")
	require.NoError(t, err)
	require.True(t, res.OK)

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(sender))

	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := mf.GetName()
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "collector" {
					labels += "/" + lp.GetValue()
				}
			}
			if m.GetCounter() != nil {
				values[labels] = m.GetCounter().GetValue()
			} else {
				values[labels] = m.GetGauge().GetValue()
			}
		}
	}

	require.Equal(t, 1.0, values["trapper_sends_total/success"])
	require.Equal(t, 1.0, values["trapper_measurements_accepted_total"])
	require.Equal(t, 1.0, values["trapper_attempts_total/accepted"])
	require.Equal(t, 0.0, values["trapper_circuit_breaker_state"])
}
