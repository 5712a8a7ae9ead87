package http

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRegistry returns the shared metrics registry. Prometheus metric names
// register globally exactly once per process, so every test reuses the
// package singleton and asserts on deltas.
func testRegistry() *MetricsRegistry {
	InitializeMetrics()
	return DefaultMetrics
}

func TestStageTimerCountsOutcome(t *testing.T) {
	m := testRegistry()
	before := counterValue(m.PipelineStages, "ingest", "success")

	timer := m.StartStageTimer("ingest")
	timer.Stop("success")

	after := counterValue(m.PipelineStages, "ingest", "success")
	assert.Equal(t, before+1, after)
}

func TestRecordRowsIngestedAccumulates(t *testing.T) {
	m := testRegistry()
	before := m.Snapshot().RowsIngested

	m.RecordRowsIngested(812)

	assert.InDelta(t, before+812, m.Snapshot().RowsIngested, 1e-9)
}

func TestRecordAnomaliesBySeverity(t *testing.T) {
	m := testRegistry()
	before := counterValue(m.AnomaliesDetected, "CRITICAL")

	m.RecordAnomalies("CRITICAL", 3)

	assert.InDelta(t, before+3, counterValue(m.AnomaliesDetected, "CRITICAL"), 1e-9)
}

func TestCacheHitRatioReflectsTraffic(t *testing.T) {
	m := testRegistry()

	m.RecordCacheHit("anomalies")
	m.RecordCacheMiss("anomalies")

	snap := m.Snapshot()
	assert.Greater(t, snap.CacheHitRatio, 0.0)
	assert.Less(t, snap.CacheHitRatio, 1.0)
}

func TestRecordPipelineError(t *testing.T) {
	m := testRegistry()
	before := counterValue(m.PipelineErrors, "ingest", "schema")

	m.RecordPipelineError("ingest", "schema")

	assert.InDelta(t, before+1, counterValue(m.PipelineErrors, "ingest", "schema"), 1e-9)
}

func TestHTTPStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		404: "4xx",
		429: "4xx",
		500: "5xx",
		503: "5xx",
	}
	for status, want := range cases {
		assert.Equal(t, want, httpStatusClass(status), "status %d", status)
	}
}

func TestStoreBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := NewStoreBreaker()
	require.Equal(t, "closed", b.State())

	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (interface{}, error) {
			return nil, errors.New("down")
		})
		require.Error(t, err)
	}

	assert.Equal(t, "open", b.State())

	_, err := b.Execute(func() (interface{}, error) {
		t.Fatal("open breaker must not call through")
		return nil, nil
	})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}

func TestStoreBreakerRecoversOnSuccess(t *testing.T) {
	b := NewStoreBreaker()

	for i := 0; i < 4; i++ {
		b.Execute(func() (interface{}, error) { return nil, errors.New("down") })
	}
	// A success before the fifth failure resets the consecutive count.
	v, err := b.Execute(func() (interface{}, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "closed", b.State())
}

func TestNilBreakerPassesThrough(t *testing.T) {
	var b *StoreBreaker

	v, err := b.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, "closed", b.State())
}

func TestResponseCacheDisabled(t *testing.T) {
	cache := NewResponseCache("")
	require.Nil(t, cache)

	// The nil cache must behave as a permanent miss, never panic.
	_, ok := cache.Get(context.Background(), "srpulse:anomalies:2025-04-15")
	assert.False(t, ok)
	cache.Set(context.Background(), "srpulse:anomalies:2025-04-15", []byte("{}"))
	assert.Error(t, cache.Ping(context.Background()))
	assert.NoError(t, cache.Close())
}

func TestRequestIDFromContextFallback(t *testing.T) {
	assert.Equal(t, "unknown", RequestIDFromContext(context.Background()))

	ctx := context.WithValue(context.Background(), requestIDKey, "ab12cd34")
	assert.Equal(t, "ab12cd34", RequestIDFromContext(ctx))
}

func TestOverallStatus(t *testing.T) {
	pass := map[string]CheckResult{"cache": {Status: "pass"}}
	warn := map[string]CheckResult{"cache": {Status: "warn"}}
	fail := map[string]CheckResult{"cache": {Status: "fail"}}

	assert.Equal(t, StatusHealthy, OverallStatus(true, pass))
	assert.Equal(t, StatusDegraded, OverallStatus(true, warn))
	assert.Equal(t, StatusDegraded, OverallStatus(true, fail))
	assert.Equal(t, StatusUnhealthy, OverallStatus(false, pass))
}
