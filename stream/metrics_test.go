package stream

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOrchestrator(t *testing.T) (*Orchestrator, *fakeProducer, *fakeConsumer) {
	t.Helper()
	p, c, opts := withFakes(&events{})
	ctrl := newTestController(t, 8)
	writeFrames(t, ctrl, &PatternGenerator{}, 3)
	orch, err := NewOrchestrator(ctrl, testFrame, append(opts, WithID("test"))...)
	require.NoError(t, err)
	return orch, p, c
}

func TestCollectorExportsStatistics(t *testing.T) {
	orch, p, c := newFakeOrchestrator(t)
	p.produced, p.overruns = 120, 7
	c.consumed, c.underruns = 100, 2
	c.last, c.worst = 250*time.Microsecond, 500*time.Microsecond

	collector := NewCollector(orch)
	assert.Equal(t, 9, testutil.CollectAndCount(collector))

	expected := `
# HELP isosim_frames_produced_total Microframes committed to the ring buffer by the producer
# TYPE isosim_frames_produced_total counter
isosim_frames_produced_total{sim="test"} 120
# HELP isosim_overruns_total Microframes dropped because the ring buffer was full
# TYPE isosim_overruns_total counter
isosim_overruns_total{sim="test"} 7
# HELP isosim_frames_consumed_total Microframes drained from the ring buffer by the consumer
# TYPE isosim_frames_consumed_total counter
isosim_frames_consumed_total{sim="test"} 100
# HELP isosim_underruns_total Consumer ticks that found less than a full microframe
# TYPE isosim_underruns_total counter
isosim_underruns_total{sim="test"} 2
# HELP isosim_buffer_capacity_bytes Ring buffer capacity
# TYPE isosim_buffer_capacity_bytes gauge
isosim_buffer_capacity_bytes{sim="test"} 3072
# HELP isosim_buffer_occupied_bytes Ring buffer bytes committed and not yet consumed
# TYPE isosim_buffer_occupied_bytes gauge
isosim_buffer_occupied_bytes{sim="test"} 1152
# HELP isosim_timing_error_seconds Absolute consumer pacing error at the last diagnostic and the worst seen
# TYPE isosim_timing_error_seconds gauge
isosim_timing_error_seconds{kind="last",sim="test"} 0.00025
isosim_timing_error_seconds{kind="max",sim="test"} 0.0005
# HELP isosim_streaming 1 while either worker is running
# TYPE isosim_streaming gauge
isosim_streaming{sim="test"} 0
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestCollectorStreamingGauge(t *testing.T) {
	orch, _, _ := newFakeOrchestrator(t)
	collector := NewCollector(orch)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(collector))

	expected := func(v string) *strings.Reader {
		return strings.NewReader(`
# HELP isosim_streaming 1 while either worker is running
# TYPE isosim_streaming gauge
isosim_streaming{sim="test"} ` + v + "\n")
	}

	require.NoError(t, orch.StartStreaming())
	assert.NoError(t, testutil.GatherAndCompare(reg, expected("1"), "isosim_streaming"))
	orch.StopStreaming()
	assert.NoError(t, testutil.GatherAndCompare(reg, expected("0"), "isosim_streaming"))
}

func TestCollectorsForIndependentStreams(t *testing.T) {
	a, err := NewOrchestrator(newTestController(t, 1), testFrame, WithID("a"))
	require.NoError(t, err)
	b, err := NewOrchestrator(newTestController(t, 1), testFrame, WithID("b"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(a)))
	require.NoError(t, reg.Register(NewCollector(b)), "sim label keeps collectors distinct")

	n, err := testutil.GatherAndCount(reg, "isosim_buffer_capacity_bytes")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
