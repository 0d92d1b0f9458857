package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/usb"
)

const testFrame = usb.DefaultMicroframeSize

var errFake = errors.New("fake failure")

func init() {
	// Keep test output readable; individual tests capture logs as needed.
	pkg.SetLogger(nil)
}

// newTestController returns a controller initialized with frames microframes.
func newTestController(t *testing.T, frames int) *Controller {
	t.Helper()
	ctrl := NewController()
	require.NoError(t, ctrl.Initialize(frames*testFrame))
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl
}

// events records lifecycle calls across fakes in order.
type events struct {
	mutex sync.Mutex
	log   []string
}

func (e *events) add(s string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.log = append(e.log, s)
}

func (e *events) list() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]string(nil), e.log...)
}

// fakeWorker is a Worker with scripted behaviour.
type fakeWorker struct {
	name     string
	events   *events
	startErr error
	running  atomic.Bool
}

func (f *fakeWorker) Start() error {
	f.events.add(f.name + ".start")
	if f.startErr != nil {
		return f.startErr
	}
	f.running.Store(true)
	return nil
}

func (f *fakeWorker) Stop() {
	f.events.add(f.name + ".stop")
	f.running.Store(false)
}

func (f *fakeWorker) IsRunning() bool { return f.running.Load() }

type fakeProducer struct {
	fakeWorker
	produced, overruns uint64
}

func (f *fakeProducer) TotalFramesProduced() uint64 { return f.produced }
func (f *fakeProducer) OverrunCount() uint64        { return f.overruns }

type fakeConsumer struct {
	fakeWorker
	consumed, underruns uint64
	last, worst         time.Duration
}

func (f *fakeConsumer) TotalFramesConsumed() uint64    { return f.consumed }
func (f *fakeConsumer) UnderrunCount() uint64          { return f.underruns }
func (f *fakeConsumer) LastTimingError() time.Duration { return f.last }
func (f *fakeConsumer) MaxTimingError() time.Duration  { return f.worst }

// withFakes installs fake worker factories and returns the fakes.
func withFakes(ev *events) (*fakeProducer, *fakeConsumer, []Option) {
	p := &fakeProducer{fakeWorker: fakeWorker{name: "producer", events: ev}}
	c := &fakeConsumer{fakeWorker: fakeWorker{name: "consumer", events: ev}}
	return p, c, []Option{
		WithProducerFactory(func(*Controller, ProducerConfig) Producer { return p }),
		WithConsumerFactory(func(*Controller, ConsumerConfig) Consumer { return c }),
	}
}

// recordingSink captures every tick the consumer reports.
type recordingSink struct {
	statuses []pkg.TransferStatus
	seqs     []uint64
	corrupt  int
}

func (s *recordingSink) Consume(_ uint64, payload []byte, status pkg.TransferStatus) {
	s.statuses = append(s.statuses, status)
	if status != pkg.TransferStatusSuccess {
		return
	}
	seq, ok := VerifyPattern(payload)
	if !ok {
		s.corrupt++
	}
	s.seqs = append(s.seqs, seq)
}

// writeFrames commits n pattern frames directly through the controller,
// acting as the sole writer.
func writeFrames(t *testing.T, ctrl *Controller, gen *PatternGenerator, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		region := ctrl.AcquireWrite(testFrame)
		require.Len(t, region, testFrame)
		gen.Fill(region)
		require.NoError(t, ctrl.CommitWrite(testFrame))
	}
}

// logRecorder is a slog.Handler that keeps every record's level and message.
type logRecorder struct {
	mutex   sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

// count returns how many records carry msg.
func (r *logRecorder) count(msg string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Message == msg {
			n++
		}
	}
	return n
}

// captureLogs routes simulator logging to a recorder for the test's duration.
func captureLogs(t *testing.T) *logRecorder {
	t.Helper()
	rec := &logRecorder{}
	pkg.SetLogger(slog.New(rec))
	t.Cleanup(func() { pkg.SetLogger(nil) })
	return rec
}
