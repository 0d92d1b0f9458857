package stream

import (
	"time"

	"github.com/ardnew/isosim/pkg"
)

// DiagnosticInterval is the number of consumer ticks between timing reports.
const DiagnosticInterval = 1000

// Buffer is the SPSC acquire/commit byte ring managed by a [Controller].
//
// Exactly one goroutine may call the write methods and exactly one other
// goroutine the read methods. Acquires must not block.
type Buffer interface {
	// Size returns the capacity in bytes.
	Size() int
	// Len returns the number of committed, unread bytes.
	Len() int
	AcquireWrite(n int) []byte
	CommitWrite(n int) error
	AcquireRead(n int) []byte
	CommitRead(n int) error
}

// BufferFactory allocates a Buffer of the given capacity.
type BufferFactory func(capacity int) (Buffer, error)

// Worker is the lifecycle shared by producers and consumers.
//
// Start on a running worker and Stop on a stopped worker are no-ops.
type Worker interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Producer writes microframes into the buffer as fast as it can.
type Producer interface {
	Worker
	TotalFramesProduced() uint64
	OverrunCount() uint64
}

// Consumer drains one microframe from the buffer every service interval.
type Consumer interface {
	Worker
	TotalFramesConsumed() uint64
	UnderrunCount() uint64
}

// TimingReporter is implemented by consumers that track pacing accuracy.
type TimingReporter interface {
	LastTimingError() time.Duration
	MaxTimingError() time.Duration
}

// Generator fills a microframe with payload data.
// It is only ever called from the producer goroutine.
type Generator interface {
	Fill(frame []byte)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(frame []byte)

// Fill calls f(frame).
func (f GeneratorFunc) Fill(frame []byte) { f(frame) }

// Sink observes every consumer tick. On success payload holds the microframe
// and is only valid for the duration of the call; on underrun payload is nil.
// It is only ever called from the consumer goroutine.
type Sink interface {
	Consume(tick uint64, payload []byte, status pkg.TransferStatus)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(tick uint64, payload []byte, status pkg.TransferStatus)

// Consume calls f(tick, payload, status).
func (f SinkFunc) Consume(tick uint64, payload []byte, status pkg.TransferStatus) {
	f(tick, payload, status)
}

// ProducerConfig parameterizes a Producer.
type ProducerConfig struct {
	Name      string    // Log label, usually the simulation ID
	FrameSize int       // Bytes per microframe
	Generator Generator // Payload source
}

// ConsumerConfig parameterizes a Consumer.
type ConsumerConfig struct {
	Name      string        // Log label, usually the simulation ID
	FrameSize int           // Bytes per microframe
	Period    time.Duration // Tick period (endpoint service interval)
	Clock     Clock         // Time source for pacing
	Sink      Sink          // Optional observer of consumed payloads
}

// ProducerFactory builds the Producer an Orchestrator drives.
type ProducerFactory func(controller *Controller, cfg ProducerConfig) Producer

// ConsumerFactory builds the Consumer an Orchestrator drives.
type ConsumerFactory func(controller *Controller, cfg ConsumerConfig) Consumer
