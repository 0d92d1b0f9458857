package stream

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/usb"
)

// Orchestrator runs one simulated isochronous stream: a producer and a
// consumer bound to a shared, externally owned controller.
//
// All simulation state belongs to the instance, so any number of
// orchestrators (each with its own controller) may run in one process.
type Orchestrator struct {
	id         string
	controller *Controller
	frameSize  int
	endpoint   usb.Endpoint
	period     time.Duration

	producer Producer
	consumer Consumer

	mutex sync.Mutex // serializes StartStreaming and StopStreaming
}

// NewOrchestrator builds the producer and consumer for a stream of
// frameSize-byte microframes over controller, which must already be
// initialized.
func NewOrchestrator(controller *Controller, frameSize int, opts ...Option) (*Orchestrator, error) {
	if controller == nil || !controller.IsInitialized() {
		pkg.LogError(pkg.ComponentOrchestrator, "cannot create orchestrator: buffer controller not initialized")
		return nil, pkg.ErrNotInitialized
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size %d", pkg.ErrInvalidParameter, frameSize)
	}

	o := applyOptions(opts...)
	if o.id == "" {
		o.id = uuid.NewString()
	}

	endpoint, err := usb.NewIsochronousEndpoint(o.address, frameSize, o.interval)
	if err != nil {
		return nil, err
	}
	if err := endpoint.Validate(usb.SpeedHigh); err != nil {
		return nil, err
	}
	if !endpoint.IsIn() || endpoint.Number() == 0 {
		return nil, fmt.Errorf("%w: streaming endpoint %#02x must be a non-zero IN endpoint",
			pkg.ErrInvalidEndpoint, endpoint.Address)
	}

	if o.generator == nil {
		o.generator = NewNoiseGenerator(o.audioDataSize, rand.Uint64())
	}

	orch := &Orchestrator{
		id:         o.id,
		controller: controller,
		frameSize:  frameSize,
		endpoint:   endpoint,
		period:     endpoint.ServiceInterval(usb.SpeedHigh),
	}
	orch.producer = o.producerFactory(controller, ProducerConfig{
		Name:      o.id,
		FrameSize: frameSize,
		Generator: o.generator,
	})
	orch.consumer = o.consumerFactory(controller, ConsumerConfig{
		Name:      o.id,
		FrameSize: frameSize,
		Period:    orch.period,
		Clock:     o.clock,
		Sink:      o.sink,
	})
	if orch.producer == nil || orch.consumer == nil {
		return nil, fmt.Errorf("%w: factory returned no worker", pkg.ErrInvalidParameter)
	}

	capacity := controller.Size()
	pkg.LogInfo(pkg.ComponentOrchestrator, "usb audio class simulator",
		"sim", o.id,
		"endpoint", endpoint.String(),
		"frame", frameSize,
		"buffer", capacity,
		"microframes", capacity/frameSize,
		"period", orch.period)
	if slack := capacity % frameSize; slack != 0 {
		pkg.LogWarn(pkg.ComponentOrchestrator, "buffer capacity is not a whole number of microframes",
			"sim", o.id,
			"slack", slack)
	}

	return orch, nil
}

// ID returns the simulation ID.
func (o *Orchestrator) ID() string {
	return o.id
}

// Controller returns the buffer controller the stream runs over.
func (o *Orchestrator) Controller() *Controller {
	return o.controller
}

// Endpoint returns the isochronous endpoint the stream is scheduled on.
func (o *Orchestrator) Endpoint() usb.Endpoint {
	return o.endpoint
}

// FrameSize returns the microframe payload size in bytes.
func (o *Orchestrator) FrameSize() int {
	return o.frameSize
}

// Period returns the consumer tick period.
func (o *Orchestrator) Period() time.Duration {
	return o.period
}

// StartStreaming starts the consumer and then the producer, so the paced
// reader is ticking before the unthrottled writer begins. If the producer
// cannot start, the consumer is stopped again.
func (o *Orchestrator) StartStreaming() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	pkg.LogInfo(pkg.ComponentOrchestrator, "starting isochronous stream",
		"sim", o.id,
		"period", o.period)

	if err := o.consumer.Start(); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	if err := o.producer.Start(); err != nil {
		o.consumer.Stop()
		return fmt.Errorf("start producer: %w", err)
	}
	return nil
}

// StopStreaming stops the producer and then the consumer. It is safe to
// call at any time, including when not streaming.
func (o *Orchestrator) StopStreaming() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	streaming := o.IsStreaming()
	o.producer.Stop()
	o.consumer.Stop()
	if streaming {
		pkg.LogInfo(pkg.ComponentOrchestrator, "streaming stopped",
			"sim", o.id)
	}
}

// IsStreaming returns true if either worker is running.
func (o *Orchestrator) IsStreaming() bool {
	return o.producer.IsRunning() || o.consumer.IsRunning()
}

// Statistics returns a snapshot of the stream counters.
func (o *Orchestrator) Statistics() Statistics {
	s := Statistics{
		FramesProduced: o.producer.TotalFramesProduced(),
		Overruns:       o.producer.OverrunCount(),
		FramesConsumed: o.consumer.TotalFramesConsumed(),
		Underruns:      o.consumer.UnderrunCount(),
		BufferCapacity: o.controller.Size(),
		BufferOccupied: o.controller.Occupied(),
	}
	if tr, ok := o.consumer.(TimingReporter); ok {
		s.LastTimingError = tr.LastTimingError()
		s.MaxTimingError = tr.MaxTimingError()
	}
	return s
}

// PrintStatistics logs the counters and the derived under/overrun rates.
func (o *Orchestrator) PrintStatistics() {
	s := o.Statistics()
	underrunRate, underrunOK := s.UnderrunRate()
	overrunRate, overrunOK := s.OverrunRate()

	pkg.LogInfo(pkg.ComponentOrchestrator, "usb audio statistics",
		"sim", o.id,
		"produced", s.FramesProduced,
		"overruns", s.Overruns,
		"consumed", s.FramesConsumed,
		"underruns", s.Underruns,
		"underrun_rate", formatRate(underrunRate, underrunOK),
		"overrun_rate", formatRate(overrunRate, overrunOK),
		"max_timing_error", s.MaxTimingError)
}

// Close stops streaming. The controller is left to its owner.
func (o *Orchestrator) Close() error {
	o.StopStreaming()
	return nil
}
