package stream

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/usb"
)

// producer generates microframes and writes them into the controller's
// buffer without any pacing. A frame that does not fit is dropped and
// counted as an overrun; there is no retry and no waiting.
type producer struct {
	worker

	controller *Controller
	name       string
	frameSize  int
	generator  Generator

	produced atomic.Uint64
	overruns atomic.Uint64
}

// NewProducer creates a producer bound to controller. Zero fields of cfg
// default to a 384-byte frame filled by a NoiseGenerator.
func NewProducer(controller *Controller, cfg ProducerConfig) Producer {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = usb.DefaultMicroframeSize
	}
	if cfg.Generator == nil {
		cfg.Generator = NewNoiseGenerator(usb.DefaultAudioDataSize, 0)
	}
	if controller == nil || !controller.IsInitialized() {
		pkg.LogError(pkg.ComponentProducer, "producer created without an initialized buffer controller",
			"sim", cfg.Name)
	}
	return &producer{
		controller: controller,
		name:       cfg.Name,
		frameSize:  cfg.FrameSize,
		generator:  cfg.Generator,
	}
}

// Start launches the producer thread. It fails with [pkg.ErrNotInitialized]
// and stays stopped if the controller has no buffer.
func (p *producer) Start() error {
	if p.controller == nil || !p.controller.IsInitialized() {
		pkg.LogError(pkg.ComponentProducer, "cannot start producer: no valid buffer controller",
			"sim", p.name)
		return pkg.ErrNotInitialized
	}
	if p.start(p.run) {
		pkg.LogInfo(pkg.ComponentProducer, "producer started",
			"sim", p.name,
			"frame", p.frameSize)
	}
	return nil
}

// Stop joins the producer thread.
func (p *producer) Stop() {
	if p.stop() {
		pkg.LogInfo(pkg.ComponentProducer, "producer stopped",
			"sim", p.name,
			"produced", p.produced.Load(),
			"overruns", p.overruns.Load())
	}
}

// IsRunning returns true while the producer thread is active.
func (p *producer) IsRunning() bool {
	return p.active()
}

// TotalFramesProduced returns the number of frames committed to the buffer.
func (p *producer) TotalFramesProduced() uint64 {
	return p.produced.Load()
}

// OverrunCount returns the number of frames dropped for lack of space.
func (p *producer) OverrunCount() uint64 {
	return p.overruns.Load()
}

func (p *producer) run(_ context.Context) {
	frame := make([]byte, p.frameSize)
	var overruns streak
	warned := false

	for p.active() {
		p.generator.Fill(frame)

		region := p.controller.AcquireWrite(p.frameSize)
		if len(region) != p.frameSize {
			p.overruns.Add(1)
			if overruns.fail() && !warned {
				// Overrun is the steady state of an unthrottled producer, so
				// only the first one of each run is worth a warning.
				warned = true
				pkg.LogWarn(pkg.ComponentProducer, "buffer full, dropping frames",
					"sim", p.name,
					"requested", p.frameSize,
					"granted", len(region))
			}
			continue
		}

		copy(region, frame)
		if err := p.controller.CommitWrite(p.frameSize); err != nil {
			p.overruns.Add(1)
			pkg.LogError(pkg.ComponentProducer, "commit write failed",
				"sim", p.name,
				"error", err)
			continue
		}
		p.produced.Add(1)

		if n := overruns.reset(); n > 0 && pkg.LogEnabled(slog.LevelDebug) {
			pkg.LogDebug(pkg.ComponentProducer, "overrun streak ended",
				"sim", p.name,
				"dropped", n)
		}
	}
}
