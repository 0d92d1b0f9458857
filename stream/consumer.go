package stream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/usb"
)

// consumer drains one microframe per tick. Tick k is scheduled at the
// absolute time t0 + k*period, so the loop's own execution time never
// accumulates into drift. A tick without a full microframe is an underrun
// and counts as silence; there is no retry and no waiting for data.
type consumer struct {
	worker

	controller *Controller
	name       string
	frameSize  int
	period     time.Duration
	clock      Clock
	sink       Sink

	consumed  atomic.Uint64
	underruns atomic.Uint64

	lastTimingError atomic.Int64
	maxTimingError  atomic.Int64
}

// NewConsumer creates a consumer bound to controller. Zero fields of cfg
// default to a 384-byte frame every 125 µs on the system clock.
func NewConsumer(controller *Controller, cfg ConsumerConfig) Consumer {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = usb.DefaultMicroframeSize
	}
	if cfg.Period <= 0 {
		cfg.Period = usb.MicroframePeriod
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if controller == nil || !controller.IsInitialized() {
		pkg.LogError(pkg.ComponentConsumer, "consumer created without an initialized buffer controller",
			"sim", cfg.Name)
	}
	return &consumer{
		controller: controller,
		name:       cfg.Name,
		frameSize:  cfg.FrameSize,
		period:     cfg.Period,
		clock:      cfg.Clock,
		sink:       cfg.Sink,
	}
}

// Start launches the consumer thread. It fails with [pkg.ErrNotInitialized]
// and stays stopped if the controller has no buffer.
func (c *consumer) Start() error {
	if c.controller == nil || !c.controller.IsInitialized() {
		pkg.LogError(pkg.ComponentConsumer, "cannot start consumer: no valid buffer controller",
			"sim", c.name)
		return pkg.ErrNotInitialized
	}
	if c.start(c.run) {
		pkg.LogInfo(pkg.ComponentConsumer, "consumer started",
			"sim", c.name,
			"frame", c.frameSize,
			"period", c.period)
	}
	return nil
}

// Stop joins the consumer thread. Latency is bounded by one tick.
func (c *consumer) Stop() {
	if c.stop() {
		pkg.LogInfo(pkg.ComponentConsumer, "consumer stopped",
			"sim", c.name,
			"consumed", c.consumed.Load(),
			"underruns", c.underruns.Load())
	}
}

// IsRunning returns true while the consumer thread is active.
func (c *consumer) IsRunning() bool {
	return c.active()
}

// TotalFramesConsumed returns the number of full microframes drained.
func (c *consumer) TotalFramesConsumed() uint64 {
	return c.consumed.Load()
}

// UnderrunCount returns the number of ticks that found no full microframe.
func (c *consumer) UnderrunCount() uint64 {
	return c.underruns.Load()
}

// LastTimingError returns the most recent absolute pacing error.
func (c *consumer) LastTimingError() time.Duration {
	return time.Duration(c.lastTimingError.Load())
}

// MaxTimingError returns the largest absolute pacing error observed.
func (c *consumer) MaxTimingError() time.Duration {
	return time.Duration(c.maxTimingError.Load())
}

func (c *consumer) run(ctx context.Context) {
	t0 := c.clock.Now()
	var underruns streak

	for tick := uint64(0); c.active(); tick++ {
		deadline := t0.Add(time.Duration(tick) * c.period)
		if err := c.clock.SleepUntil(ctx, deadline); err != nil {
			return
		}

		region := c.controller.AcquireRead(c.frameSize)
		if len(region) == c.frameSize {
			if c.sink != nil {
				c.sink.Consume(tick, region, pkg.TransferStatusSuccess)
			}
			if err := c.controller.CommitRead(c.frameSize); err != nil {
				pkg.LogError(pkg.ComponentConsumer, "commit read failed",
					"sim", c.name,
					"tick", tick,
					"error", err)
			} else {
				c.consumed.Add(1)
			}
			if n := underruns.reset(); n > 0 {
				pkg.LogInfo(pkg.ComponentConsumer, "underrun streak ended",
					"sim", c.name,
					"tick", tick,
					"silent", n)
			}
		} else {
			c.underruns.Add(1)
			if c.sink != nil {
				c.sink.Consume(tick, nil, pkg.TransferStatusUnderrun)
			}
			if underruns.fail() {
				pkg.LogWarn(pkg.ComponentConsumer, "usb underrun",
					"sim", c.name,
					"tick", tick,
					"expected", c.frameSize,
					"got", len(region))
			}
		}

		if tick%DiagnosticInterval == 0 {
			c.diagnose(t0, tick)
		}
	}
}

// diagnose compares elapsed time against the schedule and records the
// absolute error. It is a report, not a correctness gate.
func (c *consumer) diagnose(t0 time.Time, tick uint64) {
	elapsed := c.clock.Now().Sub(t0)
	expected := time.Duration(tick) * c.period
	drift := elapsed - expected
	if drift < 0 {
		drift = -drift
	}

	c.lastTimingError.Store(int64(drift))
	if int64(drift) > c.maxTimingError.Load() {
		c.maxTimingError.Store(int64(drift))
	}

	pkg.LogInfo(pkg.ComponentConsumer, "microframe timing",
		"sim", c.name,
		"tick", tick,
		"error", drift,
		"underruns", c.underruns.Load())
}
