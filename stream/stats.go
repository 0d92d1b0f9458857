package stream

import (
	"strconv"
	"time"
)

// Statistics is a point-in-time snapshot of a stream's counters. Each
// counter is read atomically on its own, so a snapshot taken while
// streaming may be off by a frame between fields.
type Statistics struct {
	FramesProduced uint64
	FramesConsumed uint64
	Overruns       uint64
	Underruns      uint64

	BufferCapacity int // bytes
	BufferOccupied int // bytes committed but not yet consumed

	LastTimingError time.Duration
	MaxTimingError  time.Duration
}

// UnderrunRate returns underruns as a percentage of frames produced.
// ok is false when no frame has been produced.
func (s Statistics) UnderrunRate() (rate float64, ok bool) {
	return percent(s.Underruns, s.FramesProduced)
}

// OverrunRate returns overruns as a percentage of frames consumed.
// ok is false when no frame has been consumed.
func (s Statistics) OverrunRate() (rate float64, ok bool) {
	return percent(s.Overruns, s.FramesConsumed)
}

func percent(n, of uint64) (float64, bool) {
	if of == 0 {
		return 0, false
	}
	return float64(n) / float64(of) * 100, true
}

// formatRate renders a rate for logs, "undefined" when it has no divisor.
func formatRate(rate float64, ok bool) string {
	if !ok {
		return "undefined"
	}
	return strconv.FormatFloat(rate, 'f', 3, 64) + "%"
}
