package usb

import (
	"fmt"
	"time"
)

// Bus timing (USB 2.0 Spec Section 8.4.3.1).
const (
	// FramePeriod is the duration of one Full Speed frame (SOF to SOF).
	FramePeriod = time.Millisecond

	// MicroframesPerFrame is the number of High Speed microframes in one frame.
	MicroframesPerFrame = 8

	// MicroframePeriod is the duration of one High Speed microframe.
	MicroframePeriod = FramePeriod / MicroframesPerFrame
)

// Default isochronous audio payload.
//
// 96 kHz stereo with 32-bit samples delivers 12 samples × 2 channels × 4 bytes
// = 96 bytes of audio every microframe. The payload is carried in a 384-byte
// microframe, the remainder being zero padding.
const (
	DefaultMicroframeSize = 384
	DefaultAudioDataSize  = 96
)

// Isochronous packet size limits (USB 2.0 Spec Section 5.6.3).
const (
	MaxIsoPacketSizeFull = 1023 // Full Speed, one transaction per frame
	MaxIsoPacketSizeHigh = 1024 // High Speed, per transaction
	MaxIsoTransactions   = 3    // High Speed high-bandwidth endpoints
)

// Speed represents USB connection speed.
type Speed uint8

// USB speeds relevant to isochronous scheduling.
const (
	SpeedFull Speed = 1 // 12 Mbps (USB 1.1)
	SpeedHigh Speed = 2 // 480 Mbps (USB 2.0)
)

// String returns a human-readable speed description.
func (s Speed) String() string {
	switch s {
	case SpeedFull:
		return "Full Speed (12 Mbps)"
	case SpeedHigh:
		return "High Speed (480 Mbps)"
	default:
		return fmt.Sprintf("Unknown Speed (%d)", s)
	}
}

// BaseInterval returns the bus interval isochronous bInterval is expressed in.
func (s Speed) BaseInterval() time.Duration {
	if s == SpeedHigh {
		return MicroframePeriod
	}
	return FramePeriod
}

// MaxIsoPacketSize returns the largest isochronous packet per transaction.
func (s Speed) MaxIsoPacketSize() int {
	if s == SpeedHigh {
		return MaxIsoPacketSizeHigh
	}
	return MaxIsoPacketSizeFull
}
