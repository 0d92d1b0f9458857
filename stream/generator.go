package stream

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// sampleSize is the width of one 32-bit float audio sample.
const sampleSize = 4

// NoiseGenerator produces microframes of uniformly distributed float32
// samples in [-1, 1) followed by zero padding.
type NoiseGenerator struct {
	audioDataSize int
	rng           *rand.Rand
}

// NewNoiseGenerator creates a generator writing audioDataSize bytes of
// samples per frame. The sequence is fully determined by seed.
func NewNoiseGenerator(audioDataSize int, seed uint64) *NoiseGenerator {
	return &NoiseGenerator{
		audioDataSize: max(audioDataSize, 0),
		rng:           rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

// Fill writes little-endian float32 samples over the audio portion of frame
// and zeroes the remainder. A trailing partial sample is left as padding.
func (g *NoiseGenerator) Fill(frame []byte) {
	n := min(g.audioDataSize, len(frame))
	n -= n % sampleSize
	for i := 0; i < n; i += sampleSize {
		sample := g.rng.Float32()*2 - 1
		binary.LittleEndian.PutUint32(frame[i:], math.Float32bits(sample))
	}
	clear(frame[n:])
}

// patternHeader is the sequence number stamped at the start of each frame.
const patternHeader = 8

// PatternGenerator produces deterministic, self-describing frames: an
// 8-byte little-endian sequence number followed by bytes derived from it.
// Frames can be checked with [VerifyPattern].
type PatternGenerator struct {
	seq uint64
}

// Fill stamps the next sequence number into frame.
func (g *PatternGenerator) Fill(frame []byte) {
	stampPattern(frame, g.seq)
	g.seq++
}

// Next returns the sequence number the next Fill will use.
func (g *PatternGenerator) Next() uint64 {
	return g.seq
}

func stampPattern(frame []byte, seq uint64) {
	if len(frame) < patternHeader {
		for i := range frame {
			frame[i] = byte(seq) + byte(i)
		}
		return
	}
	binary.LittleEndian.PutUint64(frame, seq)
	for i := patternHeader; i < len(frame); i++ {
		frame[i] = byte(seq) + byte(i)
	}
}

// VerifyPattern reports the sequence number of a frame written by
// PatternGenerator and whether the frame is intact.
func VerifyPattern(frame []byte) (seq uint64, ok bool) {
	if len(frame) < patternHeader {
		return 0, false
	}
	seq = binary.LittleEndian.Uint64(frame)
	for i := patternHeader; i < len(frame); i++ {
		if frame[i] != byte(seq)+byte(i) {
			return seq, false
		}
	}
	return seq, true
}
