package ring

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/ardnew/isosim/pkg"
)

// Ring is a lock-free single-producer, single-consumer byte ring buffer
// with a two-phase acquire/commit protocol on both sides.
//
// The cursors increase monotonically and are reduced modulo the capacity
// only to index storage, so occupied = write - read holds at all times and
// the capacity need not be a power of two.
//
// Regions never wrap. When a write does not fit in the bytes left before
// the end of storage but does fit at the start, the writer skips the tail
// and records the skipped cursor in wrap; the reader skips the same tail
// when it reaches that cursor. A capacity that is not a multiple of the
// transfer size therefore leaves unused slack instead of stalling.
//
// Thread assignment:
//   - AcquireWrite, CommitWrite: producer only
//   - AcquireRead, CommitRead: consumer only
//   - Size, Len, Free: any goroutine
type Ring struct {
	write atomic.Uint64
	wrap  atomic.Uint64 // cursor at which the writer last skipped the tail
	_     cpu.CacheLinePad
	read  atomic.Uint64
	_     cpu.CacheLinePad

	buf  []byte
	size uint64
}

// New creates a ring buffer holding exactly capacity bytes.
func New(capacity int) (ring *Ring, err error) {
	if capacity <= 0 {
		return nil, pkg.ErrZeroCapacity
	}
	defer func() {
		// make panics rather than returning nil on exhaustion.
		if r := recover(); r != nil {
			pkg.LogError(pkg.ComponentRing, "ring buffer allocation failed",
				"bytes", capacity,
				"panic", r)
			ring, err = nil, fmt.Errorf("%w: %d bytes: %v", pkg.ErrNoMemory, capacity, r)
		}
	}()
	return &Ring{
		buf:  make([]byte, capacity),
		size: uint64(capacity),
	}, nil
}

// Size returns the capacity in bytes.
func (r *Ring) Size() int {
	return int(r.size)
}

// Len returns the number of committed bytes not yet released by the reader.
// Skipped tail bytes are not counted.
func (r *Ring) Len() int {
	rd := r.read.Load()
	w := r.write.Load()
	n := w - rd
	if p := r.wrap.Load(); p%r.size != 0 && rd <= p && p < w {
		n -= r.size - p%r.size
	}
	return int(n)
}

// Free returns the number of bytes the writer could claim, ignoring wrap.
func (r *Ring) Free() int {
	return r.Size() - r.Len()
}

// AcquireWrite returns a writable region of at most n bytes. The region is
// contiguous and never wraps. If n bytes do not fit before the end of
// storage but fit at the start, the tail is skipped and the region starts at
// offset zero. Otherwise its length is bounded by the free space and by the
// distance to the end of storage. A zero-length result means the buffer
// cannot take any bytes right now. The region becomes visible to the reader
// only after CommitWrite.
func (r *Ring) AcquireWrite(n int) []byte {
	if n <= 0 {
		return nil
	}
	w := r.write.Load()
	free := r.size - (w - r.read.Load())
	off := w % r.size
	if tail := r.size - off; off != 0 && uint64(n) > tail && free >= tail+uint64(n) {
		// wrap must be visible before the cursor that covers the skipped bytes.
		r.wrap.Store(w)
		w += tail
		r.write.Store(w)
		free -= tail
		off = 0
	}
	granted := min(uint64(n), free, r.size-off)
	return r.buf[off : off+granted : off+granted]
}

// CommitWrite publishes n bytes previously filled through AcquireWrite.
func (r *Ring) CommitWrite(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: commit of %d bytes", pkg.ErrInvalidParameter, n)
	}
	w := r.write.Load()
	free := r.size - (w - r.read.Load())
	off := w % r.size
	if uint64(n) > min(free, r.size-off) {
		return fmt.Errorf("%w: write commit of %d bytes, %d writable",
			pkg.ErrCommitOverflow, n, min(free, r.size-off))
	}
	r.write.Store(w + uint64(n))
	return nil
}

// AcquireRead returns a readable region of at most n committed bytes. Like
// AcquireWrite, the region never wraps, and a tail skipped by the writer is
// skipped here too. The bytes stay owned by the reader until CommitRead
// releases them.
func (r *Ring) AcquireRead(n int) []byte {
	if n <= 0 {
		return nil
	}
	rd, used := r.readCursor()
	off := rd % r.size
	granted := min(uint64(n), used, r.size-off)
	return r.buf[off : off+granted : off+granted]
}

// CommitRead releases n bytes previously obtained through AcquireRead.
func (r *Ring) CommitRead(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: commit of %d bytes", pkg.ErrInvalidParameter, n)
	}
	rd, used := r.readCursor()
	off := rd % r.size
	if uint64(n) > min(used, r.size-off) {
		return fmt.Errorf("%w: read commit of %d bytes, %d readable",
			pkg.ErrCommitOverflow, n, min(used, r.size-off))
	}
	r.read.Store(rd + uint64(n))
	return nil
}

// readCursor returns the read cursor and the bytes available behind it,
// first moving the cursor past a tail the writer skipped.
func (r *Ring) readCursor() (rd, used uint64) {
	rd = r.read.Load()
	w := r.write.Load()
	if off := rd % r.size; off != 0 && r.wrap.Load() == rd && w-rd >= r.size-off {
		rd += r.size - off
		r.read.Store(rd)
	}
	return rd, w - rd
}
