// Package ring provides a lock-free single-producer, single-consumer byte
// ring buffer with a two-phase acquire/commit protocol.
//
// The writer reserves a region with [Ring.AcquireWrite], fills it in place,
// and publishes it with [Ring.CommitWrite]. The reader mirrors this with
// [Ring.AcquireRead] and [Ring.CommitRead]:
//
//	region := r.AcquireWrite(384)
//	if len(region) == 384 {
//	    copy(region, frame)
//	    r.CommitWrite(384)
//	}
//
// Acquires never block; a short region means there is not enough space (or
// data) right now. Regions never wrap around the end of storage. A write
// that does not fit before the end skips the tail and starts again at
// offset zero once enough space is free, and the reader skips the same
// tail, so with fixed-size transfers any remainder of the capacity is
// unused slack.
//
// Bytes become visible to the reader only after CommitWrite, and a range is
// reused by the writer only after CommitRead. The write and read cursors are
// atomics kept on separate cache lines; no locks are involved.
package ring
