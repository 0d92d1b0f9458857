package stream

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// worker runs one loop on a dedicated OS thread.
//
// The loop must poll active at the top of every iteration; stop clears the
// run flag, cancels the loop's context to interrupt any sleep, and joins.
type worker struct {
	running atomic.Bool
	mutex   sync.Mutex // serializes start and stop, never held by the loop
	cancel  context.CancelFunc
	done    chan struct{}
}

// start launches loop unless the worker is already running.
// Returns false if it was already running.
func (w *worker) start(loop func(ctx context.Context)) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel, w.done = cancel, done
	w.running.Store(true)

	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		loop(ctx)
	}()
	return true
}

// stop signals the loop and waits for it to return.
// Returns false if the worker was not running.
func (w *worker) stop() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running.Load() {
		return false
	}

	w.running.Store(false)
	w.cancel()
	<-w.done
	w.cancel, w.done = nil, nil
	return true
}

// active reports whether the loop should keep iterating.
func (w *worker) active() bool {
	return w.running.Load()
}

// streak counts consecutive failed transfers so that events are logged on
// their edges rather than on every tick. Owned by a single loop goroutine.
type streak struct {
	length uint64
}

// fail records a failure and reports whether it began a new streak.
func (s *streak) fail() bool {
	s.length++
	return s.length == 1
}

// reset ends the streak and returns its length.
func (s *streak) reset() uint64 {
	n := s.length
	s.length = 0
	return n
}
