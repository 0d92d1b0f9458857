package stream

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/ring"
)

// bufferRef boxes the Buffer interface for atomic.Pointer.
type bufferRef struct {
	Buffer
}

// Controller owns the ring buffer shared by one producer and one consumer.
//
// Initialization is one-shot: the buffer is created by the first successful
// Initialize and released by Close. The acquire/commit methods delegate to
// the buffer without locking; before initialization acquires grant nothing
// and commits fail with [pkg.ErrNotInitialized].
type Controller struct {
	factory BufferFactory
	buffer  atomic.Pointer[bufferRef]
	mutex   sync.Mutex // serializes Initialize and Close
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithBufferFactory substitutes the Buffer implementation.
func WithBufferFactory(factory BufferFactory) ControllerOption {
	return func(c *Controller) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// NewRingBuffer is the default BufferFactory, backed by [ring.Ring].
func NewRingBuffer(capacity int) (Buffer, error) {
	r, err := ring.New(capacity)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NewController creates an uninitialized controller.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{factory: NewRingBuffer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize allocates a buffer of capacityBytes. Calling it on an
// initialized controller logs a warning and succeeds without change.
//
// capacityBytes should be a whole multiple of the microframe size; any
// remainder is never usable by full-microframe transfers.
func (c *Controller) Initialize(capacityBytes int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ref := c.buffer.Load(); ref != nil {
		pkg.LogWarn(pkg.ComponentController, "ring buffer already initialized",
			"bytes", ref.Size())
		return nil
	}
	if capacityBytes <= 0 {
		pkg.LogError(pkg.ComponentController, "invalid ring buffer capacity",
			"bytes", capacityBytes)
		return fmt.Errorf("%w: %d bytes", pkg.ErrZeroCapacity, capacityBytes)
	}

	buf, err := c.factory(capacityBytes)
	if err != nil {
		pkg.LogError(pkg.ComponentController, "failed to allocate ring buffer",
			"bytes", capacityBytes,
			"error", err)
		return fmt.Errorf("initialize ring buffer: %w", err)
	}
	if buf == nil {
		return fmt.Errorf("initialize ring buffer: %w", pkg.ErrNoMemory)
	}

	c.buffer.Store(&bufferRef{buf})
	pkg.LogInfo(pkg.ComponentController, "ring buffer initialized",
		"bytes", buf.Size())
	return nil
}

// IsInitialized returns true if a buffer is allocated.
func (c *Controller) IsInitialized() bool {
	return c.buffer.Load() != nil
}

// Size returns the buffer capacity in bytes, or 0 if uninitialized.
func (c *Controller) Size() int {
	if ref := c.buffer.Load(); ref != nil {
		return ref.Size()
	}
	return 0
}

// Occupied returns the number of committed, unread bytes.
func (c *Controller) Occupied() int {
	if ref := c.buffer.Load(); ref != nil {
		return ref.Len()
	}
	return 0
}

// Close releases the buffer. The controller may be initialized again
// afterwards. Close must not be called while workers are running.
func (c *Controller) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ref := c.buffer.Swap(nil); ref != nil {
		pkg.LogDebug(pkg.ComponentController, "ring buffer released",
			"bytes", ref.Size())
	}
	return nil
}

// AcquireWrite reserves up to n writable bytes. Writer side only.
func (c *Controller) AcquireWrite(n int) []byte {
	if ref := c.buffer.Load(); ref != nil {
		return ref.AcquireWrite(n)
	}
	return nil
}

// CommitWrite publishes n bytes to the reader. Writer side only.
func (c *Controller) CommitWrite(n int) error {
	if ref := c.buffer.Load(); ref != nil {
		return ref.CommitWrite(n)
	}
	return pkg.ErrNotInitialized
}

// AcquireRead reserves up to n committed bytes. Reader side only.
func (c *Controller) AcquireRead(n int) []byte {
	if ref := c.buffer.Load(); ref != nil {
		return ref.AcquireRead(n)
	}
	return nil
}

// CommitRead releases n bytes back to the writer. Reader side only.
func (c *Controller) CommitRead(n int) error {
	if ref := c.buffer.Load(); ref != nil {
		return ref.CommitRead(n)
	}
	return pkg.ErrNotInitialized
}
