package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/isosim/pkg"
)

func TestControllerInitialize(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  error
	}{
		{name: "one microframe", capacity: testFrame},
		{name: "eight microframes", capacity: 8 * testFrame},
		{name: "not a multiple", capacity: 1000},
		{name: "zero", capacity: 0, wantErr: pkg.ErrZeroCapacity},
		{name: "negative", capacity: -1, wantErr: pkg.ErrZeroCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewController()
			err := ctrl.Initialize(tt.capacity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, ctrl.IsInitialized())
				assert.Zero(t, ctrl.Size())
				return
			}
			require.NoError(t, err)
			assert.True(t, ctrl.IsInitialized())
			assert.Equal(t, tt.capacity, ctrl.Size())
			assert.Zero(t, ctrl.Occupied())
		})
	}
}

func TestControllerInitializeIsOneShot(t *testing.T) {
	ctrl := newTestController(t, 8)

	require.NoError(t, ctrl.Initialize(2*testFrame))
	assert.Equal(t, 8*testFrame, ctrl.Size(), "second Initialize must not replace the buffer")
}

func TestControllerUninitialized(t *testing.T) {
	ctrl := NewController()

	assert.False(t, ctrl.IsInitialized())
	assert.Empty(t, ctrl.AcquireWrite(testFrame))
	assert.Empty(t, ctrl.AcquireRead(testFrame))
	assert.ErrorIs(t, ctrl.CommitWrite(testFrame), pkg.ErrNotInitialized)
	assert.ErrorIs(t, ctrl.CommitRead(testFrame), pkg.ErrNotInitialized)
	assert.Zero(t, ctrl.Occupied())
	assert.NoError(t, ctrl.Close())
}

func TestControllerBufferFactory(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		ctrl := NewController(WithBufferFactory(func(int) (Buffer, error) {
			return nil, pkg.ErrNoMemory
		}))
		err := ctrl.Initialize(testFrame)
		require.ErrorIs(t, err, pkg.ErrNoMemory)
		assert.False(t, ctrl.IsInitialized())
	})

	t.Run("nil buffer", func(t *testing.T) {
		ctrl := NewController(WithBufferFactory(func(int) (Buffer, error) {
			return nil, nil
		}))
		require.ErrorIs(t, ctrl.Initialize(testFrame), pkg.ErrNoMemory)
		assert.False(t, ctrl.IsInitialized())
	})

	t.Run("substitute", func(t *testing.T) {
		var requested int
		ctrl := NewController(WithBufferFactory(func(capacity int) (Buffer, error) {
			requested = capacity
			return NewRingBuffer(capacity * 2)
		}))
		require.NoError(t, ctrl.Initialize(testFrame))
		assert.Equal(t, testFrame, requested)
		assert.Equal(t, 2*testFrame, ctrl.Size())
	})

	t.Run("nil factory keeps default", func(t *testing.T) {
		ctrl := NewController(WithBufferFactory(nil))
		require.NoError(t, ctrl.Initialize(testFrame))
		assert.Equal(t, testFrame, ctrl.Size())
	})
}

func TestControllerCloseAndReinitialize(t *testing.T) {
	ctrl := NewController()
	require.NoError(t, ctrl.Initialize(4*testFrame))
	writeFrames(t, ctrl, &PatternGenerator{}, 2)
	assert.Equal(t, 2*testFrame, ctrl.Occupied())

	require.NoError(t, ctrl.Close())
	assert.False(t, ctrl.IsInitialized())
	assert.Zero(t, ctrl.Size())
	assert.ErrorIs(t, ctrl.CommitRead(testFrame), pkg.ErrNotInitialized)

	require.NoError(t, ctrl.Initialize(2*testFrame))
	assert.Equal(t, 2*testFrame, ctrl.Size())
	assert.Zero(t, ctrl.Occupied(), "a new buffer starts empty")
}

func TestControllerTransfer(t *testing.T) {
	ctrl := newTestController(t, 2)
	gen := &PatternGenerator{}

	writeFrames(t, ctrl, gen, 2)
	assert.Empty(t, ctrl.AcquireWrite(testFrame), "full buffer grants nothing")
	assert.ErrorIs(t, ctrl.CommitWrite(1), pkg.ErrCommitOverflow)

	for want := uint64(0); want < 2; want++ {
		region := ctrl.AcquireRead(testFrame)
		require.Len(t, region, testFrame)
		seq, ok := VerifyPattern(region)
		assert.True(t, ok)
		assert.Equal(t, want, seq)
		require.NoError(t, ctrl.CommitRead(testFrame))
	}
	assert.Empty(t, ctrl.AcquireRead(testFrame))
	assert.Zero(t, ctrl.Occupied())
}
