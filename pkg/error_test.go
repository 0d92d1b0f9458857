package pkg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStatus_String(t *testing.T) {
	tests := []struct {
		status TransferStatus
		want   string
	}{
		{TransferStatusSuccess, "success"},
		{TransferStatusOverrun, "overrun"},
		{TransferStatusUnderrun, "underrun"},
		{TransferStatusCancelled, "cancelled"},
		{TransferStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestTransferStatus_Error(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		wantErr error
	}{
		{TransferStatusSuccess, nil},
		{TransferStatusOverrun, ErrOverrun},
		{TransferStatusUnderrun, ErrUnderrun},
		{TransferStatusCancelled, ErrCancelled},
		{TransferStatus(42), ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrZeroCapacity,
		ErrNotInitialized,
		ErrCommitOverflow,
		ErrInvalidParameter,
		ErrNoMemory,
		ErrOverrun,
		ErrUnderrun,
		ErrCancelled,
		ErrInvalidEndpoint,
		ErrBandwidth,
		ErrDescriptorTooShort,
		ErrDescriptorTypeMismatch,
	}

	for i, err1 := range errs {
		if !assert.NotNil(t, err1, "error %d", i) {
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}
