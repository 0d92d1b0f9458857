package pkg

import "errors"

// Buffer and lifecycle errors.
var (
	// ErrZeroCapacity indicates a ring buffer was requested with no capacity.
	ErrZeroCapacity = errors.New("zero buffer capacity")

	// ErrNotInitialized indicates the buffer controller has not been initialized.
	ErrNotInitialized = errors.New("buffer controller not initialized")

	// ErrCommitOverflow indicates a commit larger than the acquirable region.
	ErrCommitOverflow = errors.New("commit exceeds acquired region")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoMemory indicates the buffer storage could not be allocated.
	ErrNoMemory = errors.New("insufficient memory")
)

// USB transfer errors.
var (
	// ErrOverrun indicates the buffer could not accept a full microframe.
	ErrOverrun = errors.New("data overrun")

	// ErrUnderrun indicates the buffer could not supply a full microframe.
	ErrUnderrun = errors.New("data underrun")

	// ErrCancelled indicates a cancelled transfer.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrInvalidEndpoint indicates an endpoint unusable for isochronous streaming.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrBandwidth indicates insufficient bandwidth for isochronous transfer.
	ErrBandwidth = errors.New("insufficient bandwidth")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")
)

// TransferStatus represents the outcome of one microframe transfer.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusSuccess   TransferStatus = iota // Full microframe transferred
	TransferStatusOverrun                         // Producer found no room
	TransferStatusUnderrun                        // Consumer found no data
	TransferStatusCancelled                       // Worker stopped mid-tick
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSuccess:
		return "success"
	case TransferStatusOverrun:
		return "overrun"
	case TransferStatusUnderrun:
		return "underrun"
	case TransferStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the transfer status.
func (s TransferStatus) Error() error {
	switch s {
	case TransferStatusSuccess:
		return nil
	case TransferStatusOverrun:
		return ErrOverrun
	case TransferStatusUnderrun:
		return ErrUnderrun
	case TransferStatusCancelled:
		return ErrCancelled
	default:
		return ErrInvalidParameter
	}
}
