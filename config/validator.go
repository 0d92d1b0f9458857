package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ardnew/isosim/usb"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "stream.frame_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// maxFrameSize is the most a High Speed isochronous endpoint moves per
// microframe: three transactions of 1024 bytes.
const maxFrameSize = usb.MaxIsoTransactions * usb.MaxIsoPacketSizeHigh

// Validate checks the Config for invalid values and returns all validation
// errors found. The result is empty when the Config is valid.
func (c *Config) Validate() ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, c.validateStream()...)
	errors = append(errors, c.validateEndpoint()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateStream() []ValidationError {
	var errors []ValidationError
	s := c.Stream

	if s.FrameSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "stream.frame_size",
			Value:   s.FrameSize,
			Message: "must be positive",
		})
	} else if s.FrameSize > maxFrameSize {
		errors = append(errors, ValidationError{
			Field:   "stream.frame_size",
			Value:   s.FrameSize,
			Message: fmt.Sprintf("exceeds maximum of %d bytes per microframe", maxFrameSize),
		})
	}

	if s.CapacityBytes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "stream.capacity_bytes",
			Value:   s.CapacityBytes,
			Message: "must be positive",
		})
	} else if s.FrameSize > 0 && s.CapacityBytes < s.FrameSize {
		errors = append(errors, ValidationError{
			Field:   "stream.capacity_bytes",
			Value:   s.CapacityBytes,
			Message: fmt.Sprintf("must hold at least one %d-byte microframe", s.FrameSize),
		})
	}

	if s.AudioDataSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "stream.audio_data_size",
			Value:   s.AudioDataSize,
			Message: "must be non-negative",
		})
	} else if s.FrameSize > 0 && s.AudioDataSize > s.FrameSize {
		errors = append(errors, ValidationError{
			Field:   "stream.audio_data_size",
			Value:   s.AudioDataSize,
			Message: fmt.Sprintf("must not exceed stream.frame_size (%d)", s.FrameSize),
		})
	}

	if s.Duration <= 0 {
		errors = append(errors, ValidationError{
			Field:   "stream.duration",
			Value:   s.Duration,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateEndpoint() []ValidationError {
	var errors []ValidationError
	e := c.Endpoint

	switch {
	case e.Address < 0 || e.Address > 0xFF:
		errors = append(errors, ValidationError{
			Field:   "endpoint.address",
			Value:   e.Address,
			Message: "must fit in one byte",
		})
	case e.Address&usb.EndpointDirectionIn == 0:
		errors = append(errors, ValidationError{
			Field:   "endpoint.address",
			Value:   fmt.Sprintf("%#02x", e.Address),
			Message: "must be an IN endpoint (bit 7 set)",
		})
	case e.Address&0x0F == 0:
		errors = append(errors, ValidationError{
			Field:   "endpoint.address",
			Value:   fmt.Sprintf("%#02x", e.Address),
			Message: "endpoint 0 is reserved for control transfers",
		})
	case e.Address&0x70 != 0:
		errors = append(errors, ValidationError{
			Field:   "endpoint.address",
			Value:   fmt.Sprintf("%#02x", e.Address),
			Message: "bits 4..6 are reserved and must be zero",
		})
	}

	if e.Interval < 1 || e.Interval > 16 {
		errors = append(errors, ValidationError{
			Field:   "endpoint.interval",
			Value:   e.Interval,
			Message: "must be between 1 and 16",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if level := strings.ToLower(c.Logging.Level); level != "" && !slices.Contains(ValidLogLevels(), level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if format := strings.ToLower(c.Logging.Format); format != "" && !slices.Contains(ValidLogFormats(), format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	return errors
}
