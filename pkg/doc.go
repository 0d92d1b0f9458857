// Package pkg provides shared utilities for the isosim packages.
//
// This package contains common functionality used by the ring buffer,
// the streaming workers and the demo command, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for buffer, lifecycle and USB transfer errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentConsumer, "consumer started", "period", period)
//
// Logging is purely observational. Install a discarding logger with
// SetLogger(nil) to silence it.
//
// # Errors
//
// Errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrNotInitialized) {
//	    // Initialize the controller first
//	}
package pkg
