// Command isosim simulates a USB High Speed isochronous audio stream and
// reports how well a ring buffer of a given size absorbs the mismatch
// between an unthrottled producer and a consumer paced at 125 µs.
//
// Usage:
//
//	isosim run [flags]
//	isosim endpoint [flags]
//
// Settings come from flags, ISOSIM_* environment variables and an optional
// YAML file given with --config, in that order of precedence.
//
// Examples:
//
//	isosim run --capacity 3072 --duration 5s
//	isosim run --metrics-addr :9090 --duration 1m
//	ISOSIM_STREAM_FRAME_SIZE=192 isosim run --log-format json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
