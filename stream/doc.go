// Package stream simulates the timing of a USB High Speed isochronous
// stream.
//
// A [Controller] owns a fixed-capacity single-producer, single-consumer ring
// buffer. A [Producer] fills it as fast as it can; a [Consumer] drains one
// microframe every service interval (125 µs by default), scheduled against
// absolute time so that the loop's own cost never turns into drift. The
// [Orchestrator] wires both to one controller and aggregates their counters.
//
// # Architecture
//
//   - [Controller]: one-shot buffer initialization and acquire/commit access
//   - [Producer]: unthrottled writer, counts overruns (frames dropped)
//   - [Consumer]: paced reader, counts underruns (silent ticks)
//   - [Orchestrator]: consumer-first start, statistics, Prometheus export
//
// The producer is never throttled and never retries. Running flat out
// against a paced consumer is what makes the overrun and underrun counters
// measure the buffer's absorption capacity.
//
// # Threads
//
// Each worker runs on its own goroutine locked to an OS thread. The only
// state they share is the ring buffer, whose atomic cursors order every
// byte range: visible to the consumer after CommitWrite, reusable by the
// producer after CommitRead. Counters are atomics readable from anywhere.
//
// # Testing
//
// Producers and consumers are built through factories, and their
// collaborators are interfaces. [ManualClock] steps the consumer one tick at
// a time; [PatternGenerator] with [VerifyPattern] checks payload integrity.
//
// # Example
//
//	ctrl := stream.NewController()
//	if err := ctrl.Initialize(8 * usb.DefaultMicroframeSize); err != nil {
//	    return err
//	}
//	defer ctrl.Close()
//
//	orch, err := stream.NewOrchestrator(ctrl, usb.DefaultMicroframeSize)
//	if err != nil {
//	    return err
//	}
//	orch.StartStreaming()
//	time.Sleep(100 * time.Millisecond)
//	orch.StopStreaming()
//	orch.PrintStatistics()
package stream
