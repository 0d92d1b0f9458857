// Package prof profiles simulator runs.
//
// A [Session] records a CPU profile for the duration of a run and a heap
// snapshot when it stops, and optionally enables the block and mutex
// profiles. Timing problems in the consumer usually show up in the CPU
// profile as time spent outside the pacing loop.
//
//	s, err := prof.Start(prof.Options{CPUPath: "cpu.prof", HeapPath: "heap.prof"})
//	if err != nil {
//	    return err
//	}
//	defer s.Stop()
//
// [Register] serves the same profiles over HTTP on an existing mux:
//
//	mux := http.NewServeMux()
//	prof.Register(mux)
//	// go tool pprof http://localhost:9090/debug/pprof/profile
//
// Only one CPU profile can run per process; starting a second session with
// a CPU path returns [ErrCPUProfileActive].
package prof
