package prof

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	rpprof "runtime/pprof"
	"sync"

	"github.com/ardnew/isosim/pkg"
)

// Profiling errors.
var (
	// ErrCPUProfileActive indicates CPU profiling is already active.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile represents a pprof profile type.
type Profile string

// Profile type constants.
const (
	ProfileCPU          Profile = "cpu"
	ProfileHeap         Profile = "heap"
	ProfileAllocs       Profile = "allocs"
	ProfileGoroutine    Profile = "goroutine"
	ProfileThreadCreate Profile = "threadcreate"
	ProfileBlock        Profile = "block"
	ProfileMutex        Profile = "mutex"
)

// String returns the string representation of the profile type.
func (p Profile) String() string {
	return string(p)
}

// Options selects what a Session records. Empty paths disable the
// corresponding profile.
type Options struct {
	CPUPath  string // CPU profile streamed for the whole session
	HeapPath string // heap snapshot written when the session stops

	// BlockRate and MutexFraction enable the block and mutex profiles
	// served under /debug/pprof/. Zero leaves them off.
	BlockRate     int
	MutexFraction int
}

var (
	// cpuMutex protects CPU profiling state; the runtime allows one CPU
	// profile per process.
	cpuMutex  sync.Mutex
	cpuActive bool
)

// Session is one profiled simulator run.
type Session struct {
	opts    Options
	cpuFile *os.File
	once    sync.Once
	err     error
}

// Start begins a profiling session. With zero Options it records nothing
// and Stop is a no-op.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}

	if opts.BlockRate > 0 {
		runtime.SetBlockProfileRate(opts.BlockRate)
	}
	if opts.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(opts.MutexFraction)
	}

	if opts.CPUPath != "" {
		f, err := os.Create(opts.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("create cpu profile: %w", err)
		}
		if err := startCPU(f); err != nil {
			f.Close()
			return nil, err
		}
		s.cpuFile = f
		pkg.LogInfo(pkg.ComponentProfile, "cpu profiling started",
			"path", opts.CPUPath)
	}
	return s, nil
}

// Stop ends CPU profiling and writes the heap snapshot. Later calls return
// the first call's result.
func (s *Session) Stop() error {
	s.once.Do(func() {
		var errs []error
		if s.cpuFile != nil {
			stopCPU()
			if err := s.cpuFile.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close cpu profile: %w", err))
			}
			pkg.LogInfo(pkg.ComponentProfile, "cpu profile written",
				"path", s.opts.CPUPath)
		}
		if s.opts.HeapPath != "" {
			runtime.GC()
			if err := Write(ProfileHeap, s.opts.HeapPath); err != nil {
				errs = append(errs, fmt.Errorf("write heap profile: %w", err))
			} else {
				pkg.LogInfo(pkg.ComponentProfile, "heap profile written",
					"path", s.opts.HeapPath)
			}
		}
		if s.opts.BlockRate > 0 {
			runtime.SetBlockProfileRate(0)
		}
		if s.opts.MutexFraction > 0 {
			runtime.SetMutexProfileFraction(0)
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

func startCPU(w io.Writer) error {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if cpuActive {
		return ErrCPUProfileActive
	}
	if err := rpprof.StartCPUProfile(w); err != nil {
		return err
	}
	cpuActive = true
	return nil
}

func stopCPU() {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()

	if !cpuActive {
		return
	}
	rpprof.StopCPUProfile()
	cpuActive = false
}

// IsCPUActive reports whether CPU profiling is currently active.
func IsCPUActive() bool {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()
	return cpuActive
}

// Write writes the specified snapshot profile to a file at the given path.
// Returns [ErrInvalidProfile] for [ProfileCPU], which only a Session records.
func Write(profile Profile, path string) error {
	if profile == ProfileCPU {
		return ErrInvalidProfile
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTo(profile, f, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo writes the specified snapshot profile to w. Debug level 0
// produces binary protobuf output for go tool pprof; 1 produces text.
func WriteTo(profile Profile, w io.Writer, debug int) error {
	if profile == ProfileCPU {
		return ErrInvalidProfile
	}
	p := rpprof.Lookup(string(profile))
	if p == nil {
		return ErrInvalidProfile
	}
	return p.WriteTo(w, debug)
}

// Register installs the pprof HTTP handlers on mux under /debug/pprof/.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
