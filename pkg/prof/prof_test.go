package prof

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCPUAndHeap(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPUPath:  filepath.Join(dir, "cpu.prof"),
		HeapPath: filepath.Join(dir, "heap.prof"),
	}

	s, err := Start(opts)
	require.NoError(t, err)
	assert.True(t, IsCPUActive())

	require.NoError(t, s.Stop())
	assert.False(t, IsCPUActive())
	require.NoError(t, s.Stop(), "Stop is idempotent")

	for _, path := range []string{opts.CPUPath, opts.HeapPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}
}

func TestSessionFailFastWhenActive(t *testing.T) {
	dir := t.TempDir()
	s, err := Start(Options{CPUPath: filepath.Join(dir, "cpu.prof")})
	require.NoError(t, err)
	defer s.Stop()

	_, err = Start(Options{CPUPath: filepath.Join(dir, "cpu2.prof")})
	assert.ErrorIs(t, err, ErrCPUProfileActive)
}

func TestSessionInvalidPath(t *testing.T) {
	_, err := Start(Options{CPUPath: "/nonexistent/directory/cpu.prof"})
	assert.Error(t, err)
	assert.False(t, IsCPUActive())
}

func TestSessionEmpty(t *testing.T) {
	s, err := Start(Options{})
	require.NoError(t, err)
	assert.False(t, IsCPUActive())
	assert.NoError(t, s.Stop())
}

func TestSessionHeapWriteFailure(t *testing.T) {
	s, err := Start(Options{HeapPath: "/nonexistent/directory/heap.prof"})
	require.NoError(t, err)
	assert.Error(t, s.Stop())
}

func TestWriteTo(t *testing.T) {
	tests := []struct {
		profile Profile
		wantErr error
	}{
		{ProfileHeap, nil},
		{ProfileAllocs, nil},
		{ProfileGoroutine, nil},
		{ProfileThreadCreate, nil},
		{ProfileBlock, nil},
		{ProfileMutex, nil},
		{ProfileCPU, ErrInvalidProfile},
		{Profile("bogus"), ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteTo(tt.profile, &buf, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, buf.Len())
		})
	}
}

func TestWriteCPURejected(t *testing.T) {
	assert.ErrorIs(t, Write(ProfileCPU, filepath.Join(t.TempDir(), "cpu.prof")), ErrInvalidProfile)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux)

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/goroutine?debug=1", "/debug/pprof/cmdline"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
