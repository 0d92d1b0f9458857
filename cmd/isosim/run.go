package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ardnew/isosim/config"
	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/pkg/prof"
	"github.com/ardnew/isosim/stream"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream for a fixed duration and print statistics",
		Long: `Run initializes the ring buffer, starts the consumer and then the
producer, streams for --duration (or until interrupted), stops both and
prints the counters.

With --metrics-addr the counters are served live at /metrics along with
the pprof handlers under /debug/pprof/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := profileOptions(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, opts, cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	addStreamFlags(fs)
	fs.Duration("duration", config.Default().Stream.Duration, "how long to stream")
	fs.String("metrics-addr", "", "serve /metrics and /debug/pprof/ on this address")
	fs.String("cpu-profile", "", "write a CPU profile of the run to this file")
	fs.String("heap-profile", "", "write a heap profile to this file when the run ends")
	return cmd
}

func profileOptions(cmd *cobra.Command) (prof.Options, error) {
	var opts prof.Options
	var err error
	if opts.CPUPath, err = cmd.Flags().GetString("cpu-profile"); err != nil {
		return opts, err
	}
	if opts.HeapPath, err = cmd.Flags().GetString("heap-profile"); err != nil {
		return opts, err
	}
	return opts, nil
}

// run streams once with cfg and writes a summary to out.
func run(ctx context.Context, cfg *config.Config, profOpts prof.Options, out io.Writer) (err error) {
	ctrl := stream.NewController()
	if err := ctrl.Initialize(cfg.Stream.CapacityBytes); err != nil {
		return err
	}
	defer ctrl.Close()

	orch, err := stream.NewOrchestrator(ctrl, cfg.Stream.FrameSize,
		stream.WithEndpointAddress(uint8(cfg.Endpoint.Address)),
		stream.WithInterval(uint8(cfg.Endpoint.Interval)),
		stream.WithAudioDataSize(cfg.Stream.AudioDataSize))
	if err != nil {
		return err
	}
	defer orch.Close()

	if cfg.Metrics.Addr != "" {
		srv, addr, err := serveMetrics(cfg.Metrics.Addr, newRegistry(orch))
		if err != nil {
			return err
		}
		pkg.LogInfo(pkg.ComponentMetrics, "serving metrics",
			"addr", addr.String())
		defer shutdownServer(srv)
	}

	session, err := prof.Start(profOpts)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := session.Stop(); stopErr != nil {
			pkg.LogError(pkg.ComponentProfile, "profiling failed",
				"error", stopErr)
			err = errors.Join(err, stopErr)
		}
	}()

	if err := orch.StartStreaming(); err != nil {
		return err
	}

	timer := time.NewTimer(cfg.Stream.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		pkg.LogInfo(pkg.ComponentCommand, "interrupted, stopping stream")
	}

	orch.StopStreaming()
	orch.PrintStatistics()
	return printSummary(out, orch)
}

// newRegistry returns a registry exporting the stream alongside the Go
// runtime and process collectors.
func newRegistry(orch *stream.Orchestrator) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		stream.NewCollector(orch),
	)
	return reg
}

// serveMetrics listens on addr and serves /metrics from reg plus the pprof
// handlers. It returns once the listener is bound.
func serveMetrics(addr string, reg *prometheus.Registry) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	prof.Register(mux)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkg.LogError(pkg.ComponentMetrics, "metrics server failed",
				"error", err)
		}
	}()
	return srv, ln.Addr(), nil
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkg.LogWarn(pkg.ComponentMetrics, "metrics server shutdown",
			"error", err)
	}
}

// printSummary writes the final counters in a fixed, human-readable layout.
func printSummary(w io.Writer, orch *stream.Orchestrator) error {
	s := orch.Statistics()
	ep := orch.Endpoint()

	underrun := "undefined"
	if rate, ok := s.UnderrunRate(); ok {
		underrun = fmt.Sprintf("%.3f%%", rate)
	}
	overrun := "undefined"
	if rate, ok := s.OverrunRate(); ok {
		overrun = fmt.Sprintf("%.3f%%", rate)
	}

	_, err := fmt.Fprintf(w, `simulation       %s
endpoint         %s
period           %v
buffer           %d bytes (%d microframes of %d)
frames produced  %d
frames consumed  %d
overruns         %d
underruns        %d
underrun rate    %s
overrun rate     %s
max timing error %v
`,
		orch.ID(),
		ep.String(),
		orch.Period(),
		s.BufferCapacity, s.BufferCapacity/orch.FrameSize(), orch.FrameSize(),
		s.FramesProduced,
		s.FramesConsumed,
		s.Overruns,
		s.Underruns,
		underrun,
		overrun,
		s.MaxTimingError,
	)
	return err
}
