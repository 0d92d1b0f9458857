package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ardnew/isosim/config"
	"github.com/ardnew/isosim/pkg"
	"github.com/ardnew/isosim/usb"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"capacity":     "stream.capacity_bytes",
	"frame-size":   "stream.frame_size",
	"audio-size":   "stream.audio_data_size",
	"duration":     "stream.duration",
	"address":      "endpoint.address",
	"interval":     "endpoint.interval",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"metrics-addr": "metrics.addr",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "isosim",
		Short: "USB isochronous stream timing simulator",
		Long: `isosim runs an unthrottled producer and a consumer paced at the USB
High Speed microframe rate against a shared lock-free ring buffer, and
reports frames moved, overruns, underruns and pacing error.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "YAML config file")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")

	root.AddCommand(newRunCmd(), newEndpointCmd())
	return root
}

// addStreamFlags registers the flags that shape the stream and endpoint.
func addStreamFlags(fs *pflag.FlagSet) {
	defaults := config.Default()
	fs.Int("capacity", defaults.Stream.CapacityBytes, "ring buffer capacity in bytes")
	fs.Int("frame-size", defaults.Stream.FrameSize, "microframe payload in bytes")
	fs.Int("audio-size", defaults.Stream.AudioDataSize, "audio bytes per microframe, the rest is padding")
	fs.Int("address", usb.DefaultEndpointAddress, "endpoint address (IN, e.g. 0x81)")
	fs.Int("interval", defaults.Endpoint.Interval, "endpoint bInterval (1..16)")
}

// loadConfig resolves the effective configuration for cmd: defaults, the
// --config file, environment and any flags the command defines.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	v, err := config.New(file)
	if err != nil {
		pkg.LogError(pkg.ComponentConfig, "failed to read config file",
			"path", file,
			"error", err)
		return nil, err
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := applyLogging(cmd, cfg); err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		pkg.LogDebug(pkg.ComponentConfig, "config file loaded",
			"path", used)
	}
	return cfg, nil
}

// applyLogging installs the configured level and format on the simulator
// logger, writing to the command's error stream.
func applyLogging(cmd *cobra.Command, cfg *config.Config) error {
	level, err := pkg.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	format, err := pkg.ParseLogFormat(cfg.Logging.Format)
	if err != nil {
		return err
	}
	pkg.SetLogLevel(level)
	pkg.SetLogOutput(cmd.ErrOrStderr(), format)
	return nil
}
