package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/soocke/screenshare-test/app"
	"github.com/soocke/screenshare-test/config"
)

const defaultConfigPath = "screenshare-test.json"

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCommand builds the CLI. Flags that are set override values from the
// config file.
func rootCommand() *cobra.Command {
	var (
		cfgPath     string
		debugMode   bool
		metricsAddr string
		frameRate   float64
	)
	cmd := &cobra.Command{
		Use:           "screenshare-test",
		Short:         "Test screen capture: pick a screen or region, preview it and see why a request failed",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr := config.Load(cfgPath)
			flags := cmd.Flags()
			if flags.Changed("debug") {
				cfg.Debug = debugMode
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if flags.Changed("frame-rate") {
				cfg.FrameRate = frameRate
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			level := slog.LevelInfo
			if cfg.Debug {
				level = slog.LevelDebug
			}
			logger := NewLogger(level)
			if loadErr != nil {
				logger.Warn("config load failed, using defaults", "path", cfgPath, "error", loadErr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			app.NewApp("Screen Share Test", 720, 640, cfg, cfgPath, logger).Start(ctx)
			return nil
		},
	}
	cmd.SetContext(context.Background())
	f := cmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", defaultConfigPath, "path to the JSON config file")
	f.BoolVar(&debugMode, "debug", false, "enable debug logging and runtime stats")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	f.Float64Var(&frameRate, "frame-rate", 0, "ideal capture frame rate")
	return cmd
}
