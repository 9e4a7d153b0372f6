// Command drawcast predicts and backtests draws over a stored history.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/drawcast/internal/app"
	"github.com/okian/drawcast/internal/config"
	"github.com/okian/drawcast/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Building it per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "drawcast",
		Short: "Draw prediction and walk-forward backtesting",
		Long: `drawcast ranks the 49 pool numbers for the next draw from the stored
history, reviews its previous prediction once the draw is known, and
replays any strategy over past draws to measure its hit rates.

Configuration is layered: defaults, then the YAML file given by --config
or DRAWCAST_CONFIG, then DRAWCAST_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		if err := logger.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
		cfg, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return nil, err
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
				logger.String("log_level", cfg.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		return cfg, nil
	}

	root.AddCommand(
		newPredictCmd(load),
		newBacktestCmd(load),
		newImportCmd(load),
		newServeCmd(load),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (*config.Config, error)

// startService loads configuration and starts a service; the returned stop
// function releases it.
func startService(cmd *cobra.Command, load loadFunc) (*service.Service, *config.Config, func(), error) {
	cfg, err := load(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Get()))
	if err := svc.Start(cmd.Context()); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, cfg, func() {
		svc.Stop()
		_ = logger.Sync()
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
