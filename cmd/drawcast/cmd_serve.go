package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/okian/drawcast/internal/adapters/http/api"
	"github.com/okian/drawcast/internal/adapters/http/swagger"
	"github.com/okian/drawcast/pkg/logger"
)

// HTTP server timeout constants. Backtests can run for minutes, so the
// write timeout is generous.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve /healthz, /metrics, /stats, GET /prediction and POST /backtest,
plus the OpenAPI document at /openapi.yaml and /api-docs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, stop, err := startService(cmd, load)
			if err != nil {
				return err
			}
			defer stop()

			ctx := cmd.Context()
			log := logger.Get()

			router := mux.NewRouter()
			swagger.Register(ctx, router)
			api.NewServer(svc, api.WithBacktestRate(cfg.BacktestRatePerMin)).Register(ctx, router)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           router,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
				return err
			}
			log.Info(ctx, "server stopped")
			return nil
		},
	}
}
