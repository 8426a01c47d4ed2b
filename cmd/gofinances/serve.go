package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"gofinances/internal/cli"
	apphttp "gofinances/internal/http"
	applog "gofinances/internal/log"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, cmd.OutOrStdout())

			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()

			app, err := cli.Bootstrap(ctx, cfg, logger, cli.Options{WithAMQP: true})
			if err != nil {
				return err
			}
			defer app.Close()
			app.Caches.StartCleanup(cfg.CacheTTL)

			srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
				Transactions:   app.Transactions,
				Session:        app.Session,
				OAuthState:     cfg.OAuthState,
				Logger:         logger,
				RateLimitRPS:   cfg.RateLimitRPS,
				RateLimitBurst: cfg.RateLimitBurst,
			})

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting gofinances server", "port", cfg.Port, "backend", cfg.DataBackend)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			err = srv.Shutdown(shutdownCtx)
			logger.LogOp(shutdownCtx, applog.OpShutdown, err)
			return err
		},
	}
}
