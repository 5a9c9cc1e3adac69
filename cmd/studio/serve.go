package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"home-rugs-studio/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the studio HTTP API",
		Example: `  # Listen on WEB_ADDR (default :8080)
  studio serve

  # Listen on another address
  studio serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.WebAddr
			}

			st := a.session.CheckCredential(ctx)
			a.logger.Info("credential checked", "status", st.Status)

			handler := web.New(web.Options{
				Session:   a.session,
				Uploads:   a.uploads,
				Exporters: a.exporters,
				Logger:    a.logger,
			}).Handler()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      5 * time.Minute,
				IdleTimeout:       90 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				a.logger.Info("web started", "addr", addr, "storage", a.cfg.StorageBackend, "transport", a.cfg.GeminiTransport)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-serverErr:
				a.logger.Error("server error", "err", err)
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (overrides WEB_ADDR)")
	return cmd
}
