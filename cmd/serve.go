package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidbz/chatstream/internal/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := buildContainer()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return container.Invoke(func(server *http.Server, up *upstreams, logger *zap.Logger) error {
				defer func() { _ = logger.Sync() }()

				errCh := make(chan error, 1)
				go func() {
					errCh <- server.Start()
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}
				return up.Close(shutdownCtx)
			})
		},
	}
}
