package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"child-growth-go/internal/app"
	"child-growth-go/pkg/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(log logger.Logger) *cobra.Command {
	var (
		migrate         bool
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrate {
				if err := runMigrations(log); err != nil {
					return err
				}
			}
			return serve(log, shutdownTimeout)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")

	return cmd
}

func serve(log logger.Logger, shutdownTimeout time.Duration) error {
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		return fmt.Errorf("app init: %w", err)
	}

	srv := application.HTTPServer()
	log.Info("http: listening", "addr", srv.Addr)

	serverErrCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	var errs []error
	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			errs = append(errs, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		errs = append(errs, err)
	}

	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		log.Info("app: stopped")
	}
	return errors.Join(errs...)
}
