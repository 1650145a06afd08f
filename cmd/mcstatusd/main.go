// Command mcstatusd serves the HTTP status API: wires configuration,
// logging, the resolver, and the ping orchestrator together and runs
// the server until an interrupt, shutting down gracefully.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dring/mcstatus/internal/config"
	"github.com/dring/mcstatus/internal/httpapi"
	"github.com/dring/mcstatus/internal/mcping"
	"github.com/dring/mcstatus/internal/resolver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	res := resolver.New(
		resolver.WithLogger(logger),
		resolver.WithCacheSize(cfg.ResolverCacheSize),
	)
	pinger := mcping.New(res)
	timeouts := httpapi.Timeouts{
		JavaOuterDeadline:    cfg.JavaOuterDeadline,
		JavaSocketTimeout:    cfg.JavaSocketTimeout,
		BedrockSocketTimeout: cfg.BedrockSocketTimeout,
		BedrockTries:         cfg.BedrockTries,
	}
	api := httpapi.New(pinger, logger, timeouts)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar().Infow("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	logger.Sugar().Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
