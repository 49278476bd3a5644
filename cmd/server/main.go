package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ecfr-dashboard/internal/api"
	"ecfr-dashboard/internal/config"
	"ecfr-dashboard/internal/dashboard"
	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/logging"
	"ecfr-dashboard/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run configures the HTTP server, routes, and shared dependencies, then
// serves until SIGINT or SIGTERM.
func run() error {
	cfg, err := config.Load(os.Getenv("ECFRDASH_CONFIG"))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := ecfr.NewClient(cfg.BaseURL, cfg.Fetch.Timeout, ecfr.WithRateLimit(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst))
	loader := dashboard.NewLoader(cli, nil, nil)

	var journal *store.Store
	opts := []dashboard.Option{dashboard.WithLogger(logger.Named("dashboard"))}
	if cfg.Journal.Enabled {
		journal, err = store.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, dashboard.WithJournal(journal))
		logger.Info("journal enabled", zap.String("path", cfg.Journal.Path))
	}

	dash := dashboard.New(loader, cfg.DefaultTitle, opts...)
	defer dash.Close()

	// Prime the dashboard with the default selection; failures only leave
	// the charts empty.
	if _, err := dash.Select(ctx, dashboard.Selection{}); err != nil {
		logger.Warn("initial selection failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.New(loader, dash, journal, logger.Named("http")).Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
