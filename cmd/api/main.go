// Command api serves the statement conversion HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/FACorreiaa/statement-converter/internal/domain/extract/handler"
	"github.com/FACorreiaa/statement-converter/pkg/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	servers := []*http.Server{newAPIServer(deps)}
	if cfg.Observability.MetricsEnabled {
		servers = append(servers, newMetricsServer(deps))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("server listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-errCh:
		logger.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("graceful shutdown failed", slog.String("addr", srv.Addr), slog.Any("error", shutdownErr))
		}
	}

	logger.Info("server stopped")
	return err
}

func newAPIServer(deps *Dependencies) *http.Server {
	mux := http.NewServeMux()
	deps.ConvertHandler.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Transaction-Count", "X-Job-ID"},
	})

	h := handler.Chain(mux,
		handler.RequestID,
		handler.Logger(deps.Logger),
		handler.Recovery(deps.Logger),
		c.Handler,
		handler.RateLimit(deps.Config.Server.RateLimitPerSecond, deps.Config.Server.RateLimitBurst),
	)

	return &http.Server{
		Addr:              deps.Config.Server.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      5 * time.Minute, // OCR runs inside the request
		IdleTimeout:       2 * time.Minute,
	}
}

func newMetricsServer(deps *Dependencies) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", deps.Config.Server.Host, deps.Config.Observability.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
