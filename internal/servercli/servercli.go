// Package servercli is the startup glue for cmd/vault-server: load
// configuration, assemble the object store, session manager, metrics,
// and vault server, then run with graceful shutdown.
package servercli

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/allisson/vault/internal/config"
	"github.com/allisson/vault/internal/session"
	"github.com/allisson/vault/internal/store"
	"github.com/allisson/vault/internal/vaultserver"
)

// Run loads the server configuration, builds the vault server, and
// serves until ctx is cancelled (SIGINT/SIGTERM) or the listener fails.
func Run(ctx context.Context) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting vault server", slog.String("storage_root", cfg.StorageRoot))

	gin.SetMode(cfg.GetGinMode())

	if err := os.MkdirAll(cfg.StorageRoot, 0o700); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}

	st := store.New(cfg.StorageRoot)
	sessions := session.NewManager(cfg.SessionTimeout)

	var metrics *vaultserver.Metrics
	if cfg.MetricsEnabled {
		metrics = vaultserver.NewMetrics(prometheus.DefaultRegisterer)
	}

	srv := vaultserver.NewServer(st, sessions, logger, metrics, "0.0.0.0", cfg.ListenPort, vaultserver.Options{
		CORSEnabled:      cfg.CORSEnabled,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	tlsConfig, err := loadTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("load TLS material: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(tlsConfig)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

func loadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cert},
	}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
