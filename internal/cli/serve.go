package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/config"
	"github.com/tinoosan/microfin/internal/httpapi"
	"github.com/tinoosan/microfin/internal/logging"
	"github.com/tinoosan/microfin/internal/service/books"
	"github.com/tinoosan/microfin/internal/storage"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API on http.addr.

The record store is loaded from the configured storage backend (seeded on first
run) and every applied command is persisted back in the background. SIGINT or
SIGTERM drains in-flight requests and flushes the last snapshot before exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), f.configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("storage close error", "err", err)
		}
	}()
	if cfg.Storage.Backend == config.BackendMemory {
		logger.Warn("memory storage backend: records are lost on exit")
	}

	b, err := books.Open(ctx, books.Options{
		Store:    store,
		Key:      cfg.Storage.Key,
		Logger:   logger,
		Currency: cfg.Ledger.Currency,
	})
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	api := httpapi.New(b, tokens, logger, httpapi.Options{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Ready:       store.Ready,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("microfin listening", "addr", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
		if err := b.Close(shutdownCtx); err != nil {
			logger.Error("final snapshot not persisted", "err", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		return err
	}
	return nil
}
