package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"adgenius/internal/ad"
	"adgenius/internal/campaign"
	"adgenius/internal/config"
	"adgenius/internal/gemini"
	"adgenius/internal/httpclient"
	"adgenius/internal/session"
	"adgenius/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	copyGen := ad.NewCopyGenerator(ad.CopyOptions{
		Model:       cfg.CopyModel,
		Temperature: cfg.CopyTemperature,
		Client:      gem,
		Logger:      logger,
	})
	imageGen := ad.NewImageGenerator(ad.ImageOptions{Model: cfg.ImageModel, Client: gem, Logger: logger})

	sessions := session.NewStore(session.Options{
		TTL:         cfg.SessionTTL,
		NewCampaign: func(id string) *campaign.Orchestrator {
			return campaign.New(campaign.Options{
				Copy:    copyGen,
				Image:   imageGen,
				Timeout: cfg.RequestTimeout,
				Logger:  logger.With("session", id),
			})
		},
	})

	s, err := web.New(web.Options{
		Sessions:     sessions,
		Logger:       logger,
		SecureCookie: cfg.SecureCookie,
	})
	if err != nil {
		logger.Error("web init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web started", "addr", cfg.WebAddr, "copy_model", cfg.CopyModel, "image_model", cfg.ImageModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
