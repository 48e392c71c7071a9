package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"adgenius/internal/ad"
	"adgenius/internal/bot"
	"adgenius/internal/config"
	"adgenius/internal/gemini"
	"adgenius/internal/httpclient"
	"adgenius/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadBot()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	handler := bot.New(bot.Options{
		Messenger:  tg,
		Copy:       ad.NewCopyGenerator(ad.CopyOptions{Model: cfg.CopyModel, Temperature: cfg.CopyTemperature, Client: gem, Logger: logger}),
		Image:      ad.NewImageGenerator(ad.ImageOptions{Model: cfg.ImageModel, Client: gem, Logger: logger}),
		Timeout:    cfg.RequestTimeout,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("bot started", "username", tg.Username())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return handler.Sessions().Run(gctx, time.Minute)
	})

	g.Go(func() error {
		sem := make(chan struct{}, cfg.MaxConcurrent)
		for {
			select {
			case <-gctx.Done():
				logger.Info("shutting down")
				return nil
			case update, ok := <-updates:
				if !ok {
					logger.Info("updates channel closed")
					return errors.New("updates channel closed")
				}

				select {
				case sem <- struct{}{}:
				case <-gctx.Done():
					return nil
				}

				go func(update telegram.Update) {
					defer func() { <-sem }()

					// the cycle itself is bounded by the orchestrator timeout
					reqCtx, cancel := context.WithTimeout(gctx, cfg.RequestTimeout+30*time.Second)
					defer cancel()

					if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("handle update failed", "err", err)
					}
				}(update)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("bot stopped", "err", err)
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
