// Package main boots the NoVo avatar service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/novolabs/novo/internal/config"
	"github.com/novolabs/novo/internal/email"
	"github.com/novolabs/novo/internal/geo"
	"github.com/novolabs/novo/internal/models"
	"github.com/novolabs/novo/internal/server"
	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/tooling"
	"github.com/novolabs/novo/internal/weather"
	"github.com/novolabs/novo/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "addr", cfg.Addr, "app_url", cfg.AppURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()
	slog.Info("storage ready", "driver", store.Driver())

	vision, err := models.NewVisionModel(ctx, cfg)
	if err != nil {
		slog.Warn("vision model unavailable", "error", err)
	}

	weatherClient := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherCacheTTL)
	geoClient := geo.NewClient()
	sender := email.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)
	wa := whatsapp.NewClient(cfg.GreenInstanceID, cfg.GreenToken)

	quiet := tooling.NewQuiet()
	camera := tooling.NewCamera()
	registry := tooling.NewRegistry()
	err = tooling.RegisterBuiltins(registry, tooling.Deps{
		Vision:   vision,
		Email:    sender,
		Weather:  weatherClient,
		Quiet:    quiet,
		Camera:   camera,
		Sessions: store.Sessions,
		Users:    store.Users,
	})
	if err != nil {
		log.Fatalf("failed to register tools: %v", err)
	}
	dispatcher := tooling.NewDispatcher(registry, tooling.NewPending(cfg.PendingTTL), quiet, camera)

	srv := server.New(cfg, store, dispatcher, vision, weatherClient, geoClient, sender, wa)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
