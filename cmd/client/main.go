package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"example.com/goban-client/internal/app"
	"example.com/goban-client/internal/config"
	"example.com/goban-client/internal/render"
	"example.com/goban-client/internal/syncclient"
)

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(2)
	}

	// stdout carries the board, logs go to stderr
	opts := &slog.HandlerOptions{Level: cfg.Log.Level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	log := slog.New(handler).With("env", cfg.Env)
	slog.SetDefault(log)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("could not load .env file", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{
		Renderer: render.NewText(os.Stdout, true),
		Input:    os.Stdin,
	})
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		switch {
		case errors.Is(err, syncclient.ErrConnectionLost):
			log.Error("connection lost", "err", err)
		case errors.Is(err, syncclient.ErrDesync):
			log.Error("out of sync with server", "err", err)
		default:
			log.Error("client stopped", "err", err)
		}
		os.Exit(1)
	}
}
