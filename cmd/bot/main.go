package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/conversation"
	"github.com/dvloznov/telegrana/internal/conversation/inmemory"
	"github.com/dvloznov/telegrana/internal/infra"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/dvloznov/telegrana/internal/oracle"
	"github.com/dvloznov/telegrana/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatal().Err(err).Msg("Telegram is not configured")
	}
	if err := cfg.RequireGemini(); err != nil {
		log.Fatal().Err(err).Msg("Gemini is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	store, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	svc, err := infra.NewLedger(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	backend, err := oracle.NewGeminiBackend(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	engine := conversation.NewEngine(svc, oracle.New(backend, cfg.Gemini.Models), inmemory.NewStore())

	bot, err := telegram.New(cfg.Telegram, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start Telegram bot")
	}

	log.Info().
		Int64("allowed_user_id", cfg.Telegram.AllowedUserID).
		Strs("models", cfg.Gemini.Models).
		Msg("Ledger assistant ready")

	if err := bot.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Telegram bot stopped with error")
	}
}
