package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/telegrana/internal/api/handlers"
	"github.com/dvloznov/telegrana/internal/config"
	"github.com/dvloznov/telegrana/internal/conversation"
	"github.com/dvloznov/telegrana/internal/conversation/inmemory"
	"github.com/dvloznov/telegrana/internal/infra"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/dvloznov/telegrana/internal/oracle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	port := flag.String("port", cfg.HTTP.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	log := logger.NewWithLevel(cfg.Log.Level)
	if err := cfg.RequireGemini(); err != nil {
		log.Fatal().Err(err).Msg("Gemini is not configured")
	}
	if cfg.HTTP.APIKey == "" {
		log.Warn().Msg("No API_KEY configured - the API is open to anyone who can reach it")
	}

	ctx := logger.WithContext(context.Background(), log)

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

	handler := handlers.NewRouter(
		handlers.NewMessagesHandler(engine, log),
		handlers.NewRecordsHandler(svc, log),
		cfg.HTTP.APIKey,
		log,
	)

	// Oracle calls can take a while, so the write timeout is generous.
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
