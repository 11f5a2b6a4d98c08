package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashforge/flashforge/internal/api"
	"github.com/flashforge/flashforge/internal/config"
	"github.com/flashforge/flashforge/internal/db"
	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository/sqlite"
	"github.com/flashforge/flashforge/internal/services"
	"github.com/flashforge/flashforge/internal/stats"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("FlashForge Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("default_rule_set=%s", cfg.DefaultRuleSet)
	log.Debug("daily_new_card_cap=%d", cfg.DailyNewCardCap)
	log.Debug("mastery_interval_days=%d", cfg.MasteryIntervalDays)
	log.Debug("new_card_ratio=%d", cfg.NewCardRatio)
	log.Debug("session_card_limit=%d", cfg.SessionCardLimit)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize repositories
	decks := sqlite.NewDeckRepository(database.DB)
	cards := sqlite.NewCardRepository(database.DB)
	reviews := sqlite.NewReviewStateStore(database.DB)
	results := sqlite.NewResultRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)

	// Initialize services
	aggregator := stats.NewAggregator(statsRepo)

	srv := api.NewServer(
		services.NewDeckService(decks, cards, reviews, models.RuleSet(cfg.DefaultRuleSet)),
		services.NewStudyService(decks, cards, reviews, results, aggregator, &cfg),
		services.NewStatsService(aggregator),
	)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("FlashForge Server Stopped")
	log.Info("===========================================")
}
