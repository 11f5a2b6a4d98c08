package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/flashforge/flashforge/internal/models"
)

type Config struct {
	Addr                string
	DBPath              string
	LogLevel            string
	DefaultRuleSet      string
	DailyNewCardCap     int
	MasteryIntervalDays int
	NewCardRatio        int
	SessionCardLimit    int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:flashforge.db"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		DefaultRuleSet:      envOr("RULE_SET", string(models.RuleSetSM2)),
		DailyNewCardCap:     envIntOr("DAILY_NEW_CARD_CAP", 20),
		MasteryIntervalDays: envIntOr("MASTERY_INTERVAL_DAYS", 90),
		NewCardRatio:        envIntOr("NEW_CARD_RATIO", 4),
		SessionCardLimit:    envIntOr("SESSION_CARD_LIMIT", 0),
	}
}

// Validate checks that the loaded configuration is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if !models.RuleSet(c.DefaultRuleSet).Valid() {
		return fmt.Errorf("RULE_SET must be %q or %q, got %q", models.RuleSetSM2, models.RuleSetLeitner, c.DefaultRuleSet)
	}
	if c.DailyNewCardCap < 0 {
		return fmt.Errorf("DAILY_NEW_CARD_CAP cannot be negative")
	}
	if c.MasteryIntervalDays <= 0 {
		return fmt.Errorf("MASTERY_INTERVAL_DAYS must be positive")
	}
	if c.NewCardRatio <= 0 {
		return fmt.Errorf("NEW_CARD_RATIO must be positive")
	}
	if c.SessionCardLimit < 0 {
		return fmt.Errorf("SESSION_CARD_LIMIT cannot be negative")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
