package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                ":8080",
		DBPath:              "test.db",
		LogLevel:            "INFO",
		DefaultRuleSet:      "sm2",
		DailyNewCardCap:     20,
		MasteryIntervalDays: 90,
		NewCardRatio:        4,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_UnknownRuleSet(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultRuleSet = "sm18"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RULE_SET")
}

func TestValidate_NegativeNewCardCap(t *testing.T) {
	cfg := validConfig()
	cfg.DailyNewCardCap = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAILY_NEW_CARD_CAP")
}

func TestValidate_ZeroMasteryInterval(t *testing.T) {
	cfg := validConfig()
	cfg.MasteryIntervalDays = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MASTERY_INTERVAL_DAYS")
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ADDR", "DB_PATH", "LOG_LEVEL", "RULE_SET", "DAILY_NEW_CARD_CAP", "MASTERY_INTERVAL_DAYS", "NEW_CARD_RATIO", "SESSION_CARD_LIMIT"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sm2", cfg.DefaultRuleSet)
	assert.Equal(t, 20, cfg.DailyNewCardCap)
	assert.Equal(t, 90, cfg.MasteryIntervalDays)
	assert.Equal(t, 4, cfg.NewCardRatio)
	assert.Equal(t, 0, cfg.SessionCardLimit)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RULE_SET", "leitner")
	t.Setenv("DAILY_NEW_CARD_CAP", "5")
	t.Setenv("NEW_CARD_RATIO", "3")

	cfg := config.Load()

	assert.Equal(t, "leitner", cfg.DefaultRuleSet)
	assert.Equal(t, 5, cfg.DailyNewCardCap)
	assert.Equal(t, 3, cfg.NewCardRatio)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DAILY_NEW_CARD_CAP", "lots")

	cfg := config.Load()

	assert.Equal(t, 20, cfg.DailyNewCardCap)
}
