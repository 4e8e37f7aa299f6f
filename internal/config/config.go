package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	TestDataPath   string
	LimitsDataPath string
	DatabaseURL    string
	Port           string
	PercentScale   models.PercentScale
	ChartWidth     int
	ChartHeight    int
	LogLevel       log.Level

	NumParserWorkers int
	SessionTTL       time.Duration
}

func New() (*Config, error) {
	cfg := &Config{
		TestDataPath:   getEnv("TEST_DATA_PATH", "maytag_dashboard_data.csv"),
		LimitsDataPath: getEnv("LIMITS_DATA_PATH", "getangle_limits_summary.csv"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getEnv("API_PORT", "8080"),
		ChartWidth:     1024,
		ChartHeight:    512,

		NumParserWorkers: 4,
	}

	scale, ok := models.ParsePercentScale(os.Getenv("LIMITS_PERCENT_SCALE"))
	if !ok {
		return nil, fmt.Errorf("invalid value for LIMITS_PERCENT_SCALE: expected auto, fraction or percent, got '%s'", os.Getenv("LIMITS_PERCENT_SCALE"))
	}
	cfg.PercentScale = scale

	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid value for LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.ChartWidth, err = getEnvAsInt("CHART_WIDTH", cfg.ChartWidth)
	if err != nil {
		return nil, err
	}

	cfg.ChartHeight, err = getEnvAsInt("CHART_HEIGHT", cfg.ChartHeight)
	if err != nil {
		return nil, err
	}

	cfg.NumParserWorkers, err = getEnvAsInt("NUM_PARSER_WORKERS", cfg.NumParserWorkers)
	if err != nil {
		return nil, err
	}

	ttlMinutes, err := getEnvAsInt("SESSION_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(ttlMinutes) * time.Minute

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid value for API_PORT: expected an integer, got '%s'", cfg.Port)
	}

	return cfg, nil
}

// UseDatabase reports whether test records come from Postgres instead of the
// test-log CSV.
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}
