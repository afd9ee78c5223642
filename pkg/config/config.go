package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Health    HealthConfig
	Breaker   BreakerConfig
	LogLevel  string `validate:"oneof=debug info warn error"`
	StoreAddr string `validate:"required"`
}

type APIConfig struct {
	BaseURL        string        `validate:"required,url"`
	MaxAttempts    int           `validate:"min=1,max=10"`
	AttemptTimeout time.Duration `validate:"gt=0"`
	RetryDelay     time.Duration `validate:"gte=0"`
}

type HealthConfig struct {
	Timeout    time.Duration `validate:"gt=0"`
	RequireAll bool
}

// BreakerConfig is disabled while MaxFailures is 0.
type BreakerConfig struct {
	MaxFailures  int           `validate:"gte=0"`
	ResetTimeout time.Duration `validate:"gt=0"`
}

func (b BreakerConfig) Enabled() bool { return b.MaxFailures > 0 }

var validate = validator.New()

// Load reads a .env file when one exists, then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug(".env file not loaded, using environment variables", "error", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []string
	intVar := func(key string, def int) int {
		n, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not an integer", key))
		}
		return n
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		d, err := parseDuration(getEnv(key, def.String()))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}
	boolVar := func(key string, def bool) bool {
		b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(def)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not a boolean", key))
		}
		return b
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "http://localhost:3000"),
			MaxAttempts:    intVar("API_MAX_ATTEMPTS", 3),
			AttemptTimeout: durationVar("API_ATTEMPT_TIMEOUT", 10*time.Second),
			RetryDelay:     durationVar("API_RETRY_DELAY", time.Second),
		},
		Health: HealthConfig{
			Timeout:    durationVar("HEALTH_TIMEOUT", 2500*time.Millisecond),
			RequireAll: boolVar("HEALTH_REQUIRE_ALL", false),
		},
		Breaker: BreakerConfig{
			MaxFailures:  intVar("BREAKER_MAX_FAILURES", 0),
			ResetTimeout: durationVar("BREAKER_RESET_TIMEOUT", 30*time.Second),
		},
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StoreAddr: getEnv("JSONSTORE_ADDR", ":3000"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto slog levels.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration accepts Go durations ("1500ms", "2s") and bare numbers,
// which are read as milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
