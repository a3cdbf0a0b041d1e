// Package config reads runtime settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the commands use. Not every command needs all
// of it: `list` ignores Port and JWTSecret, for example.
type Config struct {
	Port     int
	LogLevel slog.Level
	LogFile  string // TUI log destination; empty discards

	GitHubAPIURL  string
	GitHubToken   string
	GitHubPerPage int
	HTTPTimeout   time.Duration

	ConnectivityAddr    string
	ConnectivityTimeout time.Duration

	DBPath    string
	JWTSecret string // empty disables auth on the fetch endpoint
}

// Load reads a .env file if there is one, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		LogFile:          getEnv("GHUSERS_LOG_FILE", ""),
		GitHubAPIURL:     getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		ConnectivityAddr: getEnv("CONNECTIVITY_ADDR", "api.github.com:443"),
		DBPath:           getEnv("DB_PATH", "data/github-users.db"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
	}

	cfg.Port = getEnvInt("PORT", 8080, &errs)
	cfg.GitHubPerPage = getEnvInt("GITHUB_PER_PAGE", 30, &errs)
	cfg.HTTPTimeout = time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15, &errs)) * time.Second
	cfg.ConnectivityTimeout = time.Duration(getEnvInt("CONNECTIVITY_TIMEOUT_SECONDS", 3, &errs)) * time.Second

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", cfg.Port))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getEnvInt appends to errs instead of returning, so Load can report every
// bad variable at once.
func getEnvInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s=%q is not an integer", key, raw))
		return defaultValue
	}
	if value < 0 {
		*errs = append(*errs, fmt.Errorf("config: %s must not be negative", key))
		return defaultValue
	}
	return value
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL=%q: want debug, info, warn or error", s)
	}
	return level, nil
}
