// Package config resolves runtime settings from the environment and an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDBPath   = "LIBRARY_DB_PATH"
	EnvLoanDays = "LIBRARY_LOAN_DAYS"
	EnvLogLevel = "LIBRARY_LOG_LEVEL"

	DefaultDBPath   = "library.db"
	DefaultLoanDays = 14
	DefaultLogLevel = "warn"
)

// Config holds the settings the shell needs to build a Ledger.
type Config struct {
	DBPath   string
	LoanDays int
	LogLevel slog.Level
}

// Load reads .env files (missing ones are ignored) and then the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DBPath:   DefaultDBPath,
		LoanDays: DefaultLoanDays,
	}

	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		cfg.DBPath = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvLoanDays)); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			return Config{}, fmt.Errorf("%s must be a positive integer, got %q", EnvLoanDays, v)
		}
		cfg.LoanDays = days
	}

	level, err := ParseLevel(os.Getenv(EnvLogLevel))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// ParseLevel maps debug/info/warn/error to a slog level. Empty means DefaultLogLevel.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}
