// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

// Package config loads the command line configuration from a YAML file, a
// .env file and CONDGRANGER_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Conditional_Granger_Causality_Project/internal/causality"
	"Conditional_Granger_Causality_Project/internal/regression"
)

var validate = validator.New()

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Output   OutputConfig   `yaml:"output"`
}

// AnalysisConfig holds the causality pipeline parameters
type AnalysisConfig struct {
	MaxLag    int    `yaml:"max_lag" validate:"gte=1"`
	Criterion string `yaml:"criterion" validate:"oneof=aic bic"`
	// 0 means one worker per CPU
	Workers int `yaml:"workers" validate:"gte=0"`
}

// StoreConfig selects where runs are persisted
type StoreConfig struct {
	Kind string `yaml:"kind" validate:"oneof=memory sqlite"`
	Path string `yaml:"path" validate:"required_if=Kind sqlite"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// OutputConfig holds optional export paths
type OutputConfig struct {
	DOT   string `yaml:"dot"`
	CSV   string `yaml:"csv"`
	Noise string `yaml:"noise"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{MaxLag: 1, Criterion: "bic"},
		Store:    StoreConfig{Kind: "memory"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (optional), then envFile (optional, ".env" when empty and
// present), then the environment, and validates the result.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", causality.ErrConfig, path, err)
		}
	}

	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks every field.
func (c *Config) Validate() error {
	c.Analysis.Criterion = strings.ToLower(strings.TrimSpace(c.Analysis.Criterion))
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Store.Kind == "" {
		c.Store.Kind = "memory"
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", causality.ErrConfig, err)
	}
	return nil
}

// Options converts the analysis section into pipeline options.
func (c *Config) Options(logger *slog.Logger) (causality.Options, error) {
	criterion, err := regression.ParseCriterion(c.Analysis.Criterion)
	if err != nil {
		return causality.Options{}, fmt.Errorf("%w: %v", causality.ErrConfig, err)
	}
	return causality.Options{
		MaxLag:    c.Analysis.MaxLag,
		Criterion: criterion,
		Workers:   c.Analysis.Workers,
		Logger:    logger,
	}, nil
}

// Logger builds the slog logger described by the log section.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadDotEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.Analysis.MaxLag, err = getEnvIntOrDefault("CONDGRANGER_MAX_LAG", cfg.Analysis.MaxLag); err != nil {
		return err
	}
	if cfg.Analysis.Workers, err = getEnvIntOrDefault("CONDGRANGER_WORKERS", cfg.Analysis.Workers); err != nil {
		return err
	}
	cfg.Analysis.Criterion = getEnvOrDefault("CONDGRANGER_CRITERION", cfg.Analysis.Criterion)
	cfg.Store.Kind = getEnvOrDefault("CONDGRANGER_STORE", cfg.Store.Kind)
	cfg.Store.Path = getEnvOrDefault("CONDGRANGER_DB", cfg.Store.Path)
	cfg.Log.Level = getEnvOrDefault("CONDGRANGER_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("CONDGRANGER_LOG_FORMAT", cfg.Log.Format)
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", causality.ErrConfig, key, value)
	}
	return n, nil
}
