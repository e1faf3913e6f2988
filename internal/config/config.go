// Package config loads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs to start.
type Config struct {
	TCPAddr  string // line-protocol listener
	HTTPAddr string // healthz, websocket, metrics
	LogLevel string

	// Time control handed to every new match clock.
	InitialTime time.Duration
	BonusTime   time.Duration
}

// Load reads .env if present, then the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := Config{
		TCPAddr:     getenv("REVERSI_TCP_ADDR", ":5000"),
		HTTPAddr:    getenv("REVERSI_HTTP_ADDR", ":8080"),
		LogLevel:    getenv("REVERSI_LOG_LEVEL", "info"),
		InitialTime: 5 * time.Minute,
		BonusTime:   3 * time.Second,
	}

	var err error
	if cfg.InitialTime, err = getDuration("REVERSI_INITIAL_TIME", cfg.InitialTime); err != nil {
		return Config{}, err
	}
	if cfg.BonusTime, err = getDuration("REVERSI_BONUS_TIME", cfg.BonusTime); err != nil {
		return Config{}, err
	}
	if cfg.InitialTime <= 0 {
		return Config{}, fmt.Errorf("REVERSI_INITIAL_TIME must be positive, got %s", cfg.InitialTime)
	}
	if cfg.BonusTime < 0 {
		return Config{}, fmt.Errorf("REVERSI_BONUS_TIME must not be negative, got %s", cfg.BonusTime)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
