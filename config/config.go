// Package config loads settings from an optional file, UTTT_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"uttt/meta"
	"uttt/options"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	LogLevel           string        `mapstructure:"log_level"`
	TargetRoundTime    time.Duration `mapstructure:"target_round_time"`
	SimulationsPerStep int           `mapstructure:"simulations_per_step"`
	ThinkingTime       time.Duration `mapstructure:"thinking_time"`
	Goroutines         int           `mapstructure:"goroutines"`
	Seed               uint64        `mapstructure:"seed"`
	Addr               string        `mapstructure:"addr"`
	MetricsDir         string        `mapstructure:"metrics_dir"`
	BoardSize          float64       `mapstructure:"board_size"`
	X                  string        `mapstructure:"x"`
	O                  string        `mapstructure:"o"`
}

// New returns a viper instance with every key defaulted and bound to its
// environment variable.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("target_round_time", meta.TargetRoundTime)
	v.SetDefault("simulations_per_step", meta.SimulationsPerStep)
	v.SetDefault("thinking_time", meta.ThinkingTime)
	v.SetDefault("goroutines", meta.GO_ROUTINES)
	v.SetDefault("seed", 0)
	v.SetDefault("addr", meta.Addr)
	v.SetDefault("metrics_dir", "")
	v.SetDefault("board_size", meta.BoardSize)
	v.SetDefault("x", "human")
	v.SetDefault("o", "ai")

	v.SetEnvPrefix("UTTT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, if given, and decodes the merged settings.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.TargetRoundTime <= 0:
		return fmt.Errorf("%w: target_round_time must be positive", ErrInvalid)
	case c.SimulationsPerStep <= 0:
		return fmt.Errorf("%w: simulations_per_step must be positive", ErrInvalid)
	case c.ThinkingTime < 0:
		return fmt.Errorf("%w: thinking_time must not be negative", ErrInvalid)
	case c.Goroutines <= 0:
		return fmt.Errorf("%w: goroutines must be positive", ErrInvalid)
	case c.BoardSize <= 0:
		return fmt.Errorf("%w: board_size must be positive", ErrInvalid)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return nil
}

func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Options is the worker's starting configuration. Which marks it plays is
// decided per game.
func (c *Config) Options() options.Options {
	o := options.Default()
	o.TargetRoundTime = c.TargetRoundTime
	o.SimulationsPerStep = c.SimulationsPerStep
	o.ThinkingTime = c.ThinkingTime
	return o
}
