package ecs

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrorPolicy decides what a runner does when an update fails.
type ErrorPolicy string

const (
	// StopOnError ends the run loop and returns the error.
	StopOnError ErrorPolicy = "stop"
	// ContinueOnError logs the error and keeps ticking.
	ContinueOnError ErrorPolicy = "continue"
)

// Config holds the tunables of an App.
type Config struct {
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
	LogLevel     string        `json:"log_level" yaml:"log_level"`
	ErrorPolicy  ErrorPolicy   `json:"error_policy" yaml:"error_policy"`
	// MaxTicks stops looping runners after that many updates; 0 means no limit.
	MaxTicks uint64 `json:"max_ticks,omitempty" yaml:"max_ticks,omitempty"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second / 60,
		LogLevel:     "info",
		ErrorPolicy:  StopOnError,
	}
}

// LoadConfig reads a YAML config. Missing keys keep their default values.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config for unusable values.
func (c Config) Validate() error {
	switch c.ErrorPolicy {
	case StopOnError, ContinueOnError:
	default:
		return fmt.Errorf("%q: %w", c.ErrorPolicy, ErrUnknownPolicy)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick_interval must not be negative, got %s", c.TickInterval)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// NewLogger builds a JSON logger writing to stderr at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}
