// Package config loads the crpt command's settings from an optional YAML
// file, a .env file and CRPT_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/adamwoolhether/crpt/documents"
	"github.com/adamwoolhether/crpt/throttle"
	"github.com/adamwoolhether/crpt/web"
)

// Config is the full command configuration.
type Config struct {
	API      API      `yaml:"api"`
	Throttle Throttle `yaml:"throttle"`
	Stub     Stub     `yaml:"stub"`
	Log      Log      `yaml:"log"`
}

// API configures the registry client.
type API struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	Signature string        `yaml:"signature"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Throttle configures the shared sliding window.
type Throttle struct {
	Capacity     int           `yaml:"capacity" validate:"gte=1"`
	Period       time.Duration `yaml:"period" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
}

// Window returns the throttle as a window config.
func (t Throttle) Window() throttle.Config {
	return throttle.Config{Capacity: t.Capacity, Period: t.Period}
}

// Stub configures the local registry.
type Stub struct {
	Addr   string        `yaml:"addr" validate:"required"`
	Period time.Duration `yaml:"period" validate:"gt=0"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Defaults returns the configuration used when nothing is set. Loading
// layers the file and environment over it, so an explicit zero is kept and
// then rejected by validation.
func Defaults() Config {
	return Config{
		API: API{
			BaseURL: documents.DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Throttle: Throttle{
			Capacity:     5,
			Period:       time.Second,
			PollInterval: throttle.DefaultPollInterval,
		},
		Stub: Stub{
			Addr:   ":8080",
			Period: time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks cfg against its validate tags.
func (cfg *Config) Validate() error {
	if err := web.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Logger builds a slog.Logger writing to w in the configured format.
func (l Log) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
}
