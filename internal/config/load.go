package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CRPT_"

// Load builds the configuration. path names an optional YAML file and
// may be empty. Variables from envFile (usually ".env") are loaded
// without replacing ones already set, then CRPT_* variables override the
// file. Fields set nowhere keep their defaults and the result is
// validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %q: %w", envFile, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides copies CRPT_SECTION_FIELD variables into cfg.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"API_BASE_URL":  &cfg.API.BaseURL,
		"API_SIGNATURE": &cfg.API.Signature,
		"STUB_ADDR":     &cfg.Stub.Addr,
		"LOG_LEVEL":     &cfg.Log.Level,
		"LOG_FORMAT":    &cfg.Log.Format,
	}
	for key, dst := range strs {
		if val, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = val
		}
	}

	durations := map[string]*time.Duration{
		"API_TIMEOUT":            &cfg.API.Timeout,
		"THROTTLE_PERIOD":        &cfg.Throttle.Period,
		"THROTTLE_POLL_INTERVAL": &cfg.Throttle.PollInterval,
		"STUB_PERIOD":            &cfg.Stub.Period,
	}
	for key, dst := range durations {
		val, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if val, ok := os.LookupEnv(EnvPrefix + "THROTTLE_CAPACITY"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%sTHROTTLE_CAPACITY: %w", EnvPrefix, err)
		}
		cfg.Throttle.Capacity = n
	}

	return nil
}
