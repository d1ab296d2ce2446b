// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Atelier
// commission service.
//
// Configuration is loaded from a single YAML file specified by:
//   - the ATELIER_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// The only expansion performed is ${HOME} and similar variables in
// paths, for portability. The bot account password is deliberately
// not part of the file; it comes from ATELIER_BOT_PASSWORD.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atelier-foundation/atelier/lib/ref"
)

// Config is the master configuration for the commission service.
type Config struct {
	// Homeserver is the base URL of the Matrix homeserver the bot
	// connects to (e.g., "http://localhost:6167").
	Homeserver string `yaml:"homeserver"`

	// BotUsername is the localpart the bot logs in as.
	BotUsername string `yaml:"bot_username"`

	// Operator is the fully-qualified principal allowed to run
	// privileged commands (artist approval). Exactly one; there are
	// no further authorization tiers.
	Operator string `yaml:"operator"`

	// StateDir is the directory holding the entity-store snapshots
	// (users.cbor, artists.cbor, orders.cbor).
	StateDir string `yaml:"state_dir"`

	// SessionTTL is how long an idle conversation session survives
	// before the janitor clears it. Zero means sessions never expire.
	SessionTTL Duration `yaml:"session_ttl"`

	// Price configures the range the provider-assigned price label is
	// drawn from when an artist registers.
	Price PriceConfig `yaml:"price"`
}

// PriceConfig bounds the randomly assigned artist price label.
type PriceConfig struct {
	Min      int    `yaml:"min"`
	Max      int    `yaml:"max"`
	Currency string `yaml:"currency"`
}

// Duration wraps time.Duration with YAML decoding from strings like
// "30m" or "1h30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" || raw == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration. These defaults exist to
// give all fields sensible zero-values before the file is loaded; the
// config file itself is required.
func Default() *Config {
	return &Config{
		Homeserver: "http://localhost:6167",
		StateDir:   "${HOME}/.local/state/atelier",
		Price: PriceConfig{
			Min:      15,
			Max:      50,
			Currency: "USD",
		},
	}
}

// Load loads configuration from the ATELIER_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this
// fails.
func Load() (*Config, error) {
	path := os.Getenv("ATELIER_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("ATELIER_CONFIG environment variable not set; " +
			"set it to the path of your atelier.yaml config file, or use the --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults and expanding path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.StateDir = expandVars(cfg.StateDir)
	return cfg, nil
}

// OperatorID returns the parsed operator principal. Valid only after
// a successful Validate.
func (c *Config) OperatorID() ref.PrincipalID {
	parsed, _ := ref.ParsePrincipalID(c.Operator)
	return parsed
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Homeserver == "" {
		errs = append(errs, fmt.Errorf("homeserver is required"))
	} else if _, err := url.Parse(c.Homeserver); err != nil {
		errs = append(errs, fmt.Errorf("invalid homeserver URL %q: %w", c.Homeserver, err))
	}

	if c.BotUsername == "" {
		errs = append(errs, fmt.Errorf("bot_username is required"))
	}

	if c.Operator == "" {
		errs = append(errs, fmt.Errorf("operator is required"))
	} else if _, err := ref.ParsePrincipalID(c.Operator); err != nil {
		errs = append(errs, fmt.Errorf("invalid operator: %w", err))
	}

	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("state_dir is required"))
	}

	if c.Price.Min <= 0 || c.Price.Max < c.Price.Min {
		errs = append(errs, fmt.Errorf("price range %d..%d is invalid", c.Price.Min, c.Price.Max))
	}
	if c.Price.Currency == "" {
		errs = append(errs, fmt.Errorf("price.currency is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureStateDir creates the state directory if it does not exist.
func (c *Config) EnsureStateDir() error {
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.StateDir, err)
	}
	return nil
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
