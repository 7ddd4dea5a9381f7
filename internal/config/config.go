// Package config handles loading, defaulting, and validation of the fcdrd
// TOML configuration file. Every section maps to a typed struct so the rest
// of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Server  ServerConfig  `toml:"server"  json:"server"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Granule GranuleConfig `toml:"granule" json:"granule"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

type LoggingConfig struct {
	Level  string `toml:"level"  json:"level"`
	Format string `toml:"format" json:"format"`
}

// GranuleConfig shapes the synthetic granule the daemon computes correlation
// matrices against when no reader-supplied granule is wired in.
type GranuleConfig struct {
	Scanlines      int    `toml:"scanlines"       json:"scanlines"`
	CalibEvery     int    `toml:"calib_every"     json:"calib_every"`
	TLELine1       string `toml:"tle_line1"       json:"tle_line1"`
	TLELine2       string `toml:"tle_line2"       json:"tle_line2"`
	StartTimestamp string `toml:"start_timestamp" json:"start_timestamp"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1:8159",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Granule: GranuleConfig{
			Scanlines:  120,
			CalibEvery: 40,
		},
	}
}

// Load reads the TOML file at path, overlaying it on the defaults. A missing
// file is not an error: the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	if c.Granule.Scanlines <= 0 {
		return errors.New("granule.scanlines must be positive")
	}
	if c.Granule.CalibEvery <= 0 {
		return errors.New("granule.calib_every must be positive")
	}
	return nil
}
