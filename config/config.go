// Copyright © 2024 The Quill authors

// Package config loads quill settings from a config file, QUILL_*
// environment variables and command line flags through viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/parser/lexer"
	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes the environment variables read by Init, as in
// QUILL_LOG_LEVEL.
const EnvPrefix = "QUILL"

// Config holds every setting.
type Config struct {
	Imports   Imports   `mapstructure:"imports"`
	Lint      Lint      `mapstructure:"lint"`
	Snapshots Snapshots `mapstructure:"snapshots"`
	LSP       LSP       `mapstructure:"lsp"`
	Format    Format    `mapstructure:"format"`
	Log       Log       `mapstructure:"log"`
	Serve     Serve     `mapstructure:"serve"`
	Watch     Watch     `mapstructure:"watch"`
}

type Imports struct {
	// Allow is the invalid-import allow-list.  Nil leaves the rule off; an
	// empty list rejects every import.
	Allow []string `mapstructure:"allow"`
}

type Lint struct {
	Disable []string `mapstructure:"disable"`
}

type Snapshots struct {
	Retain int `mapstructure:"retain"`
}

type LSP struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Format struct {
	// Command is the external formatter.  It reads the document on stdin
	// and writes the formatted text to stdout.
	Command []string `mapstructure:"command"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Serve struct {
	Addr string `mapstructure:"addr"`
}

type Watch struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("snapshots.retain", service.DefaultRetention)
	v.SetDefault("lsp.debounce", 300*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("serve.addr", "localhost:7878")
	v.SetDefault("watch.interval", 250*time.Millisecond)
}

// Init prepares v to read the config file (when file is not empty) and the
// QUILL_* environment.
func Init(v *viper.Viper, file string) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// keys without a default are only read from the environment once bound
	for _, key := range []string{"imports.allow", "lint.disable", "format.command"} {
		_ = v.BindEnv(key)
	}
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if v.IsSet("imports.allow") && cfg.Imports.Allow == nil {
		cfg.Imports.Allow = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	for _, name := range c.Imports.Allow {
		if !isModuleName(name) {
			err = multierr.Append(err, fmt.Errorf("imports.allow: invalid module name %q", name))
		}
	}
	known := lint.AnalyzerNames()
	for _, name := range c.Lint.Disable {
		if !slices.Contains(known, name) {
			err = multierr.Append(err, fmt.Errorf("lint.disable: unknown rule %q", name))
		}
	}
	if c.Snapshots.Retain < 1 {
		err = multierr.Append(err, fmt.Errorf("snapshots.retain: must be at least 1, got %d", c.Snapshots.Retain))
	}
	if c.LSP.Debounce < 0 {
		err = multierr.Append(err, fmt.Errorf("lsp.debounce: must not be negative"))
	}
	if len(c.Format.Command) > 0 && strings.TrimSpace(c.Format.Command[0]) == "" {
		err = multierr.Append(err, fmt.Errorf("format.command: empty program name"))
	}
	if _, lerr := zerolog.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}
	if c.Serve.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("serve.addr: must not be empty"))
	}
	if c.Watch.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("watch.interval: must be positive"))
	}
	return err
}

func isModuleName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !lexer.IsIdentifier(part) {
			return false
		}
	}
	return true
}

// Analyzers returns the default rules minus the disabled ones.
func (c *Config) Analyzers() []*lint.Analyzer {
	analyzers := lint.Without(lint.DefaultAnalyzers(), c.Lint.Disable)
	if analyzers == nil {
		return []*lint.Analyzer{}
	}
	return analyzers
}

// Query returns the analysis configuration.
func (c *Config) Query() query.Config {
	return query.Config{
		Analyzers:      c.Analyzers(),
		AllowedImports: c.Imports.Allow,
	}
}

// ServiceOptions returns the service options implied by the settings.
func (c *Config) ServiceOptions() []service.Option {
	return []service.Option{
		service.WithConfig(c.Query()),
		service.WithRetention(c.Snapshots.Retain),
	}
}

// LogLevel returns the parsed log level, info if it is invalid.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
