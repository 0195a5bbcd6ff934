// Copyright © 2024 The Quill authors

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func load(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	v := viper.New()
	Init(v, "")
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Nil(t, cfg.Imports.Allow, "invalid-import is off by default")
	assert.Equal(t, 8, cfg.Snapshots.Retain)
	assert.Equal(t, 300*time.Millisecond, cfg.LSP.Debounce)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
	assert.Equal(t, "localhost:7878", cfg.Serve.Addr)
	assert.Len(t, cfg.Analyzers(), 8)
	assert.Nil(t, cfg.Query().AllowedImports)
}

func TestLoad(t *testing.T) {
	cfg, err := load(t, `
imports:
  allow: [os, os.path, json]
lint:
  disable: [unused-variable]
snapshots:
  retain: 3
lsp:
  debounce: 50ms
format:
  command: [black, "-q", "-"]
log:
  level: debug
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"os", "os.path", "json"}, cfg.Imports.Allow)
	assert.Equal(t, 3, cfg.Snapshots.Retain)
	assert.Equal(t, 50*time.Millisecond, cfg.LSP.Debounce)
	assert.Equal(t, []string{"black", "-q", "-"}, cfg.Format.Command)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())

	var names []string
	for _, a := range cfg.Analyzers() {
		names = append(names, a.Name)
	}
	assert.NotContains(t, names, "unused-variable")
	assert.Len(t, names, 7)
	assert.Len(t, cfg.ServiceOptions(), 2)
}

func TestEmptyAllowListRejectsEverything(t *testing.T) {
	cfg, err := load(t, "imports:\n  allow: []\n")
	require.NoError(t, err)
	assert.NotNil(t, cfg.Imports.Allow)
	assert.Empty(t, cfg.Imports.Allow)
}

func TestDisableEveryRule(t *testing.T) {
	cfg := &Config{Lint: Lint{Disable: []string{
		"syntax-error", "undefined-name", "arity-mismatch", "unused-variable",
		"redefinition", "invalid-import", "unknown-attribute", "invalid-operand",
	}}}
	analyzers := cfg.Analyzers()
	assert.NotNil(t, analyzers, "an empty rule set must not select the defaults")
	assert.Empty(t, analyzers)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("QUILL_LOG_LEVEL", "warn")
	t.Setenv("QUILL_SNAPSHOTS_RETAIN", "2")
	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel())
	assert.Equal(t, 2, cfg.Snapshots.Retain)
}

func TestValidate(t *testing.T) {
	_, err := load(t, `
imports:
  allow: [os, "not-a-module"]
lint:
  disable: [no-such-rule]
snapshots:
  retain: 0
log:
  level: loud
watch:
  interval: 0s
`)
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 5)
	assert.ErrorContains(t, err, `invalid module name "not-a-module"`)
	assert.ErrorContains(t, err, `unknown rule "no-such-rule"`)
	assert.ErrorContains(t, err, "snapshots.retain")
	assert.ErrorContains(t, err, "log.level")
	assert.ErrorContains(t, err, "watch.interval")
}
