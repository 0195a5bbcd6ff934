// Copyright © 2024 The Quill authors

package cmd

import (
	"fmt"
	"os"

	"github.com/luthersystems/quill/config"
	"github.com/luthersystems/quill/diagnostic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

var (
	cfgFile   string
	colorFlag string

	// settings and logger are set by loadSettings before any command runs.
	settings *config.Config
	logger   = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill: static analysis for Python-like source",
	Long: `Quill analyzes source files written in a small Python-like language.
It reports diagnostics, answers hover, definition and reference queries,
and computes safe renames. The same analysis is served to editors over
LSP and to other programs over a JSON API.

Getting started:
  quill lint file.py              Report problems in a file
  quill lint ./...                Lint every .py file below the current directory
  quill symbols file.py           Show the declarations of a file
  quill hover file.py 3 5         Describe the symbol at line 3, column 5
  quill rename file.py 3 5 total  Rename the symbol at line 3, column 5
  quill repl                      Explore the analysis interactively
  quill lsp                       Start the language server
  quill serve                     Start the JSON API
  quill watch src                 Re-lint files as they change

Positions are 1-based; columns count characters.

Configuration is read from $HOME/.quill.yaml (or --config) and from
QUILL_* environment variables, for example QUILL_LOG_LEVEL=debug.

Settings:
  imports.allow     modules that may be imported (unset: no check)
  lint.disable      rule ids to skip
  snapshots.retain  snapshots kept per document
  lsp.debounce      delay before re-analyzing an edited document
  format.command    external formatter used by the language server
  log.level         debug, info, warn or error
  serve.addr        listen address of quill serve
  watch.interval    minimum delay between re-lints of quill watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadSettings()
	},
}

// ExitError makes Execute exit with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	fmt.Fprintln(os.Stderr, "quill:", err)
	os.Exit(2)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quill.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
}

// loadSettings reads the config file and QUILL_* environment variables.
func loadSettings() error {
	v := viper.GetViper()
	config.Init(v, cfgFile)
	if cfgFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".quill")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Errorf("reading config: %w", err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return errors.Errorf("%s: %w", configName(v), err)
	}
	if _, err := diagnostic.ParseColorMode(colorFlag); err != nil {
		return err
	}
	settings = cfg
	logger = newLogger(cfg)
	logger.Debug().Str("config", v.ConfigFileUsed()).Msg("settings loaded")
	return nil
}

func configName(v *viper.Viper) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return "config"
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.LogLevel()).
		With().Timestamp().Logger()
}

// currentSettings returns the loaded settings, or the defaults when a
// command runs outside of the root command.
func currentSettings() *config.Config {
	if settings != nil {
		return settings
	}
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	if err != nil {
		panic(fmt.Sprintf("invalid default settings: %v", err))
	}
	return cfg
}
