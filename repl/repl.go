// Copyright © 2024 The Quill authors

// Package repl implements an interactive shell for exploring the analysis of
// a growing buffer of source.  Source lines are appended to the buffer and
// re-analyzed; lines starting with a colon are commands that query the
// latest snapshot.
package repl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ergochat/readline"
	"github.com/luthersystems/quill/diagnostic"
	"github.com/luthersystems/quill/service"
	"github.com/spf13/afero"
)

// DefaultURI names the buffer edited by the shell.
const DefaultURI = "<repl>"

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	fs      afero.Fs
	svc     *service.Service
	history string
	width   int
	color   diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{
		fs:      afero.NewOsFs(),
		history: historyPath(),
		width:   80,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.svc == nil {
		config.svc = service.New()
	}
	return config
}

// Option configures the shell.
type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithFs sets the filesystem read by :load.
func WithFs(fs afero.Fs) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithService sets the service analyzing the buffer.
func WithService(svc *service.Service) Option {
	return func(c *config) {
		c.svc = svc
	}
}

// WithHistoryFile sets the readline history file.  An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithWidth sets the column at which hover documentation is wrapped.
func WithWidth(width int) Option {
	return func(c *config) {
		c.width = width
	}
}

// WithColor sets the color mode of rendered diagnostics.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl runs the shell until its input is exhausted or :quit is entered.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	ctx := context.Background()
	sess, err := newSession(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer sess.close()

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{sess: sess},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	cont := continuationPrompt(prompt)
	for {
		if sess.pending() {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadSlice()
		if err == readline.ErrInterrupt {
			sess.discard()
			continue
		}
		if err != nil {
			// flush an unterminated block before leaving
			sess.feed(ctx, "")
			return nil
		}
		if sess.feed(ctx, string(bytes.TrimRight(line, "\r\n"))) {
			return nil
		}
	}
}

func continuationPrompt(prompt string) string {
	if len(prompt) < 4 {
		return "... "
	}
	return fmt.Sprintf("%*s ", len(prompt)-1, "...")
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".quill_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner, since it may hold pasted source.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
