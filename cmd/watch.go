// Copyright © 2024 The Quill authors

package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/luthersystems/quill/diagnostic"
	"github.com/luthersystems/quill/lint"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// WatchCommand creates the "watch" cobra command.
func WatchCommand(opts ...Option) *cobra.Command {
	var excludes []string

	cmd := &cobra.Command{
		Use:   "watch [flags] [paths...]",
		Short: "Re-lint source files as they change",
		Long: `Lint the given files and directories, then re-lint each file when it
is written until interrupted. Directories are watched recursively and
default to the current directory.

Re-lints happen at most once per watch.interval; changes made in the
meantime are batched.

Example:
  quill watch src --exclude build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newCmdConfig(opts)
			if len(args) == 0 {
				args = []string{"."}
			}
			qc := cfg.queryConfig()
			w := &watcher{
				fs: cfg.fs,
				linter: &lint.Linter{
					Analyzers:      qc.Analyzers,
					AllowedImports: qc.AllowedImports,
					Globals:        qc.Globals,
				},
				limiter:  rate.NewLimiter(rate.Every(currentSettings().Watch.Interval), 1),
				excludes: excludes,
				report:   renderReport(cmd.ErrOrStderr(), newRenderer(cfg.fs, nil)),
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := w.run(ctx, args)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	cmd.SilenceUsage = true
	return cmd
}

// watcher lints a set of files and re-lints the ones that change.
type watcher struct {
	fs       afero.Fs
	linter   *lint.Linter
	limiter  *rate.Limiter
	excludes []string
	report   func(paths []string, diags []lint.Diagnostic)

	mu      sync.Mutex
	dirs    []string
	files   map[string]bool // explicitly named files
	pending map[string]bool
	wake    chan struct{}
}

func (w *watcher) run(ctx context.Context, roots []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("starting watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck

	w.files = map[string]bool{}
	w.pending = map[string]bool{}
	w.wake = make(chan struct{}, 1)
	for _, root := range roots {
		if err := w.addRoot(fsw, filepath.Clean(root)); err != nil {
			return err
		}
	}

	initial, err := expandArgs(w.fs, roots, w.excludes)
	if err != nil {
		return err
	}
	if err := w.lint(ctx, initial); err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return w.watchEvents(egctx, fsw) })
	eg.Go(func() error { return w.lintLoop(egctx) })
	return eg.Wait()
}

func (w *watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	info, err := w.fs.Stat(root)
	if err != nil {
		return errors.Errorf("watching %s: %w", root, err)
	}
	if !info.IsDir() {
		w.files[root] = true
		return fsw.Add(filepath.Dir(root))
	}
	w.dirs = append(w.dirs, root)
	return w.watchRecursive(fsw, root)
}

// watchRecursive adds root and the directories below it to fsw.  The
// directory tree is read through w.fs.
func (w *watcher) watchRecursive(fsw *fsnotify.Watcher, root string) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(info.Name(), ".") || matchesAny(path, w.excludes)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// watched reports whether a change to path triggers a re-lint.
func (w *watcher) watched(path string) bool {
	if w.files[path] {
		return true
	}
	if filepath.Ext(path) != SourceExt || matchesAny(path, w.excludes) {
		return false
	}
	for _, dir := range w.dirs {
		if dir == "." || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) watchEvents(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Has(fsnotify.Create) {
				if info, err := w.fs.Stat(path); err == nil && info.IsDir() {
					if !matchesAny(path, w.excludes) {
						if err := w.watchRecursive(fsw, path); err != nil {
							logger.Warn().Err(err).Str("dir", path).Msg("cannot watch new directory")
						}
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if w.watched(path) {
				w.schedule(path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *watcher) schedule(path string) {
	w.mu.Lock()
	w.pending[path] = true
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// lintLoop re-lints pending files, no more often than the limiter allows.
func (w *watcher) lintLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.wake:
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		w.mu.Lock()
		var paths []string
		for path := range w.pending {
			if _, err := w.fs.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
		w.pending = map[string]bool{}
		w.mu.Unlock()
		if len(paths) == 0 {
			continue
		}
		sort.Strings(paths)
		if err := w.lint(ctx, paths); err != nil {
			logger.Warn().Err(err).Msg("re-lint failed")
		}
	}
}

func (w *watcher) lint(ctx context.Context, paths []string) error {
	diags, err := lintFiles(ctx, w.fs, w.linter, paths)
	if err != nil {
		return err
	}
	w.report(paths, diags)
	return nil
}

// renderReport returns a report function rendering diagnostics to out.
func renderReport(out io.Writer, r *diagnostic.Renderer) func([]string, []lint.Diagnostic) {
	return func(paths []string, diags []lint.Diagnostic) {
		if err := renderLintDiagnostics(out, r, diags); err != nil {
			logger.Warn().Err(err).Msg("rendering diagnostics")
		}
		logger.Info().Int("files", len(paths)).Int("problems", len(diags)).Msg("linted")
	}
}

func init() {
	rootCmd.AddCommand(WatchCommand())
}
