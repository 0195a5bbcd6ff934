// Copyright © 2024 The Quill authors

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/luthersystems/quill/lint"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type lintReport struct {
	paths []string
	diags []lint.Diagnostic
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.py")
	require.NoError(t, os.WriteFile(good, []byte("x = 1\nprint(x)\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))

	reports := make(chan lintReport, 16)
	w := &watcher{
		fs:      afero.NewOsFs(),
		linter:  &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		limiter: rate.NewLimiter(rate.Inf, 1),
		report: func(paths []string, diags []lint.Diagnostic) {
			reports <- lintReport{paths: paths, diags: diags}
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx, []string{dir}) }()

	// waitFor returns the first report satisfying ok.  A single write can
	// raise several events, so intermediate reports are skipped.
	waitFor := func(ok func(lintReport) bool) lintReport {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case r := <-reports:
				if ok(r) {
					return r
				}
			case <-deadline:
				t.Fatal("no matching lint report")
				return lintReport{}
			}
		}
	}

	initial := waitFor(func(lintReport) bool { return true })
	assert.Equal(t, []string{good}, initial.paths)
	assert.Empty(t, initial.diags)

	// Non-source files are ignored; a broken source file is re-linted.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("changed"), 0o600))
	require.NoError(t, os.WriteFile(good, []byte("print(y)\n"), 0o600))
	changed := waitFor(func(r lintReport) bool { return len(r.diags) > 0 })
	assert.Equal(t, []string{good}, changed.paths)
	assert.Equal(t, "undefined-name", changed.diags[0].Analyzer)

	// Files in new directories are picked up.
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	added := filepath.Join(sub, "added.py")
	require.NoError(t, os.WriteFile(added, []byte("z = 1\nprint(z)\n"), 0o600))
	waitFor(func(r lintReport) bool {
		return len(r.paths) == 1 && r.paths[0] == added
	})

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherWatched(t *testing.T) {
	w := &watcher{
		dirs:     []string{"src"},
		files:    map[string]bool{"other/main.py": true},
		excludes: []string{"build"},
	}
	assert.True(t, w.watched("src/a.py"))
	assert.True(t, w.watched("src/pkg/b.py"))
	assert.False(t, w.watched("src/a.txt"))
	assert.False(t, w.watched("src/build/c.py"))
	assert.False(t, w.watched("srcs/a.py"))
	assert.True(t, w.watched("other/main.py"))
	assert.False(t, w.watched("other/helper.py"))
}

func TestWatcherAddRoot(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"pkg/inner", ".git", "build"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	file := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o600))

	fsw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer fsw.Close() //nolint:errcheck

	w := &watcher{fs: afero.NewOsFs(), excludes: []string{"build"}, files: map[string]bool{}}
	require.NoError(t, w.addRoot(fsw, dir))
	require.NoError(t, w.addRoot(fsw, file))
	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "pkg"), filepath.Join(dir, "pkg", "inner")}, fsw.WatchList())
	assert.Equal(t, []string{dir}, w.dirs)
	assert.True(t, w.files[file])

	// The tree is read through the watcher's filesystem, not the disk.
	empty := &watcher{fs: afero.NewMemMapFs(), files: map[string]bool{}}
	assert.ErrorContains(t, empty.addRoot(fsw, dir), "watching "+dir)
}
