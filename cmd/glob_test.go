// Copyright © 2024 The Quill authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/vendored.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"vendored.py"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.py",
		"build/output.py",
		"build/sub/deep.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/generated_foo.py",
		"src/generated_bar.py",
		"lib/utils.py",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.py", "lib/utils.py"}, result)
}

func TestFilterExcludes_DoubleStar(t *testing.T) {
	paths := []string{
		"src/main.py",
		"src/gen/a/b.py",
		"lib/gen.py",
	}
	result := filterExcludes(paths, []string{"src/gen/**"})
	assert.Equal(t, []string{"src/main.py", "lib/gen.py"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.py"}
	assert.Equal(t, paths, filterExcludes(paths, nil))
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("src/main.py", []string{"src/*.py"}))
	assert.False(t, matchesAny("lib/main.py", []string{"src/*.py"}))
	assert.True(t, matchesAny("deep/nested/vendored.py", []string{"vendored.py"}))
	assert.True(t, matchesAny("project/build/output.py", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.py", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c.py"}, splitPath("a/b/c.py"))
	assert.Equal(t, []string{"a", "b"}, splitPath("./a//b/"))
}

func TestExpandArgs_Directories(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"src/a.py", "src/pkg/b.py", "src/notes.txt", "src/.hidden/c.py", "src/build/d.py"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x = 1\n"), 0o644))
	}

	files, err := expandArgs(fs, []string{"src/..."}, []string{"build"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.py", "src/pkg/b.py"}, files)

	files, err = expandArgs(fs, []string{"src/pkg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/pkg/b.py"}, files)

	files, err = expandArgs(fs, []string{"src/notes.txt", "missing.py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/notes.txt", "missing.py"}, files, "plain paths pass through")
}

func TestExpandArgs_Glob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.py", "sub/b.py", "sub/deeper/c.py", "sub/d.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))
	}
	fs := afero.NewOsFs()

	files, err := expandArgs(fs, []string{filepath.Join(dir, "**", "*.py")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "sub", "b.py"),
		filepath.Join(dir, "sub", "deeper", "c.py"),
	}, files)

	files, err = expandArgs(fs, []string{filepath.Join(dir, "sub", "*.py")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "b.py")}, files)

	files, err = expandArgs(fs, []string{filepath.Join(dir, "**", "*.py")}, []string{"deeper"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
