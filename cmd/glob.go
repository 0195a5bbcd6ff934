// Copyright © 2024 The Quill authors

package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// SourceExt is the extension of the files found by directory expansion.
const SourceExt = ".py"

// expandArgs resolves command line paths to source files.  A path ending
// in "/..." or naming a directory expands to every source file below it.
// A path holding glob metacharacters is matched with doublestar syntax
// ("src/**/*.py").  Other paths pass through unchanged.  Files matching an
// exclude pattern are dropped.
func expandArgs(fs afero.Fs, args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findSourceFiles(fs, dir, excludes)
			if err != nil {
				return nil, errors.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
			continue
		}
		if hasMeta(arg) {
			files, err := globFiles(fs, arg)
			if err != nil {
				return nil, errors.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
			continue
		}
		if info, err := fs.Stat(arg); err == nil && info.IsDir() {
			files, err := findSourceFiles(fs, arg, excludes)
			if err != nil {
				return nil, errors.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
			continue
		}
		out = append(out, arg)
	}
	return filterExcludes(out, excludes), nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func globFiles(fs afero.Fs, pattern string) ([]string, error) {
	base, rel := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, base)), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(base, filepath.FromSlash(m))
	}
	sort.Strings(out)
	return out, nil
}

// findSourceFiles walks root, skipping hidden and excluded directories.
func findSourceFiles(fs afero.Fs, root string, excludes []string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && (strings.HasPrefix(info.Name(), ".") || matchesAny(path, excludes)) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == SourceExt {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes removes paths matching any of the exclude patterns.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, excludes) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether path matches one of the patterns.  A pattern
// is tried against the whole path, the base name and each directory
// component.
func matchesAny(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	components := splitPath(path)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		for _, c := range components {
			if ok, _ := doublestar.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}

// splitPath returns the components of path.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
