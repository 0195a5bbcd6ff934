// Copyright © 2024 The Quill authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/luthersystems/quill/lint"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const stdinName = "<stdin>"

// LintCommand creates the "lint" cobra command.
func LintCommand(opts ...Option) *cobra.Command {
	var (
		jsonOut  bool
		checks   string
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Report likely mistakes in source files",
		Long: `Report likely mistakes in source files.

Each check is an independent analyzer that examines the syntax tree and
its symbol table. Files are analyzed in parallel; diagnostics are
rendered to stderr as annotated source, or written to stdout as JSON
with --json.

With no files, reads from stdin. A path ending in "/..." or naming a
directory expands to every .py file below it. Glob patterns use
doublestar syntax, for example 'src/**/*.py'.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files, invalid config)

To suppress a specific diagnostic, add a comment on the same line:
  x = compute()  # noqa: unused-variable

To suppress all checks on a line:
  x = compute()  # noqa

Rules listed in the lint.disable setting are skipped.

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  quill lint file.py                                # Lint a single file
  quill lint ./...                                  # Lint every file below .
  quill lint 'src/**/*.py'                          # Lint files matching a glob
  quill lint --json file.py                         # Output diagnostics as JSON
  quill lint --checks=undefined-name file.py        # Run only specific checks
  quill lint --list                                 # List available checks
  quill lint --exclude='build' --exclude='*_pb.py' ./...  # Exclude files
  cat file.py | quill lint                          # Lint from stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newCmdConfig(opts)
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name) //nolint:errcheck
				}
				return nil
			}

			qc := cfg.queryConfig()
			analyzers, err := selectAnalyzers(qc.Analyzers, checks)
			if err != nil {
				return err
			}
			l := &lint.Linter{
				Analyzers:      analyzers,
				AllowedImports: qc.AllowedImports,
				Globals:        qc.Globals,
			}

			sources := map[string][]byte{}
			var diags []lint.Diagnostic
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Errorf("reading stdin: %w", err)
				}
				sources[stdinName] = src
				diags = l.LintFile(cmd.Context(), src, stdinName)
			} else {
				paths, err := expandArgs(cfg.fs, args, excludes)
				if err != nil {
					return err
				}
				diags, err = lintFiles(cmd.Context(), cfg.fs, l, paths)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				if err := lint.FormatJSON(cmd.OutOrStdout(), diags); err != nil {
					return err
				}
			} else if len(diags) > 0 {
				r := newRenderer(cfg.fs, sources)
				if err := renderLintDiagnostics(cmd.ErrOrStderr(), r, diags); err != nil {
					return err
				}
			}
			if len(diags) > 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")

	cmd.SilenceUsage = true
	return cmd
}

// selectAnalyzers narrows analyzers to the comma separated checks.  An
// empty list selects every analyzer.
func selectAnalyzers(analyzers []*lint.Analyzer, checks string) ([]*lint.Analyzer, error) {
	if checks == "" {
		return analyzers, nil
	}
	known := map[string]bool{}
	for _, name := range lint.AnalyzerNames() {
		known[name] = true
	}
	selected := map[string]bool{}
	for _, name := range strings.Split(checks, ",") {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, errors.Errorf("unknown check: %s", name)
		}
		selected[name] = true
	}
	filtered := []*lint.Analyzer{}
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// lintFiles lints paths concurrently and returns the diagnostics of all
// files ordered by file, line and column.
func lintFiles(ctx context.Context, fs afero.Fs, l *lint.Linter, paths []string) ([]lint.Diagnostic, error) {
	results := make([][]lint.Diagnostic, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		eg.Go(func() error {
			src, err := afero.ReadFile(fs, path)
			if err != nil {
				return errors.Errorf("%s: %w", path, err)
			}
			results[i] = l.LintFile(egctx, src, path)
			logger.Debug().Str("file", path).Int("diagnostics", len(results[i])).Msg("linted")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var all []lint.Diagnostic
	for _, diags := range results {
		all = append(all, diags...)
	}
	lint.SortDiagnostics(all)
	return all, nil
}

func init() {
	rootCmd.AddCommand(LintCommand())
}
