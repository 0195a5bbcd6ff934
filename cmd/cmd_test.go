// Copyright © 2024 The Quill authors

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/query"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

const shapes = `def area(width, height=1):
    """Compute an area."""
    return width * height


class Shape:
    def __init__(self, size):
        self.size = size

    def scale(self, factor):
        return area(self.size, factor)


total = area(3, 4)
print(totl)
`

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

// run executes cmd with args and returns its stdout, stderr and error.
func run(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	return exit.Code
}

func TestLintCommand_DefaultFlags(t *testing.T) {
	cmd := LintCommand()
	assert.Equal(t, "lint [flags] [files...]", cmd.Use)
	for _, name := range []string{"json", "checks", "list", "exclude"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintCommand_JSON(t *testing.T) {
	fs := memFs(t, map[string]string{"src/shapes.py": shapes, "src/clean.py": "x = 1\nprint(x)\n"})
	stdout, _, err := run(LintCommand(WithFs(fs)), "", "--json", "src/...")
	assert.Equal(t, 1, exitCode(t, err))
	assert.NotContains(t, stdout, "Usage:", "findings are not usage errors")

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(stdout), &diags))
	var undefined []lint.Diagnostic
	for _, d := range diags {
		assert.Equal(t, "src/shapes.py", d.Pos.File)
		if d.Analyzer == "undefined-name" {
			undefined = append(undefined, d)
		}
	}
	require.Len(t, undefined, 1)
	assert.Equal(t, 15, undefined[0].Pos.Line)
	assert.Equal(t, 7, undefined[0].Pos.Col)
	assert.Equal(t, "undefined name 'totl'", undefined[0].Message)
}

func TestLintCommand_Clean(t *testing.T) {
	fs := memFs(t, map[string]string{"clean.py": "x = 1\nprint(x)\n"})
	stdout, stderr, err := run(LintCommand(WithFs(fs)), "", "clean.py")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestLintCommand_RendersDiagnostics(t *testing.T) {
	fs := memFs(t, map[string]string{"shapes.py": shapes})
	_, stderr, err := run(LintCommand(WithFs(fs)), "", "--checks", "undefined-name", "shapes.py")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "error[undefined-name]: undefined name 'totl'")
	assert.Contains(t, stderr, "--> shapes.py:15:7")
	assert.Contains(t, stderr, "print(totl)")
	assert.Contains(t, stderr, "# noqa: undefined-name")
	assert.NotContains(t, stderr, "unused-variable")
}

func TestLintCommand_Stdin(t *testing.T) {
	_, stderr, err := run(LintCommand(), "print(y)\n")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "--> <stdin>:1:7")
	assert.Contains(t, stderr, "print(y)")
}

func TestLintCommand_Noqa(t *testing.T) {
	_, _, err := run(LintCommand(), "print(y)  # noqa: undefined-name\n")
	assert.NoError(t, err)
}

func TestLintCommand_Globals(t *testing.T) {
	cmd := LintCommand(WithGlobals(analysis.ExternalSymbol{Name: "host_call", Doc: "Call the host."}))
	_, _, err := run(cmd, "host_call()\n")
	assert.NoError(t, err)
}

func TestLintCommand_List(t *testing.T) {
	stdout, _, err := run(LintCommand(), "", "--list")
	require.NoError(t, err)
	assert.Equal(t, lint.AnalyzerNames(), strings.Fields(stdout))
}

func TestLintCommand_Errors(t *testing.T) {
	_, _, err := run(LintCommand(), "", "--checks", "nonsense", "a.py")
	assert.ErrorContains(t, err, "unknown check: nonsense")

	_, _, err = run(LintCommand(WithFs(afero.NewMemMapFs())), "", "missing.py")
	assert.ErrorContains(t, err, "missing.py")
	var exit *ExitError
	assert.False(t, errors.As(err, &exit), "read failures are not lint findings")
}

func TestSelectAnalyzers(t *testing.T) {
	all := lint.DefaultAnalyzers()
	got, err := selectAnalyzers(all, "")
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = selectAnalyzers(all, "redefinition, undefined-name")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "undefined-name", got[0].Name)
	assert.Equal(t, "redefinition", got[1].Name)

	// A known rule that is disabled selects nothing.
	got, err = selectAnalyzers(lint.Without(all, []string{"redefinition"}), "redefinition")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSymbolsCommand(t *testing.T) {
	fs := memFs(t, map[string]string{"shapes.py": shapes})

	stdout, _, err := run(SymbolsCommand(WithFs(fs)), "", "--json", "shapes.py")
	require.NoError(t, err)
	var rows []symbolRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	byName := map[string]symbolRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, symbolRow{Name: "area", Kind: "function", Line: 1, Col: 5, Detail: byName["area"].Detail}, byName["area"])
	assert.Equal(t, "class", byName["Shape"].Kind)
	assert.Equal(t, 6, byName["Shape"].Line)
	assert.Equal(t, "Shape", byName["scale"].Container)
	assert.Equal(t, "method", byName["scale"].Kind)
	assert.Equal(t, 10, byName["scale"].Line)
	assert.Equal(t, "variable", byName["total"].Kind)
	assert.Equal(t, "area", rows[0].Name)

	stdout, _, err = run(SymbolsCommand(WithFs(fs)), "", "shapes.py")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "scale")
	assert.Contains(t, stdout, "total")
}

func TestHoverCommand(t *testing.T) {
	fs := memFs(t, map[string]string{"shapes.py": shapes})

	stdout, _, err := run(HoverCommand(WithFs(fs)), "", "shapes.py", "14", "9")
	require.NoError(t, err)
	assert.Contains(t, stdout, "area")
	assert.Contains(t, stdout, "(function)")
	assert.Contains(t, stdout, "  Compute an area.")

	stdout, _, err = run(HoverCommand(WithFs(fs)), "", "--json", "shapes.py", "14", "9")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "area", info["name"])
	assert.Equal(t, "Compute an area.", info["doc"])

	_, stderr, err := run(HoverCommand(WithFs(fs)), "", "shapes.py", "4", "1")
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "shapes.py:4:1: no symbol")

	_, _, err = run(HoverCommand(WithFs(fs)), "", "shapes.py", "x", "1")
	assert.ErrorContains(t, err, `invalid line "x"`)
}

func TestRenameCommand(t *testing.T) {
	fs := memFs(t, map[string]string{"shapes.py": shapes})

	stdout, _, err := run(RenameCommand(WithFs(fs)), "", "shapes.py", "1", "5", "surface")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"shapes.py:1:5: surface",
		"shapes.py:11:16: surface",
		"shapes.py:14:9: surface",
	}, strings.Split(strings.TrimSpace(stdout), "\n"))
	unchanged, err := afero.ReadFile(fs, "shapes.py")
	require.NoError(t, err)
	assert.Equal(t, shapes, string(unchanged), "without --write the file is untouched")

	_, _, err = run(RenameCommand(WithFs(fs)), "", "--write", "shapes.py", "1", "5", "surface")
	require.NoError(t, err)
	renamed, err := afero.ReadFile(fs, "shapes.py")
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(shapes, "area(", "surface("), string(renamed))
}

func TestRenameCommand_Errors(t *testing.T) {
	fs := memFs(t, map[string]string{"shapes.py": shapes})

	_, _, err := run(RenameCommand(WithFs(fs)), "", "shapes.py", "15", "1", "show")
	assert.ErrorIs(t, err, query.ErrNotRenamable)

	_, _, err = run(RenameCommand(WithFs(fs)), "", "shapes.py", "1", "5", "1bad")
	assert.ErrorIs(t, err, query.ErrInvalidName)

	_, _, err = run(RenameCommand(WithFs(fs)), "", "shapes.py", "1", "5", "total")
	assert.ErrorIs(t, err, query.ErrNameConflict)

	_, _, err = run(RenameCommand(WithFs(fs)), "", "shapes.py", "4", "1", "x")
	assert.ErrorIs(t, err, query.ErrNoSymbolAtPosition)
}

func TestLoadSettings(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		settings = nil
		logger = zerolog.Nop()
		viper.Reset()
	})
	dir := t.TempDir()

	path := filepath.Join(dir, "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lint:\n  disable: [unused-variable]\nimports:\n  allow: [math]\n"), 0o600))
	cfgFile = path
	require.NoError(t, loadSettings())
	assert.Equal(t, []string{"unused-variable"}, currentSettings().Lint.Disable)
	assert.Equal(t, []string{"math"}, currentSettings().Imports.Allow)
	for _, a := range currentSettings().Analyzers() {
		assert.NotEqual(t, "unused-variable", a.Name)
	}

	viper.Reset()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("snapshots:\n  retain: 0\nlint:\n  disable: [bogus]\n"), 0o600))
	cfgFile = bad
	err := loadSettings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshots.retain")
	assert.Contains(t, err.Error(), "bogus")

	viper.Reset()
	cfgFile = filepath.Join(dir, "missing.yaml")
	assert.Error(t, loadSettings(), "an explicit config file must exist")
}

func TestCurrentSettingsDefaults(t *testing.T) {
	saved := settings
	settings = nil
	t.Cleanup(func() { settings = saved })
	cfg := currentSettings()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Imports.Allow)
	assert.Len(t, cfg.Analyzers(), len(lint.DefaultAnalyzers()))
}
