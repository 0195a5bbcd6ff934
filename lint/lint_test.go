// Copyright © 2024 The Quill authors

package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: DefaultAnalyzers()}
	return l.LintFile(context.Background(), []byte(source), "test.py")
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}}
	return l.LintFile(context.Background(), []byte(source), "test.py")
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, messages(diags))
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		t.Errorf("expected no diagnostics, got: %v", messages(diags))
	}
}

func messages(diags []Diagnostic) []string {
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	return msgs
}

func rules(diags []Diagnostic) []string {
	var names []string
	for _, d := range diags {
		names = append(names, d.Analyzer)
	}
	return names
}

// --- syntax-error ---

func TestSyntaxError_MissingColon(t *testing.T) {
	diags := lintCheck(t, AnalyzerSyntaxError, "def broken(x, y)\n    return x + y\n")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "expected ':'")
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, 1, diags[0].Pos.Line)
}

func TestSyntaxError_Clean(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerSyntaxError, "def ok(x):\n    return x\n"))
}

// --- undefined-name ---

func TestUndefinedName(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedName, "x = undefined_name + 1\n")
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "undefined name 'undefined_name'", d.Message)
	assert.Equal(t, "undefined-name", d.Analyzer)
	assert.Equal(t, Position{File: "test.py", Line: 1, Col: 5, EndLine: 1, EndCol: 19}, d.Pos)
	assert.Equal(t, 4, d.Span.Start)
	assert.Equal(t, 18, d.Span.End)
}

func TestUndefinedName_Builtins(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerUndefinedName, "print(len([1, 2]), __name__)\n"))
}

func TestUndefinedName_StarImport(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedName, "from helpers import *\nrun()\n")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, "'run' may be undefined, or defined from star imports: helpers", diags[0].Message)
}

// --- arity-mismatch ---

func TestArityMismatch(t *testing.T) {
	src := "def takes_two(a, b): return a+b\ntakes_two(1)\ntakes_two(1,2)\n"
	diags := lintCheck(t, AnalyzerArityMismatch, src)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "takes_two() missing 1 required positional argument: 'b'", d.Message)
	assert.Equal(t, 2, d.Pos.Line)
	assert.Equal(t, 1, d.Pos.Col)
	assert.Equal(t, "takes_two(1)", src[d.Span.Start:d.Span.End])
	assert.Equal(t, []string{"function 'takes_two(a, b)' is defined at line 1"}, d.Notes)
}

func TestArityMismatch_TooMany(t *testing.T) {
	diags := lintCheck(t, AnalyzerArityMismatch, "def takes_two(a, b):\n    return a + b\ntakes_two(1, 2, 3)\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "takes_two() takes 2 positional arguments but 3 were given", diags[0].Message)
}

func TestArityMismatch_Class(t *testing.T) {
	src := "class Point:\n    def __init__(self, x):\n        self.x = x\nPoint()\nPoint(1)\n"
	diags := lintCheck(t, AnalyzerArityMismatch, src)
	require.Len(t, diags, 1)
	assert.Equal(t, 4, diags[0].Pos.Line)
	assert.Equal(t, "Point() missing 1 required positional argument: 'x'", diags[0].Message)
}

func TestArityMismatch_Skipped(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"rebound", "def f(a): pass\nf = print\nf()\n"},
		{"decorated", "@wrap\ndef f(a): pass\nf()\n"},
		{"star args", "def f(a, b): pass\nargs = (1, 2)\nf(*args)\n"},
		{"keywords", "def f(a, b): pass\nf(1, b=2)\n"},
		{"varargs", "def f(*a): pass\nf(1, 2, 3)\n"},
		{"method call", "class C:\n    def m(self): pass\nC().m(1, 2)\n"},
		{"base class", "class D(Exception): pass\nD(1, 2)\n"},
		{"shadowed", "def f(a): pass\ndef g(f):\n    f()\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoDiags(t, lintCheck(t, AnalyzerArityMismatch, tt.src))
		})
	}
}

// --- unused-variable ---

func TestUnusedVariable(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedVariable, "def f(a):\n    b = 1\n    return 2\n")
	require.Len(t, diags, 2)
	assert.Equal(t, "parameter 'a' is never used", diags[0].Message)
	assert.Equal(t, "local variable 'b' is assigned to but never used", diags[1].Message)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
}

func TestUnusedVariable_Module(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedVariable, "unused_var = 42\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "variable 'unused_var' is assigned to but never used", diags[0].Message)
}

func TestUnusedVariable_Rebound(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"augmented module", "x = 0\nx += 1\n"},
		{"augmented local", "def f():\n    n = 0\n    n += 1\n"},
		{"reassigned", "y = 1\ny = 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoDiags(t, lintCheck(t, AnalyzerUnusedVariable, tt.src))
		})
	}
}

func TestUnusedVariable_FStringScope(t *testing.T) {
	src := strings.Join([]string{
		"def greet():",
		"    name = 'a'",
		"    return 1",
		"def other():",
		"    name = 'b'",
		"    return f'{name}'",
	}, "\n") + "\n"
	diags := lintCheck(t, AnalyzerUnusedVariable, src)
	require.Len(t, diags, 1)
	assert.Equal(t, "local variable 'name' is assigned to but never used", diags[0].Message)
	assert.Equal(t, 2, diags[0].Pos.Line)
}

func TestUnusedVariable_Exempt(t *testing.T) {
	src := strings.Join([]string{
		"_private = 1",
		"MAX = 2",
		"class C:",
		"    attr = 1",
		"    def m(self, unused):",
		"        pass",
		"def greet(name):",
		"    return f'Hello, {name}!'",
		"squares = [i * i for i in range(3)]",
		"print(squares)",
	}, "\n") + "\n"
	assertNoDiags(t, lintCheck(t, AnalyzerUnusedVariable, src))
}

// --- redefinition ---

func TestRedefinition(t *testing.T) {
	diags := lintCheck(t, AnalyzerRedefinition, "def f(): pass\ndef f(): pass\n")
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "redefinition of 'f' from line 1", d.Message)
	assert.Equal(t, 2, d.Pos.Line)
	assert.Equal(t, 5, d.Pos.Col)
	assert.Equal(t, SeverityWarning, d.Severity)
}

func TestRedefinition_VariableIsNotReported(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerRedefinition, "f = 1\ndef f(): pass\nx = 1\nx = 2\n"))
}

// --- invalid-import ---

func TestInvalidImport(t *testing.T) {
	l := &Linter{
		Analyzers:      []*Analyzer{AnalyzerInvalidImport},
		AllowedImports: []string{"os"},
	}
	src := "import os.path\nimport requests\nfrom json import loads\nfrom . import sibling\n"
	diags := l.LintFile(context.Background(), []byte(src), "test.py")
	require.Len(t, diags, 2)
	assert.Equal(t, "module 'requests' is not in the allowed import list", diags[0].Message)
	assert.Equal(t, 2, diags[0].Pos.Line)
	assert.Equal(t, "module 'json' is not in the allowed import list", diags[1].Message)
	assert.Equal(t, "json", src[diags[1].Span.Start:diags[1].Span.End])
}

func TestInvalidImport_DisabledWithoutList(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerInvalidImport, "import requests\n"))
}

// --- unknown-attribute ---

func TestUnknownAttribute(t *testing.T) {
	src := "my_string = \"hello\"\nmy_string.nonexistent_method()\n\"x\".uper()\n"
	diags := lintCheck(t, AnalyzerUnknownAttribute, src)
	require.Len(t, diags, 2)
	assert.Equal(t, "'str' object has no attribute 'nonexistent_method'", diags[0].Message)
	assert.Equal(t, "nonexistent_method", src[diags[0].Span.Start:diags[0].Span.End])
	assert.Equal(t, "'str' object has no attribute 'uper'", diags[1].Message)
	assert.Equal(t, []string{"did you mean 'upper'?"}, diags[1].Notes)
}

func TestUnknownAttribute_Valid(t *testing.T) {
	src := "s = 'a'\ns.upper()\n[1].append(2)\n{}.get('k')\nt = 'b'\nt = load()\nt.anything()\n"
	assertNoDiags(t, lintCheck(t, AnalyzerUnknownAttribute, src))
}

// --- invalid-operand ---

func TestInvalidOperand(t *testing.T) {
	diags := lintCheck(t, AnalyzerInvalidOperand, "result = \"string\" + 42\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "unsupported operand type(s) for +: 'str' and 'int'", diags[0].Message)
}

func TestInvalidOperand_Valid(t *testing.T) {
	src := "a = 'ab' * 3\nb = 1 + 2.5\nc = '%d' % 5\nd = [1] + [2]\ne = x + 1\n"
	assertNoDiags(t, lintCheck(t, AnalyzerInvalidOperand, src))
}

// --- framework ---

func TestNoqa(t *testing.T) {
	src := "x = undefined_name  # noqa\ny = other  # noqa: unused-variable\n"
	diags := lintSource(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined name 'other'", diags[0].Message)
	assert.Equal(t, 2, diags[0].Pos.Line)
}

func TestOrdering(t *testing.T) {
	diags := lintSource(t, "x = y\n")
	assert.Equal(t, []string{"unused-variable", "undefined-name"}, rules(diags))
}

func TestOrderingByRuleID(t *testing.T) {
	first := &Analyzer{Name: "zz-rule", Run: func(pass *Pass) error {
		pass.Reportf(pass.Module.Body[0].Span(), "z")
		return nil
	}}
	second := &Analyzer{Name: "aa-rule", Run: func(pass *Pass) error {
		pass.Reportf(pass.Module.Body[0].Span(), "a")
		return nil
	}}
	l := &Linter{Analyzers: []*Analyzer{first, second}}
	diags := l.LintFile(context.Background(), []byte("pass\n"), "test.py")
	assert.Equal(t, []string{"aa-rule", "zz-rule"}, rules(diags))
}

func TestFailingAnalyzerIsSkipped(t *testing.T) {
	failing := &Analyzer{Name: "failing", Run: func(*Pass) error { return errors.New("boom") }}
	panicking := &Analyzer{Name: "panicking", Run: func(*Pass) error { panic("boom") }}
	l := &Linter{Analyzers: []*Analyzer{failing, panicking, AnalyzerUndefinedName}}
	diags := l.LintFile(context.Background(), []byte("print(missing)\n"), "test.py")
	assert.Equal(t, []string{"undefined-name"}, rules(diags))
}

func TestWithout(t *testing.T) {
	analyzers := Without(DefaultAnalyzers(), []string{"unused-variable", "redefinition"})
	assert.Len(t, analyzers, len(DefaultAnalyzers())-2)
	for _, a := range analyzers {
		assert.NotEqual(t, "unused-variable", a.Name)
	}
}

func TestFormatText(t *testing.T) {
	diags := lintCheck(t, AnalyzerRedefinition, "def f(): pass\ndef f(): pass\n")
	var buf bytes.Buffer
	FormatText(&buf, diags)
	assert.Equal(t, "test.py:2:5: redefinition of 'f' from line 1 (redefinition)\n  = note: 'f' was first defined at line 1\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	diags := lintCheck(t, AnalyzerUndefinedName, "x = y\n")
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, diags))
	var decoded []Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, SeverityError, decoded[0].Severity)
	assert.Equal(t, "undefined-name", decoded[0].Analyzer)
	assert.Equal(t, 5, decoded[0].Pos.Col)
	assert.Contains(t, buf.String(), `"severity": "error"`)

	buf.Reset()
	require.NoError(t, FormatJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSeverityJSON(t *testing.T) {
	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"info"`), &s))
	assert.Equal(t, SeverityInfo, s)
	assert.Error(t, json.Unmarshal([]byte(`"fatal"`), &s))
	data, err := json.Marshal(severityUnset)
	require.NoError(t, err)
	assert.Equal(t, `"warning"`, string(data))
}

func TestAnalyzerNames(t *testing.T) {
	names := AnalyzerNames()
	assert.Contains(t, names, "arity-mismatch")
	assert.Contains(t, names, "undefined-name")
	assert.IsIncreasing(t, names)
	assert.Contains(t, AnalyzerDoc(), "invalid-import")
}

func TestDiagnosticsFixture(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "diagnostics.py"))
	require.NoError(t, err)
	l := &Linter{Analyzers: DefaultAnalyzers(), AllowedImports: []string{"os"}}
	diags := l.LintFile(context.Background(), src, "diagnostics.py")

	byRule := make(map[string][]Diagnostic)
	for _, d := range diags {
		byRule[d.Analyzer] = append(byRule[d.Analyzer], d)
	}
	assert.Len(t, byRule["syntax-error"], 1)
	assert.Len(t, byRule["undefined-name"], 2)
	assert.Len(t, byRule["arity-mismatch"], 2)
	assert.Len(t, byRule["redefinition"], 1)
	assert.Len(t, byRule["invalid-import"], 1)
	assert.Len(t, byRule["unknown-attribute"], 1)
	assert.Len(t, byRule["invalid-operand"], 1)
	assertHasDiag(t, byRule["unused-variable"], "'unused_var'")
	for _, d := range byRule["unused-variable"] {
		assert.NotContains(t, d.Message, "'greeting'")
		assert.NotContains(t, d.Message, "'name'")
	}
}
