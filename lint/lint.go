// Copyright © 2024 The Quill authors

// Package lint provides static checks over analyzed source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives the syntax tree and its symbol table and reports
// diagnostics.  The framework runs the analyzers, applies # noqa
// suppression, orders the results and formats output.
//
// Analyzers are composable.  Embedders can define custom checks alongside
// the built-in set.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is the rule id reported with each diagnostic (e.g. "undefined-name").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Input is everything the analyzers of one run look at.
type Input struct {
	Filename     string
	Module       *ast.Module
	SyntaxErrors []*parser.Error
	Semantics    *analysis.Result

	// AllowedImports lists the importable modules.  A nil list disables the
	// invalid-import check.
	AllowedImports []string
}

// Pass provides context to a running analyzer.
type Pass struct {
	*Input

	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	if d.Pos.Line == 0 {
		d.Pos = PositionOf(p.Filename, d.Span)
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a span.
func (p *Pass) Reportf(span token.Span, format string, args ...interface{}) {
	p.Report(Diagnostic{
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Span is the byte range of the problem.
	Span token.Span `json:"-"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the rule id of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col,omitempty"`
	EndLine int    `json:"endLine,omitempty"`
	EndCol  int    `json:"endCol,omitempty"`
}

// PositionOf converts a span to a Position in file.
func PositionOf(file string, span token.Span) Position {
	return Position{
		File:    file,
		Line:    span.Line,
		Col:     span.Col,
		EndLine: span.EndLine,
		EndCol:  span.EndCol,
	}
}

// String returns the position in file:line:col format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line:col: message
// (analyzer) with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// AllowedImports is passed to the analyzers by LintFile.
	AllowedImports []string

	// Globals are names predefined in addition to the builtins.
	Globals []analysis.ExternalSymbol
}

// LintFile parses, analyzes and lints a source file in one call.
func (l *Linter) LintFile(ctx context.Context, source []byte, filename string) []Diagnostic {
	mod, errs := parser.ParseString(filename, string(source))
	result := analysis.Analyze(mod, &analysis.Config{ExtraGlobals: l.Globals})
	return l.Run(ctx, &Input{
		Filename:       filename,
		Module:         mod,
		SyntaxErrors:   errs,
		Semantics:      result,
		AllowedImports: l.AllowedImports,
	})
}

// Run executes every analyzer over in and returns the diagnostics ordered by
// line, column and rule id.  An analyzer that fails is logged and skipped;
// the diagnostics of the other analyzers are still returned.
func (l *Linter) Run(ctx context.Context, in *Input) []Diagnostic {
	log := zerolog.Ctx(ctx)
	var all []Diagnostic
	for _, analyzer := range l.Analyzers {
		pass := &Pass{Input: in, Analyzer: analyzer}
		if err := runAnalyzer(pass); err != nil {
			log.Warn().Err(err).Str("analyzer", analyzer.Name).Str("file", in.Filename).Msg("analyzer failed")
			continue
		}
		all = append(all, pass.diagnostics...)
	}

	if in.Module != nil {
		all = filterSuppressed(all, in.Module.Comments)
	}
	SortDiagnostics(all)
	return all
}

// runAnalyzer runs one analyzer, converting a panic into an error.
func runAnalyzer(pass *Pass) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pass.Analyzer.Run(pass)
}

// SortDiagnostics orders diagnostics by line, column and rule id.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Pos, diags[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return diags[i].Analyzer < diags[j].Analyzer
	})
}

var noqaPattern = regexp.MustCompile(`(?i)#\s*noqa(?::\s*([\w\-]+(?:\s*,\s*[\w\-]+)*))?`)

// filterSuppressed removes diagnostics on lines carrying a # noqa comment.
// A bare # noqa suppresses every rule; # noqa: a,b suppresses the named
// rules only.
func filterSuppressed(diags []Diagnostic, comments []*token.Token) []Diagnostic {
	noqa := make(map[int][]string) // line -> nil (all) or rule ids
	for _, c := range comments {
		m := noqaPattern.FindStringSubmatch(c.Text)
		if m == nil {
			continue
		}
		var rules []string
		for _, name := range strings.Split(m[1], ",") {
			if name = strings.TrimSpace(name); name != "" {
				rules = append(rules, name)
			}
		}
		noqa[c.Span.Line] = rules
	}
	if len(noqa) == 0 {
		return diags
	}

	var filtered []Diagnostic
	for _, d := range diags {
		rules, ok := noqa[d.Pos.Line]
		if !ok {
			filtered = append(filtered, d)
			continue
		}
		if len(rules) == 0 {
			continue
		}
		suppressed := false
		for _, name := range rules {
			if name == d.Analyzer {
				suppressed = true
				break
			}
		}
		if !suppressed {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerSyntaxError,
		AnalyzerUndefinedName,
		AnalyzerArityMismatch,
		AnalyzerUnusedVariable,
		AnalyzerRedefinition,
		AnalyzerInvalidImport,
		AnalyzerUnknownAttribute,
		AnalyzerInvalidOperand,
	}
}

// Without returns the analyzers whose names are not listed in disabled.
func Without(analyzers []*Analyzer, disabled []string) []*Analyzer {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	var out []*Analyzer
	for _, a := range analyzers {
		if !skip[a.Name] {
			out = append(out, a)
		}
	}
	return out
}
