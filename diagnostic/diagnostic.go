// Copyright © 2024 The Quill authors

// Package diagnostic renders diagnostics as Rust-style annotated source
// snippets for CLI and REPL output.
package diagnostic

import (
	"github.com/luthersystems/quill/lint"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File    string // path for reading source; display name if unreadable
	Line    int    // 1-based line number
	Col     int    // 1-based start column, counted in runes
	EndLine int    // 0 = same line
	EndCol  int    // 1-based exclusive end column (0 = auto-detect from source)
	Label   string // text shown under the underline
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Code     string // rule id shown as error[code]
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines
}

// FromLint converts a lint diagnostic.  suppress adds a note telling the
// reader how to silence the rule.
func FromLint(ld lint.Diagnostic, suppress bool) Diagnostic {
	d := Diagnostic{
		Severity: severityOf(ld.Severity),
		Code:     ld.Analyzer,
		Message:  ld.Message,
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, Span{
			File:    ld.Pos.File,
			Line:    ld.Pos.Line,
			Col:     ld.Pos.Col,
			EndLine: ld.Pos.EndLine,
			EndCol:  ld.Pos.EndCol,
		})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	if suppress {
		d.Notes = append(d.Notes, "to suppress: add \"# noqa: "+ld.Analyzer+"\" as a comment on this line")
	}
	return d
}

// FromLintAll converts every diagnostic with FromLint.
func FromLintAll(diags []lint.Diagnostic, suppress bool) []Diagnostic {
	out := make([]Diagnostic, len(diags))
	for i, ld := range diags {
		out[i] = FromLint(ld, suppress)
	}
	return out
}

func severityOf(s lint.Severity) Severity {
	switch s {
	case lint.SeverityError:
		return SeverityError
	case lint.SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
