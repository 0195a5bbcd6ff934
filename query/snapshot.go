// Copyright © 2024 The Quill authors

// Package query answers hover, definition, references and rename requests
// over an immutable Snapshot of an analyzed document.
//
// Every query is a pure function of the snapshot and a position.  A
// snapshot is never modified once built, so any number of goroutines may
// query it concurrently without locking.
package query

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/parser"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// Position is a 1-based line and rune column.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Config controls how a document is analyzed.
type Config struct {
	// Analyzers run over the document.  Nil selects lint.DefaultAnalyzers.
	Analyzers []*lint.Analyzer

	// AllowedImports is the invalid-import allow-list.  Nil disables the
	// check.
	AllowedImports []string

	// Globals are names predefined in addition to the builtins.
	Globals []analysis.ExternalSymbol
}

// Snapshot is the immutable result of analyzing one version of a document.
type Snapshot struct {
	Name         string
	Version      int
	Text         string
	Module       *ast.Module
	SyntaxErrors []*parser.Error
	Semantics    *analysis.Result
	Diagnostics  []lint.Diagnostic

	lines []int // byte offset of the start of each line
	occs  []analysis.Occurrence
}

// Analyze runs the whole pipeline over text and returns the snapshot.  The
// error wraps analysis.ErrInconsistent when the symbol table does not agree
// with the syntax tree.
func Analyze(ctx context.Context, name, text string, version int, cfg *Config) (*Snapshot, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	mod, errs := parser.ParseString(name, text)
	result := analysis.Analyze(mod, &analysis.Config{ExtraGlobals: cfg.Globals})
	if err := result.Check(); err != nil {
		return nil, err
	}
	analyzers := cfg.Analyzers
	if analyzers == nil {
		analyzers = lint.DefaultAnalyzers()
	}
	linter := &lint.Linter{Analyzers: analyzers}
	diags := linter.Run(ctx, &lint.Input{
		Filename:       name,
		Module:         mod,
		SyntaxErrors:   errs,
		Semantics:      result,
		AllowedImports: cfg.AllowedImports,
	})
	return NewSnapshot(name, version, text, mod, errs, result, diags), nil
}

// NewSnapshot assembles a snapshot from the outputs of the pipeline stages.
func NewSnapshot(name string, version int, text string, mod *ast.Module, errs []*parser.Error, result *analysis.Result, diags []lint.Diagnostic) *Snapshot {
	snap := &Snapshot{
		Name:         name,
		Version:      version,
		Text:         text,
		Module:       mod,
		SyntaxErrors: errs,
		Semantics:    result,
		Diagnostics:  diags,
		lines:        []int{0},
	}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			snap.lines = append(snap.lines, i+1)
		}
	}
	if result != nil {
		snap.occs = result.Occurrences()
	}
	return snap
}

// Offset converts a position to a byte offset.  Columns past the end of the
// line are clamped to the line end.  It returns false when the line does not
// exist.
func (s *Snapshot) Offset(pos Position) (int, bool) {
	if pos.Line < 1 || pos.Line > len(s.lines) || pos.Col < 1 {
		return 0, false
	}
	off := s.lines[pos.Line-1]
	end := s.lineEnd(pos.Line)
	for col := 1; col < pos.Col && off < end; col++ {
		_, size := utf8.DecodeRuneInString(s.Text[off:])
		off += size
	}
	return off, true
}

// PositionOf converts a byte offset to a position.
func (s *Snapshot) PositionOf(off int) Position {
	off = max(0, min(off, len(s.Text)))
	line := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > off })
	start := s.lines[line-1]
	return Position{Line: line, Col: utf8.RuneCountInString(s.Text[start:off]) + 1}
}

// LineText returns the text of a 1-based line without its line break.
func (s *Snapshot) LineText(line int) string {
	if line < 1 || line > len(s.lines) {
		return ""
	}
	return s.Text[s.lines[line-1]:s.lineEnd(line)]
}

// LineCount returns the number of lines in the document.
func (s *Snapshot) LineCount() int {
	return len(s.lines)
}

func (s *Snapshot) lineEnd(line int) int {
	end := len(s.Text)
	if line < len(s.lines) {
		end = s.lines[line] - 1
	}
	if end > s.lines[line-1] && s.Text[end-1] == '\r' {
		end--
	}
	return end
}

// occurrenceAt returns the symbol occurrence containing off.  An occurrence
// ending exactly at off also matches so a cursor placed just after a name
// still finds it.
func (s *Snapshot) occurrenceAt(off int) (analysis.Occurrence, bool) {
	i := sort.Search(len(s.occs), func(i int) bool { return s.occs[i].Span.End > off })
	if i < len(s.occs) && s.occs[i].Span.Contains(off) {
		return s.occs[i], true
	}
	if i > 0 && s.occs[i-1].Span.End == off {
		return s.occs[i-1], true
	}
	return analysis.Occurrence{}, false
}

// SymbolAt returns the symbol named at pos and the span of the occurrence
// under the cursor.
func (s *Snapshot) SymbolAt(pos Position) (*analysis.Symbol, token.Span, bool) {
	off, ok := s.Offset(pos)
	if !ok {
		return nil, token.Span{}, false
	}
	occ, ok := s.occurrenceAt(off)
	if !ok {
		return nil, token.Span{}, false
	}
	return occ.Symbol, occ.Span, true
}

// SpanText returns the source text covered by span.
func (s *Snapshot) SpanText(span token.Span) string {
	if span.Start < 0 || span.End > len(s.Text) || span.Start > span.End {
		return ""
	}
	return s.Text[span.Start:span.End]
}
