// Copyright © 2024 The Quill authors

// Package analysis builds the symbol table of a parsed module.
//
// The analyzer builds a scope tree from the syntax tree, declares every
// function, class, method, variable, parameter, constant and import binding,
// then resolves each name use to the innermost scope that declares it.
// Names that resolve nowhere are collected as unresolved references for the
// undefined-name check.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// ErrInconsistent is wrapped by the error returned from Result.Check.
var ErrInconsistent = errors.New("symbol table inconsistent with syntax tree")

// Config controls the behavior of the analyzer.
type Config struct {
	// ExtraGlobals are names the host predefines in addition to the
	// builtins.
	ExtraGlobals []ExternalSymbol
}

// ExternalSymbol is a predefined name supplied by the host.
type ExternalSymbol struct {
	Name      string
	Doc       string
	Signature *Signature
}

// Result holds the output of semantic analysis.
type Result struct {
	Module        *ast.Module
	RootScope     *Scope // module scope
	Builtins      *Scope
	Symbols       []*Symbol // declared symbols in declaration order
	References    []*Reference
	Unresolved    []*UnresolvedRef
	Redefinitions []*Redefinition

	names map[*ast.Name]*Symbol
}

// Analyze performs semantic analysis on a parsed module.  It builds a scope
// tree, resolves references, and collects unresolved names.
func Analyze(mod *ast.Module, cfg *Config) *Result {
	if cfg == nil {
		cfg = &Config{}
	}
	builtins := NewScope(ScopeBuiltin, nil, nil)
	populateBuiltins(builtins, cfg.ExtraGlobals)
	root := NewScope(ScopeModule, builtins, mod)
	a := &analyzer{
		result: &Result{
			Module:    mod,
			RootScope: root,
			Builtins:  builtins,
			names:     make(map[*ast.Name]*Symbol),
		},
	}

	// Phase 1: declarations, collecting every name use
	a.declareBody(mod.Body, root)

	// Phase 2: resolve uses against the complete scope tree
	a.resolve()
	a.resolveKeywords()

	sort.SliceStable(a.result.References, func(i, j int) bool {
		return a.result.References[i].Span.Before(a.result.References[j].Span)
	})
	return a.result
}

// SymbolOf returns the symbol a name node resolved to, or nil.
func (r *Result) SymbolOf(name *ast.Name) *Symbol {
	return r.names[name]
}

// ScopeAt returns the innermost scope whose span contains the byte offset.
// The module scope is returned for offsets outside every nested scope.
func (r *Result) ScopeAt(off int) *Scope {
	scope := r.RootScope
	for {
		next := (*Scope)(nil)
		for _, child := range scope.Children {
			if child.Span.Contains(off) {
				next = child
				break
			}
		}
		if next == nil {
			return scope
		}
		scope = next
	}
}

// Occurrence pairs a source span with the symbol it names.
type Occurrence struct {
	Span   token.Span
	Symbol *Symbol
}

// Occurrences returns every declaration and reference of every declared
// symbol, ordered by position.
func (r *Result) Occurrences() []Occurrence {
	var occs []Occurrence
	for _, sym := range r.Symbols {
		for _, span := range sym.Occurrences() {
			occs = append(occs, Occurrence{Span: span, Symbol: sym})
		}
	}
	for _, ref := range r.References {
		if ref.Symbol.Kind == SymBuiltin {
			occs = append(occs, Occurrence{Span: ref.Span, Symbol: ref.Symbol})
		}
	}
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].Span.Before(occs[j].Span) })
	return occs
}

// Check verifies that every declaration and reference of a symbol lies
// within the span of the scope that owns it.  Keyword argument occurrences
// sit at call sites and are not checked.
func (r *Result) Check() error {
	for _, sym := range r.Symbols {
		if sym.Scope == nil || sym.Scope.Kind == ScopeBuiltin {
			continue
		}
		spans := append([]token.Span{sym.Decl}, sym.Refs...)
		for _, span := range spans {
			if span.IsZero() {
				continue
			}
			if !sym.Scope.Span.Covers(span) {
				return fmt.Errorf("%w: %s %q at %s outside %s scope %s",
					ErrInconsistent, sym.Kind, sym.Name, span, sym.Scope.Kind, sym.Scope.Span)
			}
		}
	}
	for _, ref := range r.References {
		if ref.Symbol == nil {
			return fmt.Errorf("%w: reference at %s has no symbol", ErrInconsistent, ref.Span)
		}
	}
	return nil
}
