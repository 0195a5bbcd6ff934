// Copyright © 2024 The Quill authors

package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/lexer"
	"github.com/luthersystems/quill/parser/token"
)

var (
	// ErrInvalidName is returned by Rename when the new name is not a valid
	// identifier.
	ErrInvalidName = errors.New("invalid identifier")

	// ErrNoSymbolAtPosition is returned by Rename when no symbol is named at
	// the requested position.
	ErrNoSymbolAtPosition = errors.New("no symbol at position")

	// ErrNotRenamable is returned by Rename for builtins.
	ErrNotRenamable = errors.New("symbol cannot be renamed")

	// ErrNameConflict is returned by Rename when the new name is already
	// declared in the scope of the renamed symbol, or when renaming would
	// change which symbol an occurrence of either name refers to.
	ErrNameConflict = errors.New("name already declared in scope")
)

// HoverInfo summarizes the symbol under the cursor.
type HoverInfo struct {
	Name      string              `json:"name"`
	Kind      analysis.SymbolKind `json:"-"`
	KindName  string              `json:"kind"`
	Signature string              `json:"signature,omitempty"`
	Summary   string              `json:"summary"`
	Doc       string              `json:"doc,omitempty"`
	Span      token.Span          `json:"-"`
}

// Markdown renders the hover as a fenced code block followed by the
// docstring.
func (h *HoverInfo) Markdown() string {
	var b strings.Builder
	b.WriteString("```python\n")
	b.WriteString(h.Summary)
	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "*(%s)*", h.KindName)
	if h.Doc != "" {
		b.WriteString("\n\n")
		b.WriteString(h.Doc)
	}
	return b.String()
}

// Hover describes the symbol whose declaration or reference contains pos.
func (s *Snapshot) Hover(pos Position) (*HoverInfo, bool) {
	sym, span, ok := s.SymbolAt(pos)
	if !ok {
		return nil, false
	}
	info := &HoverInfo{
		Name:     sym.Name,
		Kind:     sym.Kind,
		KindName: sym.Kind.String(),
		Doc:      sym.Doc,
		Summary:  s.summary(sym),
		Span:     span,
	}
	switch sym.Kind {
	case analysis.SymFunction, analysis.SymMethod, analysis.SymClass:
		info.Signature = sym.Name + sym.Signature.String()
	case analysis.SymBuiltin:
		if sym.Signature != nil {
			info.Signature = sym.Name + sym.Signature.String()
		}
	}
	return info, true
}

// summary is the one line description shown at the top of a hover.
func (s *Snapshot) summary(sym *analysis.Symbol) string {
	switch sym.Kind {
	case analysis.SymBuiltin:
		if sym.Signature != nil {
			return "def " + sym.Name + sym.Signature.String()
		}
		return sym.Name
	case analysis.SymParameter:
		return "(parameter) " + s.headerText(sym)
	}
	return s.headerText(sym)
}

// headerText returns the first line of the declaring statement with runs of
// whitespace collapsed.
func (s *Snapshot) headerText(sym *analysis.Symbol) string {
	text := s.SpanText(sym.Header)
	if text == "" {
		return sym.Name
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimRight(text[:i], " \t\\") + " ..."
	}
	return strings.Join(strings.Fields(text), " ")
}

// Definition returns the declaring span of the symbol at pos.  Builtins
// have no declaration.
func (s *Snapshot) Definition(pos Position) (token.Span, bool) {
	sym, _, ok := s.SymbolAt(pos)
	if !ok || sym.Decl.IsZero() {
		return token.Span{}, false
	}
	return sym.Decl, true
}

// References returns every occurrence of the symbol at pos, including its
// declaration, ordered by position.  It returns nil when pos names no
// symbol.
func (s *Snapshot) References(pos Position) []token.Span {
	sym, _, ok := s.SymbolAt(pos)
	if !ok {
		return nil
	}
	return sym.Occurrences()
}

// Highlights returns the references of the symbol at pos split into read
// and write occurrences.  Declarations count as writes.
func (s *Snapshot) Highlights(pos Position) (reads, writes []token.Span) {
	sym, _, ok := s.SymbolAt(pos)
	if !ok {
		return nil, nil
	}
	written := make(map[token.Span]bool)
	if !sym.Decl.IsZero() {
		written[sym.Decl] = true
	}
	for _, ref := range s.Semantics.References {
		if ref.Symbol == sym && ref.Write {
			written[ref.Span] = true
		}
	}
	for _, span := range sym.Occurrences() {
		if written[span] {
			writes = append(writes, span)
		} else {
			reads = append(reads, span)
		}
	}
	return reads, writes
}

// Edit replaces the text covered by Span with NewText.
type Edit struct {
	Span    token.Span `json:"span"`
	NewText string     `json:"newText"`
}

// Rename returns the edits renaming the symbol at pos to newName, one per
// occurrence, ordered by position.
func (s *Snapshot) Rename(pos Position, newName string) ([]Edit, error) {
	if !lexer.IsIdentifier(newName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	sym, _, ok := s.SymbolAt(pos)
	if !ok {
		return nil, ErrNoSymbolAtPosition
	}
	if sym.Kind == analysis.SymBuiltin {
		return nil, fmt.Errorf("%w: %s is a builtin", ErrNotRenamable, sym.Name)
	}
	if err := s.checkCapture(sym, newName); err != nil {
		return nil, err
	}
	spans := sym.Occurrences()
	edits := make([]Edit, len(spans))
	for i, span := range spans {
		edits[i] = Edit{Span: span, NewText: newName}
	}
	return edits, nil
}

// checkCapture reports ErrNameConflict when renaming sym to newName would
// rebind a name.  No occurrence of sym may find a closer declaration of
// newName, and no existing use of newName may start resolving to sym.
func (s *Snapshot) checkCapture(sym *analysis.Symbol, newName string) error {
	if sym.Name == newName {
		return nil
	}
	if other := sym.Scope.LookupLocal(newName); other != nil && other != sym {
		return fmt.Errorf("%w: %s is already declared in the %s scope", ErrNameConflict, newName, sym.Scope.Kind)
	}
	for _, ref := range s.Semantics.References {
		if ref.Scope == nil {
			continue
		}
		switch {
		case ref.Symbol == sym:
			if other := ref.Scope.Resolve(newName); other != nil && encloses(sym.Scope, other.Scope) {
				return fmt.Errorf("%w: %s at line %d would refer to the %s %s",
					ErrNameConflict, newName, ref.Span.Line, other.Kind, other.Name)
			}
		case ref.Symbol.Name == newName:
			if ref.Scope.Resolve(sym.Name) == sym && encloses(ref.Symbol.Scope, sym.Scope) {
				return fmt.Errorf("%w: %s at line %d would refer to the renamed %s",
					ErrNameConflict, newName, ref.Span.Line, sym.Kind)
			}
		}
	}
	return nil
}

// encloses reports whether inner is nested, at any depth, in outer.
func encloses(outer, inner *analysis.Scope) bool {
	if outer == nil || inner == nil {
		return false
	}
	for scope := inner.Parent; scope != nil; scope = scope.Parent {
		if scope == outer {
			return true
		}
	}
	return false
}

// PrepareRename returns the span of the name under the cursor and its
// current text when the symbol can be renamed.
func (s *Snapshot) PrepareRename(pos Position) (token.Span, string, error) {
	sym, span, ok := s.SymbolAt(pos)
	switch {
	case !ok:
		return token.Span{}, "", ErrNoSymbolAtPosition
	case sym.Kind == analysis.SymBuiltin:
		return token.Span{}, "", fmt.Errorf("%w: %s is a builtin", ErrNotRenamable, sym.Name)
	}
	return span, sym.Name, nil
}

// CallAt returns the innermost call whose argument list contains pos, for
// signature help.
func (s *Snapshot) CallAt(pos Position) (*ast.Call, *analysis.Symbol, int, bool) {
	off, ok := s.Offset(pos)
	if !ok {
		return nil, nil, 0, false
	}
	var found *ast.Call
	ast.Inspect(s.Module, func(n ast.Node) bool {
		if !n.Span().Contains(off) && n.Span().End != off {
			return false
		}
		if call, ok := n.(*ast.Call); ok && call.Func.Span().End <= off {
			found = call
		}
		return true
	})
	if found == nil {
		return nil, nil, 0, false
	}
	active := 0
	for i, arg := range found.Args {
		if arg.Src.End < off {
			active = i + 1
		}
	}
	var sym *analysis.Symbol
	if name, ok := found.Func.(*ast.Name); ok {
		sym = s.Semantics.SymbolOf(name)
	}
	return found, sym, active, true
}
