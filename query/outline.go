// Copyright © 2024 The Quill authors

package query

import (
	"sort"
	"strings"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// OutlineItem is one entry in the document outline.
type OutlineItem struct {
	Name      string
	Kind      analysis.SymbolKind
	Detail    string
	Range     token.Span // whole declaration
	Selection token.Span // declaring identifier
	Children  []*OutlineItem
}

// DocumentSymbols returns the module level declarations ordered by
// position.  Classes list their members as children.
func (s *Snapshot) DocumentSymbols() []*OutlineItem {
	if s.Semantics == nil {
		return nil
	}
	return s.outline(s.Semantics.RootScope)
}

func (s *Snapshot) outline(scope *analysis.Scope) []*OutlineItem {
	var items []*OutlineItem
	for _, sym := range scope.Symbols {
		if sym.Decl.IsZero() {
			continue
		}
		item := &OutlineItem{
			Name:      sym.Name,
			Kind:      sym.Kind,
			Range:     declRange(sym),
			Selection: sym.Decl,
		}
		if sym.Kind.IsDefinition() && sym.Signature != nil {
			item.Detail = sym.Signature.String()
		}
		if sym.Members != nil {
			item.Children = s.outline(sym.Members)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Selection.Before(items[j].Selection) })
	return items
}

func declRange(sym *analysis.Symbol) token.Span {
	switch n := sym.Node.(type) {
	case *ast.FunctionDef:
		return n.Src
	case *ast.ClassDef:
		return n.Src
	}
	if sym.Header.Covers(sym.Decl) {
		return sym.Header
	}
	return sym.Decl
}

// Completion is a candidate name offered at a position.
type Completion struct {
	Label  string
	Kind   analysis.SymbolKind
	Detail string
	Doc    string

	// Keyword is set for language keywords, which have no symbol.
	Keyword bool
}

// Completions returns the names visible at pos that start with prefix,
// followed by the matching keywords.
func (s *Snapshot) Completions(pos Position, prefix string) []Completion {
	off, ok := s.Offset(pos)
	if !ok || s.Semantics == nil {
		return nil
	}
	var out []Completion
	for _, sym := range s.Semantics.ScopeAt(off).Visible() {
		if !strings.HasPrefix(sym.Name, prefix) {
			continue
		}
		c := Completion{Label: sym.Name, Kind: sym.Kind, Doc: sym.Doc}
		if sym.Signature != nil {
			c.Detail = sym.Name + sym.Signature.String()
		} else {
			c.Detail = sym.Kind.String()
		}
		out = append(out, c)
	}
	for _, kw := range token.Keywords() {
		if strings.HasPrefix(kw, prefix) {
			out = append(out, Completion{Label: kw, Keyword: true, Detail: "keyword"})
		}
	}
	return out
}

// MemberCompletions returns the members starting with prefix of the
// receiver whose name ends at pos.  The receiver is either a class or the
// first parameter of a method, which stands for the enclosing class.
func (s *Snapshot) MemberCompletions(pos Position, prefix string) []Completion {
	sym, _, ok := s.SymbolAt(pos)
	if !ok {
		return nil
	}
	var members *analysis.Scope
	switch sym.Kind {
	case analysis.SymClass:
		members = sym.Members
	case analysis.SymParameter:
		members = receiverClass(sym)
	}
	if members == nil {
		return nil
	}
	var out []Completion
	for _, m := range members.Visible() {
		if m.Scope != members || !strings.HasPrefix(m.Name, prefix) {
			continue
		}
		c := Completion{Label: m.Name, Kind: m.Kind, Doc: m.Doc, Detail: m.Kind.String()}
		if m.Kind == analysis.SymMethod {
			c.Detail = m.Name + m.Signature.Bound().String()
		}
		out = append(out, c)
	}
	return out
}

func receiverClass(param *analysis.Symbol) *analysis.Scope {
	fn, ok := param.Scope.Node.(*ast.FunctionDef)
	if !ok || len(fn.Params) == 0 || fn.Params[0].Name == nil || fn.Params[0].Name.Name != param.Name {
		return nil
	}
	if class := param.Scope.Parent; class != nil && class.Kind == analysis.ScopeClass {
		return class
	}
	return nil
}
