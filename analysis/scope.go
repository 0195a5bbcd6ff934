// Copyright © 2024 The Quill authors

package analysis

import (
	"sort"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeBuiltin       ScopeKind = iota // predefined names
	ScopeModule                         // file level
	ScopeClass                          // class body
	ScopeFunction                       // def body
	ScopeLambda                         // lambda body
	ScopeComprehension                  // comprehension or generator expression
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the source.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	Symbols  map[string]*Symbol
	Span     token.Span
	Node     ast.Node // the node that introduced this scope, nil for builtins

	globals   map[string]bool
	nonlocals map[string]bool
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node ast.Node) *Scope {
	s := &Scope{
		Kind:      kind,
		Parent:    parent,
		Symbols:   make(map[string]*Symbol),
		Node:      node,
		globals:   make(map[string]bool),
		nonlocals: make(map[string]bool),
	}
	if node != nil {
		s.Span = node.Span()
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Define adds a symbol to this scope.
func (s *Scope) Define(sym *Symbol) {
	sym.Scope = s
	s.Symbols[sym.Name] = sym
}

// Lookup resolves a symbol by walking the parent chain.
// Returns nil if the symbol is not found.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a symbol only in this scope (not parents).
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// Resolve finds the symbol a name used in s refers to.  Enclosing class
// scopes are not visible from nested scopes, and names declared global or
// nonlocal in s skip the local scope.
func (s *Scope) Resolve(name string) *Symbol {
	switch {
	case s.globals[name]:
		return s.module().Lookup(name)
	case !s.nonlocals[name]:
		if sym := s.Symbols[name]; sym != nil {
			return sym
		}
	}
	for scope := s.Parent; scope != nil; scope = scope.Parent {
		if scope.Kind == ScopeClass {
			continue
		}
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// IsGlobal reports whether name was declared global in s.
func (s *Scope) IsGlobal(name string) bool {
	return s.globals[name]
}

// Visible returns the symbols that can be referenced from s, ordered by
// name.  Inner declarations shadow outer ones.
func (s *Scope) Visible() []*Symbol {
	seen := make(map[string]bool)
	var syms []*Symbol
	add := func(scope *Scope) {
		for name, sym := range scope.Symbols {
			if !seen[name] {
				seen[name] = true
				syms = append(syms, sym)
			}
		}
	}
	add(s)
	for scope := s.Parent; scope != nil; scope = scope.Parent {
		if scope.Kind != ScopeClass {
			add(scope)
		}
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
	return syms
}

func (s *Scope) module() *Scope {
	scope := s
	for scope.Parent != nil && scope.Kind != ScopeModule {
		scope = scope.Parent
	}
	return scope
}

// bindingScope returns the scope an assignment expression in s binds in.
func (s *Scope) bindingScope() *Scope {
	scope := s
	for scope.Kind == ScopeComprehension && scope.Parent != nil {
		scope = scope.Parent
	}
	return scope
}
