// Copyright © 2024 The Quill authors

package query

import (
	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// CallSites groups the calls one caller makes to one callee.  Caller is nil
// for calls made outside any function.  Sites holds the span of the callee
// name at each call.
type CallSites struct {
	Caller *analysis.Symbol
	Callee *analysis.Symbol
	Sites  []token.Span
}

// IsCallable reports whether sym can appear in a call hierarchy.
func IsCallable(sym *analysis.Symbol) bool {
	switch sym.Kind {
	case analysis.SymFunction, analysis.SymMethod, analysis.SymClass, analysis.SymBuiltin:
		return true
	}
	return false
}

// Caller returns the function or method whose body contains off, or nil at
// module level.  Calls in lambdas and comprehensions belong to the function
// enclosing them.
func (s *Snapshot) Caller(off int) *analysis.Symbol {
	for scope := s.Semantics.ScopeAt(off); scope != nil; scope = scope.Parent {
		fn, ok := scope.Node.(*ast.FunctionDef)
		if !ok || fn.Name == nil || scope.Parent == nil {
			continue
		}
		if sym := scope.Parent.LookupLocal(fn.Name.Name); sym != nil && sym.Node == fn {
			return sym
		}
	}
	return nil
}

// IncomingCalls returns the calls to callee grouped by caller, in order of
// the first call of each group.
func (s *Snapshot) IncomingCalls(callee *analysis.Symbol) []*CallSites {
	var groups []*CallSites
	byCaller := make(map[*analysis.Symbol]*CallSites)
	s.walkCalls(func(name *ast.Name, sym *analysis.Symbol) {
		if sym != callee {
			return
		}
		caller := s.Caller(name.Src.Start)
		g, ok := byCaller[caller]
		if !ok {
			g = &CallSites{Caller: caller, Callee: callee}
			byCaller[caller] = g
			groups = append(groups, g)
		}
		g.Sites = append(g.Sites, name.Src)
	})
	return groups
}

// OutgoingCalls returns the calls made directly from the body of caller,
// or from module level when caller is nil, grouped by callee.  Calls to
// builtins are omitted.
func (s *Snapshot) OutgoingCalls(caller *analysis.Symbol) []*CallSites {
	var groups []*CallSites
	byCallee := make(map[*analysis.Symbol]*CallSites)
	s.walkCalls(func(name *ast.Name, sym *analysis.Symbol) {
		if sym.Decl.IsZero() || s.Caller(name.Src.Start) != caller {
			return
		}
		g, ok := byCallee[sym]
		if !ok {
			g = &CallSites{Caller: caller, Callee: sym}
			byCallee[sym] = g
			groups = append(groups, g)
		}
		g.Sites = append(g.Sites, name.Src)
	})
	return groups
}

// walkCalls calls fn for every call whose callee is a name resolving to a
// callable symbol, in source order.
func (s *Snapshot) walkCalls(fn func(name *ast.Name, callee *analysis.Symbol)) {
	ast.Inspect(s.Module, func(n ast.Node) bool {
		call, ok := n.(*ast.Call)
		if !ok {
			return true
		}
		if name, ok := call.Func.(*ast.Name); ok {
			if sym := s.Semantics.SymbolOf(name); sym != nil && IsCallable(sym) {
				fn(name, sym)
			}
		}
		return true
	})
}
