// Copyright © 2024 The Quill authors

package analysis

import (
	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// Reference records a resolved symbol usage.  Write is set when the usage
// rebinds the symbol, e.g. a second assignment, and Read when it loads the
// value.  Augmented assignments set both.  Scope is the scope the name was
// resolved in.
type Reference struct {
	Symbol *Symbol
	Span   token.Span
	Node   ast.Node
	Scope  *Scope
	Write  bool
	Read   bool
}

// UnresolvedRef records a name usage that could not be resolved.
type UnresolvedRef struct {
	Name string
	Span token.Span
	Node ast.Node
}

// Redefinition records a def or class statement that rebinds a name already
// defined by a def or class statement in the same scope.  Previous is the
// span of the earlier declaration.
type Redefinition struct {
	Symbol   *Symbol
	Previous token.Span
	Span     token.Span
}
