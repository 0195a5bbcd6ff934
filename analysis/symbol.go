// Copyright © 2024 The Quill authors

package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// SymbolKind classifies a symbol definition.
type SymbolKind int

const (
	SymVariable  SymbolKind = iota // assignment, loop or with target
	SymFunction                    // def outside a class
	SymClass                       // class
	SymMethod                      // def inside a class body
	SymParameter                   // function or lambda parameter
	SymConstant                    // module level ALL_CAPS assignment
	SymModule                      // import binding
	SymBuiltin                     // predefined name
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymFunction:
		return "function"
	case SymClass:
		return "class"
	case SymMethod:
		return "method"
	case SymParameter:
		return "parameter"
	case SymConstant:
		return "constant"
	case SymModule:
		return "module"
	case SymBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// IsDefinition reports whether the kind is introduced by a def or class
// statement.
func (k SymbolKind) IsDefinition() bool {
	return k == SymFunction || k == SymClass || k == SymMethod
}

// Symbol represents a defined name in a scope.  Decl is the span of the
// declaring identifier and Refs holds every other occurrence in scope.
// Keywords holds the keyword arguments naming a parameter at call sites.
// Builtins have a zero Decl.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Decl      token.Span
	Scope     *Scope
	Refs      []token.Span
	Keywords  []token.Span
	Signature *Signature // non-nil for callables with a known signature
	Doc       string
	Header    token.Span // def/class header or declaring statement
	Node      ast.Node   // declaring node, nil for builtins
	Members   *Scope     // class body scope
}

// Occurrences returns the declaration and every reference, ordered by
// source position without duplicates.
func (sym *Symbol) Occurrences() []token.Span {
	spans := make([]token.Span, 0, len(sym.Refs)+len(sym.Keywords)+1)
	if !sym.Decl.IsZero() {
		spans = append(spans, sym.Decl)
	}
	spans = append(spans, sym.Refs...)
	spans = append(spans, sym.Keywords...)
	sort.Slice(spans, func(i, j int) bool { return spans[i].Before(spans[j]) })
	out := spans[:0]
	for i, span := range spans {
		if i > 0 && span == spans[i-1] {
			continue
		}
		out = append(out, span)
	}
	return out
}

// Param describes one parameter of a Signature.
type Param struct {
	Name    string
	Kind    ast.ParamKind
	Default bool
}

// Signature describes the parameter signature of a callable symbol.
type Signature struct {
	Params []Param
}

func signatureOf(params []*ast.Param) *Signature {
	sig := &Signature{}
	for _, p := range params {
		if p.Name == nil {
			continue
		}
		sig.Params = append(sig.Params, Param{
			Name:    p.Name.Name,
			Kind:    p.Kind,
			Default: p.Default != nil,
		})
	}
	return sig
}

// MinArity returns the number of required positional arguments.
func (sig *Signature) MinArity() int {
	if sig == nil {
		return 0
	}
	count := 0
	for _, p := range sig.Params {
		if p.Kind == ast.ParamPositional && !p.Default {
			count++
		}
	}
	return count
}

// MaxArity returns the maximum number of positional arguments accepted.
// Returns -1 when the signature takes *args.
func (sig *Signature) MaxArity() int {
	if sig == nil {
		return -1
	}
	count := 0
	for _, p := range sig.Params {
		switch p.Kind {
		case ast.ParamVarArgs:
			return -1
		case ast.ParamPositional:
			count++
		}
	}
	return count
}

// Bound returns the signature with its first positional parameter, the
// receiver, removed.
func (sig *Signature) Bound() *Signature {
	if sig == nil {
		return nil
	}
	if len(sig.Params) == 0 || sig.Params[0].Kind != ast.ParamPositional {
		return sig
	}
	return &Signature{Params: sig.Params[1:]}
}

func (sig *Signature) hasVarKw() bool {
	for _, p := range sig.Params {
		if p.Kind == ast.ParamVarKw {
			return true
		}
	}
	return false
}

// CheckCall validates a call passing positional arguments and the named
// keyword arguments.  It returns a message describing the first mismatch,
// or the empty string when the call fits the signature.
func (sig *Signature) CheckCall(name string, positional int, keywords []string) string {
	if sig == nil {
		return ""
	}
	if hi := sig.MaxArity(); hi >= 0 && positional > hi {
		lo := sig.MinArity()
		takes := fmt.Sprintf("%d positional %s", hi, plural(hi, "argument"))
		if lo != hi {
			takes = fmt.Sprintf("from %d to %d positional arguments", lo, hi)
		}
		was := "were"
		if positional == 1 {
			was = "was"
		}
		return fmt.Sprintf("%s() takes %s but %d %s given", name, takes, positional, was)
	}
	filled := make(map[string]bool)
	var n int
	for _, p := range sig.Params {
		if p.Kind != ast.ParamPositional {
			continue
		}
		if n < positional {
			filled[p.Name] = true
			n++
		}
	}
	for _, kw := range keywords {
		if filled[kw] {
			return fmt.Sprintf("%s() got multiple values for argument '%s'", name, kw)
		}
		if !sig.acceptsKeyword(kw) {
			return fmt.Sprintf("%s() got an unexpected keyword argument '%s'", name, kw)
		}
		filled[kw] = true
	}
	var missingPos, missingKw []string
	for _, p := range sig.Params {
		if p.Default || filled[p.Name] {
			continue
		}
		switch p.Kind {
		case ast.ParamPositional:
			missingPos = append(missingPos, p.Name)
		case ast.ParamKwOnly:
			missingKw = append(missingKw, p.Name)
		}
	}
	if len(missingPos) > 0 {
		return fmt.Sprintf("%s() missing %d required positional %s: %s",
			name, len(missingPos), plural(len(missingPos), "argument"), quoteList(missingPos))
	}
	if len(missingKw) > 0 {
		return fmt.Sprintf("%s() missing %d required keyword-only %s: %s",
			name, len(missingKw), plural(len(missingKw), "argument"), quoteList(missingKw))
	}
	return ""
}

func (sig *Signature) acceptsKeyword(kw string) bool {
	for _, p := range sig.Params {
		if (p.Kind == ast.ParamPositional || p.Kind == ast.ParamKwOnly) && p.Name == kw {
			return true
		}
	}
	return sig.hasVarKw()
}

// String renders the signature as a parenthesized parameter list.
func (sig *Signature) String() string {
	if sig == nil {
		return "(...)"
	}
	var parts []string
	star := false
	for _, p := range sig.Params {
		switch p.Kind {
		case ast.ParamVarArgs:
			parts = append(parts, "*"+p.Name)
			star = true
		case ast.ParamVarKw:
			parts = append(parts, "**"+p.Name)
		case ast.ParamKwOnly:
			if !star {
				parts = append(parts, "*")
				star = true
			}
			fallthrough
		default:
			if p.Default {
				parts = append(parts, p.Name+"=...")
			} else {
				parts = append(parts, p.Name)
			}
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// quoteList formats names the way the interpreter does: 'a', 'b' and 'c'.
func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "'" + name + "'"
	}
	switch len(quoted) {
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " and " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
}
