// Copyright © 2024 The Quill authors

package lint

import (
	"github.com/luthersystems/quill/parser/ast"
)

// WalkCalls calls fn for every call expression in the tree, depth-first.
func WalkCalls(mod *ast.Module, fn func(call *ast.Call)) {
	ast.Inspect(mod, func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok {
			fn(call)
		}
		return true
	})
}

// CallArgs splits the arguments of a call into the positional count and the
// keyword names.  unpacked is set when any argument uses * or **, in which
// case the counts are not meaningful.
func CallArgs(call *ast.Call) (positional int, keywords []string, unpacked bool) {
	for _, arg := range call.Args {
		switch {
		case arg.Star != "":
			unpacked = true
		case arg.Name != nil:
			keywords = append(keywords, arg.Name.Name)
		default:
			positional++
		}
	}
	return positional, keywords, unpacked
}

// CalleeName returns the name node a call invokes directly, or nil when the
// callee is any other expression.
func CalleeName(call *ast.Call) *ast.Name {
	name, _ := call.Func.(*ast.Name)
	return name
}

// LiteralType returns the builtin type name of a literal or display
// expression, or "" when expr is not one.
func LiteralType(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitString:
			if isBytes(e.Value) {
				return "bytes"
			}
			return "str"
		case ast.LitNumber:
			return numberType(e.Value)
		case ast.LitBool:
			return "bool"
		case ast.LitNone:
			return "NoneType"
		}
	case *ast.List:
		return "list"
	case *ast.Tuple:
		return "tuple"
	case *ast.Dict:
		return "dict"
	case *ast.Set:
		return "set"
	case *ast.Comprehension:
		switch e.Kind {
		case ast.CompList:
			return "list"
		case ast.CompSet:
			return "set"
		case ast.CompDict:
			return "dict"
		}
	}
	return ""
}

func isBytes(raw string) bool {
	for _, c := range raw {
		switch c {
		case 'b', 'B':
			return true
		case '\'', '"':
			return false
		}
	}
	return false
}

func numberType(raw string) string {
	if len(raw) > 1 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X' || raw[1] == 'o' || raw[1] == 'O' || raw[1] == 'b' || raw[1] == 'B') {
		return "int"
	}
	for _, c := range raw {
		switch c {
		case 'j', 'J':
			return "complex"
		case '.', 'e', 'E':
			return "float"
		}
	}
	return "int"
}
