// Copyright © 2024 The Quill authors

package ast

import (
	"strings"
)

// Walk calls fn for every node in the tree rooted at node, depth-first in
// source order.  parent is nil for the root.
func Walk(node Node, fn func(node Node, parent Node, depth int)) {
	walk(node, nil, 0, func(n, parent Node, depth int) bool {
		fn(n, parent, depth)
		return true
	})
}

// Inspect traverses the tree rooted at node in depth-first order, calling fn
// for each node.  If fn returns false the children of that node are skipped.
func Inspect(node Node, fn func(Node) bool) {
	walk(node, nil, 0, func(n, _ Node, _ int) bool {
		return fn(n)
	})
}

func walk(node Node, parent Node, depth int, fn func(Node, Node, int) bool) {
	if isNil(node) || !fn(node, parent, depth) {
		return
	}
	for _, child := range Children(node) {
		walk(child, node, depth+1, fn)
	}
}

// Children returns the direct children of node in source order.
func Children(node Node) []Node {
	var c children
	switch n := node.(type) {
	case *Module:
		for _, s := range n.Body {
			c.add(s)
		}
	case *Block:
		for _, s := range n.Stmts {
			c.add(s)
		}
	case *Param:
		c.ident(n.Name)
		c.add(n.Annotation)
		c.add(n.Default)
	case *FunctionDef:
		c.exprs(n.Decorators)
		c.ident(n.Name)
		for _, p := range n.Params {
			c.param(p)
		}
		c.add(n.Returns)
		c.block(n.Body)
	case *ClassDef:
		c.exprs(n.Decorators)
		c.ident(n.Name)
		for _, b := range n.Bases {
			c.arg(b)
		}
		c.block(n.Body)
	case *Assign:
		c.exprs(n.Targets)
		c.add(n.Annotation)
		c.add(n.Value)
	case *ExprStmt:
		c.add(n.X)
	case *Return:
		c.add(n.Value)
	case *Raise:
		c.add(n.Exc)
		c.add(n.Cause)
	case *Del:
		c.exprs(n.Targets)
	case *Assert:
		c.add(n.Test)
		c.add(n.Msg)
	case *Global:
		for _, id := range n.Names {
			c.ident(id)
		}
	case *Alias:
		c.ident(n.AsName)
	case *Import:
		for _, a := range n.Names {
			c.alias(a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			c.alias(a)
		}
	case *If:
		c.add(n.Test)
		c.block(n.Body)
		c.block(n.Else)
	case *While:
		c.add(n.Test)
		c.block(n.Body)
		c.block(n.Else)
	case *For:
		c.add(n.Target)
		c.add(n.Iter)
		c.block(n.Body)
		c.block(n.Else)
	case *ExceptHandler:
		c.add(n.Type)
		c.ident(n.Name)
		c.block(n.Body)
	case *Try:
		c.block(n.Body)
		for _, h := range n.Handlers {
			if h != nil {
				c.add(h)
			}
		}
		c.block(n.Else)
		c.block(n.Finally)
	case *WithItem:
		c.add(n.Context)
		c.add(n.Target)
	case *With:
		for _, item := range n.Items {
			if item != nil {
				c.add(item)
			}
		}
		c.block(n.Body)
	case *Attribute:
		c.add(n.X)
	case *Arg:
		c.ident(n.Name)
		c.add(n.Value)
	case *Call:
		c.add(n.Func)
		for _, a := range n.Args {
			c.arg(a)
		}
	case *Subscript:
		c.add(n.X)
		c.add(n.Index)
	case *Slice:
		c.add(n.Lo)
		c.add(n.Hi)
		c.add(n.Step)
	case *List:
		c.exprs(n.Elts)
	case *Tuple:
		c.exprs(n.Elts)
	case *Set:
		c.exprs(n.Elts)
	case *Dict:
		for i := range n.Values {
			c.add(n.Keys[i])
			c.add(n.Values[i])
		}
	case *CompFor:
		c.add(n.Target)
		c.add(n.Iter)
		c.exprs(n.Ifs)
	case *Comprehension:
		c.add(n.Elt)
		c.add(n.Value)
		for _, cl := range n.Clauses {
			if cl != nil {
				c.add(cl)
			}
		}
	case *BinaryOp:
		c.add(n.X)
		c.add(n.Y)
	case *UnaryOp:
		c.add(n.X)
	case *IfExp:
		c.add(n.Body)
		c.add(n.Test)
		c.add(n.Else)
	case *Lambda:
		for _, p := range n.Params {
			c.param(p)
		}
		c.add(n.Body)
	case *NamedExpr:
		if n.Target != nil {
			c.add(n.Target)
		}
		c.add(n.Value)
	case *Starred:
		c.add(n.X)
	case *Yield:
		c.add(n.Value)
	case *Await:
		c.add(n.X)
	}
	return c
}

type children []Node

func (c *children) add(n Node) {
	if !isNil(n) {
		*c = append(*c, n)
	}
}

func (c *children) exprs(xs []Expr) {
	for _, x := range xs {
		c.add(x)
	}
}

func (c *children) ident(id *Ident) {
	if id != nil {
		*c = append(*c, id)
	}
}

func (c *children) block(b *Block) {
	if b != nil {
		*c = append(*c, b)
	}
}

func (c *children) param(p *Param) {
	if p != nil {
		*c = append(*c, p)
	}
}

func (c *children) arg(a *Arg) {
	if a != nil {
		*c = append(*c, a)
	}
}

func (c *children) alias(a *Alias) {
	if a != nil {
		*c = append(*c, a)
	}
}

// isNil catches interfaces holding nil node pointers.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Name:
		return n == nil
	case *Block:
		return n == nil
	case *Ident:
		return n == nil
	}
	return false
}

// Docstring returns the unquoted docstring of a body, which is a string
// literal forming its first statement.
func Docstring(body []Stmt) string {
	if len(body) == 0 {
		return ""
	}
	stmt, ok := body[0].(*ExprStmt)
	if !ok {
		return ""
	}
	lit, ok := stmt.X.(*Literal)
	if !ok || lit.Kind != LitString {
		return ""
	}
	return strings.TrimSpace(StringValue(lit.Value))
}

// StringValue strips the prefix and quotes from the source text of a string
// literal.  Escape sequences are left as written.
func StringValue(raw string) string {
	s := strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
