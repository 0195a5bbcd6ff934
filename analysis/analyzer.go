// Copyright © 2024 The Quill authors

package analysis

import (
	"strings"
	"unicode"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

// use is a name occurrence collected by the declaration pass and resolved
// once every scope is complete.
type use struct {
	name      string
	span      token.Span
	scope     *Scope
	node      ast.Node
	write     bool
	augmented bool
}

type analyzer struct {
	result *Result
	uses   []use
	calls  []*ast.Call // calls passing keyword arguments
	bodies map[*ast.FunctionDef]*Scope
}

func (a *analyzer) declareBody(stmts []ast.Stmt, scope *Scope) {
	for _, stmt := range stmts {
		a.declareStmt(stmt, scope)
	}
}

func (a *analyzer) declareBlock(b *ast.Block, scope *Scope) {
	if b != nil {
		a.declareBody(b.Stmts, scope)
	}
}

func (a *analyzer) declareStmt(stmt ast.Stmt, scope *Scope) {
	switch s := stmt.(type) {
	case *ast.FunctionDef:
		a.declareFunction(s, scope)
	case *ast.ClassDef:
		a.declareClass(s, scope)
	case *ast.Assign:
		a.declareAssign(s, scope)
	case *ast.Import:
		for _, alias := range s.Names {
			a.declareAlias(alias, scope)
		}
	case *ast.ImportFrom:
		for _, alias := range s.Names {
			a.declareAlias(alias, scope)
		}
	case *ast.Global:
		for _, id := range s.Names {
			if s.Nonlocal {
				scope.nonlocals[id.Name] = true
			} else {
				scope.globals[id.Name] = true
			}
			a.uses = append(a.uses, use{name: id.Name, span: id.Src, scope: scope, node: id})
		}
	case *ast.For:
		a.visitExpr(s.Iter, scope)
		a.bindTarget(s.Target, scope, spanOf(s.Target).Join(spanOf(s.Iter)))
		a.declareBlock(s.Body, scope)
		a.declareBlock(s.Else, scope)
	case *ast.With:
		for _, item := range s.Items {
			if item == nil {
				continue
			}
			a.visitExpr(item.Context, scope)
			if item.Target != nil {
				a.bindTarget(item.Target, scope, item.Src)
			}
		}
		a.declareBlock(s.Body, scope)
	case *ast.Try:
		a.declareBlock(s.Body, scope)
		for _, h := range s.Handlers {
			if h == nil {
				continue
			}
			a.visitExpr(h.Type, scope)
			if h.Name != nil {
				a.declare(scope, &Symbol{
					Name:   h.Name.Name,
					Kind:   SymVariable,
					Decl:   h.Name.Src,
					Header: h.Name.Src,
					Node:   h.Name,
				})
			}
			a.declareBlock(h.Body, scope)
		}
		a.declareBlock(s.Else, scope)
		a.declareBlock(s.Finally, scope)
	case *ast.Del:
		for _, target := range s.Targets {
			a.visitExpr(target, scope)
		}
	default:
		for _, child := range ast.Children(stmt) {
			switch c := child.(type) {
			case *ast.Block:
				a.declareBlock(c, scope)
			case ast.Expr:
				a.visitExpr(c, scope)
			}
		}
	}
}

func (a *analyzer) declareFunction(fn *ast.FunctionDef, scope *Scope) {
	for _, dec := range fn.Decorators {
		a.visitExpr(dec, scope)
	}
	a.visitParamExprs(fn.Params, scope)
	a.visitExpr(fn.Returns, scope)

	kind := SymFunction
	if scope.Kind == ScopeClass {
		kind = SymMethod
	}
	if fn.Name != nil {
		a.declare(scope, &Symbol{
			Name:      fn.Name.Name,
			Kind:      kind,
			Decl:      fn.Name.Src,
			Signature: signatureOf(fn.Params),
			Doc:       fn.Doc,
			Header:    fn.Header,
			Node:      fn,
		})
	}

	body := NewScope(ScopeFunction, scope, fn)
	a.bodies[fn] = body
	a.declareParams(fn.Params, body)
	a.declareBlock(fn.Body, body)
}

func (a *analyzer) declareClass(cls *ast.ClassDef, scope *Scope) {
	for _, dec := range cls.Decorators {
		a.visitExpr(dec, scope)
	}
	for _, base := range cls.Bases {
		a.visitExpr(base.Value, scope)
	}
	if cls.Name == nil {
		return
	}
	sym := a.declare(scope, &Symbol{
		Name:   cls.Name.Name,
		Kind:   SymClass,
		Decl:   cls.Name.Src,
		Doc:    cls.Doc,
		Header: cls.Header,
		Node:   cls,
	})

	body := NewScope(ScopeClass, scope, cls)
	a.declareBlock(cls.Body, body)
	sym.Members = body
	sym.Signature = nil
	switch init := body.LookupLocal("__init__"); {
	case init != nil:
		sym.Signature = init.Signature.Bound()
	case len(cls.Bases) == 0:
		sym.Signature = &Signature{}
	}
}

// visitParamExprs visits defaults and annotations, which are evaluated in
// the scope enclosing the function.
func (a *analyzer) visitParamExprs(params []*ast.Param, scope *Scope) {
	for _, p := range params {
		a.visitExpr(p.Annotation, scope)
		a.visitExpr(p.Default, scope)
	}
}

func (a *analyzer) declareParams(params []*ast.Param, scope *Scope) {
	for _, p := range params {
		if p.Name == nil {
			continue
		}
		a.declare(scope, &Symbol{
			Name:   p.Name.Name,
			Kind:   SymParameter,
			Decl:   p.Name.Src,
			Header: p.Src,
			Node:   p,
		})
	}
}

func (a *analyzer) declareAssign(s *ast.Assign, scope *Scope) {
	a.visitExpr(s.Value, scope)
	a.visitExpr(s.Annotation, scope)
	if s.Augmented() {
		for _, target := range s.Targets {
			if name, ok := target.(*ast.Name); ok {
				a.uses = append(a.uses, use{name: name.Name, span: name.Src, scope: scope, node: name, write: true, augmented: true})
				continue
			}
			a.visitExpr(target, scope)
		}
		return
	}
	for _, target := range s.Targets {
		a.bindTarget(target, scope, s.Src)
	}
}

func (a *analyzer) declareAlias(alias *ast.Alias, scope *Scope) {
	name, span := alias.Binding()
	if name == "" || name == "*" {
		return
	}
	a.declare(scope, &Symbol{
		Name:   name,
		Kind:   SymModule,
		Decl:   span,
		Header: alias.Src,
		Node:   alias,
	})
}

// bindTarget declares the names assigned by an assignment target.  Attribute
// and subscript targets only use their receivers.
func (a *analyzer) bindTarget(target ast.Expr, scope *Scope, header token.Span) {
	switch t := target.(type) {
	case *ast.Name:
		a.bindName(t, scope, header)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			a.bindTarget(elt, scope, header)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			a.bindTarget(elt, scope, header)
		}
	case *ast.Starred:
		a.bindTarget(t.X, scope, header)
	default:
		a.visitExpr(target, scope)
	}
}

func (a *analyzer) bindName(name *ast.Name, scope *Scope, header token.Span) {
	switch {
	case scope.globals[name.Name]:
		scope = scope.module()
	case scope.nonlocals[name.Name]:
		a.uses = append(a.uses, use{name: name.Name, span: name.Src, scope: scope, node: name, write: true})
		return
	}
	kind := SymVariable
	if scope.Kind == ScopeModule && isConstantName(name.Name) {
		kind = SymConstant
	}
	sym := a.declare(scope, &Symbol{
		Name:   name.Name,
		Kind:   kind,
		Decl:   name.Src,
		Header: header,
		Node:   name,
	})
	a.result.names[name] = sym
}

// declare defines sym in scope.  When the scope already holds the name a def
// or class statement takes over the existing symbol, keeping the earlier
// declaration as a reference, while any other binding is recorded as a
// write to it.
func (a *analyzer) declare(scope *Scope, sym *Symbol) *Symbol {
	prev := scope.LookupLocal(sym.Name)
	if prev == nil {
		scope.Define(sym)
		a.result.Symbols = append(a.result.Symbols, sym)
		return sym
	}
	if !sym.Kind.IsDefinition() {
		a.reference(prev, use{span: sym.Decl, scope: scope, node: sym.Node, write: true})
		return prev
	}
	if prev.Kind.IsDefinition() {
		a.result.Redefinitions = append(a.result.Redefinitions, &Redefinition{
			Symbol:   prev,
			Previous: prev.Decl,
			Span:     sym.Decl,
		})
	}
	a.reference(prev, use{span: prev.Decl, scope: scope, node: prev.Node, write: true})
	prev.Kind = sym.Kind
	prev.Decl = sym.Decl
	prev.Header = sym.Header
	prev.Node = sym.Node
	prev.Signature = sym.Signature
	prev.Doc = sym.Doc
	prev.Members = nil
	return prev
}

func (a *analyzer) reference(sym *Symbol, u use) {
	sym.Refs = append(sym.Refs, u.span)
	a.result.References = append(a.result.References, &Reference{
		Symbol: sym,
		Span:   u.span,
		Node:   u.node,
		Scope:  u.scope,
		Write:  u.write,
		Read:   !u.write || u.augmented,
	})
	if name, ok := u.node.(*ast.Name); ok {
		a.result.names[name] = sym
	}
}

// visitExpr collects the name uses of an expression and declares the scopes
// and bindings that expressions introduce.
func (a *analyzer) visitExpr(expr ast.Expr, scope *Scope) {
	switch e := expr.(type) {
	case nil:
	case *ast.Name:
		if e != nil {
			a.uses = append(a.uses, use{name: e.Name, span: e.Src, scope: scope, node: e})
		}
	case *ast.Call:
		a.visitExpr(e.Func, scope)
		for _, arg := range e.Args {
			if arg.Name != nil && arg.Star == "" {
				a.calls = append(a.calls, e)
				break
			}
		}
		for _, arg := range e.Args {
			a.visitExpr(arg.Value, scope)
		}
	case *ast.Lambda:
		a.visitParamExprs(e.Params, scope)
		body := NewScope(ScopeLambda, scope, e)
		a.declareParams(e.Params, body)
		a.visitExpr(e.Body, body)
	case *ast.NamedExpr:
		a.visitExpr(e.Value, scope)
		if e.Target != nil {
			a.bindName(e.Target, scope.bindingScope(), e.Src)
		}
	case *ast.Comprehension:
		a.visitComprehension(e, scope)
	default:
		for _, child := range ast.Children(expr) {
			if x, ok := child.(ast.Expr); ok {
				a.visitExpr(x, scope)
			}
		}
	}
}

// visitComprehension evaluates the first iterable in the enclosing scope and
// everything else in a new comprehension scope.
func (a *analyzer) visitComprehension(comp *ast.Comprehension, scope *Scope) {
	inner := NewScope(ScopeComprehension, scope, comp)
	for i, clause := range comp.Clauses {
		if clause == nil {
			continue
		}
		if i == 0 {
			a.visitExpr(clause.Iter, scope)
		} else {
			a.visitExpr(clause.Iter, inner)
		}
		a.bindTarget(clause.Target, inner, clause.Src)
		for _, cond := range clause.Ifs {
			a.visitExpr(cond, inner)
		}
	}
	a.visitExpr(comp.Elt, inner)
	a.visitExpr(comp.Value, inner)
}

// resolve binds every collected use to the symbol its scope resolves it to.
func (a *analyzer) resolve() {
	for _, u := range a.uses {
		sym := u.scope.Resolve(u.name)
		if sym == nil {
			a.result.Unresolved = append(a.result.Unresolved, &UnresolvedRef{
				Name: u.name,
				Span: u.span,
				Node: u.node,
			})
			continue
		}
		a.reference(sym, u)
	}
}

// resolveKeywords records the keyword arguments of calls to functions and
// classes defined in the module as occurrences of the parameters they name.
// Calls through a rebound name are skipped since their callee is unknown.
func (a *analyzer) resolveKeywords() {
	rebound := make(map[*Symbol]bool)
	for _, ref := range a.result.References {
		if ref.Write {
			rebound[ref.Symbol] = true
		}
	}
	for _, call := range a.calls {
		name, ok := call.Func.(*ast.Name)
		if !ok {
			continue
		}
		callee := a.result.names[name]
		if callee == nil || rebound[callee] {
			continue
		}
		body := a.bodyOf(callee)
		if body == nil {
			continue
		}
		for _, arg := range call.Args {
			if arg.Name == nil || arg.Star != "" {
				continue
			}
			param := body.LookupLocal(arg.Name.Name)
			if param == nil || param.Kind != SymParameter {
				continue
			}
			if p, ok := param.Node.(*ast.Param); ok && (p.Kind == ast.ParamPositional || p.Kind == ast.ParamKwOnly) {
				param.Keywords = append(param.Keywords, arg.Name.Src)
			}
		}
	}
}

// bodyOf returns the scope holding the parameters a call to sym binds: the
// function body, or the body of a class's __init__ method.
func (a *analyzer) bodyOf(sym *Symbol) *Scope {
	switch sym.Kind {
	case SymFunction:
		if fn, ok := sym.Node.(*ast.FunctionDef); ok {
			return a.bodies[fn]
		}
	case SymClass:
		if sym.Members == nil {
			return nil
		}
		if init := sym.Members.LookupLocal("__init__"); init != nil && init.Kind == SymMethod {
			if fn, ok := init.Node.(*ast.FunctionDef); ok {
				return a.bodies[fn]
			}
		}
	}
	return nil
}

func spanOf(expr ast.Expr) token.Span {
	if expr == nil {
		return token.Span{}
	}
	return expr.Span()
}

// isConstantName reports whether name is spelled in upper case, such as
// MAX_SIZE.
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter && !strings.HasPrefix(name, "__") && strings.ToUpper(name) == name
}
