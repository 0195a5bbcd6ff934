// Copyright © 2024 The Quill authors

package parser

import (
	"slices"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
)

var compareOps = map[string]bool{
	"<": true, ">": true, "==": true, ">=": true, "<=": true, "!=": true,
	"in": true, "not in": true, "is": true, "is not": true,
}

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

// startsExpr reports whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	tok := p.tok()
	switch tok.Type {
	case token.IDENT, token.NUMBER, token.STRING, token.ERROR:
		return true
	case token.KEYWORD:
		switch tok.Text {
		case "None", "True", "False", "not", "lambda", "await", "yield":
			return true
		}
	case token.OPERATOR:
		switch tok.Text {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

// parseExprList parses one or more comma separated expressions.  More than
// one expression, or a trailing comma, produces a Tuple.
func (p *Parser) parseExprList() ast.Expr {
	return p.parseList(p.parseStarOrTest)
}

// parseTargetList parses the targets of a for loop or comprehension, which
// stop short of the "in" keyword.
func (p *Parser) parseTargetList() ast.Expr {
	return p.parseList(p.parseTarget)
}

func (p *Parser) parseList(elem func() ast.Expr) ast.Expr {
	start := p.tok().Span
	first := elem()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if !p.startsExpr() {
			break
		}
		elts = append(elts, elem())
	}
	return &ast.Tuple{Elts: elts, Src: p.from(start)}
}

func (p *Parser) parseTarget() ast.Expr {
	if p.isOp("*") {
		start := p.next().Span
		x := p.parseBinary(0)
		return &ast.Starred{X: x, Src: start.Join(x.Span())}
	}
	return p.parseBinary(0)
}

func (p *Parser) parseStarOrTest() ast.Expr {
	if p.isOp("*") {
		start := p.next().Span
		x := p.parseBinary(0)
		return &ast.Starred{X: x, Src: start.Join(x.Span())}
	}
	return p.parseTest()
}

// parseTest parses a full expression: a lambda, a conditional expression or
// an assignment expression.
func (p *Parser) parseTest() ast.Expr {
	if p.isKw("lambda") {
		return p.parseLambda()
	}
	x := p.parseOr()
	switch {
	case p.isKw("if"):
		p.next()
		test := p.parseOr()
		var els ast.Expr
		if p.expectKw("else") {
			els = p.parseTest()
		} else {
			els = &ast.BadExpr{Src: point(p.tok().Span, false)}
		}
		return &ast.IfExp{Test: test, Body: x, Else: els, Src: x.Span().Join(els.Span())}
	case p.isOp(":="):
		name, ok := x.(*ast.Name)
		if !ok {
			p.fail(p.tok().Span, "cannot use assignment expression with %s", describeExpr(x))
			return x
		}
		p.next()
		v := p.parseTest()
		return &ast.NamedExpr{Target: name, Value: v, Src: name.Src.Join(v.Span())}
	}
	return x
}

func (p *Parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.isKw("or") {
		p.next()
		y := p.parseAnd()
		x = &ast.BinaryOp{Op: "or", X: x, Y: y, Src: x.Span().Join(y.Span())}
	}
	return x
}

func (p *Parser) parseAnd() ast.Expr {
	x := p.parseNot()
	for p.isKw("and") {
		p.next()
		y := p.parseNot()
		x = &ast.BinaryOp{Op: "and", X: x, Y: y, Src: x.Span().Join(y.Span())}
	}
	return x
}

func (p *Parser) parseNot() ast.Expr {
	if p.isKw("not") {
		start := p.next().Span
		x := p.parseNot()
		return &ast.UnaryOp{Op: "not", X: x, Src: start.Join(x.Span())}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	x := p.parseBinary(0)
	for {
		tok := p.tok()
		var op string
		switch {
		case tok.Type == token.OPERATOR && compareOps[tok.Text]:
			op = tok.Text
			p.next()
		case tok.IsKeyword("in"):
			op = "in"
			p.next()
		case tok.IsKeyword("is"):
			p.next()
			op = "is"
			if p.acceptKw("not") {
				op = "is not"
			}
		case tok.IsKeyword("not") && p.peekAt(1).IsKeyword("in"):
			p.next()
			p.next()
			op = "not in"
		default:
			return x
		}
		y := p.parseBinary(0)
		x = &ast.BinaryOp{Op: op, X: x, Y: y, Src: x.Span().Join(y.Span())}
	}
}

func (p *Parser) parseBinary(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	x := p.parseBinary(level + 1)
	for {
		tok := p.tok()
		if tok.Type != token.OPERATOR || !slices.Contains(binaryLevels[level], tok.Text) {
			return x
		}
		p.next()
		y := p.parseBinary(level + 1)
		x = &ast.BinaryOp{Op: tok.Text, X: x, Y: y, Src: x.Span().Join(y.Span())}
	}
}

func (p *Parser) parseFactor() ast.Expr {
	tok := p.tok()
	if tok.IsOp("-") || tok.IsOp("+") || tok.IsOp("~") {
		p.next()
		x := p.parseFactor()
		return &ast.UnaryOp{Op: tok.Text, X: x, Src: tok.Span.Join(x.Span())}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expr {
	if p.isKw("await") {
		start := p.next().Span
		x := p.parsePower()
		return &ast.Await{X: x, Src: start.Join(x.Span())}
	}
	x := p.parsePrimary()
	if p.acceptOp("**") {
		y := p.parseFactor()
		x = &ast.BinaryOp{Op: "**", X: x, Y: y, Src: x.Span().Join(y.Span())}
	}
	return x
}

// parsePrimary parses an atom followed by any number of calls, subscripts
// and attribute accesses.
func (p *Parser) parsePrimary() ast.Expr {
	x := p.parseAtom()
	for {
		switch {
		case p.isOp("("):
			args := p.parseArgs()
			x = &ast.Call{Func: x, Args: args, Src: p.from(x.Span())}
		case p.isOp("["):
			p.next()
			idx := p.parseSubscriptList()
			p.expectOp("]")
			x = &ast.Subscript{X: x, Index: idx, Src: p.from(x.Span())}
		case p.isOp("."):
			p.next()
			attr := &ast.Attribute{X: x}
			if tok := p.tok(); tok.Type == token.IDENT {
				p.next()
				attr.Attr, attr.AttrSpan = tok.Text, tok.Span
			} else {
				p.unexpected("attribute name")
			}
			attr.Src = p.from(x.Span())
			x = attr
		default:
			return x
		}
	}
}

// parseArgs parses a parenthesized argument list.
func (p *Parser) parseArgs() []*ast.Arg {
	p.next()
	var args []*ast.Arg
	for !p.isOp(")") && !p.atLineEnd() {
		args = append(args, p.parseArg())
		if !p.acceptOp(",") {
			break
		}
	}
	p.expectOp(")")
	return args
}

func (p *Parser) parseArg() *ast.Arg {
	start := p.tok().Span
	switch {
	case p.isOp("*") || p.isOp("**"):
		star := p.next().Text
		v := p.parseTest()
		return &ast.Arg{Star: star, Value: v, Src: p.from(start)}
	case p.tok().Type == token.IDENT && p.peekAt(1).IsOp("="):
		name := p.next()
		p.next()
		v := p.parseTest()
		return &ast.Arg{Name: &ast.Ident{Name: name.Text, Src: name.Span}, Value: v, Src: p.from(start)}
	}
	v := p.parseTest()
	if p.atCompFor() {
		v = p.parseComprehension(ast.CompGen, v, nil, start)
	}
	return &ast.Arg{Value: v, Src: p.from(start)}
}

func (p *Parser) parseSubscriptList() ast.Expr {
	start := p.tok().Span
	first := p.parseSubscript()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.parseSubscript())
	}
	return &ast.Tuple{Elts: elts, Src: p.from(start)}
}

func (p *Parser) parseSubscript() ast.Expr {
	start := p.tok().Span
	var lo ast.Expr
	if !p.isOp(":") {
		lo = p.parseStarOrTest()
		if !p.isOp(":") {
			return lo
		}
	}
	p.next()
	s := &ast.Slice{Lo: lo}
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Hi = p.parseTest()
	}
	if p.acceptOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Step = p.parseTest()
	}
	s.Src = p.from(start)
	return s
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.tok()
	switch tok.Type {
	case token.IDENT:
		p.next()
		return &ast.Name{Name: tok.Text, Src: tok.Span}
	case token.NUMBER:
		p.next()
		return &ast.Literal{Kind: ast.LitNumber, Value: tok.Text, Src: tok.Span}
	case token.STRING:
		p.next()
		lit := &ast.Literal{Kind: ast.LitString, Value: tok.Text, Src: tok.Span}
		for p.tok().Type == token.STRING {
			lit.Src = lit.Src.Join(p.next().Span)
		}
		return lit
	case token.ERROR:
		p.next()
		p.errorf(tok.Span, "%s", malformed(tok))
		kind := ast.LitNumber
		if isStringText(tok.Text) {
			kind = ast.LitString
		}
		return &ast.Literal{Kind: kind, Value: tok.Text, Src: tok.Span}
	case token.INVALID:
		p.next()
		p.fail(tok.Span, "%s", describe(tok))
		return &ast.BadExpr{Src: tok.Span}
	case token.KEYWORD:
		switch tok.Text {
		case "None":
			p.next()
			return &ast.Literal{Kind: ast.LitNone, Value: tok.Text, Src: tok.Span}
		case "True", "False":
			p.next()
			return &ast.Literal{Kind: ast.LitBool, Value: tok.Text, Src: tok.Span}
		case "lambda":
			return p.parseLambda()
		case "yield":
			return p.parseYield()
		}
	case token.OPERATOR:
		switch tok.Text {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseBraces()
		case "...":
			p.next()
			return &ast.Literal{Kind: ast.LitEllipsis, Value: tok.Text, Src: tok.Span}
		}
	}
	p.unexpected("expression")
	return &ast.BadExpr{Src: point(tok.Span, false)}
}

func (p *Parser) parseParen() ast.Expr {
	start := p.next().Span
	if p.acceptOp(")") {
		return &ast.Tuple{Src: p.from(start)}
	}
	if p.isKw("yield") {
		y := p.parseYield()
		p.expectOp(")")
		return y
	}
	first := p.parseStarOrTest()
	if p.atCompFor() {
		comp := p.parseComprehension(ast.CompGen, first, nil, start)
		p.expectOp(")")
		comp.Src = p.from(start)
		return comp
	}
	if !p.isOp(",") {
		p.expectOp(")")
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	p.expectOp(")")
	return &ast.Tuple{Elts: elts, Src: p.from(start)}
}

func (p *Parser) parseListDisplay() ast.Expr {
	start := p.next().Span
	if p.acceptOp("]") {
		return &ast.List{Src: p.from(start)}
	}
	first := p.parseStarOrTest()
	if p.atCompFor() {
		comp := p.parseComprehension(ast.CompList, first, nil, start)
		p.expectOp("]")
		comp.Src = p.from(start)
		return comp
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	p.expectOp("]")
	return &ast.List{Elts: elts, Src: p.from(start)}
}

// parseBraces parses a dict or set display or comprehension.
func (p *Parser) parseBraces() ast.Expr {
	start := p.next().Span
	if p.acceptOp("}") {
		return &ast.Dict{Src: p.from(start)}
	}
	if p.acceptOp("**") {
		return p.parseDictRest(start, nil, p.parseBinary(0))
	}
	first := p.parseStarOrTest()
	if p.acceptOp(":") {
		v := p.parseTest()
		if p.atCompFor() {
			comp := p.parseComprehension(ast.CompDict, first, v, start)
			p.expectOp("}")
			comp.Src = p.from(start)
			return comp
		}
		return p.parseDictRest(start, first, v)
	}
	if p.atCompFor() {
		comp := p.parseComprehension(ast.CompSet, first, nil, start)
		p.expectOp("}")
		comp.Src = p.from(start)
		return comp
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		elts = append(elts, p.parseStarOrTest())
	}
	p.expectOp("}")
	return &ast.Set{Elts: elts, Src: p.from(start)}
}

func (p *Parser) parseDictRest(start token.Span, key, value ast.Expr) ast.Expr {
	d := &ast.Dict{Keys: []ast.Expr{key}, Values: []ast.Expr{value}}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		if p.acceptOp("**") {
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, p.parseBinary(0))
			continue
		}
		k := p.parseTest()
		p.expectOp(":")
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, p.parseTest())
	}
	p.expectOp("}")
	d.Src = p.from(start)
	return d
}

func (p *Parser) atCompFor() bool {
	return p.isKw("for") || (p.isKw("async") && p.peekAt(1).IsKeyword("for"))
}

func (p *Parser) parseComprehension(kind ast.CompKind, elt, value ast.Expr, start token.Span) *ast.Comprehension {
	comp := &ast.Comprehension{Kind: kind, Elt: elt, Value: value}
	for p.atCompFor() {
		cstart := p.tok().Span
		p.acceptKw("async")
		p.next()
		clause := &ast.CompFor{Target: p.parseTargetList()}
		p.checkTarget(clause.Target, false)
		if p.expectKw("in") {
			clause.Iter = p.parseOr()
		}
		for p.acceptKw("if") {
			clause.Ifs = append(clause.Ifs, p.parseOr())
		}
		clause.Src = p.from(cstart)
		comp.Clauses = append(comp.Clauses, clause)
	}
	comp.Src = p.from(start)
	return comp
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.next().Span
	params := p.parseParams(":", false)
	var body ast.Expr
	if p.expectOp(":") {
		body = p.parseTest()
	} else {
		body = &ast.BadExpr{Src: point(p.tok().Span, false)}
	}
	return &ast.Lambda{Params: params, Body: body, Src: p.from(start)}
}

func (p *Parser) parseYield() ast.Expr {
	start := p.next().Span
	y := &ast.Yield{}
	if p.acceptKw("from") {
		y.From = true
		y.Value = p.parseTest()
	} else if p.startsExpr() {
		y.Value = p.parseExprList()
	}
	y.Src = p.from(start)
	return y
}

// parseParams parses a parameter list up to, but not including, closer.
func (p *Parser) parseParams(closer string, annotations bool) []*ast.Param {
	var params []*ast.Param
	seen := make(map[string]bool)
	kwOnly, seenDefault := false, false
	for !p.isOp(closer) && !p.atLineEnd() {
		start := p.tok().Span
		kind := ast.ParamPositional
		if kwOnly {
			kind = ast.ParamKwOnly
		}
		switch {
		case p.acceptOp("/"):
			if !p.acceptOp(",") {
				return params
			}
			continue
		case p.acceptOp("*"):
			kwOnly = true
			if p.isOp(",") || p.isOp(closer) {
				if !p.acceptOp(",") {
					return params
				}
				continue
			}
			kind = ast.ParamVarArgs
		case p.acceptOp("**"):
			kind = ast.ParamVarKw
		}
		name := p.parseIdent("parameter name")
		if name == nil {
			return params
		}
		if seen[name.Name] {
			p.errorf(name.Src, "duplicate argument '%s' in function definition", name.Name)
		}
		seen[name.Name] = true
		param := &ast.Param{Name: name, Kind: kind}
		if annotations && p.acceptOp(":") {
			param.Annotation = p.parseTest()
		}
		if p.acceptOp("=") {
			param.Default = p.parseTest()
		}
		if kind == ast.ParamPositional {
			if param.Default != nil {
				seenDefault = true
			} else if seenDefault {
				p.errorf(name.Src, "non-default argument follows default argument")
			}
		}
		param.Src = p.from(start)
		params = append(params, param)
		if !p.acceptOp(",") {
			break
		}
	}
	return params
}
