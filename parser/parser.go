// Copyright © 2024 The Quill authors

// Package parser builds an ast.Module from a token stream.
//
// The parser is a recursive descent parser that never gives up.  A syntax
// error is recorded at the offending token and the parser skips to the end
// of the logical line, so the rest of the document still produces a tree.
// Indentation is tracked on an explicit stack of open block levels.
package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/lexer"
	"github.com/luthersystems/quill/parser/token"
)

// Error is a syntax error anchored to a source span.
type Error struct {
	Span token.Span
	Msg  string
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.Span, err.Msg)
}

// ParseString tokenizes and parses text.  The returned module is never nil.
func ParseString(name, text string) (*ast.Module, []*Error) {
	mod, errs := Parse(lexer.Tokenize(text))
	mod.Name = name
	return mod, errs
}

// Parse parses a complete token stream as produced by lexer.Tokenize.
func Parse(tokens []*token.Token) (*ast.Module, []*Error) {
	p := New(tokens)
	mod := p.ParseModule()
	return mod, p.Errors()
}

// Parser is a fault tolerant parser over a token slice.
type Parser struct {
	toks     []*token.Token
	pos      int
	prev     *token.Token
	comments []*token.Token
	errs     []*Error

	// indents holds the indentation of every open block, outermost first.
	indents []int
	// misaligned is the first token of a line whose dedent matched no open
	// block.  It has already been reported.
	misaligned *token.Token
	// bad is set once the current statement has reported an error.  Further
	// errors in the statement are suppressed.
	bad bool
}

// New returns a parser over tokens.  Comment tokens are set aside and
// attached to the module.
func New(tokens []*token.Token) *Parser {
	p := &Parser{}
	for _, tok := range tokens {
		if tok.Type == token.COMMENT {
			p.comments = append(p.comments, tok)
			continue
		}
		p.toks = append(p.toks, tok)
	}
	if len(p.toks) == 0 || p.toks[len(p.toks)-1].Type != token.EOF {
		end := token.Span{Line: 1, Col: 1, EndLine: 1, EndCol: 1}
		if len(p.toks) > 0 {
			end = point(p.toks[len(p.toks)-1].Span, true)
		}
		p.toks = append(p.toks, &token.Token{Type: token.EOF, Span: end})
	}
	return p
}

// Errors returns the syntax errors encountered so far in source order.
func (p *Parser) Errors() []*Error {
	return p.errs
}

// ParseModule parses the whole token stream.
func (p *Parser) ParseModule() *ast.Module {
	mod := &ast.Module{Comments: p.comments}
	p.indents = []int{0}
	mod.Body = p.parseSuite(0)
	eof := p.tok().Span
	mod.Src = token.Span{
		Start:   0,
		End:     eof.End,
		Line:    1,
		Col:     1,
		EndLine: eof.EndLine,
		EndCol:  eof.EndCol,
	}
	mod.Doc = ast.Docstring(mod.Body)
	return mod
}

// parseSuite parses statements indented at exactly indent.  It returns at
// the end of input or at a line indented less than indent.
func (p *Parser) parseSuite(indent int) []ast.Stmt {
	var stmts []ast.Stmt
	for {
		tok := p.tok()
		switch tok.Type {
		case token.EOF:
			return stmts
		case token.NEWLINE:
			p.next()
			continue
		}
		ind := tok.Span.Col - 1
		if ind < indent {
			if tok != p.misaligned && !slices.Contains(p.indents, ind) {
				p.errorf(tok.Span, "unindent does not match any outer indentation level")
				p.misaligned = tok
			}
			return stmts
		}
		if ind > indent && tok != p.misaligned {
			p.errorf(tok.Span, "unexpected indent")
			p.indents = append(p.indents, ind)
			stmts = append(stmts, p.parseSuite(ind)...)
			p.indents = p.indents[:len(p.indents)-1]
			continue
		}
		stmts = append(stmts, p.parseStatement(ind)...)
	}
}

func (p *Parser) parseStatement(indent int) []ast.Stmt {
	p.bad = false
	start := p.pos
	var stmts []ast.Stmt
	tok := p.tok()
	switch {
	case tok.IsOp("@"):
		stmts = []ast.Stmt{p.parseDecorated(indent)}
	case isCompoundStart(tok):
		stmts = []ast.Stmt{p.parseCompound(indent, nil, tok.Span)}
	default:
		stmts = p.parseSimpleStatements()
	}
	if p.pos == start {
		bad := p.next()
		p.fail(bad.Span, "unexpected %s", describe(bad))
		stmts = append(stmts, &ast.BadStmt{Src: bad.Span})
	}
	return stmts
}

func isCompoundStart(tok *token.Token) bool {
	if tok.Type != token.KEYWORD {
		return false
	}
	switch tok.Text {
	case "def", "class", "if", "while", "for", "try", "with", "async":
		return true
	}
	return false
}

func (p *Parser) parseDecorated(indent int) ast.Stmt {
	start := p.tok().Span
	var decorators []ast.Expr
	for p.acceptOp("@") {
		decorators = append(decorators, p.parseTest())
		p.endLine()
		p.bad = false
	}
	tok := p.tok()
	if tok.IsKeyword("def") || tok.IsKeyword("class") || tok.IsKeyword("async") {
		return p.parseCompound(indent, decorators, start)
	}
	p.fail(tok.Span, "expected function or class definition after decorator, found %s", describe(tok))
	return &ast.BadStmt{Src: p.from(start)}
}

// parseCompound parses a statement that owns a block.  start is the span of
// its first token, or of its first decorator.
func (p *Parser) parseCompound(indent int, decorators []ast.Expr, start token.Span) ast.Stmt {
	async := false
	if p.isKw("async") {
		p.next()
		async = true
	}
	tok := p.tok()
	switch {
	case tok.IsKeyword("def"):
		return p.parseFuncDef(indent, decorators, async, start)
	case tok.IsKeyword("class") && !async:
		return p.parseClassDef(indent, decorators, start)
	case tok.IsKeyword("for"):
		return p.parseFor(indent, async, start)
	case tok.IsKeyword("with"):
		return p.parseWith(indent, async, start)
	case async:
		p.unexpected("'def', 'for' or 'with' after 'async'")
		p.endLine()
		return &ast.BadStmt{Src: start}
	case tok.IsKeyword("if"):
		return p.parseIf(indent)
	case tok.IsKeyword("while"):
		return p.parseWhile(indent)
	case tok.IsKeyword("try"):
		return p.parseTry(indent)
	}
	p.unexpected("statement")
	p.endLine()
	return &ast.BadStmt{Src: start}
}

func (p *Parser) parseFuncDef(indent int, decorators []ast.Expr, async bool, start token.Span) *ast.FunctionDef {
	var hstart token.Span
	if async {
		hstart = p.prev.Span
	}
	def := p.next()
	if !async {
		hstart = def.Span
	}
	fn := &ast.FunctionDef{Decorators: decorators, Async: async}
	fn.Name = p.parseIdent("function name")
	if fn.Name != nil && p.expectOp("(") {
		fn.Params = p.parseParams(")", true)
		p.expectOp(")")
	}
	if p.acceptOp("->") {
		fn.Returns = p.parseTest()
	}
	fn.Header = p.from(hstart)
	fn.Body = p.parseBody(indent)
	fn.Doc = ast.Docstring(fn.Body.Stmts)
	fn.Src = start.Join(fn.Header).Join(fn.Body.Src)
	return fn
}

func (p *Parser) parseClassDef(indent int, decorators []ast.Expr, start token.Span) *ast.ClassDef {
	hstart := p.next().Span
	class := &ast.ClassDef{Decorators: decorators}
	class.Name = p.parseIdent("class name")
	if class.Name != nil && p.isOp("(") {
		class.Bases = p.parseArgs()
	}
	class.Header = p.from(hstart)
	class.Body = p.parseBody(indent)
	class.Doc = ast.Docstring(class.Body.Stmts)
	class.Src = start.Join(class.Header).Join(class.Body.Src)
	return class
}

func (p *Parser) parseIf(indent int) *ast.If {
	start := p.next().Span
	stmt := &ast.If{Test: p.parseTest()}
	stmt.Body = p.parseBody(indent)
	if p.atIndent(indent) {
		switch {
		case p.isKw("elif"):
			elif := p.parseIf(indent)
			stmt.Else = &ast.Block{Stmts: []ast.Stmt{elif}, Src: elif.Src}
		case p.isKw("else"):
			stmt.Else = p.parseElse(indent)
		}
	}
	stmt.Src = start.Join(stmt.Body.Src).Join(blockSpan(stmt.Else))
	return stmt
}

func (p *Parser) parseWhile(indent int) *ast.While {
	start := p.next().Span
	stmt := &ast.While{Test: p.parseTest()}
	stmt.Body = p.parseBody(indent)
	if p.atIndent(indent) && p.isKw("else") {
		stmt.Else = p.parseElse(indent)
	}
	stmt.Src = start.Join(stmt.Body.Src).Join(blockSpan(stmt.Else))
	return stmt
}

func (p *Parser) parseFor(indent int, async bool, start token.Span) *ast.For {
	p.next()
	stmt := &ast.For{Async: async}
	stmt.Target = p.parseTargetList()
	p.checkTarget(stmt.Target, false)
	if p.expectKw("in") {
		stmt.Iter = p.parseExprList()
	}
	stmt.Body = p.parseBody(indent)
	if p.atIndent(indent) && p.isKw("else") {
		stmt.Else = p.parseElse(indent)
	}
	stmt.Src = start.Join(stmt.Body.Src).Join(blockSpan(stmt.Else))
	return stmt
}

func (p *Parser) parseTry(indent int) *ast.Try {
	start := p.next().Span
	stmt := &ast.Try{Body: p.parseBody(indent)}
	end := stmt.Body.Src
	for p.atIndent(indent) && p.isKw("except") {
		hstart := p.next().Span
		h := &ast.ExceptHandler{}
		p.acceptOp("*")
		if !p.isOp(":") && !p.atLineEnd() {
			h.Type = p.parseTest()
			if p.acceptKw("as") {
				h.Name = p.parseIdent("name")
			}
		}
		h.Body = p.parseBody(indent)
		h.Src = hstart.Join(h.Body.Src)
		end = h.Src
		stmt.Handlers = append(stmt.Handlers, h)
	}
	if p.atIndent(indent) && p.isKw("else") {
		stmt.Else = p.parseElse(indent)
		end = stmt.Else.Src
	}
	if p.atIndent(indent) && p.isKw("finally") {
		p.next()
		stmt.Finally = p.parseBody(indent)
		end = stmt.Finally.Src
	}
	if len(stmt.Handlers) == 0 && stmt.Finally == nil {
		p.errorf(start, "expected 'except' or 'finally' block")
	}
	stmt.Src = start.Join(end)
	return stmt
}

func (p *Parser) parseWith(indent int, async bool, start token.Span) *ast.With {
	p.next()
	stmt := &ast.With{Async: async}
	for {
		istart := p.tok().Span
		item := &ast.WithItem{Context: p.parseTest()}
		if p.acceptKw("as") {
			item.Target = p.parseTarget()
			p.checkTarget(item.Target, false)
		}
		item.Src = p.from(istart)
		stmt.Items = append(stmt.Items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	stmt.Body = p.parseBody(indent)
	stmt.Src = start.Join(stmt.Body.Src)
	return stmt
}

func (p *Parser) parseElse(indent int) *ast.Block {
	p.next()
	return p.parseBody(indent)
}

// parseBody parses the colon ending a compound statement header and the
// block that follows.  A missing colon is reported but the block is still
// parsed.
func (p *Parser) parseBody(indent int) *ast.Block {
	if !p.acceptOp(":") {
		p.unexpected("':'")
		p.skipToLineEnd()
	}
	if !p.atLineEnd() {
		stmts := p.parseSimpleStatements()
		return &ast.Block{Stmts: stmts, Src: stmtsSpan(stmts)}
	}
	nl := p.next()
	tok := p.tok()
	if tok.Type == token.EOF || tok.Span.Col-1 <= indent {
		at := tok.Span
		if tok.Type == token.EOF {
			at = nl.Span
		}
		p.errorf(at, "expected an indented block")
		return &ast.Block{Src: point(nl.Span, false)}
	}
	ind := tok.Span.Col - 1
	p.indents = append(p.indents, ind)
	stmts := p.parseSuite(ind)
	p.indents = p.indents[:len(p.indents)-1]
	return &ast.Block{Stmts: stmts, Src: stmtsSpan(stmts)}
}

func (p *Parser) parseSimpleStatements() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		stmts = append(stmts, p.parseSmallStatement())
		if !p.acceptOp(";") || p.atLineEnd() {
			break
		}
	}
	p.endLine()
	return stmts
}

func (p *Parser) parseSmallStatement() ast.Stmt {
	tok := p.tok()
	if tok.Type != token.KEYWORD {
		return p.parseExprStatement()
	}
	start := tok.Span
	switch tok.Text {
	case "pass", "break", "continue":
		p.next()
		return &ast.KeywordStmt{Keyword: tok.Text, Src: tok.Span}
	case "return":
		p.next()
		stmt := &ast.Return{}
		if p.startsExpr() {
			stmt.Value = p.parseExprList()
		}
		stmt.Src = p.from(start)
		return stmt
	case "raise":
		p.next()
		stmt := &ast.Raise{}
		if p.startsExpr() {
			stmt.Exc = p.parseTest()
			if p.acceptKw("from") {
				stmt.Cause = p.parseTest()
			}
		}
		stmt.Src = p.from(start)
		return stmt
	case "del":
		p.next()
		stmt := &ast.Del{}
		x := p.parseExprList()
		if tup, ok := x.(*ast.Tuple); ok {
			stmt.Targets = tup.Elts
		} else {
			stmt.Targets = []ast.Expr{x}
		}
		for _, target := range stmt.Targets {
			p.checkTarget(target, false)
		}
		stmt.Src = p.from(start)
		return stmt
	case "assert":
		p.next()
		stmt := &ast.Assert{Test: p.parseTest()}
		if p.acceptOp(",") {
			stmt.Msg = p.parseTest()
		}
		stmt.Src = p.from(start)
		return stmt
	case "global", "nonlocal":
		p.next()
		stmt := &ast.Global{Nonlocal: tok.Text == "nonlocal"}
		for {
			id := p.parseIdent("name")
			if id == nil {
				break
			}
			stmt.Names = append(stmt.Names, id)
			if !p.acceptOp(",") {
				break
			}
		}
		stmt.Src = p.from(start)
		return stmt
	case "import":
		return p.parseImport()
	case "from":
		return p.parseImportFrom()
	}
	return p.parseExprStatement()
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "|=": true, "^=": true,
	"@=": true,
}

func (p *Parser) parseExprStatement() ast.Stmt {
	start := p.tok().Span
	first := p.parseAssignValue()
	tok := p.tok()
	switch {
	case tok.IsOp(":"):
		p.next()
		p.checkTarget(first, true)
		stmt := &ast.Assign{Targets: []ast.Expr{first}, Op: "="}
		stmt.Annotation = p.parseTest()
		if p.acceptOp("=") {
			stmt.Value = p.parseAssignValue()
		}
		stmt.Src = p.from(start)
		return stmt
	case tok.Type == token.OPERATOR && augOps[tok.Text]:
		p.next()
		p.checkTarget(first, true)
		stmt := &ast.Assign{Targets: []ast.Expr{first}, Op: tok.Text}
		stmt.Value = p.parseAssignValue()
		stmt.Src = p.from(start)
		return stmt
	case tok.IsOp("="):
		stmt := &ast.Assign{Targets: []ast.Expr{first}, Op: "="}
		for p.acceptOp("=") {
			v := p.parseAssignValue()
			if p.isOp("=") {
				stmt.Targets = append(stmt.Targets, v)
				continue
			}
			stmt.Value = v
		}
		for _, target := range stmt.Targets {
			p.checkTarget(target, false)
		}
		stmt.Src = p.from(start)
		return stmt
	}
	return &ast.ExprStmt{X: first, Src: p.from(start)}
}

func (p *Parser) parseAssignValue() ast.Expr {
	if p.isKw("yield") {
		return p.parseYield()
	}
	return p.parseExprList()
}

func (p *Parser) parseImport() *ast.Import {
	start := p.next().Span
	stmt := &ast.Import{}
	for {
		alias := p.parseAlias(true)
		if alias == nil {
			break
		}
		stmt.Names = append(stmt.Names, alias)
		if !p.acceptOp(",") {
			break
		}
	}
	stmt.Src = p.from(start)
	return stmt
}

func (p *Parser) parseImportFrom() *ast.ImportFrom {
	start := p.next().Span
	stmt := &ast.ImportFrom{}
	for p.isOp(".") || p.isOp("...") {
		stmt.Level += len(p.next().Text)
	}
	if p.tok().Type == token.IDENT || stmt.Level == 0 {
		var ok bool
		stmt.Module, stmt.ModuleSpan, ok = p.parseDottedName()
		if !ok {
			stmt.Src = p.from(start)
			return stmt
		}
	}
	if !p.expectKw("import") {
		stmt.Src = p.from(start)
		return stmt
	}
	switch {
	case p.isOp("*"):
		p.next()
		stmt.Star = true
	case p.acceptOp("("):
		for !p.isOp(")") {
			alias := p.parseAlias(false)
			if alias == nil {
				break
			}
			stmt.Names = append(stmt.Names, alias)
			if !p.acceptOp(",") {
				break
			}
		}
		p.expectOp(")")
	default:
		for {
			alias := p.parseAlias(false)
			if alias == nil {
				break
			}
			stmt.Names = append(stmt.Names, alias)
			if !p.acceptOp(",") {
				break
			}
		}
	}
	stmt.Src = p.from(start)
	return stmt
}

func (p *Parser) parseAlias(dotted bool) *ast.Alias {
	start := p.tok().Span
	alias := &ast.Alias{}
	if dotted {
		var ok bool
		alias.Name, alias.NameSpan, ok = p.parseDottedName()
		if !ok {
			return nil
		}
	} else {
		id := p.parseIdent("name")
		if id == nil {
			return nil
		}
		alias.Name, alias.NameSpan = id.Name, id.Src
	}
	if p.acceptKw("as") {
		alias.AsName = p.parseIdent("name")
	}
	alias.Src = p.from(start)
	return alias
}

func (p *Parser) parseDottedName() (string, token.Span, bool) {
	tok := p.tok()
	if tok.Type != token.IDENT {
		p.unexpected("module name")
		return "", token.Span{}, false
	}
	p.next()
	parts := []string{tok.Text}
	span := tok.Span
	for p.isOp(".") && p.peekAt(1).Type == token.IDENT {
		p.next()
		id := p.next()
		parts = append(parts, id.Text)
		span = span.Join(id.Span)
	}
	return strings.Join(parts, "."), span, true
}

func (p *Parser) parseIdent(what string) *ast.Ident {
	tok := p.tok()
	if tok.Type != token.IDENT {
		p.unexpected(what)
		return nil
	}
	p.next()
	return &ast.Ident{Name: tok.Text, Src: tok.Span}
}

// checkTarget reports expressions that cannot be assigned.  Augmented and
// annotated assignments take a single target.
func (p *Parser) checkTarget(x ast.Expr, single bool) {
	switch x := x.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript, *ast.BadExpr, nil:
		return
	case *ast.Tuple:
		if !single {
			for _, elt := range x.Elts {
				p.checkTarget(elt, false)
			}
			return
		}
	case *ast.List:
		if !single {
			for _, elt := range x.Elts {
				p.checkTarget(elt, false)
			}
			return
		}
	case *ast.Starred:
		if !single {
			p.checkTarget(x.X, false)
			return
		}
	}
	if !p.bad {
		p.errorf(x.Span(), "cannot assign to %s", describeExpr(x))
	}
}

func describeExpr(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Call:
		return "function call"
	case *ast.Literal:
		return "literal"
	case *ast.Lambda:
		return "lambda"
	case *ast.Comprehension:
		return "comprehension"
	case *ast.Tuple:
		return "tuple"
	case *ast.List:
		return "list"
	case *ast.Starred:
		return "starred expression"
	case *ast.BinaryOp:
		if compareOps[x.Op] || x.Op == "and" || x.Op == "or" {
			return "comparison or boolean expression"
		}
	}
	return "expression"
}

// endLine finishes a simple statement.  Anything left on the logical line is
// reported and skipped.
func (p *Parser) endLine() {
	if !p.atLineEnd() {
		tok := p.tok()
		p.fail(tok.Span, "unexpected %s", describe(tok))
		p.skipToLineEnd()
	}
	if p.tok().Type == token.NEWLINE {
		p.next()
	}
}

func (p *Parser) skipToLineEnd() {
	for !p.atLineEnd() {
		p.next()
	}
}

func (p *Parser) tok() *token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) *token.Token {
	return p.toks[min(p.pos+n, len(p.toks)-1)]
}

func (p *Parser) next() *token.Token {
	tok := p.toks[p.pos]
	if tok.Type != token.EOF {
		p.pos++
	}
	p.prev = tok
	return tok
}

func (p *Parser) atLineEnd() bool {
	typ := p.tok().Type
	return typ == token.NEWLINE || typ == token.EOF
}

// atIndent reports whether the current token starts a line at indent.
func (p *Parser) atIndent(indent int) bool {
	tok := p.tok()
	return tok.Type != token.EOF && tok.Span.Col-1 == indent
}

func (p *Parser) isOp(op string) bool {
	return p.tok().IsOp(op)
}

func (p *Parser) isKw(kw string) bool {
	return p.tok().IsKeyword(kw)
}

func (p *Parser) acceptOp(op string) bool {
	if p.isOp(op) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) acceptKw(kw string) bool {
	if p.isKw(kw) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expectOp(op string) bool {
	if p.acceptOp(op) {
		return true
	}
	p.unexpected(fmt.Sprintf("'%s'", op))
	return false
}

func (p *Parser) expectKw(kw string) bool {
	if p.acceptKw(kw) {
		return true
	}
	p.unexpected(fmt.Sprintf("'%s'", kw))
	return false
}

// from returns the span from start through the last consumed token.
func (p *Parser) from(start token.Span) token.Span {
	if p.prev == nil || p.prev.Span.End < start.Start {
		return start
	}
	return start.Join(p.prev.Span)
}

func (p *Parser) errorf(span token.Span, format string, v ...any) {
	p.errs = append(p.errs, &Error{Span: span, Msg: fmt.Sprintf(format, v...)})
}

// fail reports the first error of a statement and marks it bad.
func (p *Parser) fail(span token.Span, format string, v ...any) {
	if !p.bad {
		p.errorf(span, format, v...)
	}
	p.bad = true
}

func (p *Parser) unexpected(want string) {
	tok := p.tok()
	p.fail(tok.Span, "expected %s, found %s", want, describe(tok))
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.NEWLINE:
		return "end of line"
	case token.INVALID:
		return fmt.Sprintf("invalid character %q", tok.Text)
	case token.ERROR:
		return malformed(tok)
	}
	return fmt.Sprintf("'%s'", tok.Text)
}

// malformed describes an ERROR token.
func malformed(tok *token.Token) string {
	if isStringText(tok.Text) {
		return "unterminated string literal"
	}
	return fmt.Sprintf("invalid number literal '%s'", tok.Text)
}

func isStringText(text string) bool {
	rest := strings.TrimLeft(text, "rRbBuUfF")
	return strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, `'`)
}

// point returns a zero width span at the start, or the end, of span.
func point(span token.Span, end bool) token.Span {
	if end {
		return token.Span{Start: span.End, End: span.End, Line: span.EndLine, Col: span.EndCol, EndLine: span.EndLine, EndCol: span.EndCol}
	}
	return token.Span{Start: span.Start, End: span.Start, Line: span.Line, Col: span.Col, EndLine: span.Line, EndCol: span.Col}
}

func stmtsSpan(stmts []ast.Stmt) token.Span {
	if len(stmts) == 0 {
		return token.Span{}
	}
	return stmts[0].Span().Join(stmts[len(stmts)-1].Span())
}

func blockSpan(b *ast.Block) token.Span {
	if b == nil {
		return token.Span{}
	}
	return b.Src
}
