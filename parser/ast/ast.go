// Copyright © 2024 The Quill authors

// Package ast declares the syntax tree produced by the parser.
//
// Every node carries the half-open source span it was parsed from.  The tree
// is owned by its Module and is never mutated once parsing finishes.
// Identifiers that declare a name (function, class and parameter names,
// import aliases, global statements) are Ident nodes; identifiers that use or
// assign a name are Name nodes.
package ast

import (
	"strings"

	"github.com/luthersystems/quill/parser/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Span() token.Span
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Module is the root of a parsed document.
type Module struct {
	Name     string
	Body     []Stmt
	Doc      string
	Comments []*token.Token
	Src      token.Span
}

// Block is an indented suite of statements.
type Block struct {
	Stmts []Stmt
	Src   token.Span
}

// Ident is an identifier in a declaring position.
type Ident struct {
	Name string
	Src  token.Span
}

// ParamKind distinguishes the parameter forms of a function signature.
type ParamKind uint

const (
	ParamPositional ParamKind = iota
	ParamVarArgs              // *args
	ParamKwOnly               // after * or *args
	ParamVarKw                // **kwargs
)

func (k ParamKind) String() string {
	switch k {
	case ParamVarArgs:
		return "varargs"
	case ParamKwOnly:
		return "kwonly"
	case ParamVarKw:
		return "varkw"
	}
	return "positional"
}

// Param is a function or lambda parameter.
type Param struct {
	Name       *Ident
	Kind       ParamKind
	Annotation Expr
	Default    Expr
	Src        token.Span
}

// FunctionDef is a def statement.  Header spans the source from the def
// keyword through the return annotation.
type FunctionDef struct {
	Decorators []Expr
	Async      bool
	Name       *Ident
	Params     []*Param
	Returns    Expr
	Body       *Block
	Doc        string
	Header     token.Span
	Src        token.Span
}

// ClassDef is a class statement.
type ClassDef struct {
	Decorators []Expr
	Name       *Ident
	Bases      []*Arg
	Body       *Block
	Doc        string
	Header     token.Span
	Src        token.Span
}

// Assign covers plain, chained, augmented and annotated assignment.  For a
// chain a = b = v Targets holds [a, b].  Op is "=" or an augmented operator
// such as "+=".  An annotated declaration without a value has a nil Value.
type Assign struct {
	Targets    []Expr
	Op         string
	Annotation Expr
	Value      Expr
	Src        token.Span
}

// Augmented reports whether the assignment is an augmented assignment.
func (s *Assign) Augmented() bool {
	return s.Op != "" && s.Op != "="
}

type ExprStmt struct {
	X   Expr
	Src token.Span
}

type Return struct {
	Value Expr
	Src   token.Span
}

// KeywordStmt is pass, break or continue.
type KeywordStmt struct {
	Keyword string
	Src     token.Span
}

type Raise struct {
	Exc   Expr
	Cause Expr
	Src   token.Span
}

type Del struct {
	Targets []Expr
	Src     token.Span
}

type Assert struct {
	Test Expr
	Msg  Expr
	Src  token.Span
}

// Global is a global or nonlocal declaration.
type Global struct {
	Names    []*Ident
	Nonlocal bool
	Src      token.Span
}

// Alias is one imported name.  Name may be dotted.  The bound name is AsName
// when present, otherwise the first component of Name.
type Alias struct {
	Name     string
	NameSpan token.Span
	AsName   *Ident
	Src      token.Span
}

// Binding returns the name the alias binds and the span declaring it.
func (a *Alias) Binding() (string, token.Span) {
	if a.AsName != nil {
		return a.AsName.Name, a.AsName.Src
	}
	name, _, _ := strings.Cut(a.Name, ".")
	span := a.NameSpan
	if len(name) < len(a.Name) {
		span.End = span.Start + len(name)
		span.EndLine = span.Line
		span.EndCol = span.Col + len([]rune(name))
	}
	return name, span
}

type Import struct {
	Names []*Alias
	Src   token.Span
}

// ImportFrom is a from-import.  Level counts leading dots of a relative
// import.  Star is set for "from m import *".
type ImportFrom struct {
	Module     string
	ModuleSpan token.Span
	Level      int
	Names      []*Alias
	Star       bool
	Src        token.Span
}

// If is an if statement.  An elif chain is an Else block holding a single If.
type If struct {
	Test Expr
	Body *Block
	Else *Block
	Src  token.Span
}

type While struct {
	Test Expr
	Body *Block
	Else *Block
	Src  token.Span
}

type For struct {
	Async  bool
	Target Expr
	Iter   Expr
	Body   *Block
	Else   *Block
	Src    token.Span
}

type ExceptHandler struct {
	Type Expr
	Name *Ident
	Body *Block
	Src  token.Span
}

type Try struct {
	Body     *Block
	Handlers []*ExceptHandler
	Else     *Block
	Finally  *Block
	Src      token.Span
}

type WithItem struct {
	Context Expr
	Target  Expr
	Src     token.Span
}

type With struct {
	Async bool
	Items []*WithItem
	Body  *Block
	Src   token.Span
}

// BadStmt is a placeholder for a statement that could not be parsed.
type BadStmt struct {
	Src token.Span
}

// Name is an identifier in a use or assignment position.
type Name struct {
	Name string
	Src  token.Span
}

// Attribute is X.Attr.  Only the receiver X takes part in name resolution.
type Attribute struct {
	X        Expr
	Attr     string
	AttrSpan token.Span
	Src      token.Span
}

// Arg is a call argument or a class base.  Name is set for keyword
// arguments and Star is "*" or "**" for unpacked arguments.
type Arg struct {
	Name  *Ident
	Star  string
	Value Expr
	Src   token.Span
}

type Call struct {
	Func Expr
	Args []*Arg
	Src  token.Span
}

type Subscript struct {
	X     Expr
	Index Expr
	Src   token.Span
}

type Slice struct {
	Lo   Expr
	Hi   Expr
	Step Expr
	Src  token.Span
}

type LitKind uint

const (
	LitNumber LitKind = iota
	LitString
	LitBool
	LitNone
	LitEllipsis
)

// Literal is a constant.  Value holds the source text; adjacent string
// literals are joined into one Literal whose Value is the text of the
// first.
type Literal struct {
	Kind  LitKind
	Value string
	Src   token.Span
}

type List struct {
	Elts []Expr
	Src  token.Span
}

type Tuple struct {
	Elts []Expr
	Src  token.Span
}

type Set struct {
	Elts []Expr
	Src  token.Span
}

// Dict is a dict display.  A nil key marks a **mapping unpacking.
type Dict struct {
	Keys   []Expr
	Values []Expr
	Src    token.Span
}

type CompKind uint

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGen
)

// CompFor is one "for target in iter if cond..." clause.
type CompFor struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Src    token.Span
}

// Comprehension covers list, set and dict comprehensions and generator
// expressions.  Value is only set for dict comprehensions.
type Comprehension struct {
	Kind    CompKind
	Elt     Expr
	Value   Expr
	Clauses []*CompFor
	Src     token.Span
}

// BinaryOp covers arithmetic, bitwise, boolean and comparison operators.
type BinaryOp struct {
	Op  string
	X   Expr
	Y   Expr
	Src token.Span
}

type UnaryOp struct {
	Op  string
	X   Expr
	Src token.Span
}

// IfExp is Body if Test else Else.
type IfExp struct {
	Test Expr
	Body Expr
	Else Expr
	Src  token.Span
}

type Lambda struct {
	Params []*Param
	Body   Expr
	Src    token.Span
}

// NamedExpr is an assignment expression, target := value.
type NamedExpr struct {
	Target *Name
	Value  Expr
	Src    token.Span
}

type Starred struct {
	X   Expr
	Src token.Span
}

type Yield struct {
	Value Expr
	From  bool
	Src   token.Span
}

type Await struct {
	X   Expr
	Src token.Span
}

// BadExpr is a placeholder for an expression that could not be parsed.
type BadExpr struct {
	Src token.Span
}

func (n *Module) Span() token.Span        { return n.Src }
func (n *Block) Span() token.Span         { return n.Src }
func (n *Ident) Span() token.Span         { return n.Src }
func (n *Param) Span() token.Span         { return n.Src }
func (n *Alias) Span() token.Span         { return n.Src }
func (n *Arg) Span() token.Span           { return n.Src }
func (n *ExceptHandler) Span() token.Span { return n.Src }
func (n *WithItem) Span() token.Span      { return n.Src }
func (n *CompFor) Span() token.Span       { return n.Src }

func (n *FunctionDef) Span() token.Span { return n.Src }
func (n *ClassDef) Span() token.Span    { return n.Src }
func (n *Assign) Span() token.Span      { return n.Src }
func (n *ExprStmt) Span() token.Span    { return n.Src }
func (n *Return) Span() token.Span      { return n.Src }
func (n *KeywordStmt) Span() token.Span { return n.Src }
func (n *Raise) Span() token.Span       { return n.Src }
func (n *Del) Span() token.Span         { return n.Src }
func (n *Assert) Span() token.Span      { return n.Src }
func (n *Global) Span() token.Span      { return n.Src }
func (n *Import) Span() token.Span      { return n.Src }
func (n *ImportFrom) Span() token.Span  { return n.Src }
func (n *If) Span() token.Span          { return n.Src }
func (n *While) Span() token.Span       { return n.Src }
func (n *For) Span() token.Span         { return n.Src }
func (n *Try) Span() token.Span         { return n.Src }
func (n *With) Span() token.Span        { return n.Src }
func (n *BadStmt) Span() token.Span     { return n.Src }

func (n *Name) Span() token.Span          { return n.Src }
func (n *Attribute) Span() token.Span     { return n.Src }
func (n *Call) Span() token.Span          { return n.Src }
func (n *Subscript) Span() token.Span     { return n.Src }
func (n *Slice) Span() token.Span         { return n.Src }
func (n *Literal) Span() token.Span       { return n.Src }
func (n *List) Span() token.Span          { return n.Src }
func (n *Tuple) Span() token.Span         { return n.Src }
func (n *Set) Span() token.Span           { return n.Src }
func (n *Dict) Span() token.Span          { return n.Src }
func (n *Comprehension) Span() token.Span { return n.Src }
func (n *BinaryOp) Span() token.Span      { return n.Src }
func (n *UnaryOp) Span() token.Span       { return n.Src }
func (n *IfExp) Span() token.Span         { return n.Src }
func (n *Lambda) Span() token.Span        { return n.Src }
func (n *NamedExpr) Span() token.Span     { return n.Src }
func (n *Starred) Span() token.Span       { return n.Src }
func (n *Yield) Span() token.Span         { return n.Src }
func (n *Await) Span() token.Span         { return n.Src }
func (n *BadExpr) Span() token.Span       { return n.Src }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*KeywordStmt) stmtNode() {}
func (*Raise) stmtNode()       {}
func (*Del) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*Try) stmtNode()         {}
func (*With) stmtNode()        {}
func (*BadStmt) stmtNode()     {}

func (*Name) exprNode()          {}
func (*Attribute) exprNode()     {}
func (*Call) exprNode()          {}
func (*Subscript) exprNode()     {}
func (*Slice) exprNode()         {}
func (*Literal) exprNode()       {}
func (*List) exprNode()          {}
func (*Tuple) exprNode()         {}
func (*Set) exprNode()           {}
func (*Dict) exprNode()          {}
func (*Comprehension) exprNode() {}
func (*BinaryOp) exprNode()      {}
func (*UnaryOp) exprNode()       {}
func (*IfExp) exprNode()         {}
func (*Lambda) exprNode()        {}
func (*NamedExpr) exprNode()     {}
func (*Starred) exprNode()       {}
func (*Yield) exprNode()         {}
func (*Await) exprNode()         {}
func (*BadExpr) exprNode()       {}
