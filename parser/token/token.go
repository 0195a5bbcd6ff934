// Copyright © 2024 The Quill authors

package token

import (
	"fmt"
	"sort"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek returns an EOF token.
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

// Token is an immutable lexical unit.
type Token struct {
	Type Type
	Text string
	Span Span
}

func (tok *Token) String() string {
	if tok == nil {
		return "<nil>"
	}
	switch tok.Type {
	case EOF, NEWLINE:
		return tok.Type.String()
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Text)
}

// Is reports whether tok has the given type and text.
func (tok *Token) Is(typ Type, text string) bool {
	return tok != nil && tok.Type == typ && tok.Text == text
}

// IsOp reports whether tok is the operator or delimiter op.
func (tok *Token) IsOp(op string) bool {
	return tok.Is(OPERATOR, op)
}

// IsKeyword reports whether tok is the keyword kw.
func (tok *Token) IsKeyword(kw string) bool {
	return tok.Is(KEYWORD, kw)
}

type Type uint

const (
	INVALID Type = iota // unrecognized character
	ERROR               // malformed literal, e.g. an unterminated string
	EOF
	NEWLINE // end of a logical line

	IDENT
	KEYWORD
	NUMBER
	STRING
	OPERATOR // operators and delimiters
	COMMENT

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:  "unknown",
		ERROR:    "error",
		EOF:      "EOF",
		NEWLINE:  "newline",
		IDENT:    "identifier",
		KEYWORD:  "keyword",
		NUMBER:   "number",
		STRING:   "string",
		OPERATOR: "operator",
		COMMENT:  "comment",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true,
	"for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true,
	"raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	return keywords[name]
}
