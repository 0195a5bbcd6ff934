// Copyright © 2024 The Quill authors

// Package lexer turns source text into a lazy stream of tokens.
//
// The lexer never fails.  Unrecognized characters become token.INVALID and
// malformed literals become token.ERROR so the parser can report them as
// diagnostics.  NEWLINE tokens mark the end of logical lines; newlines inside
// brackets and after a backslash continuation are insignificant.
package lexer

import (
	"iter"
	"strings"
	"unicode"

	"github.com/luthersystems/quill/parser/token"
)

type LexFn func(*Lexer) *token.Token

// operators ordered so that longer operators match first.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "==", "!=", "<=", ">=", "**", "//", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}

// statementKeywords can only begin a statement.  When one starts a physical
// line inside unbalanced brackets the brackets are assumed to be unclosed.
var statementKeywords = map[string]bool{
	"def": true, "class": true, "return": true, "import": true,
	"pass": true, "raise": true, "while": true, "try": true, "with": true,
	"del": true, "global": true, "nonlocal": true, "assert": true,
	"break": true, "continue": true, "except": true, "finally": true,
	"elif": true,
}

type Lexer struct {
	scanner      *token.Scanner
	lex          LexFn
	depth        int  // bracket nesting
	lineHasToken bool // the logical line has a significant token
	atLineStart  bool // no token yet on this physical line
}

// New returns a Lexer reading from text.
func New(text string) *Lexer {
	return &Lexer{
		scanner:     token.NewScanner(text),
		lex:         (*Lexer).readToken,
		atLineStart: true,
	}
}

// ReadToken returns the next token.  After the input is exhausted ReadToken
// returns EOF tokens indefinitely.
func (lex *Lexer) ReadToken() *token.Token {
	return lex.lex(lex)
}

// Tokenize returns every token in text, ending with a single EOF token.
func Tokenize(text string) []*token.Token {
	var tokens []*token.Token
	for tok := range Tokens(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Tokens returns a restartable sequence of the tokens in text.  Each
// iteration lexes text from the beginning and ends after the EOF token.
func Tokens(text string) iter.Seq[*token.Token] {
	return func(yield func(*token.Token) bool) {
		lex := New(text)
		for {
			tok := lex.ReadToken()
			if !yield(tok) || tok.Type == token.EOF {
				return
			}
		}
	}
}

func (lex *Lexer) readToken() *token.Token {
	s := lex.scanner
	for {
		s.AcceptSeqSpace()
		s.Ignore()
		c, ok := s.Peek()
		if !ok {
			if lex.lineHasToken {
				return lex.newline()
			}
			lex.lex = (*Lexer).readEOF
			return s.EmitToken(token.EOF)
		}
		switch {
		case c == '\n':
			s.ScanRune()
			lex.atLineStart = true
			if lex.depth == 0 && lex.lineHasToken {
				return lex.newline()
			}
			s.Ignore()
			continue
		case c == '\\' && lex.continuation():
			continue
		case c == '#':
			s.AcceptSeq(func(c rune) bool { return c != '\n' })
			return s.EmitToken(token.COMMENT)
		}

		if lex.atLineStart && lex.depth > 0 && statementKeywords[s.PeekWhile(isWord)] {
			lex.depth = 0
			if lex.lineHasToken {
				return lex.newline()
			}
		}
		lex.atLineStart = false
		lex.lineHasToken = true

		switch {
		case c == '"' || c == '\'':
			return lex.readString()
		case isWordStart(c):
			if lex.stringPrefix() {
				return lex.readString()
			}
			return lex.readWord()
		case isDigit(c):
			return lex.readNumber()
		case c == '.':
			if next, ok := s.PeekAt(1); ok && isDigit(next) {
				return lex.readNumber()
			}
		}
		return lex.readOperator()
	}
}

func (lex *Lexer) readEOF() *token.Token {
	lex.scanner.Ignore()
	return lex.scanner.EmitToken(token.EOF)
}

// newline emits a NEWLINE token ending the logical line.  At the end of
// input the token is zero width.
func (lex *Lexer) newline() *token.Token {
	lex.lineHasToken = false
	return lex.scanner.EmitToken(token.NEWLINE)
}

// continuation consumes a backslash line continuation if one is next.
func (lex *Lexer) continuation() bool {
	s := lex.scanner
	switch {
	case s.HasPrefix("\\\n"):
		s.AcceptString("\\\n")
	case s.HasPrefix("\\\r\n"):
		s.AcceptString("\\\r\n")
	default:
		return false
	}
	s.Ignore()
	return true
}

// stringPrefix reports whether the input is a string prefix (r, b, u, f and
// their two letter combinations) followed by a quote.
func (lex *Lexer) stringPrefix() bool {
	word := lex.scanner.PeekWhile(isWord)
	if len(word) == 0 || len(word) > 2 {
		return false
	}
	switch strings.ToLower(word) {
	case "r", "b", "u", "f", "rb", "br", "fr", "rf":
	default:
		return false
	}
	q, ok := lex.scanner.PeekAt(len(word))
	return ok && (q == '"' || q == '\'')
}

// readString scans a string literal including its optional prefix.
// Interpolations in f-strings are not tokenized; the whole literal is one
// token.
func (lex *Lexer) readString() *token.Token {
	s := lex.scanner
	s.AcceptSeq(func(c rune) bool { return c != '"' && c != '\'' })
	s.ScanRune()
	q := s.Rune()
	triple := strings.Repeat(string(q), 3)
	if s.HasPrefix(triple[:2]) {
		s.AcceptString(triple[:2])
		for {
			if s.AcceptString(triple) {
				return s.EmitToken(token.STRING)
			}
			if !s.ScanRune() {
				return s.EmitToken(token.ERROR)
			}
			if s.Rune() == '\\' {
				s.ScanRune()
			}
		}
	}
	for {
		c, ok := s.Peek()
		if !ok || c == '\n' {
			return s.EmitToken(token.ERROR)
		}
		s.ScanRune()
		switch c {
		case q:
			return s.EmitToken(token.STRING)
		case '\\':
			s.ScanRune()
		}
	}
}

func (lex *Lexer) readWord() *token.Token {
	s := lex.scanner
	s.AcceptSeq(isWord)
	if token.IsKeyword(s.Text()) {
		return s.EmitToken(token.KEYWORD)
	}
	return s.EmitToken(token.IDENT)
}

// readNumber scans integer, float, imaginary and prefixed (0x, 0o, 0b)
// literals.  A literal running into identifier characters, such as 123abc,
// is an ERROR token.
func (lex *Lexer) readNumber() *token.Token {
	s := lex.scanner
	if s.HasPrefix("0") {
		if c, ok := s.PeekAt(1); ok && strings.ContainsRune("xXoObB", c) {
			s.ScanRune()
			s.ScanRune()
			s.AcceptSeq(isHexDigit)
			return lex.numberTail()
		}
	}
	s.AcceptSeqDigit()
	if s.AcceptRune('.') {
		s.AcceptSeqDigit()
	}
	if s.AcceptAny("eE") {
		s.AcceptAny("+-")
		if s.AcceptSeqDigit() == 0 {
			return lex.numberTail()
		}
	}
	s.AcceptAny("jJ")
	return lex.numberTail()
}

func (lex *Lexer) numberTail() *token.Token {
	s := lex.scanner
	if s.AcceptSeq(isWord) > 0 {
		return s.EmitToken(token.ERROR)
	}
	text := s.Text()
	last := text[len(text)-1]
	if last == 'e' || last == 'E' || last == 'x' || last == 'X' || last == '+' || last == '-' {
		return s.EmitToken(token.ERROR)
	}
	return s.EmitToken(token.NUMBER)
}

func (lex *Lexer) readOperator() *token.Token {
	s := lex.scanner
	for _, op := range operators {
		if !s.AcceptString(op) {
			continue
		}
		switch op {
		case "(", "[", "{":
			lex.depth++
		case ")", "]", "}":
			if lex.depth > 0 {
				lex.depth--
			}
		}
		return s.EmitToken(token.OPERATOR)
	}
	s.ScanRune()
	return s.EmitToken(token.INVALID)
}

func isWordStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isWord(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || c == '_' || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// IsIdentifier reports whether name is a valid identifier that is not a
// reserved word.
func IsIdentifier(name string) bool {
	if name == "" || token.IsKeyword(name) {
		return false
	}
	for i, c := range name {
		if i == 0 && !isWordStart(c) {
			return false
		}
		if !isWord(c) {
			return false
		}
	}
	return true
}
