// Copyright © 2024 The Quill authors

package token

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from in-memory source text.
// It tracks byte offsets, lines and rune columns incrementally so every
// emitted token carries an exact Span.
type Scanner struct {
	src string

	start     int // offset of the current token
	startLine int
	startCol  int

	pos  int // offset of the next unscanned rune
	line int // line of the next unscanned rune
	col  int // column of the next unscanned rune

	c rune // the last scanned rune
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(src string) *Scanner {
	return &Scanner{
		src:       src,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type: typ,
		Text: s.Text(),
		Span: s.SpanStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.pos]
}

// SpanStart returns the span of the text scanned since the last call to
// EmitToken or Ignore.
func (s *Scanner) SpanStart() Span {
	return Span{
		Start:   s.start,
		End:     s.pos,
		Line:    s.startLine,
		Col:     s.startCol,
		EndLine: s.line,
		EndCol:  s.col,
	}
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c
}

// Col returns the column of the next rune to be scanned.
func (s *Scanner) Col() int {
	return s.col
}

// Peek returns the next rune to be scanned.  Peek returns a false second
// value at the end of the input.
func (s *Scanner) Peek() (rune, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the rune n positions beyond the next rune to be scanned.
func (s *Scanner) PeekAt(n int) (rune, bool) {
	pos := s.pos
	for {
		if pos >= len(s.src) {
			return 0, false
		}
		c, size := utf8.DecodeRuneInString(s.src[pos:])
		if n == 0 {
			return c, true
		}
		pos += size
		n--
	}
}

// ScanRune includes the next rune in the current token.  ScanRune returns
// false at the end of the input.  Invalid utf-8 bytes are scanned one at a
// time as utf8.RuneError.
func (s *Scanner) ScanRune() bool {
	if s.pos >= len(s.src) {
		return false
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	s.c = c
	s.pos += n
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return true
}

// EOF reports whether all input has been scanned.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune()
}

func (s *Scanner) AcceptRune(c rune) bool {
	peek, ok := s.Peek()
	if !ok || peek != c {
		return false
	}
	return s.ScanRune()
}

func (s *Scanner) AcceptAny(charset string) bool {
	peek, ok := s.Peek()
	if !ok || !strings.ContainsRune(charset, peek) {
		return false
	}
	return s.ScanRune()
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(func(c rune) bool { return '0' <= c && c <= '9' || c == '_' })
}

// AcceptSeqSpace accepts horizontal whitespace.  Newlines are significant
// and never accepted.
func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(func(c rune) bool { return c != '\n' && unicode.IsSpace(c) })
}

// PeekWhile returns the longest run of unscanned input whose runes satisfy
// fn without scanning it.
func (s *Scanner) PeekWhile(fn func(rune) bool) string {
	end := s.pos
	for end < len(s.src) {
		c, n := utf8.DecodeRuneInString(s.src[end:])
		if !fn(c) {
			break
		}
		end += n
	}
	return s.src[s.pos:end]
}

// HasPrefix reports whether the unscanned input begins with literal.
func (s *Scanner) HasPrefix(literal string) bool {
	return strings.HasPrefix(s.src[s.pos:], literal)
}

// AcceptString accepts literal if the unscanned input begins with it.
func (s *Scanner) AcceptString(literal string) bool {
	if !s.HasPrefix(literal) {
		return false
	}
	for range literal {
		s.ScanRune()
	}
	return true
}
