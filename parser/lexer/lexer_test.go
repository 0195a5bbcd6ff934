// Copyright © 2024 The Quill authors

package lexer

import (
	"reflect"
	"testing"

	"github.com/luthersystems/quill/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`abc`, []*token.Token{
			testToken(token.IDENT, "abc"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`x = 1`, []*token.Token{
			testToken(token.IDENT, "x"),
			testToken(token.OPERATOR, "="),
			testToken(token.NUMBER, "1"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{"def f(a,\n  b):\n    pass\n", []*token.Token{
			testToken(token.KEYWORD, "def"),
			testToken(token.IDENT, "f"),
			testToken(token.OPERATOR, "("),
			testToken(token.IDENT, "a"),
			testToken(token.OPERATOR, ","),
			testToken(token.IDENT, "b"),
			testToken(token.OPERATOR, ")"),
			testToken(token.OPERATOR, ":"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.KEYWORD, "pass"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{`a **= b // c -> d`, []*token.Token{
			testToken(token.IDENT, "a"),
			testToken(token.OPERATOR, "**="),
			testToken(token.IDENT, "b"),
			testToken(token.OPERATOR, "//"),
			testToken(token.IDENT, "c"),
			testToken(token.OPERATOR, "->"),
			testToken(token.IDENT, "d"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`f"Hello, {name}!" r'\d' b"x" ""`, []*token.Token{
			testToken(token.STRING, `f"Hello, {name}!"`),
			testToken(token.STRING, `r'\d'`),
			testToken(token.STRING, `b"x"`),
			testToken(token.STRING, `""`),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{"s = \"\"\"doc\nmore\"\"\"\n", []*token.Token{
			testToken(token.IDENT, "s"),
			testToken(token.OPERATOR, "="),
			testToken(token.STRING, "\"\"\"doc\nmore\"\"\""),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{"x = \"abc\ny", []*token.Token{
			testToken(token.IDENT, "x"),
			testToken(token.OPERATOR, "="),
			testToken(token.ERROR, `"abc`),
			testToken(token.NEWLINE, "\n"),
			testToken(token.IDENT, "y"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{`a $ b`, []*token.Token{
			testToken(token.IDENT, "a"),
			testToken(token.INVALID, "$"),
			testToken(token.IDENT, "b"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{"x  # note\n", []*token.Token{
			testToken(token.IDENT, "x"),
			testToken(token.COMMENT, "# note"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{`1 2.5 .5 1e-3 0xFF 3j 1_000 123bad`, []*token.Token{
			testToken(token.NUMBER, "1"),
			testToken(token.NUMBER, "2.5"),
			testToken(token.NUMBER, ".5"),
			testToken(token.NUMBER, "1e-3"),
			testToken(token.NUMBER, "0xFF"),
			testToken(token.NUMBER, "3j"),
			testToken(token.NUMBER, "1_000"),
			testToken(token.ERROR, "123bad"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
		{"x = f(1,\ndef g():\n    pass\n", []*token.Token{
			testToken(token.IDENT, "x"),
			testToken(token.OPERATOR, "="),
			testToken(token.IDENT, "f"),
			testToken(token.OPERATOR, "("),
			testToken(token.NUMBER, "1"),
			testToken(token.OPERATOR, ","),
			testToken(token.NEWLINE, ""),
			testToken(token.KEYWORD, "def"),
			testToken(token.IDENT, "g"),
			testToken(token.OPERATOR, "("),
			testToken(token.OPERATOR, ")"),
			testToken(token.OPERATOR, ":"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.KEYWORD, "pass"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{"x = 1 + \\\n    2\n", []*token.Token{
			testToken(token.IDENT, "x"),
			testToken(token.OPERATOR, "="),
			testToken(token.NUMBER, "1"),
			testToken(token.OPERATOR, "+"),
			testToken(token.NUMBER, "2"),
			testToken(token.NEWLINE, "\n"),
			testToken(token.EOF, ""),
		}},
		{`not None`, []*token.Token{
			testToken(token.KEYWORD, "not"),
			testToken(token.KEYWORD, "None"),
			testToken(token.NEWLINE, ""),
			testToken(token.EOF, ""),
		}},
	}
	for i, test := range tests {
		var tokens []*token.Token
		for _, tok := range Tokenize(test.input) {
			tokens = append(tokens, testToken(tok.Type, tok.Text))
		}
		if !reflect.DeepEqual(tokens, test.tokens) {
			t.Errorf("test %d: unexpected tokens for input", i)
			t.Logf("source:\n\t%s", test.input)
			t.Logf("tokens:")
			for _, tok := range tokens {
				t.Logf("\t%v", tok)
			}
		}
	}
}

func TestLexerSpans(t *testing.T) {
	tokens := Tokenize("s = '''a\nb'''\nname = 1")
	var name *token.Token
	for _, tok := range tokens {
		if tok.Is(token.IDENT, "name") {
			name = tok
		}
	}
	require.NotNil(t, name)
	assert.Equal(t, 3, name.Span.Line)
	assert.Equal(t, 1, name.Span.Col)
	assert.Equal(t, 5, name.Span.EndCol)
	assert.Equal(t, "name", "s = '''a\nb'''\nname = 1"[name.Span.Start:name.Span.End])
}

func TestLexerEOFRepeats(t *testing.T) {
	lex := New("x")
	for i := 0; i < 2; i++ {
		lex.ReadToken()
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, token.EOF, lex.ReadToken().Type)
	}
}

func TestTokensRestartable(t *testing.T) {
	seq := Tokens("a = b\nc = d\n")
	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, 9, first)
	assert.Equal(t, first, second)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("x"))
	assert.True(t, IsIdentifier("_private9"))
	assert.True(t, IsIdentifier("Größe"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("123bad"))
	assert.False(t, IsIdentifier("has-dash"))
	assert.False(t, IsIdentifier("class"))
}

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type: typ,
		Text: text,
	}
}
