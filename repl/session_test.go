// Copyright © 2024 The Quill authors

package repl

import (
	"bytes"
	"context"
	"testing"

	"github.com/luthersystems/quill/quilltest"
	"github.com/luthersystems/quill/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := newConfig(
		WithFs(fs),
		WithHistoryFile(""),
		WithService(service.New(service.WithLogger(quilltest.Zerolog(t)))),
	)
	var out bytes.Buffer
	sess, err := newSession(context.Background(), cfg, &out)
	require.NoError(t, err)
	t.Cleanup(sess.close)
	return sess, &out, fs
}

func feedAll(sess *session, lines ...string) bool {
	quit := false
	for _, line := range lines {
		quit = sess.feed(context.Background(), line)
	}
	return quit
}

func TestSessionReportsNewDiagnostics(t *testing.T) {
	sess, out, _ := newTestSession(t)
	feedAll(sess, "print(y)")
	assert.Contains(t, out.String(), "error[undefined-name]: undefined name 'y'")
	assert.Equal(t, []string{"print(y)"}, sess.lines)

	out.Reset()
	feedAll(sess, "y = 2")
	assert.NotContains(t, out.String(), "undefined name 'y'")
}

func TestSessionBlock(t *testing.T) {
	sess, out, _ := newTestSession(t)
	feedAll(sess, "def greet(name):", `    """Say hello."""`, "    return 'hi ' + name")
	assert.True(t, sess.pending())
	assert.Empty(t, sess.lines)

	feedAll(sess, "")
	assert.False(t, sess.pending())
	assert.Len(t, sess.lines, 3)
	assert.NotContains(t, out.String(), "error[")

	out.Reset()
	feedAll(sess, `greet("bob")`, ":hover greet")
	assert.Contains(t, out.String(), "def greet(name)")
	assert.Contains(t, out.String(), "Say hello.")

	out.Reset()
	feedAll(sess, ":refs greet")
	assert.Contains(t, out.String(), "1:5\tdef greet(name):")
	assert.Contains(t, out.String(), "4:1\tgreet(\"bob\")")

	out.Reset()
	feedAll(sess, ":def 4 2")
	assert.Equal(t, "1:5\tdef greet(name):\n", out.String())
}

func TestSessionRename(t *testing.T) {
	sess, out, _ := newTestSession(t)
	feedAll(sess, "def greet(name):", "    return name", "", `greet("bob")`)
	before := sess.id

	feedAll(sess, ":rename greet welcome")
	assert.Contains(t, out.String(), "renamed 2 occurrences")
	assert.Equal(t, "def welcome(name):", sess.lines[0])
	assert.Equal(t, `welcome("bob")`, sess.lines[2])
	assert.NotEqual(t, before, sess.id)

	out.Reset()
	feedAll(sess, ":rename welcome 1x")
	assert.Contains(t, out.String(), "error: ")
	assert.Equal(t, "def welcome(name):", sess.lines[0])
}

func TestSessionLoad(t *testing.T) {
	sess, out, fs := newTestSession(t)
	require.NoError(t, afero.WriteFile(fs, "a.py", []byte("x = 1\nprint(x)\n"), 0o644))

	feedAll(sess, ":load a.py")
	assert.Equal(t, "loaded 2 lines, 0 diagnostics\n", out.String())

	out.Reset()
	feedAll(sess, ":def 2 7")
	assert.Equal(t, "1:1\tx = 1\n", out.String())

	out.Reset()
	feedAll(sess, ":show")
	assert.Equal(t, "1 | x = 1\n2 | print(x)\n", out.String())

	out.Reset()
	feedAll(sess, ":symbols")
	assert.Contains(t, out.String(), "x")
	assert.Contains(t, out.String(), "1:1")

	out.Reset()
	feedAll(sess, ":load missing.py")
	assert.Contains(t, out.String(), "error: ")
}

func TestSessionCommands(t *testing.T) {
	sess, out, _ := newTestSession(t)

	feedAll(sess, ":fnord")
	assert.Contains(t, out.String(), "unknown command :fnord")

	out.Reset()
	feedAll(sess, ":hover")
	assert.Contains(t, out.String(), "usage: :hover LINE COL | NAME")

	out.Reset()
	feedAll(sess, ":help")
	assert.Contains(t, out.String(), ":rename")

	out.Reset()
	feedAll(sess, "print(z)", ":diag")
	assert.Contains(t, out.String(), "undefined name 'z'")

	out.Reset()
	feedAll(sess, ":reset", ":diag")
	assert.Equal(t, "no diagnostics\n", out.String())
	assert.Empty(t, sess.lines)

	assert.True(t, feedAll(sess, ":q"))
	assert.True(t, feedAll(sess, ":quit"))
}

func TestSymbolCompleter(t *testing.T) {
	sess, _, _ := newTestSession(t)
	feedAll(sess, "counter = 1", "print(counter)")
	c := &symbolCompleter{sess: sess}

	candidates, offset := c.Do([]rune("cou"), 3)
	assert.Equal(t, 3, offset)
	assert.Contains(t, candidates, []rune("nter"))

	candidates, offset = c.Do([]rune("x = pri"), 7)
	assert.Equal(t, 3, offset)
	assert.Contains(t, candidates, []rune("nt"))

	candidates, offset = c.Do([]rune("whi"), 3)
	assert.Equal(t, 3, offset)
	assert.Contains(t, candidates, []rune("le"))

	candidates, offset = c.Do([]rune(":re"), 3)
	assert.Equal(t, 2, offset)
	assert.Equal(t, [][]rune{[]rune("fs"), []rune("name"), []rune("set")}, candidates, ":refs, :rename and :reset")

	candidates, _ = c.Do([]rune("zzz_nonexistent"), 15)
	assert.Empty(t, candidates)

	candidates, _ = c.Do([]rune("x = "), 4)
	assert.Empty(t, candidates)
}
