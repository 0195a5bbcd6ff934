// Copyright © 2024 The Quill authors

// Package quilltest contains helpers shared by the tests of several
// packages.
package quilltest

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// Logger is an io.Writer that forwards each complete line to t.Log.
type Logger struct {
	t   testing.TB
	mu  sync.Mutex
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i])) // slice does not include \n
		log.buf = log.buf[i+1:]
	}
}

func (log *Logger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}

// Zerolog returns a debug level logger writing through t.Log.  Partial
// lines are flushed when the test ends.
func Zerolog(t testing.TB) zerolog.Logger {
	w := NewLogger(t)
	t.Cleanup(w.Flush)
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// ReadFixture returns the contents of a file under testdata.
func ReadFixture(t testing.TB, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name) //#nosec G304
	if err != nil {
		t.Fatalf("Unable to read fixture %v: %v", name, err)
	}
	return string(b)
}

// Offset returns the byte offset delta bytes past the first occurrence of
// needle in text.
func Offset(t testing.TB, text, needle string, delta int) int {
	t.Helper()
	i := strings.Index(text, needle)
	if i < 0 {
		t.Fatalf("needle %q not found", needle)
	}
	return i + delta
}
