// Copyright © 2024 The Quill authors

package repl

import (
	"github.com/luthersystems/quill/diagnostic"
	"github.com/luthersystems/quill/lint"
)

// render writes diagnostics as annotated snippets of the buffer.  The
// buffer has no file behind it so the renderer reads the session text.
func (s *session) render(diags []lint.Diagnostic) {
	r := &diagnostic.Renderer{
		Color: s.cfg.color,
		SourceReader: func(string) ([]byte, error) {
			return []byte(s.text()), nil
		},
	}
	_ = r.RenderAll(s.out, diagnostic.FromLintAll(diags, false))
}
