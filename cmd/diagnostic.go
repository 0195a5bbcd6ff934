// Copyright © 2024 The Quill authors

package cmd

import (
	"io"

	"github.com/luthersystems/quill/diagnostic"
	"github.com/luthersystems/quill/lint"
	"github.com/spf13/afero"
)

func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(colorFlag)
	if err != nil {
		return diagnostic.ColorAuto
	}
	return mode
}

// newRenderer returns a renderer reading source lines from fs.  Files named
// in sources are served from memory instead.
func newRenderer(fs afero.Fs, sources map[string][]byte) *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color: colorMode(),
		SourceReader: func(path string) ([]byte, error) {
			if src, ok := sources[path]; ok {
				return src, nil
			}
			return afero.ReadFile(fs, path)
		},
	}
}

// renderLintDiagnostics renders lint diagnostics as annotated source
// snippets.
func renderLintDiagnostics(w io.Writer, r *diagnostic.Renderer, diags []lint.Diagnostic) error {
	return r.RenderAll(w, diagnostic.FromLintAll(diags, true))
}
