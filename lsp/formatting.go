// Copyright © 2024 The Quill authors

package lsp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const formatTimeout = 10 * time.Second

// textDocumentFormatting handles textDocument/formatting requests.  It pipes
// the document through the configured formatter and returns a single
// whole-document text edit, or nil if no changes are needed.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil || len(s.formatCmd) == 0 {
		return nil, nil
	}

	doc.mu.Lock()
	content := doc.Content
	uri := doc.URI
	doc.mu.Unlock()

	if content == "" {
		return nil, nil
	}

	formatted, err := s.runFormatter(content)
	if err != nil {
		// Formatter failures usually mean the code does not parse yet.
		// Return nil edits so the editor doesn't show an error dialog.
		s.logger.Debug().Err(err).Str("uri", uri).Msg("formatter failed")
		return nil, nil
	}

	// No changes needed.
	if formatted == content {
		return nil, nil
	}

	// Return a single edit replacing the entire document.
	lines := strings.Count(content, "\n")
	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: safeUint(lines + 1), Character: 0},
			},
			NewText: formatted,
		},
	}, nil
}

func (s *Server) runFormatter(content string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), formatTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, s.formatCmd[0], s.formatCmd[1:]...) //#nosec G204 -- configured by the user
	cmd.Stdin = strings.NewReader(content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
