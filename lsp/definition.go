// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.
// Builtins have no navigable source and yield no location.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	_, id, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	pos := fromLSP(snap, params.Position)
	loc, err := s.svc.Definition(id, pos.Line, pos.Col)
	if err != nil || loc == nil {
		return nil, err
	}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: spanRange(snap, loc.Span),
	}, nil
}
