// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	_, id, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	pos := fromLSP(snap, params.Position)
	info, err := s.svc.Hover(id, pos.Line, pos.Col)
	if err != nil || info == nil {
		return nil, err
	}
	r := spanRange(snap, info.Span)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: info.Markdown(),
		},
		Range: &r,
	}, nil
}
