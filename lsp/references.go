// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	_, id, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	pos := fromLSP(snap, params.Position)
	refs, err := s.svc.References(id, pos.Line, pos.Col)
	if err != nil || len(refs) == 0 {
		return nil, err
	}

	var decl *protocol.Range
	if !params.Context.IncludeDeclaration {
		if span, ok := snap.Definition(pos); ok {
			r := spanRange(snap, span)
			decl = &r
		}
	}

	locs := make([]protocol.Location, 0, len(refs))
	for _, ref := range refs {
		r := spanRange(snap, ref.Span)
		if decl != nil && r == *decl {
			continue
		}
		locs = append(locs, protocol.Location{URI: params.TextDocument.URI, Range: r})
	}
	return locs, nil
}

// textDocumentDocumentHighlight handles the textDocument/documentHighlight
// request, marking bindings as writes and every other use as a read.
func (s *Server) textDocumentDocumentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	reads, writes := snap.Highlights(fromLSP(snap, params.Position))
	var out []protocol.DocumentHighlight
	read, write := protocol.DocumentHighlightKindRead, protocol.DocumentHighlightKindWrite
	for _, span := range writes {
		out = append(out, protocol.DocumentHighlight{Range: spanRange(snap, span), Kind: &write})
	}
	for _, span := range reads {
		out = append(out, protocol.DocumentHighlight{Range: spanRange(snap, span), Kind: &read})
	}
	return out, nil
}
