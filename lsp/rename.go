// Copyright © 2024 The Quill authors

package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentPrepareRename validates that the symbol under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil // no document, rename not applicable
	}
	// prepareRename returns null (not error) for
	// non-renameable symbols.
	span, name, err := snap.PrepareRename(fromLSP(snap, params.Position))
	if err != nil {
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{
		Range:       spanRange(snap, span),
		Placeholder: name,
	}, nil
}

// textDocumentRename handles the textDocument/rename request.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	doc, id, snap := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, fmt.Errorf("document not found: %s", params.TextDocument.URI)
	}
	if snap == nil {
		return nil, fmt.Errorf("document could not be analyzed: %s", params.TextDocument.URI)
	}
	pos := fromLSP(snap, params.Position)
	res, err := s.svc.Rename(id, pos.Line, pos.Col, params.NewName)
	if err != nil {
		return nil, err
	}
	edits := make([]protocol.TextEdit, len(res.Edits))
	for i, edit := range res.Edits {
		edits[i] = protocol.TextEdit{
			Range:   spanRange(snap, edit.Span),
			NewText: edit.NewText,
		}
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			params.TextDocument.URI: edits,
		},
	}, nil
}
