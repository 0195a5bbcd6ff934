// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	// Return as []DocumentSymbol (the preferred hierarchical form).
	return documentSymbols(snap, snap.DocumentSymbols()), nil
}

func documentSymbols(snap *query.Snapshot, items []*query.OutlineItem) []protocol.DocumentSymbol {
	symbols := make([]protocol.DocumentSymbol, 0, len(items))
	for _, item := range items {
		sym := protocol.DocumentSymbol{
			Name:           item.Name,
			Kind:           mapSymbolKind(item.Kind),
			Range:          spanRange(snap, item.Range),
			SelectionRange: spanRange(snap, item.Selection),
		}
		if item.Detail != "" {
			detail := item.Detail
			sym.Detail = &detail
		}
		if len(item.Children) > 0 {
			sym.Children = documentSymbols(snap, item.Children)
		}
		symbols = append(symbols, sym)
	}
	return symbols
}
