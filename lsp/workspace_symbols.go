// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/luthersystems/quill/query"
	"github.com/sahilm/fuzzy"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// workspaceSymbol handles the workspace/symbol request.
// It returns the definitions of every open document whose name fuzzily
// matches the query, best matches first. An empty query returns all
// symbols in document order.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	var infos []protocol.SymbolInformation
	for _, doc := range s.docs.All() {
		_, snap := s.ensureAnalysis(doc)
		if snap == nil {
			continue
		}
		infos = appendSymbolInfos(infos, doc.URI, snap, snap.DocumentSymbols(), nil)
	}
	if params.Query == "" {
		return infos, nil
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	matches := fuzzy.Find(params.Query, names)
	results := make([]protocol.SymbolInformation, 0, len(matches))
	for _, m := range matches {
		results = append(results, infos[m.Index])
	}
	return results, nil
}

// appendSymbolInfos flattens an outline into symbol information entries.
// Nested items name their enclosing item as container.
func appendSymbolInfos(infos []protocol.SymbolInformation, uri string, snap *query.Snapshot, items []*query.OutlineItem, container *string) []protocol.SymbolInformation {
	for _, item := range items {
		infos = append(infos, protocol.SymbolInformation{
			Name: item.Name,
			Kind: mapSymbolKind(item.Kind),
			Location: protocol.Location{
				URI:   uri,
				Range: spanRange(snap, item.Selection),
			},
			ContainerName: container,
		})
		if len(item.Children) > 0 {
			name := item.Name
			infos = appendSymbolInfos(infos, uri, snap, item.Children, &name)
		}
	}
	return infos
}
