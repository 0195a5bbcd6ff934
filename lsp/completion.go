// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCompletion handles the textDocument/completion request.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	pos := fromLSP(snap, params.Position)
	prefix, start := wordBefore(snap, pos)

	var comps []query.Completion
	if recv, ok := receiverBefore(snap, start); ok {
		comps = snap.MemberCompletions(recv, prefix)
	} else {
		comps = snap.Completions(pos, prefix)
	}

	items := make([]protocol.CompletionItem, 0, len(comps))
	for _, c := range comps {
		kind := protocol.CompletionItemKindKeyword
		if !c.Keyword {
			kind = mapCompletionItemKind(c.Kind)
		}
		item := protocol.CompletionItem{
			Label: c.Label,
			Kind:  &kind,
		}
		if c.Detail != "" {
			detail := c.Detail
			item.Detail = &detail
		}
		if c.Doc != "" {
			item.Documentation = &protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: c.Doc,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// receiverBefore reports whether the word starting at start follows a dot,
// returning the position just after the receiver name.
func receiverBefore(snap *query.Snapshot, start query.Position) (query.Position, bool) {
	runes := []rune(snap.LineText(start.Line))
	dot := start.Col - 2 // rune index of the character before the word
	if dot < 0 || dot >= len(runes) || runes[dot] != '.' {
		return query.Position{}, false
	}
	return query.Position{Line: start.Line, Col: start.Col - 1}, true
}
