// Copyright © 2024 The Quill authors

package lsp

import (
	"encoding/json"
	"path"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// callHierarchyData is stored in CallHierarchyItem.Data to carry context
// between prepare and incoming/outgoing calls requests.  Module marks the
// item standing for code outside any function.
type callHierarchyData struct {
	URI    string `json:"uri"`
	Line   int    `json:"line"` // 0-based
	Col    int    `json:"col"`  // 0-based
	Module bool   `json:"module,omitempty"`
}

// textDocumentPrepareCallHierarchy handles the textDocument/prepareCallHierarchy request.
func (s *Server) textDocumentPrepareCallHierarchy(_ *glsp.Context, params *protocol.CallHierarchyPrepareParams) ([]protocol.CallHierarchyItem, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	sym, _, ok := snap.SymbolAt(fromLSP(snap, params.Position))
	// Builtins have no declaration to show.
	if !ok || !query.IsCallable(sym) || sym.Decl.IsZero() {
		return nil, nil
	}
	return []protocol.CallHierarchyItem{callHierarchyItem(snap, params.TextDocument.URI, sym)}, nil
}

// callHierarchyIncomingCalls handles the callHierarchy/incomingCalls request.
// Calls made outside any function come from the module item.
func (s *Server) callHierarchyIncomingCalls(_ *glsp.Context, params *protocol.CallHierarchyIncomingCallsParams) ([]protocol.CallHierarchyIncomingCall, error) {
	snap, uri, target, isModule := s.resolveCallHierarchyItem(params.Item)
	if target == nil || isModule {
		return nil, nil
	}
	var result []protocol.CallHierarchyIncomingCall
	for _, g := range snap.IncomingCalls(target) {
		from := moduleItem(snap, uri)
		if g.Caller != nil {
			from = callHierarchyItem(snap, uri, g.Caller)
		}
		result = append(result, protocol.CallHierarchyIncomingCall{
			From:       from,
			FromRanges: siteRanges(snap, g),
		})
	}
	return result, nil
}

// callHierarchyOutgoingCalls handles the callHierarchy/outgoingCalls request.
func (s *Server) callHierarchyOutgoingCalls(_ *glsp.Context, params *protocol.CallHierarchyOutgoingCallsParams) ([]protocol.CallHierarchyOutgoingCall, error) {
	snap, uri, target, isModule := s.resolveCallHierarchyItem(params.Item)
	if snap == nil || (target == nil && !isModule) {
		return nil, nil
	}
	var result []protocol.CallHierarchyOutgoingCall
	for _, g := range snap.OutgoingCalls(target) {
		result = append(result, protocol.CallHierarchyOutgoingCall{
			To:         callHierarchyItem(snap, uri, g.Callee),
			FromRanges: siteRanges(snap, g),
		})
	}
	return result, nil
}

// resolveCallHierarchyItem finds the symbol an item returned by prepare
// names in the current analysis of its document.  The symbol is nil for the
// module item.
func (s *Server) resolveCallHierarchyItem(item protocol.CallHierarchyItem) (*query.Snapshot, string, *analysis.Symbol, bool) {
	data := decodeCallHierarchyData(item.Data)
	if data == nil {
		return nil, "", nil, false
	}
	_, _, snap := s.lookup(data.URI)
	if snap == nil {
		return nil, "", nil, false
	}
	if data.Module {
		return snap, data.URI, nil, true
	}
	sym, _, ok := snap.SymbolAt(fromLSP(snap, protocol.Position{Line: safeUint(data.Line), Character: safeUint(data.Col)}))
	if !ok || !query.IsCallable(sym) || sym.Decl.IsZero() {
		return snap, data.URI, nil, false
	}
	return snap, data.URI, sym, false
}

// callHierarchyItem creates a CallHierarchyItem spanning the definition of
// sym.
func callHierarchyItem(snap *query.Snapshot, uri string, sym *analysis.Symbol) protocol.CallHierarchyItem {
	selRange := spanRange(snap, sym.Decl)
	encRange := selRange
	if sym.Node != nil {
		encRange = spanRange(snap, sym.Node.Span())
	}
	item := protocol.CallHierarchyItem{
		Name:           sym.Name,
		Kind:           mapSymbolKind(sym.Kind),
		URI:            uri,
		Range:          encRange,
		SelectionRange: selRange,
		Data: callHierarchyData{
			URI:  uri,
			Line: int(selRange.Start.Line),
			Col:  int(selRange.Start.Character),
		},
	}
	if sym.Signature != nil {
		detail := sym.Name + sym.Signature.String()
		item.Detail = &detail
	}
	return item
}

// moduleItem is the caller of calls made outside any function.
func moduleItem(snap *query.Snapshot, uri string) protocol.CallHierarchyItem {
	whole := spanRange(snap, snap.Module.Span())
	return protocol.CallHierarchyItem{
		Name:           path.Base(uriToPath(uri)),
		Kind:           protocol.SymbolKindModule,
		URI:            uri,
		Range:          whole,
		SelectionRange: protocol.Range{Start: whole.Start, End: whole.Start},
		Data:           callHierarchyData{URI: uri, Module: true},
	}
}

func siteRanges(snap *query.Snapshot, g *query.CallSites) []protocol.Range {
	ranges := make([]protocol.Range, len(g.Sites))
	for i, span := range g.Sites {
		ranges[i] = spanRange(snap, span)
	}
	return ranges
}

// decodeCallHierarchyData decodes the data field from a CallHierarchyItem.
// In tests the data arrives as a Go struct; over the wire it arrives as
// map[string]any from JSON deserialization.
func decodeCallHierarchyData(data any) *callHierarchyData {
	switch d := data.(type) {
	case nil:
		return nil
	case callHierarchyData:
		return &d
	case *callHierarchyData:
		return d
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var d callHierarchyData
	if err := json.Unmarshal(b, &d); err != nil || d.URI == "" {
		return nil
	}
	return &d
}
