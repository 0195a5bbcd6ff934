// Copyright © 2024 The Quill authors

package lsp

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/token"
	"github.com/luthersystems/quill/query"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// fromLSP converts a 0-based LSP position, whose character counts UTF-16
// code units, to a 1-based line and rune column of snap.
func fromLSP(snap *query.Snapshot, p protocol.Position) query.Position {
	line := int(p.Line) + 1
	col, units := 1, 0
	for _, r := range snap.LineText(line) {
		if units >= int(p.Character) {
			break
		}
		units += utf16.RuneLen(r)
		col++
	}
	return query.Position{Line: line, Col: col}
}

// toLSP converts a 1-based line and rune column of snap to an LSP position.
func toLSP(snap *query.Snapshot, pos query.Position) protocol.Position {
	units, col := 0, 1
	for _, r := range snap.LineText(pos.Line) {
		if col >= pos.Col {
			break
		}
		units += utf16.RuneLen(r)
		col++
	}
	return protocol.Position{Line: safeUint(pos.Line - 1), Character: safeUint(units)}
}

// spanRange converts a byte span of snap to an LSP range.
func spanRange(snap *query.Snapshot, span token.Span) protocol.Range {
	return protocol.Range{
		Start: toLSP(snap, snap.PositionOf(span.Start)),
		End:   toLSP(snap, snap.PositionOf(span.End)),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// wordBefore returns the identifier characters immediately before the
// cursor and the position where they start.
func wordBefore(snap *query.Snapshot, pos query.Position) (string, query.Position) {
	runes := []rune(snap.LineText(pos.Line))
	end := min(pos.Col-1, len(runes))
	start := end
	for start > 0 && isNameRune(runes[start-1]) {
		start--
	}
	return string(runes[start:end]), query.Position{Line: pos.Line, Col: start + 1}
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// mapSymbolKind converts an analysis.SymbolKind to an LSP SymbolKind.
func mapSymbolKind(kind analysis.SymbolKind) protocol.SymbolKind {
	switch kind {
	case analysis.SymFunction, analysis.SymBuiltin:
		return protocol.SymbolKindFunction
	case analysis.SymMethod:
		return protocol.SymbolKindMethod
	case analysis.SymClass:
		return protocol.SymbolKindClass
	case analysis.SymConstant:
		return protocol.SymbolKindConstant
	case analysis.SymModule:
		return protocol.SymbolKindModule
	default:
		return protocol.SymbolKindVariable
	}
}

// mapCompletionItemKind converts an analysis.SymbolKind to an LSP CompletionItemKind.
func mapCompletionItemKind(kind analysis.SymbolKind) protocol.CompletionItemKind {
	switch kind {
	case analysis.SymFunction, analysis.SymBuiltin:
		return protocol.CompletionItemKindFunction
	case analysis.SymMethod:
		return protocol.CompletionItemKindMethod
	case analysis.SymClass:
		return protocol.CompletionItemKindClass
	case analysis.SymConstant:
		return protocol.CompletionItemKindConstant
	case analysis.SymModule:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindVariable
	}
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
