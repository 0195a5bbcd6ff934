// Copyright © 2024 The Quill authors

package lsp

import (
	"unicode"
	"unicode/utf8"

	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Semantic token type indices must match the order in semanticTokenLegend().
const (
	semTokenNamespace = iota
	semTokenClass
	semTokenFunction
	semTokenMethod
	semTokenParameter
	semTokenVariable
)

// Semantic token modifier bit flags must match the order in semanticTokenLegend().
const (
	semModDeclaration = 1 << iota
	semModReadonly
	semModDefaultLibrary
)

// semanticTokenLegend returns the legend that the client uses to decode tokens.
func semanticTokenLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes: []string{
			"namespace", // 0
			"class",     // 1
			"function",  // 2
			"method",    // 3
			"parameter", // 4
			"variable",  // 5
		},
		TokenModifiers: []string{
			"declaration",    // bit 0
			"readonly",       // bit 1
			"defaultLibrary", // bit 2
		},
	}
}

// rawToken is an intermediate representation before delta encoding.
type rawToken struct {
	line      int // 0-based
	startChar int // 0-based, UTF-16 units
	length    int // UTF-16 units
	tokenType int
	modifiers int
}

// textDocumentSemanticTokensFull handles the textDocument/semanticTokens/full request.
func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil || snap.Semantics == nil {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: deltaEncode(semanticTokens(snap))}, nil
}

// semanticTokens classifies every symbol occurrence, in position order.
func semanticTokens(snap *query.Snapshot) []rawToken {
	occs := snap.Semantics.Occurrences()
	tokens := make([]rawToken, 0, len(occs))
	for _, occ := range occs {
		r := spanRange(snap, occ.Span)
		if r.Start.Line != r.End.Line {
			continue
		}
		tokType, mods := classifySymbol(occ.Symbol)
		if occ.Span == occ.Symbol.Decl {
			mods |= semModDeclaration
		}
		tokens = append(tokens, rawToken{
			line:      int(r.Start.Line),
			startChar: int(r.Start.Character),
			length:    int(r.End.Character - r.Start.Character),
			tokenType: tokType,
			modifiers: mods,
		})
	}
	return tokens
}

func classifySymbol(sym *analysis.Symbol) (int, int) {
	switch sym.Kind {
	case analysis.SymModule:
		return semTokenNamespace, 0
	case analysis.SymClass:
		return semTokenClass, 0
	case analysis.SymFunction:
		return semTokenFunction, 0
	case analysis.SymMethod:
		return semTokenMethod, 0
	case analysis.SymParameter:
		return semTokenParameter, 0
	case analysis.SymConstant:
		return semTokenVariable, semModReadonly
	case analysis.SymBuiltin:
		// Exception types are the only capitalized builtins.
		if r, _ := utf8.DecodeRuneInString(sym.Name); unicode.IsUpper(r) {
			return semTokenClass, semModDefaultLibrary
		}
		return semTokenFunction, semModDefaultLibrary
	}
	return semTokenVariable, 0
}

// deltaEncode converts sorted raw tokens to the LSP relative encoding:
// [deltaLine, deltaStartChar, length, tokenType, tokenModifiers] per token.
func deltaEncode(tokens []rawToken) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, tok := range tokens {
		deltaLine := tok.line - prevLine
		deltaChar := tok.startChar
		if deltaLine == 0 {
			deltaChar = tok.startChar - prevChar
		}
		data = append(data,
			safeUint(deltaLine),
			safeUint(deltaChar),
			safeUint(tok.length),
			safeUint(tok.tokenType),
			safeUint(tok.modifiers),
		)
		prevLine = tok.line
		prevChar = tok.startChar
	}
	return data
}
