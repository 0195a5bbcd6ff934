// Copyright © 2024 The Quill authors

package lsp

import (
	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/parser/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentSignatureHelp handles textDocument/signatureHelp requests.
// It finds the innermost call around the cursor, looks up the signature of
// the callee and returns parameter hints.
func (s *Server) textDocumentSignatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	_, sym, argIdx, ok := snap.CallAt(fromLSP(snap, params.Position))
	if !ok || sym == nil || sym.Signature == nil {
		return nil, nil
	}
	return buildSignatureHelp(sym, argIdx), nil
}

// buildSignatureHelp constructs the SignatureHelp response for a callable
// symbol with the given active argument index.
func buildSignatureHelp(sym *analysis.Symbol, argIdx int) *protocol.SignatureHelp {
	sig := sym.Signature
	var params []protocol.ParameterInformation
	for _, p := range sig.Params {
		params = append(params, protocol.ParameterInformation{Label: paramLabel(p)})
	}

	info := protocol.SignatureInformation{
		Label:      sym.Name + sig.String(),
		Parameters: params,
	}
	if sym.Doc != "" {
		info.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sym.Doc,
		}
	}

	activeSig := protocol.UInteger(0)
	activeParam := safeUint(activeParameter(sig, argIdx))
	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{info},
		ActiveSignature: &activeSig,
		ActiveParameter: &activeParam,
	}
}

func paramLabel(p analysis.Param) string {
	switch {
	case p.Kind == ast.ParamVarArgs:
		return "*" + p.Name
	case p.Kind == ast.ParamVarKw:
		return "**" + p.Name
	case p.Default:
		return p.Name + "=..."
	}
	return p.Name
}

// activeParameter maps a positional argument index to the parameter it
// fills.  Arguments past the positional parameters land on *args when the
// signature has one.
func activeParameter(sig *analysis.Signature, argIdx int) int {
	positional := 0
	for i, p := range sig.Params {
		switch p.Kind {
		case ast.ParamPositional:
			if positional == argIdx {
				return i
			}
			positional++
		case ast.ParamVarArgs:
			return i
		}
	}
	return max(len(sig.Params)-1, 0)
}
