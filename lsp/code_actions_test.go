// Copyright © 2024 The Quill authors

package lsp

import (
	"testing"

	"github.com/luthersystems/quill/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// publishedDiagnostics opens content and returns the diagnostics published
// for it.
func publishedDiagnostics(t *testing.T, s *Server, uri, content string) []protocol.Diagnostic {
	t.Helper()
	var rec diagnosticsRecorder
	require.NoError(t, s.textDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: content},
	}))
	published := rec.all()
	require.Len(t, published, 1)
	return published[0].Diagnostics
}

func codeActions(t *testing.T, s *Server, uri string, diags []protocol.Diagnostic, only ...protocol.CodeActionKind) []protocol.CodeAction {
	t.Helper()
	result, err := s.textDocumentCodeAction(mockContext(), &protocol.CodeActionParams{
		TextDocument: textDoc(uri),
		Context: protocol.CodeActionContext{
			Diagnostics: diags,
			Only:        only,
		},
	})
	require.NoError(t, err)
	if result == nil {
		return nil
	}
	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok, "code actions should be []CodeAction, got %T", result)
	return actions
}

func diagnosticWithCode(t *testing.T, diags []protocol.Diagnostic, code string) protocol.Diagnostic {
	t.Helper()
	for _, d := range diags {
		if d.Code != nil && d.Code.Value == code {
			return d
		}
	}
	t.Fatalf("no %s diagnostic in %v", code, codes(diags))
	return protocol.Diagnostic{}
}

func TestCodeActionFixUndefinedName(t *testing.T) {
	s := testServer(t)
	diags := publishedDiagnostics(t, s, testURI, testContent)
	diag := diagnosticWithCode(t, diags, lint.AnalyzerUndefinedName.Name)

	actions := codeActions(t, s, testURI, []protocol.Diagnostic{diag})
	require.NotEmpty(t, actions)

	fix := actions[0]
	assert.Equal(t, "Change to 'total'", fix.Title)
	assert.Equal(t, protocol.CodeActionKindQuickFix, *fix.Kind)
	require.NotNil(t, fix.IsPreferred)
	assert.True(t, *fix.IsPreferred)
	edits := fix.Edit.Changes[testURI]
	require.Len(t, edits, 1)
	assert.Equal(t, "total", edits[0].NewText)
	assert.Equal(t, diag.Range, edits[0].Range)

	last := actions[len(actions)-1]
	assert.Equal(t, "Suppress with # noqa: undefined-name", last.Title)
}

func TestCodeActionSuppressLint(t *testing.T) {
	s := testServer(t)
	src := "def f():\n    unused = 1   \n    return 2\n"
	diags := publishedDiagnostics(t, s, testURI, src)
	diag := diagnosticWithCode(t, diags, lint.AnalyzerUnusedVariable.Name)

	actions := codeActions(t, s, testURI, []protocol.Diagnostic{diag})
	require.Len(t, actions, 1)
	assert.Equal(t, "Suppress with # noqa: unused-variable", actions[0].Title)
	edits := actions[0].Edit.Changes[testURI]
	require.Len(t, edits, 1)
	assert.Equal(t, "  # noqa: unused-variable", edits[0].NewText)
	// Inserted after the trimmed line content.
	assert.Equal(t, pos(1, 14), edits[0].Range.Start)
	assert.Equal(t, edits[0].Range.Start, edits[0].Range.End)
}

func TestCodeActionExtendsNoqaList(t *testing.T) {
	s := testServer(t)
	src := "def f():\n    unused = missing  # noqa: undefined-name\n    return 2\n"
	diags := publishedDiagnostics(t, s, testURI, src)
	diag := diagnosticWithCode(t, diags, lint.AnalyzerUnusedVariable.Name)

	actions := codeActions(t, s, testURI, []protocol.Diagnostic{diag})
	require.Len(t, actions, 1)
	edits := actions[0].Edit.Changes[testURI]
	require.Len(t, edits, 1)
	assert.Equal(t, ", unused-variable", edits[0].NewText)
}

func TestCodeActionSkipsForeignAndSyntaxDiagnostics(t *testing.T) {
	s := testServer(t)
	diags := publishedDiagnostics(t, s, testURI, "def f(:\n")
	syntax := diagnosticWithCode(t, diags, lint.AnalyzerSyntaxError.Name)
	assert.Empty(t, codeActions(t, s, testURI, []protocol.Diagnostic{syntax}))

	foreign := syntax
	foreign.Source = strPtr("other-linter")
	foreign.Code = &protocol.IntegerOrString{Value: lint.AnalyzerUnusedVariable.Name}
	assert.Empty(t, codeActions(t, s, testURI, []protocol.Diagnostic{foreign}))
}

func TestCodeActionOnlyFilter(t *testing.T) {
	s := testServer(t)
	diags := publishedDiagnostics(t, s, testURI, testContent)
	diag := diagnosticWithCode(t, diags, lint.AnalyzerUndefinedName.Name)

	assert.Empty(t, codeActions(t, s, testURI, []protocol.Diagnostic{diag}, protocol.CodeActionKindRefactor))
	assert.NotEmpty(t, codeActions(t, s, testURI, []protocol.Diagnostic{diag}, protocol.CodeActionKindQuickFix))
}
