// Copyright © 2024 The Quill authors

package lsp

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/luthersystems/quill/lint"
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxSuggestions bounds the "did you mean" fixes offered for one name.
const maxSuggestions = 3

var (
	undefinedNamePattern = regexp.MustCompile(`^undefined name '([^']+)'`)
	noqaRulesPattern     = regexp.MustCompile(`#\s*noqa:\s*[\w\-]+(\s*,\s*[\w\-]+)*\s*$`)
	bareNoqaPattern      = regexp.MustCompile(`#\s*noqa\s*$`)
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 && !slices.Contains(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	uri := params.TextDocument.URI
	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		// Only handle diagnostics we published.
		if diag.Source == nil || *diag.Source != diagnosticSource || diag.Code == nil {
			continue
		}
		rule := fmt.Sprintf("%v", diag.Code.Value)
		if rule == lint.AnalyzerUndefinedName.Name {
			actions = append(actions, suggestNames(uri, snap, diag)...)
		}
		if rule == lint.AnalyzerSyntaxError.Name {
			continue
		}
		if action, ok := suppressLintAction(uri, snap, diag, rule); ok {
			actions = append(actions, action)
		}
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// suggestNames offers to replace an undefined name with visible names that
// are a short edit away from it.
func suggestNames(uri string, snap *query.Snapshot, diag protocol.Diagnostic) []protocol.CodeAction {
	m := undefinedNamePattern.FindStringSubmatch(diag.Message)
	if m == nil {
		return nil
	}
	name := m[1]
	limit := max(1, len(name)/3)

	type candidate struct {
		name string
		dist int
	}
	var candidates []candidate
	for _, c := range snap.Completions(fromLSP(snap, diag.Range.Start), "") {
		if c.Keyword || c.Label == name {
			continue
		}
		if d := levenshtein.Distance(name, c.Label, nil); d <= limit {
			candidates = append(candidates, candidate{c.Label, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}

	kind := protocol.CodeActionKindQuickFix
	actions := make([]protocol.CodeAction, 0, len(candidates))
	for i, c := range candidates {
		actions = append(actions, protocol.CodeAction{
			Title:       fmt.Sprintf("Change to '%s'", c.name),
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{diag},
			IsPreferred: boolPtr(i == 0),
			Edit: &protocol.WorkspaceEdit{
				Changes: map[string][]protocol.TextEdit{
					uri: {{Range: diag.Range, NewText: c.name}},
				},
			},
		})
	}
	return actions
}

// suppressLintAction creates a code action that adds a # noqa comment for
// the rule to the end of the diagnostic line, extending an existing rule
// list when there is one.
func suppressLintAction(uri string, snap *query.Snapshot, diag protocol.Diagnostic, rule string) (protocol.CodeAction, bool) {
	line := snap.LineText(int(diag.Range.Start.Line) + 1)
	trimmed := strings.TrimRight(line, " \t")
	if bareNoqaPattern.MatchString(trimmed) {
		return protocol.CodeAction{}, false
	}
	text := "  # noqa: " + rule
	if noqaRulesPattern.MatchString(trimmed) {
		text = ", " + rule
	}

	end := toLSP(snap, query.Position{Line: int(diag.Range.Start.Line) + 1, Col: len([]rune(trimmed)) + 1})
	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title:       "Suppress with # noqa: " + rule,
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[string][]protocol.TextEdit{
				uri: {{Range: protocol.Range{Start: end, End: end}, NewText: text}},
			},
		},
	}, true
}
