// Copyright © 2024 The Quill authors

package lsp

import (
	"sort"
	"strings"

	"github.com/luthersystems/quill/parser/ast"
	"github.com/luthersystems/quill/parser/token"
	"github.com/luthersystems/quill/query"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	_, _, snap := s.lookup(params.TextDocument.URI)
	if snap == nil || snap.Module == nil {
		return nil, nil
	}

	var ranges []protocol.FoldingRange
	collectFoldingRanges(snap, &ranges)
	ranges = append(ranges, importFoldingRanges(snap)...)
	ranges = append(ranges, commentFoldingRanges(snap.Module.Comments)...)
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].StartLine < ranges[j].StartLine })
	return ranges, nil
}

// collectFoldingRanges emits a region for each compound statement that
// spans more than one line.
func collectFoldingRanges(snap *query.Snapshot, ranges *[]protocol.FoldingRange) {
	ast.Inspect(snap.Module, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FunctionDef, *ast.ClassDef, *ast.If, *ast.While, *ast.For, *ast.Try, *ast.With:
			addFold(ranges, snap, n.Span(), protocol.FoldingRangeKindRegion)
		}
		return true
	})
}

// importFoldingRanges folds each run of two or more consecutive module
// level import statements.
func importFoldingRanges(snap *query.Snapshot) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	var run []ast.Stmt
	flush := func() {
		if len(run) > 1 {
			addFold(&ranges, snap, run[0].Span().Join(run[len(run)-1].Span()), protocol.FoldingRangeKindImports)
		}
		run = nil
	}
	for _, stmt := range snap.Module.Body {
		switch stmt.(type) {
		case *ast.Import, *ast.ImportFrom:
			run = append(run, stmt)
		default:
			flush()
		}
	}
	flush()
	return ranges
}

// commentFoldingRanges folds each block of two or more comments on
// consecutive lines.
func commentFoldingRanges(comments []*token.Token) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	emit := func(first, last int) {
		if last > first {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(first - 1),
				EndLine:   safeUint(last - 1),
				Kind:      &kind,
			})
		}
	}
	first, last := -1, -1
	for _, c := range comments {
		line := c.Span.Line
		if first >= 0 && line == last+1 {
			last = line
			continue
		}
		if first >= 0 {
			emit(first, last)
		}
		first, last = line, line
	}
	if first >= 0 {
		emit(first, last)
	}
	return ranges
}

func addFold(ranges *[]protocol.FoldingRange, snap *query.Snapshot, span token.Span, kind protocol.FoldingRangeKind) {
	startLine := snap.PositionOf(span.Start).Line
	end := span.End
	for end > span.Start && strings.ContainsRune(" \t\r\n", rune(snap.Text[end-1])) {
		end--
	}
	endLine := snap.PositionOf(end).Line
	if endLine <= startLine {
		return
	}
	k := string(kind)
	*ranges = append(*ranges, protocol.FoldingRange{
		StartLine: safeUint(startLine - 1), // convert to 0-based
		EndLine:   safeUint(endLine - 1),
		Kind:      &k,
	})
}
