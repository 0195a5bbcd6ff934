// Copyright © 2024 The Quill authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type fold struct {
	start, end int
	kind       protocol.FoldingRangeKind
}

func foldingRanges(t *testing.T, content string) []fold {
	t.Helper()
	s := testServer(t)
	doc := openDoc(s, "file:///test/fold.py", content)
	result, err := s.textDocumentFoldingRange(mockContext(), &protocol.FoldingRangeParams{
		TextDocument: textDoc(doc.URI),
	})
	require.NoError(t, err)
	var folds []fold
	for _, r := range result {
		require.NotNil(t, r.Kind)
		folds = append(folds, fold{int(r.StartLine), int(r.EndLine), protocol.FoldingRangeKind(*r.Kind)})
	}
	return folds
}

func TestFoldingRanges(t *testing.T) {
	t.Run("definitions", func(t *testing.T) {
		folds := foldingRanges(t, testContent)
		assert.Equal(t, []fold{
			{0, 2, protocol.FoldingRangeKindRegion},
			{5, 10, protocol.FoldingRangeKindRegion},
			{6, 7, protocol.FoldingRangeKindRegion},
			{9, 10, protocol.FoldingRangeKindRegion},
		}, folds)
	})

	t.Run("single line forms do not fold", func(t *testing.T) {
		assert.Empty(t, foldingRanges(t, "x = 1\nif x: print(x)\n"))
	})

	t.Run("imports and comments", func(t *testing.T) {
		src := "import os\nimport sys\n# first\n# second\nx = os.sep + sys.prefix\n# lone\n"
		folds := foldingRanges(t, src)
		assert.Equal(t, []fold{
			{0, 1, protocol.FoldingRangeKindImports},
			{2, 3, protocol.FoldingRangeKindComment},
		}, folds)
	})

	t.Run("compound statements", func(t *testing.T) {
		src := "for i in range(3):\n    if i:\n        print(i)\n"
		folds := foldingRanges(t, src)
		assert.Equal(t, []fold{
			{0, 2, protocol.FoldingRangeKindRegion},
			{1, 2, protocol.FoldingRangeKindRegion},
		}, folds)
	})
}
