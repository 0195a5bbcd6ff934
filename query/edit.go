// Copyright © 2024 The Quill authors

package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidEdit is returned by ApplyEdits for edits outside the text or
// overlapping each other.
var ErrInvalidEdit = errors.New("invalid edit")

// ApplyEdits applies every edit to text, or none of them.  The edits may be
// given in any order but must not overlap.
func ApplyEdits(text string, edits []Edit) (string, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Span.Before(sorted[j].Span) })

	prev := 0
	for _, e := range sorted {
		if e.Span.Start < prev || e.Span.End < e.Span.Start || e.Span.End > len(text) {
			return "", fmt.Errorf("%w: %s", ErrInvalidEdit, e.Span)
		}
		prev = e.Span.End
	}

	var b strings.Builder
	b.Grow(len(text))
	prev = 0
	for _, e := range sorted {
		b.WriteString(text[prev:e.Span.Start])
		b.WriteString(e.NewText)
		prev = e.Span.End
	}
	b.WriteString(text[prev:])
	return b.String(), nil
}
