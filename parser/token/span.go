// Copyright © 2024 The Quill authors

package token

import "fmt"

// Span is a half-open source range [Start, End) of byte offsets.  Line and
// Col locate Start; EndLine and EndCol locate End.  Lines and columns start
// at 1 and columns count runes.
type Span struct {
	Start   int
	End     int
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsZero reports whether s is the zero span (no position information).
func (s Span) IsZero() bool {
	return s == Span{}
}

// Contains reports whether the byte offset off lies in [s.Start, s.End).
func (s Span) Contains(off int) bool {
	return s.Start <= off && off < s.End
}

// Covers reports whether inner lies entirely within s.
func (s Span) Covers(inner Span) bool {
	return s.Start <= inner.Start && inner.End <= s.End
}

// Overlaps reports whether s and other share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	if s.IsZero() {
		return other
	}
	if other.IsZero() {
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start, out.Line, out.Col = other.Start, other.Line, other.Col
	}
	if other.End > out.End {
		out.End, out.EndLine, out.EndCol = other.End, other.EndLine, other.EndCol
	}
	return out
}

// Before orders spans by starting offset, then by end offset.
func (s Span) Before(other Span) bool {
	if s.Start != other.Start {
		return s.Start < other.Start
	}
	return s.End < other.End
}

func (s Span) String() string {
	if s.Line == 0 {
		return fmt.Sprintf("[%d,%d)", s.Start, s.End)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Line, s.Col, s.EndLine, s.EndCol)
}

// Location names a span in a particular file.
type Location struct {
	File string
	Span Span
}

func (loc Location) String() string {
	switch {
	case loc.Span.Line == 0:
		return loc.File
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Span.Line, loc.Span.Col)
	}
}

// LocationError is an error anchored to a source span.
type LocationError struct {
	Err    error
	Source Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
