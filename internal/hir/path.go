package hir

import (
	"strings"

	"flux/internal/source"
)

// Path is a scoped name such as core::ops::Add.
type Path struct {
	Segments []source.StringID
	Span     source.Span
	// SegmentSpans is parallel to Segments when the path was parsed.
	SegmentSpans []source.Span
}

// SegmentSpan returns the span of segment i, falling back to the whole path.
func (p Path) SegmentSpan(i int) source.Span {
	if i >= 0 && i < len(p.SegmentSpans) {
		return p.SegmentSpans[i]
	}
	return p.Span
}

func (p Path) Len() int {
	return len(p.Segments)
}

func (p Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// String joins the segments with "::".
func (p Path) String(strs *source.Interner) string {
	parts := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		parts[i] = strs.MustLookup(seg)
	}
	return strings.Join(parts, "::")
}

// Visibility is attached to declarations, never to use sites.
type Visibility uint8

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "pub"
	}
	return "private"
}
