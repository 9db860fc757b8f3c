package symbols

import (
	"fmt"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/source"
)

// ResolveErrorKind classifies path resolution failures.
type ResolveErrorKind uint8

const (
	ResolveEmptyPath ResolveErrorKind = iota + 1
	ResolveUnresolvedPath
	ResolvePrivateModule
	ResolveDependencyCycle
)

func (k ResolveErrorKind) String() string {
	switch k {
	case ResolveEmptyPath:
		return "empty path"
	case ResolveUnresolvedPath:
		return "unresolved path"
	case ResolvePrivateModule:
		return "private segment"
	case ResolveDependencyCycle:
		return "dependency cycle"
	}
	return "resolve error"
}

// ResolveError reports which segment of Path failed and why.
type ResolveError struct {
	Kind    ResolveErrorKind
	Path    hir.Path
	Segment int
}

func (e *ResolveError) Error() string {
	if e.Kind == ResolveEmptyPath {
		return "could not resolve empty path"
	}
	return fmt.Sprintf("%s at segment %d", e.Kind, e.Segment)
}

// SegmentName returns the failing segment, or "" when there is none.
func (e *ResolveError) SegmentName(strs *source.Interner) string {
	if e.Segment < 0 || e.Segment >= len(e.Path.Segments) {
		return ""
	}
	return strs.MustLookup(e.Path.Segments[e.Segment])
}

// Describe renders the error with the names of the path.
func (e *ResolveError) Describe(strs *source.Interner) string {
	switch e.Kind {
	case ResolveEmptyPath:
		return "could not resolve empty path"
	case ResolveUnresolvedPath:
		return fmt.Sprintf("could not resolve `%s` in path `%s`", e.SegmentName(strs), e.Path.String(strs))
	case ResolvePrivateModule:
		return fmt.Sprintf("cannot access private path segment `%s` in path `%s`", e.SegmentName(strs), e.Path.String(strs))
	case ResolveDependencyCycle:
		return fmt.Sprintf("dependency cycle while resolving `%s` in path `%s`", e.SegmentName(strs), e.Path.String(strs))
	}
	return e.Error()
}

func (e *ResolveError) Code() diag.Code {
	switch e.Kind {
	case ResolveEmptyPath:
		return diag.ResEmptyPath
	case ResolveUnresolvedPath:
		return diag.ResUnresolvedPath
	case ResolvePrivateModule:
		return diag.ResPrivateSegment
	case ResolveDependencyCycle:
		return diag.ResDependencyCycle
	}
	return diag.UnknownCode
}

// Diagnostic points at the failing segment with a note on the whole path.
func (e *ResolveError) Diagnostic(strs *source.Interner) diag.Diagnostic {
	if e.Kind == ResolveEmptyPath {
		return diag.NewError(e.Code(), e.Path.Span, e.Describe(strs))
	}
	primary := e.Path.SegmentSpan(e.Segment)
	d := diag.NewError(e.Code(), primary, e.Describe(strs))
	if primary != e.Path.Span && !e.Path.Span.IsZero() {
		d = d.WithNote(e.Path.Span, "in this path")
	}
	return d
}
