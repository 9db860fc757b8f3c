package sema

import (
	"fmt"
	"strings"

	"flux/internal/diag"
	"flux/internal/source"
	"flux/internal/types"
)

// TypeMismatchError is returned when two types cannot be made consistent.
// Labels are rendered when the error is created, so later arena changes do
// not alter the message.
type TypeMismatchError struct {
	A, B           types.TypeID
	ALabel, BLabel string
	ASpan, BSpan   source.Span
	// Span is where the unification was requested.
	Span source.Span
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mismatched types: expected `%s`, found `%s`", e.ALabel, e.BLabel)
}

func (e *TypeMismatchError) Diagnostic() diag.Diagnostic {
	d := diag.NewError(diag.SemaTypeMismatch, primarySpan(e.Span, e.BSpan), e.Error())
	return withNotes(d,
		note{e.ASpan, fmt.Sprintf("`%s` originates here", e.ALabel)},
		note{e.BSpan, fmt.Sprintf("`%s` originates here", e.BLabel)},
	)
}

// RestrictionError is returned when a type does not implement a trait a
// generic parameter is bounded by.
type RestrictionError struct {
	Generic      types.TypeID
	GenericLabel string
	Type         types.TypeID
	TypeLabel    string
	Trait        string
	TraitPath    []source.StringID
	Span         source.Span
	TypeSpan     source.Span
}

func (e *RestrictionError) Error() string {
	return fmt.Sprintf("type `%s` does not implement `%s` required by `%s`", e.TypeLabel, e.Trait, e.GenericLabel)
}

func (e *RestrictionError) Diagnostic() diag.Diagnostic {
	d := diag.NewError(diag.SemaRestrictionViolation, primarySpan(e.Span, e.TypeSpan), e.Error())
	return withNotes(d, note{e.TypeSpan, fmt.Sprintf("`%s` originates here", e.TypeLabel)})
}

// GenericParamsError is returned when an implemented method's generic
// parameters do not line up with the trait method's.
type GenericParamsError struct {
	Declared    []string
	Implemented []string
	// Param and Bound name a bound the implementation adds.
	Param string
	Bound string
}

func (e *GenericParamsError) Error() string {
	if e.Bound != "" {
		return fmt.Sprintf("generic parameter `%s` requires `%s`, which the trait does not declare", e.Param, e.Bound)
	}
	return fmt.Sprintf("generic parameters <%s> do not match the declared <%s>",
		strings.Join(e.Implemented, ", "), strings.Join(e.Declared, ", "))
}

// ConfKind classifies conformance failures.
type ConfKind uint8

const (
	ConfUnknownMethod ConfKind = iota + 1
	ConfUnimplementedMethods
	ConfParamCountMismatch
	ConfSignatureMismatch
	ConfUnknownTrait
)

func (k ConfKind) String() string {
	switch k {
	case ConfUnknownMethod:
		return "unknown method"
	case ConfUnimplementedMethods:
		return "unimplemented methods"
	case ConfParamCountMismatch:
		return "parameter count mismatch"
	case ConfSignatureMismatch:
		return "signature mismatch"
	case ConfUnknownTrait:
		return "unknown trait"
	}
	return "conformance error"
}

// ConformanceError describes why an apply block does not conform to its trait.
type ConformanceError struct {
	Kind  ConfKind
	Trait string
	// Method is the offending implemented method, when there is one.
	Method string
	// TraitMethods lists every method of the trait, sorted.
	TraitMethods []string
	// Missing lists unimplemented trait methods, sorted.
	Missing []string

	Declared    int
	Implemented int

	Span     source.Span
	DeclSpan source.Span
	// Err is the underlying unification error of a signature mismatch.
	Err error
}

func (e *ConformanceError) Error() string {
	switch e.Kind {
	case ConfUnknownMethod:
		return fmt.Sprintf("method `%s` is not a member of trait `%s` (trait methods: %s)", e.Method, e.Trait, joinNames(e.TraitMethods))
	case ConfUnimplementedMethods:
		label := "method"
		if len(e.Missing) > 1 {
			label = "methods"
		}
		return fmt.Sprintf("missing required %s of trait `%s`: %s", label, e.Trait, joinNames(e.Missing))
	case ConfParamCountMismatch:
		return fmt.Sprintf("method `%s` takes %d parameter(s) but trait `%s` declares %d", e.Method, e.Implemented, e.Trait, e.Declared)
	case ConfSignatureMismatch:
		return fmt.Sprintf("method `%s` has an incompatible signature for trait `%s`: %v", e.Method, e.Trait, e.Err)
	case ConfUnknownTrait:
		return fmt.Sprintf("applied unknown trait `%s`", e.Trait)
	}
	return "conformance error"
}

func (e *ConformanceError) Unwrap() error {
	return e.Err
}

func (e *ConformanceError) Code() diag.Code {
	switch e.Kind {
	case ConfUnknownMethod:
		return diag.SemaUnknownTraitMethod
	case ConfUnimplementedMethods:
		return diag.SemaUnimplementedMethods
	case ConfParamCountMismatch:
		return diag.SemaParamCountMismatch
	case ConfSignatureMismatch:
		return diag.SemaSignatureMismatch
	case ConfUnknownTrait:
		return diag.SemaUnknownTrait
	}
	return diag.UnknownCode
}

func (e *ConformanceError) Diagnostic() diag.Diagnostic {
	d := diag.NewError(e.Code(), e.Span, e.Error())
	notes := []note{{e.DeclSpan, "declared in the trait here"}}
	if e.Kind == ConfUnimplementedMethods || e.Kind == ConfUnknownMethod {
		notes[0].msg = "trait declared here"
	}
	return withNotes(d, notes...)
}

type note struct {
	span source.Span
	msg  string
}

func withNotes(d diag.Diagnostic, notes ...note) diag.Diagnostic {
	for _, n := range notes {
		if n.span.IsZero() || n.span == d.Primary {
			continue
		}
		d = d.WithNote(n.span, n.msg)
	}
	return d
}

func primarySpan(spans ...source.Span) source.Span {
	for _, sp := range spans {
		if !sp.IsZero() {
			return sp
		}
	}
	return source.Span{}
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "`" + strings.Join(names, "`, `") + "`"
}
