package driver

import (
	"errors"
	"fmt"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/sema"
	"flux/internal/source"
)

// errorDiagnostic converts a checker error into a diagnostic. The
// conformance error is matched first because it wraps unification errors.
func errorDiagnostic(err error, fallback source.Span) diag.Diagnostic {
	var (
		conf        *sema.ConformanceError
		mismatch    *sema.TypeMismatchError
		restriction *sema.RestrictionError
	)
	switch {
	case errors.As(err, &conf):
		return conf.Diagnostic()
	case errors.As(err, &mismatch):
		return mismatch.Diagnostic()
	case errors.As(err, &restriction):
		return restriction.Diagnostic()
	}
	return insertDiagnostic(err, fallback)
}

func insertDiagnostic(err error, fallback source.Span) diag.Diagnostic {
	var ie *hir.InsertError
	if !errors.As(err, &ie) {
		return diag.NewError(diag.UnknownCode, fallback, err.Error())
	}
	span := ie.Span
	if span.IsZero() {
		span = fallback
	}
	switch ie.Kind {
	case hir.InsertThisOutsideTrait:
		return diag.NewError(diag.SemaThisOutsideTrait, span, ie.Error())
	case hir.InsertUnknownLocal:
		return diag.NewError(diag.SemaUnknownLocal, span, ie.Error())
	}
	return diag.NewError(diag.SemaBadTypeNotation, span, ie.Error())
}

// returnMismatch rewords a body/return mismatch. The body is the A side.
func returnMismatch(fn string, err *sema.TypeMismatchError) diag.Diagnostic {
	d := err.Diagnostic()
	d.Code = diag.SemaReturnTypeMismatch
	d.Message = fmt.Sprintf("function `%s` returns `%s` but its body evaluates to `%s`", fn, err.BLabel, err.ALabel)
	return d
}
