package driver

import (
	"errors"
	"fmt"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/project"
	"flux/internal/source"
	"flux/internal/symbols"
)

// declScope is where a declaration's names are resolved from.
type declScope struct {
	pkg       *pkgState
	module    symbols.ModuleID
	generics  []string
	allowThis bool
}

// lowerer turns manifest type notation into canonical descriptions. Every
// path is resolved and replaced by its canonical form, so the same type
// written differently in two modules yields the same description.
type lowerer struct {
	w   *world
	rep diag.Reporter
}

func (l *lowerer) emit(d diag.Diagnostic) {
	l.rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
}

// parse parses text positioned at span. When span does not cover exactly
// text (the manifest wrote it with escapes) every node gets span itself.
func (l *lowerer) parse(sc declScope, text string, span source.Span) (*hir.Type, bool) {
	exact := int(span.Len()) == len(text)
	opts := hir.ParseOptions{File: span.File, Offset: span.Start, Generics: sc.generics}
	t, err := hir.ParseType(l.w.strs, text, opts)
	if err != nil {
		at := span
		var pe *hir.ParseError
		if errors.As(err, &pe) && exact && !pe.Span.IsZero() {
			at = pe.Span
		}
		diag.ReportError(l.rep, diag.SemaBadTypeNotation, at, err.Error()).Emit()
		return nil, false
	}
	if !exact {
		t.Walk(func(n *hir.Type) {
			n.Span = span
			n.Path.Span = span
			n.Path.SegmentSpans = nil
		})
	}
	return t, true
}

// lowerType parses and canonicalises a type. An empty text is the unit
// type when unit is true, otherwise Unknown.
func (l *lowerer) lowerType(sc declScope, text string, span source.Span, unit bool) (*hir.Type, bool) {
	if text == "" {
		if unit {
			return nil, true
		}
		return &hir.Type{Kind: hir.TypeUnknown, Span: span}, true
	}
	t, ok := l.parse(sc, text, span)
	if !ok {
		return nil, false
	}
	return t, l.canonicalise(sc, t)
}

// canonicalise resolves every path in t in place and reports the first
// failure of each path.
func (l *lowerer) canonicalise(sc declScope, t *hir.Type) bool {
	ok := true
	t.Walk(func(n *hir.Type) {
		switch n.Kind {
		case hir.TypeThis:
			if !sc.allowThis {
				diag.ReportError(l.rep, diag.SemaThisOutsideTrait, n.Span,
					"`This` is only allowed in traits and apply blocks").Emit()
				ok = false
			}
		case hir.TypePath:
			if !l.resolveType(sc, n) {
				ok = false
			}
		}
	})
	return ok
}

func (l *lowerer) resolveType(sc declScope, n *hir.Type) bool {
	res, ok := l.resolve(sc, n.Path)
	if !ok {
		return false
	}
	if !res.Complete(n.Path) {
		diag.ReportError(l.rep, diag.ResUnresolvedType, n.Path.SegmentSpan(res.Rest),
			fmt.Sprintf("`%s` has no associated type `%s`",
				l.w.pathString(n.Path.Segments[:res.Rest]), l.w.strs.MustLookup(n.Path.Segments[res.Rest]))).
			WithNote(n.Path.Span, "in this path").
			Emit()
		return false
	}
	if !res.Item.Def.Kind.IsType() {
		diag.ReportError(l.rep, diag.SemaNotAType, n.Path.Span,
			fmt.Sprintf("expected type, found %s `%s`", res.Item.Def.Kind, n.Path.String(l.w.strs))).Emit()
		return false
	}
	n.Path.Segments = l.w.table.CanonicalPath(sc.pkg.id, res)
	n.Path.SegmentSpans = nil
	return true
}

func (l *lowerer) resolve(sc declScope, path hir.Path) (symbols.Resolution, bool) {
	res, err := l.w.table.ResolvePath(sc.pkg.id, path, sc.module)
	if err != nil {
		var re *symbols.ResolveError
		if errors.As(err, &re) {
			l.emit(re.Diagnostic(l.w.strs))
		} else {
			diag.ReportError(l.rep, diag.ResUnresolvedPath, path.Span, err.Error()).Emit()
		}
		return symbols.Resolution{}, false
	}
	return res, true
}

// resolveTrait resolves path to a declared trait.
func (l *lowerer) resolveTrait(sc declScope, path hir.Path) (*hir.TraitDecl, []source.StringID, bool) {
	res, ok := l.resolve(sc, path)
	if !ok {
		return nil, nil, false
	}
	if !res.Complete(path) || res.Item.Def.Kind != symbols.DefTrait {
		diag.ReportError(l.rep, diag.SemaNotATrait, path.Span,
			fmt.Sprintf("expected trait, found %s `%s`", res.Item.Def.Kind, path.String(l.w.strs))).Emit()
		return nil, nil, false
	}
	canon := l.w.table.CanonicalPath(sc.pkg.id, res)
	return l.w.traits[l.w.pathString(canon)], canon, true
}

func (l *lowerer) lowerGenerics(sc declScope, gs []project.GenericConfig) ([]hir.GenericParam, bool) {
	out := make([]hir.GenericParam, 0, len(gs))
	ok := true
	for _, g := range gs {
		if !project.IsValidIdent(g.Name) {
			diag.ReportError(l.rep, diag.ProjBadManifest, g.Span,
				fmt.Sprintf("generic parameter %q is not an identifier", g.Name)).Emit()
			ok = false
			continue
		}
		param := hir.GenericParam{Name: l.w.strs.Intern(g.Name), Span: g.Span}
		for i, text := range g.Bounds {
			span := g.Span
			if i < len(g.BoundSpans) {
				span = g.BoundSpans[i]
			}
			bound, good := l.lowerBound(sc, text, span)
			if !good {
				ok = false
				continue
			}
			param.Bounds = append(param.Bounds, bound)
		}
		out = append(out, param)
	}
	return out, ok
}

// lowerBound reads "path::Trait<Args>" and canonicalises both parts.
func (l *lowerer) lowerBound(sc declScope, text string, span source.Span) (hir.TraitBound, bool) {
	t, ok := l.parse(sc, text, span)
	if !ok {
		return hir.TraitBound{}, false
	}
	if t.Kind != hir.TypePath {
		diag.ReportError(l.rep, diag.SemaNotATrait, t.Span,
			fmt.Sprintf("bound `%s` is not a trait path", text)).Emit()
		return hir.TraitBound{}, false
	}
	_, canon, ok := l.resolveTrait(sc, t.Path)
	if !ok {
		return hir.TraitBound{}, false
	}
	for _, arg := range t.Args {
		if !l.canonicalise(sc, arg) {
			ok = false
		}
	}
	path := hir.Path{Segments: canon, Span: t.Path.Span}
	return hir.TraitBound{Path: path, Args: t.Args}, ok
}

func (l *lowerer) lowerParams(sc declScope, ps []project.ParamConfig) ([]hir.Param, bool) {
	out := make([]hir.Param, 0, len(ps))
	ok := true
	for _, p := range ps {
		if p.Type == "" {
			diag.ReportError(l.rep, diag.SemaBadTypeNotation, p.Span,
				fmt.Sprintf("parameter `%s` has no type", p.Name)).Emit()
			ok = false
			continue
		}
		t, good := l.lowerType(sc, p.Type, p.Span, false)
		if !good {
			ok = false
			continue
		}
		out = append(out, hir.Param{Name: l.w.strs.Intern(p.Name), Type: t, Span: p.Span})
	}
	return out, ok
}

func genericNames(gs []project.GenericConfig) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Name)
	}
	return out
}
