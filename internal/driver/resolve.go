package driver

import (
	"errors"
	"fmt"

	"flux/internal/hir"
	"flux/internal/source"
	"flux/internal/symbols"
)

// Resolved describes a path resolved by Result.Resolve.
type Resolved struct {
	Path      string
	Canonical string
	Kind      symbols.DefKind
	Vis       hir.Visibility
	// Package that declares the item; "" for builtins.
	Package string
	// Span of the declaration in the manifest; zero for builtins.
	Span source.Span
	// Rest holds the associated segments left after the item.
	Rest []string
}

// ErrNoSymbols is returned by Resolve on a result loaded from the cache.
var ErrNoSymbols = errors.New("result has no symbol tables")

// Resolve resolves text from module from of package pkg, as a use in that
// module would. An empty pkg means the first package of the manifest.
// Resolution failures are returned as *symbols.ResolveError.
func (r *Result) Resolve(pkg, from, text string) (*Resolved, error) {
	if r == nil || r.w == nil {
		return nil, ErrNoSymbols
	}
	w := r.w
	if len(w.pkgs) == 0 {
		return nil, errors.New("manifest declares no usable package")
	}
	p := w.pkgs[0]
	if pkg != "" {
		id, ok := w.table.Lookup(w.strs.Intern(pkg))
		if !ok {
			return nil, fmt.Errorf("unknown package %q", pkg)
		}
		p = w.byID[id]
	}
	mod, ok := p.module(from)
	if !ok {
		return nil, fmt.Errorf("module %q is not declared in package %q", from, p.name)
	}
	path, err := hir.ParsePath(w.strs, text, hir.ParseOptions{})
	if err != nil {
		return nil, err
	}
	res, err := w.table.ResolvePath(p.id, path, mod)
	if err != nil {
		return nil, err
	}

	out := &Resolved{
		Path:      text,
		Canonical: w.pathString(w.table.CanonicalPath(p.id, res)),
		Kind:      res.Item.Def.Kind,
		Vis:       res.Item.Vis,
		Span:      res.Item.Span,
	}
	if res.Item.Def.Kind != symbols.DefBuiltinType {
		owner := p
		if res.Package.IsValid() {
			owner = w.byID[res.Package]
		}
		out.Package = owner.name
	}
	for _, seg := range path.Segments[res.Rest:] {
		out.Rest = append(out.Rest, w.strs.MustLookup(seg))
	}
	return out, nil
}
