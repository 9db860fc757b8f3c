package symbols

import (
	"fmt"
	"slices"

	"flux/internal/hir"
	"flux/internal/source"
)

// Resolution is a resolved path.
type Resolution struct {
	// Package is where the item was found; NoPackageID for the requesting package.
	Package PackageID
	Item    ModuleItem
	// Rest is the index of the first segment not consumed. It is less than
	// the path length when the walk stopped at a non-module item, leaving
	// the remaining segments (associated items) to the caller.
	Rest int
}

// Complete reports whether every segment was consumed.
func (r Resolution) Complete(path hir.Path) bool {
	return r.Rest >= len(path.Segments)
}

type scopeProvider struct {
	name   string
	lookup func(dm *DefMap, module ModuleID, name source.StringID) (ModuleItem, bool)
}

// scopeProviders is the lookup precedence for a single name: the module's
// own scope, then the builtin scope, then the prelude. First hit wins.
// Dependencies are not a provider; they are only tried for the first
// segment once every provider missed.
var scopeProviders = []scopeProvider{
	{"local", func(dm *DefMap, module ModuleID, name source.StringID) (ModuleItem, bool) {
		m := dm.Module(module)
		if m == nil {
			return ModuleItem{}, false
		}
		return m.Scope.Get(name)
	}},
	{"builtin", func(dm *DefMap, _ ModuleID, name source.StringID) (ModuleItem, bool) {
		return dm.Builtins.Get(name)
	}},
	{"prelude", func(dm *DefMap, _ ModuleID, name source.StringID) (ModuleItem, bool) {
		p := dm.Module(dm.Prelude)
		if p == nil {
			return ModuleItem{}, false
		}
		return p.Scope.Get(name)
	}},
}

// ProviderNames lists the providers in precedence order.
func ProviderNames() []string {
	out := make([]string, len(scopeProviders))
	for i, p := range scopeProviders {
		out[i] = p.name
	}
	return out
}

// LookupName resolves one name as seen from module and reports which
// provider answered.
func (dm *DefMap) LookupName(module ModuleID, name source.StringID) (ModuleItem, string, bool) {
	for _, p := range scopeProviders {
		if item, ok := p.lookup(dm, module, name); ok {
			return item, p.name, true
		}
	}
	return ModuleItem{}, "", false
}

// Accessible reports whether item may be named from module from.
// Public items always are. A private item declared in module M is visible
// from M and M's descendants inside the same package, and never from
// another package.
func (dm *DefMap) Accessible(item ModuleItem, from ModuleID, external bool) bool {
	if item.Vis == hir.Public {
		return true
	}
	if external || !item.Module.IsValid() {
		return false
	}
	return dm.IsAncestor(item.Module, from)
}

// ResolvePath walks path segment by segment as seen from module from of
// package pkg.
//
// A leading segment equal to the package name makes the path absolute: it
// is skipped and the rest is resolved from the root module. When the first
// name is unknown to every scope provider, a dependency with that name
// resolves the path itself, from its root and as an outside requester.
func (t *PackageTable) ResolvePath(pkg PackageID, path hir.Path, from ModuleID) (Resolution, error) {
	return t.resolveIn(pkg, path, 0, from, false, nil)
}

func (t *PackageTable) resolveIn(pkgID PackageID, path hir.Path, base int, from ModuleID, external bool, visiting []PackageID) (Resolution, error) {
	p := t.Package(pkgID)
	if p == nil {
		return Resolution{}, fmt.Errorf("resolve: unknown package %d", pkgID)
	}
	if base >= len(path.Segments) {
		return Resolution{}, &ResolveError{Kind: ResolveEmptyPath, Path: path}
	}
	dm := p.Defs

	// start is where lookup begins; from stays the requester for visibility.
	i, start := base, from
	if path.Segments[i] == p.Name {
		i++
		start = dm.Root
		if i == len(path.Segments) {
			return Resolution{}, &ResolveError{Kind: ResolveEmptyPath, Path: path}
		}
	}

	cur, _, ok := dm.LookupName(start, path.Segments[i])
	if !ok {
		return t.resolveInDependency(p, path, i, append(visiting, pkgID))
	}
	if !dm.Accessible(cur, from, external) {
		return Resolution{}, &ResolveError{Kind: ResolvePrivateModule, Path: path, Segment: i}
	}

	for j := i + 1; j < len(path.Segments); j++ {
		if cur.Def.Kind != DefModule {
			return Resolution{Item: cur, Rest: j}, nil
		}
		next, _, ok := dm.LookupName(cur.Def.Module(), path.Segments[j])
		if !ok {
			return Resolution{}, &ResolveError{Kind: ResolveUnresolvedPath, Path: path, Segment: j}
		}
		if !dm.Accessible(next, from, external) {
			return Resolution{}, &ResolveError{Kind: ResolvePrivateModule, Path: path, Segment: j}
		}
		cur = next
	}
	return Resolution{Item: cur, Rest: len(path.Segments)}, nil
}

func (t *PackageTable) resolveInDependency(p *Package, path hir.Path, i int, visiting []PackageID) (Resolution, error) {
	for _, dep := range p.Deps {
		if dep.Name != path.Segments[i] {
			continue
		}
		if slices.Contains(visiting, dep.Package) {
			return Resolution{}, &ResolveError{Kind: ResolveDependencyCycle, Path: path, Segment: i}
		}
		target := t.Package(dep.Package)
		if target == nil {
			break
		}
		res, err := t.resolveIn(dep.Package, path, i, target.Defs.Root, true, visiting)
		if err != nil {
			return Resolution{}, err
		}
		if !res.Package.IsValid() {
			res.Package = dep.Package
		}
		return res, nil
	}
	return Resolution{}, &ResolveError{Kind: ResolveUnresolvedPath, Path: path, Segment: i}
}

// CanonicalPath names the resolved item the same way from everywhere:
// builtin types by their bare name, everything else as
// package::module::path::name.
func (t *PackageTable) CanonicalPath(pkg PackageID, res Resolution) []source.StringID {
	if res.Item.Def.Kind == DefBuiltinType {
		p := t.Package(pkg)
		if p == nil {
			return nil
		}
		for _, name := range p.Defs.Builtins.Names() {
			if item, _ := p.Defs.Builtins.Get(name); item.Def == res.Item.Def {
				return []source.StringID{name}
			}
		}
		return nil
	}
	owner := pkg
	if res.Package.IsValid() {
		owner = res.Package
	}
	p := t.Package(owner)
	if p == nil {
		return nil
	}
	dm := p.Defs
	out := append([]source.StringID{p.Name}, dm.ModulePath(res.Item.Module)...)
	if res.Item.Def.Kind == DefModule {
		m := dm.Module(res.Item.Def.Module())
		if m == nil {
			return nil
		}
		return append(out, m.Name)
	}
	def, ok := dm.Def(res.Item.Def)
	if !ok {
		return nil
	}
	return append(out, def.Name)
}
