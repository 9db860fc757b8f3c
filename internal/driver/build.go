package driver

import (
	"errors"
	"fmt"
	"strings"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/project"
	"flux/internal/source"
	"flux/internal/symbols"
	"flux/internal/types"
)

// pkgState is one manifest package while it is being checked.
type pkgState struct {
	id      symbols.PackageID
	name    string
	cfg     *project.PackageConfig
	defs    *symbols.DefMap
	modules map[string]symbols.ModuleID // "" is the root, otherwise "a::b"
}

// module finds a declared module by its manifest path.
func (p *pkgState) module(path string) (symbols.ModuleID, bool) {
	id, ok := p.modules[strings.Join(project.SplitPath(path), "::")]
	return id, ok
}

// world holds everything shared by the phases of one check.
type world struct {
	strs  *source.Interner
	table *symbols.PackageTable
	pkgs  []*pkgState
	byID  map[symbols.PackageID]*pkgState

	// traits by canonical path
	traits map[string]*hir.TraitDecl
	// assoc maps a canonical type to the methods applied to it.
	assoc map[string]map[source.StringID]struct{}
	impls *types.ImplTable
	stats Stats
}

func newWorld(strs *source.Interner) *world {
	return &world{
		strs:   strs,
		table:  symbols.NewPackageTable(strs),
		byID:   make(map[symbols.PackageID]*pkgState),
		traits: make(map[string]*hir.TraitDecl),
		assoc:  make(map[string]map[source.StringID]struct{}),
		impls:  types.NewImplTable(),
	}
}

func (w *world) pathString(segs []source.StringID) string {
	return hir.Path{Segments: segs}.String(w.strs)
}

// buildPackages creates a DefMap per package: the module tree, every item
// and the prelude. Duplicate package names were reported by the graph
// phase; only the first declaration is built.
func (w *world) buildPackages(m *project.Manifest, rep diag.Reporter) {
	builtins := symbols.NewBuiltinScope(w.strs)
	seen := make(map[string]bool, len(m.Packages))
	for i := range m.Packages {
		cfg := &m.Packages[i]
		if seen[cfg.Name] {
			continue
		}
		seen[cfg.Name] = true
		if !project.IsValidIdent(cfg.Name) {
			diag.ReportError(rep, diag.ProjBadManifest, cfg.Span,
				fmt.Sprintf("package name %q is not an identifier", cfg.Name)).Emit()
			continue
		}

		p := &pkgState{
			name:    cfg.Name,
			cfg:     cfg,
			defs:    symbols.NewDefMap(w.strs, builtins),
			modules: make(map[string]symbols.ModuleID),
		}
		p.modules[""] = p.defs.Root
		w.buildModules(p, rep)
		w.buildItems(p, rep)
		if cfg.Prelude != "" {
			if mod, ok := p.module(cfg.Prelude); ok {
				p.defs.SetPrelude(mod)
			} else {
				diag.ReportError(rep, diag.ProjUnknownModule, cfg.Span,
					fmt.Sprintf("prelude module %q is not declared in package %q", cfg.Prelude, cfg.Name)).Emit()
			}
		}

		id, err := w.table.AddPackage(w.strs.Intern(cfg.Name), p.defs)
		if err != nil {
			diag.ReportError(rep, diag.ProjDuplicatePackage, cfg.Span, err.Error()).Emit()
			continue
		}
		p.id = id
		w.pkgs = append(w.pkgs, p)
		w.byID[id] = p
		w.stats.Packages++
		w.stats.Modules += p.defs.ModuleCount()
	}

	// dependencies once every package has an id; unknown names were
	// reported by the graph phase
	for _, p := range w.pkgs {
		for _, dep := range p.cfg.Dependencies {
			if id, ok := w.table.Lookup(w.strs.Intern(dep)); ok && id != p.id {
				_ = w.table.AddDependency(p.id, id)
			}
		}
	}
}

func (w *world) buildModules(p *pkgState, rep diag.Reporter) {
	for _, mc := range p.cfg.Modules {
		if !project.ValidModulePath(mc.Path) {
			diag.ReportError(rep, diag.ProjInvalidModulePath, mc.Span,
				fmt.Sprintf("invalid module path %q", mc.Path)).Emit()
			continue
		}
		segs := project.SplitPath(mc.Path)
		key := strings.Join(segs, "::")
		if _, dup := p.modules[key]; dup {
			diag.ReportError(rep, diag.ProjDuplicateModule, mc.Span,
				fmt.Sprintf("module %q is declared twice in package %q", key, p.name)).Emit()
			continue
		}
		parentKey := strings.Join(segs[:len(segs)-1], "::")
		parent, ok := p.modules[parentKey]
		if !ok {
			diag.ReportError(rep, diag.ProjUnknownModule, mc.Span,
				fmt.Sprintf("parent module %q of %q must be declared first", parentKey, key)).Emit()
			continue
		}
		id, err := p.defs.AddModule(parent, w.strs.Intern(segs[len(segs)-1]), visibility(mc.Public), mc.Span)
		if err != nil {
			w.reportDuplicate(rep, err, mc.Span, key)
			continue
		}
		p.modules[key] = id
	}
}

// itemDecl is the common shape of everything that becomes a module item.
type itemDecl struct {
	module string
	name   string
	kind   symbols.DefKind
	public bool
	span   source.Span
}

func (w *world) buildItems(p *pkgState, rep diag.Reporter) {
	decls := make([]itemDecl, 0, len(p.cfg.Items)+len(p.cfg.Traits)+len(p.cfg.Functions))
	for _, it := range p.cfg.Items {
		kind, ok := symbols.ParseDefKind(it.Kind)
		if !ok || kind == symbols.DefModule {
			diag.ReportError(rep, diag.ProjUnknownItemKind, it.Span,
				fmt.Sprintf("unknown item kind %q for `%s` (expected fn, struct, enum, trait or type)", it.Kind, it.Name)).Emit()
			continue
		}
		decls = append(decls, itemDecl{it.Module, it.Name, kind, it.Public, it.Span})
	}
	for _, tr := range p.cfg.Traits {
		decls = append(decls, itemDecl{tr.Module, tr.Name, symbols.DefTrait, tr.Public, tr.Span})
	}
	for _, fn := range p.cfg.Functions {
		decls = append(decls, itemDecl{fn.Module, fn.Name, symbols.DefFunction, fn.Public, fn.Span})
	}

	for _, d := range decls {
		if !project.IsValidIdent(d.name) {
			diag.ReportError(rep, diag.ProjBadManifest, d.span,
				fmt.Sprintf("item name %q is not an identifier", d.name)).Emit()
			continue
		}
		mod, ok := p.module(d.module)
		if !ok {
			diag.ReportError(rep, diag.ProjUnknownModule, d.span,
				fmt.Sprintf("module %q of `%s` is not declared in package %q", d.module, d.name, p.name)).Emit()
			continue
		}
		if _, err := p.defs.AddItem(mod, w.strs.Intern(d.name), d.kind, visibility(d.public), d.span); err != nil {
			w.reportDuplicate(rep, err, d.span, d.name)
			continue
		}
		w.stats.Items++
	}
}

func (w *world) reportDuplicate(rep diag.Reporter, err error, span source.Span, name string) {
	if errors.Is(err, symbols.ErrDuplicateItem) {
		diag.ReportError(rep, diag.ResDuplicateItem, span,
			fmt.Sprintf("the name `%s` is defined multiple times", name)).Emit()
		return
	}
	diag.ReportError(rep, diag.ProjBadManifest, span, err.Error()).Emit()
}

func visibility(public bool) hir.Visibility {
	if public {
		return hir.Public
	}
	return hir.Private
}
