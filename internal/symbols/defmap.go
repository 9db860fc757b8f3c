package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"flux/internal/hir"
	"flux/internal/source"
)

// ModuleData is one node of the module tree.
type ModuleData struct {
	Name     source.StringID
	Parent   ModuleID
	Children []ModuleID
	Scope    *ItemScope
	Span     source.Span
}

// DefMap holds the module tree and definitions of one package. It is built
// once and read-only afterwards, so resolution needs no locking.
type DefMap struct {
	strings *source.Interner
	modules []ModuleData // modules[0] is the NoModuleID sentinel
	defs    []Def        // defs[0] is the NoDefID sentinel

	Root ModuleID
	// Prelude is consulted after the builtin scope; NoModuleID when absent.
	Prelude  ModuleID
	Builtins *ItemScope
}

// ErrDuplicateItem is returned when a name is declared twice in one module.
var ErrDuplicateItem = errors.New("duplicate item")

// NewDefMap creates a map with an empty root module.
func NewDefMap(strs *source.Interner, builtins *ItemScope) *DefMap {
	if builtins == nil {
		builtins = NewItemScope()
	}
	dm := &DefMap{
		strings:  strs,
		modules:  make([]ModuleData, 1, 8),
		defs:     make([]Def, 1, 32),
		Builtins: builtins,
	}
	dm.Root = dm.newModule(NoModuleID, source.NoStringID, source.Span{})
	return dm
}

func (dm *DefMap) newModule(parent ModuleID, name source.StringID, span source.Span) ModuleID {
	n, err := safecast.Conv[uint32](len(dm.modules))
	if err != nil {
		panic(fmt.Errorf("module arena overflow: %w", err))
	}
	id := ModuleID(n)
	dm.modules = append(dm.modules, ModuleData{Name: name, Parent: parent, Scope: NewItemScope(), Span: span})
	if parent.IsValid() {
		dm.modules[parent].Children = append(dm.modules[parent].Children, id)
	}
	return id
}

// AddModule declares a child module of parent.
func (dm *DefMap) AddModule(parent ModuleID, name source.StringID, vis hir.Visibility, span source.Span) (ModuleID, error) {
	p := dm.Module(parent)
	if p == nil {
		return NoModuleID, fmt.Errorf("unknown parent module %d", parent)
	}
	if _, taken := p.Scope.Get(name); taken {
		return NoModuleID, fmt.Errorf("%w: %s", ErrDuplicateItem, dm.strings.MustLookup(name))
	}
	id := dm.newModule(parent, name, span)
	dm.modules[parent].Scope.Insert(name, ModuleItem{
		Vis:    vis,
		Def:    ModuleDefID{Kind: DefModule, Index: uint32(id)},
		Module: parent,
		Span:   span,
	})
	return id, nil
}

// AddItem declares a non-module definition in module.
func (dm *DefMap) AddItem(module ModuleID, name source.StringID, kind DefKind, vis hir.Visibility, span source.Span) (ModuleDefID, error) {
	if kind == DefModule || kind == DefInvalid {
		return ModuleDefID{}, fmt.Errorf("AddItem: invalid kind %s", kind)
	}
	m := dm.Module(module)
	if m == nil {
		return ModuleDefID{}, fmt.Errorf("unknown module %d", module)
	}
	n, err := safecast.Conv[uint32](len(dm.defs))
	if err != nil {
		panic(fmt.Errorf("def arena overflow: %w", err))
	}
	def := ModuleDefID{Kind: kind, Index: n}
	item := ModuleItem{Vis: vis, Def: def, Module: module, Span: span}
	if !m.Scope.Insert(name, item) {
		return ModuleDefID{}, fmt.Errorf("%w: %s", ErrDuplicateItem, dm.strings.MustLookup(name))
	}
	dm.defs = append(dm.defs, Def{Kind: kind, Name: name, Module: module, Span: span})
	return def, nil
}

// SetPrelude marks module as the prelude of this package.
func (dm *DefMap) SetPrelude(module ModuleID) {
	dm.Prelude = module
}

func (dm *DefMap) Module(id ModuleID) *ModuleData {
	if !id.IsValid() || int(id) >= len(dm.modules) {
		return nil
	}
	return &dm.modules[id]
}

// Def returns a non-module definition.
func (dm *DefMap) Def(id ModuleDefID) (Def, bool) {
	if id.Kind == DefModule || id.Index == 0 || int(id.Index) >= len(dm.defs) {
		return Def{}, false
	}
	return dm.defs[id.Index], true
}

func (dm *DefMap) ModuleCount() int {
	return len(dm.modules) - 1
}

// Child finds a direct submodule by name.
func (dm *DefMap) Child(parent ModuleID, name source.StringID) (ModuleID, bool) {
	m := dm.Module(parent)
	if m == nil {
		return NoModuleID, false
	}
	item, ok := m.Scope.Get(name)
	if !ok || item.Def.Kind != DefModule {
		return NoModuleID, false
	}
	return item.Def.Module(), true
}

// IsAncestor reports whether anc is m or one of m's ancestors.
func (dm *DefMap) IsAncestor(anc, m ModuleID) bool {
	for steps := 0; m.IsValid() && steps < len(dm.modules); steps++ {
		if m == anc {
			return true
		}
		m = dm.modules[m].Parent
	}
	return false
}

// ModulePath returns the names from the root down to m, root excluded.
func (dm *DefMap) ModulePath(m ModuleID) []source.StringID {
	var rev []source.StringID
	for steps := 0; m.IsValid() && m != dm.Root && steps < len(dm.modules); steps++ {
		rev = append(rev, dm.modules[m].Name)
		m = dm.modules[m].Parent
	}
	out := make([]source.StringID, len(rev))
	for i, seg := range rev {
		out[len(rev)-1-i] = seg
	}
	return out
}

// Validate checks the structural invariants of the module tree.
func (dm *DefMap) Validate() error {
	if dm.Module(dm.Root) == nil {
		return errors.New("root module missing")
	}
	for i := 1; i < len(dm.modules); i++ {
		id := ModuleID(i) // #nosec G115 -- bounded by newModule
		m := &dm.modules[i]
		if id == dm.Root {
			if m.Parent.IsValid() {
				return errors.New("root module has a parent")
			}
			continue
		}
		parent := dm.Module(m.Parent)
		if parent == nil {
			return fmt.Errorf("module %d has invalid parent %d", id, m.Parent)
		}
		item, ok := parent.Scope.Get(m.Name)
		if !ok || item.Def.Module() != id {
			return fmt.Errorf("module %d is not registered in its parent scope", id)
		}
		if !dm.IsAncestor(dm.Root, id) {
			return fmt.Errorf("module %d is not reachable from the root", id)
		}
	}
	if dm.Prelude.IsValid() && dm.Module(dm.Prelude) == nil {
		return fmt.Errorf("prelude module %d does not exist", dm.Prelude)
	}
	return nil
}
