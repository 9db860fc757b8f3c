package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"flux/internal/source"
)

// Dependency names a package another package may refer to by Name.
type Dependency struct {
	Name    source.StringID
	Package PackageID
}

// Package is one compilation unit with its module tree.
type Package struct {
	ID   PackageID
	Name source.StringID
	Defs *DefMap
	Deps []Dependency
}

// PackageTable owns every package of a build. Like DefMap it is read-only
// once built.
type PackageTable struct {
	Strings  *source.Interner
	packages []*Package // packages[0] is nil
	byName   map[source.StringID]PackageID
}

func NewPackageTable(strs *source.Interner) *PackageTable {
	if strs == nil {
		strs = source.NewInterner()
	}
	return &PackageTable{
		Strings:  strs,
		packages: []*Package{nil},
		byName:   make(map[source.StringID]PackageID),
	}
}

// AddPackage registers a package; names must be unique.
func (t *PackageTable) AddPackage(name source.StringID, defs *DefMap) (PackageID, error) {
	if _, dup := t.byName[name]; dup {
		return NoPackageID, fmt.Errorf("duplicate package %s", t.Strings.MustLookup(name))
	}
	n, err := safecast.Conv[uint32](len(t.packages))
	if err != nil {
		panic(fmt.Errorf("package arena overflow: %w", err))
	}
	id := PackageID(n)
	t.packages = append(t.packages, &Package{ID: id, Name: name, Defs: defs})
	t.byName[name] = id
	return id, nil
}

// AddDependency lets from refer to dep by dep's name.
func (t *PackageTable) AddDependency(from, dep PackageID) error {
	p, d := t.Package(from), t.Package(dep)
	if p == nil || d == nil {
		return fmt.Errorf("unknown package in dependency %d -> %d", from, dep)
	}
	p.Deps = append(p.Deps, Dependency{Name: d.Name, Package: dep})
	return nil
}

func (t *PackageTable) Package(id PackageID) *Package {
	if !id.IsValid() || int(id) >= len(t.packages) {
		return nil
	}
	return t.packages[id]
}

func (t *PackageTable) Lookup(name source.StringID) (PackageID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Len counts registered packages.
func (t *PackageTable) Len() int {
	return len(t.packages) - 1
}

// Packages returns the packages in registration order.
func (t *PackageTable) Packages() []*Package {
	return append([]*Package(nil), t.packages[1:]...)
}
