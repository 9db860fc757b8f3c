package project

import "flux/internal/source"

// DepMeta is one declared dependency of a package.
type DepMeta struct {
	Name string
	Span source.Span
}

// PackageMeta is the part of a package the dependency graph needs.
type PackageMeta struct {
	Name string
	Span source.Span
	Deps []DepMeta
}

// Metas lists the packages of m in manifest order.
func (m *Manifest) Metas() []PackageMeta {
	out := make([]PackageMeta, 0, len(m.Packages))
	for i := range m.Packages {
		p := &m.Packages[i]
		meta := PackageMeta{Name: p.Name, Span: p.Span, Deps: make([]DepMeta, 0, len(p.Dependencies))}
		for j, dep := range p.Dependencies {
			var sp source.Span
			if j < len(p.DepSpans) {
				sp = p.DepSpans[j]
			}
			meta.Deps = append(meta.Deps, DepMeta{Name: dep, Span: sp})
		}
		out = append(out, meta)
	}
	return out
}
