package dag

import (
	"fmt"
	"slices"
	"strings"

	"flux/internal/diag"
	"flux/internal/project"
	"flux/internal/source"
)

type Graph struct {
	Edges   [][]PackageID // Edges[from] = зависимости from
	Present []bool        // пакет объявлен в манифесте, а не только упомянут
}

type PackageNode struct {
	Meta     project.PackageMeta
	Reporter diag.Reporter
}

type PackageSlot struct {
	Meta     project.PackageMeta
	Reporter diag.Reporter
	Present  bool
}

// BuildGraph turns dependency lists into edges. Duplicate packages, unknown
// dependencies and self dependencies are reported and left out of the graph.
func BuildGraph(idx PackageIndex, nodes []PackageNode) (Graph, []PackageSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]PackageID, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]PackageSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Name = name
	}

	for _, node := range nodes {
		meta := node.Meta
		if meta.Name == "" {
			continue
		}
		id, ok := idx.NameToID[meta.Name]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if node.Reporter != nil {
				b := diag.ReportError(node.Reporter, diag.ProjDuplicatePackage, meta.Span,
					fmt.Sprintf("duplicate package %q", meta.Name))
				if slot.Meta.Span != (source.Span{}) {
					b.WithNote(slot.Meta.Span, fmt.Sprintf("previous declaration of %q", meta.Name))
				}
				b.Emit()
			}
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Deps) == 0 {
			continue
		}
		seen := make(map[PackageID]struct{}, len(slot.Meta.Deps))
		for _, dep := range slot.Meta.Deps {
			toID, ok := idx.NameToID[dep.Name]
			if !ok {
				continue
			}
			if PackageID(from) == toID { // #nosec G115 -- bounded by index size
				if slot.Reporter != nil {
					diag.ReportError(slot.Reporter, diag.ProjSelfDependency, dep.Span,
						fmt.Sprintf("package %q depends on itself", slot.Meta.Name)).Emit()
				}
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			if !g.Present[int(toID)] {
				if slot.Reporter != nil {
					diag.ReportError(slot.Reporter, diag.ProjMissingPackage, dep.Span,
						fmt.Sprintf("package %q depends on unknown package %q", slot.Meta.Name, dep.Name)).Emit()
				}
				continue
			}
			g.Edges[from] = append(g.Edges[from], toID)
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportCycles emits one diagnostic per package on a cycle.
func ReportCycles(idx PackageIndex, slots []PackageSlot, order *Order) {
	if order == nil || !order.Cyclic() {
		return
	}
	names := make([]string, 0, len(order.Cycles))
	for _, id := range order.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, " -> ")

	for _, id := range order.Cycles {
		slot := slots[int(id)]
		if !slot.Present || slot.Reporter == nil {
			continue
		}
		msg := fmt.Sprintf("package %q participates in a dependency cycle: %s", slot.Meta.Name, summary)
		diag.ReportError(slot.Reporter, diag.ProjDependencyCycle, slot.Meta.Span, msg).Emit()
	}
}
