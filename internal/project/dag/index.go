package dag

import (
	"sort"

	"flux/internal/project"
)

type PackageID uint32

type PackageIndex struct {
	NameToID map[string]PackageID
	IDToName []string
}

// BuildIndex collects every declared or referenced package name, sorts
// them and numbers them in that order.
func BuildIndex(metas []project.PackageMeta) PackageIndex {
	uniq := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		if meta.Name != "" {
			uniq[meta.Name] = struct{}{}
		}
		for _, dep := range meta.Deps {
			if dep.Name == "" {
				continue
			}
			uniq[dep.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]PackageID, len(names))
	for i, name := range names {
		nameToID[name] = PackageID(i) // #nosec G115 -- bounded by manifest size
	}

	return PackageIndex{
		NameToID: nameToID,
		IDToName: names,
	}
}
