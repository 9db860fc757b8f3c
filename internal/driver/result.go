package driver

import (
	"flux/internal/diag"
	"flux/internal/observ"
	"flux/internal/project"
	"flux/internal/source"
	"flux/internal/symbols"
	"flux/internal/types"
)

// Stats counts what a check looked at.
type Stats struct {
	Packages  int `msgpack:"packages"`
	Modules   int `msgpack:"modules"`
	Items     int `msgpack:"items"`
	Traits    int `msgpack:"traits"`
	Applies   int `msgpack:"applies"`
	Functions int `msgpack:"functions"`
	Uses      int `msgpack:"uses"`
}

// Result is the outcome of Check. Table and Impls are nil when the result
// came from the disk cache.
type Result struct {
	FileSet  *source.FileSet
	Manifest *project.Manifest
	Strings  *source.Interner
	Table    *symbols.PackageTable
	Impls    *types.ImplTable
	Bag      *diag.Bag
	Stats    Stats
	Timings  observ.Report

	FromCache bool

	w *world
}

// HasErrors reports whether any error diagnostic was produced.
func (r *Result) HasErrors() bool {
	return r != nil && r.Bag != nil && r.Bag.HasErrors()
}
