package driver

import "runtime"

// Options controls a check run.
type Options struct {
	// MaxDiagnostics caps the result bag; 0 means unlimited.
	MaxDiagnostics int
	// Jobs bounds parallel declaration checks; 0 uses GOMAXPROCS.
	Jobs int
	// EnableTimings records phase timings and appends an OBS6001 diagnostic.
	EnableTimings bool
	// Cache, when set, is consulted before checking and filled afterwards.
	Cache *DiskCache
	// Progress receives phase and declaration events. It is called from
	// worker goroutines and must be safe for concurrent use.
	Progress ProgressFunc
	// ToolVersion is mixed into cache keys so upgrades invalidate them.
	ToolVersion string
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}
