package driver

import "time"

// ProgressKind classifies progress events.
type ProgressKind uint8

const (
	// ProgressPhaseStart marks the beginning of a pipeline phase.
	ProgressPhaseStart ProgressKind = iota
	ProgressPhaseEnd
	// ProgressDecl reports one checked apply block or function.
	ProgressDecl
	ProgressCacheHit
)

// ProgressEvent describes a step of a check run.
type ProgressEvent struct {
	Kind    ProgressKind
	Phase   string
	Name    string // declaration name for ProgressDecl
	Done    int
	Total   int
	Failed  bool
	Elapsed time.Duration
}

// ProgressFunc receives progress events.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}

// Phases lists the pipeline phases in the order CheckManifest runs them.
func Phases() []string {
	return []string{"graph", "build", "traits", "applies", "uses", "functions", "conformance", "bodies"}
}
