// Package testkit holds assertions shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"flux/internal/diag"
	"flux/internal/source"
)

// CheckSpanInvariants verifies every diagnostic of bag:
// 1) the primary span is ordered and lies inside its file
// 2) note spans obey the same rule
// 3) zero spans are only allowed for diagnostics without a location
func CheckSpanInvariants(bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || fs == nil {
		return fmt.Errorf("nil bag or file set")
	}
	for i, d := range bag.Items() {
		if err := checkSpan(fs, d.Primary); err != nil {
			return fmt.Errorf("diagnostic #%d %s: %w", i, d.Code.ID(), err)
		}
		for j, n := range d.Notes {
			if err := checkSpan(fs, n.Span); err != nil {
				return fmt.Errorf("diagnostic #%d %s note #%d: %w", i, d.Code.ID(), j, err)
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	if sp.IsZero() {
		return nil
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span end before start: %v", sp)
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span points to unknown file id %d", sp.File)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, lenContent)
	}
	return nil
}
