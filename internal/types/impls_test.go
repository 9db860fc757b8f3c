package types

import (
	"sync"
	"testing"

	"flux/internal/source"
)

func TestImplTable(t *testing.T) {
	strs := source.NewInterner()
	add := strs.InternAll("core", "Add")
	show := strs.InternAll("core", "Show")
	table := NewImplTable()
	table.Add(add, "i32")
	table.Add(add, "geo::Point")
	table.Add(add, "i32")

	if !table.Implements(add, "i32") || table.Implements(show, "i32") {
		t.Fatalf("lookup wrong")
	}
	got := table.Implementors(add)
	if len(got) != 2 || got[0] != "geo::Point" || got[1] != "i32" {
		t.Fatalf("implementors = %v", got)
	}
	if table.Len() != 2 {
		t.Fatalf("len = %d", table.Len())
	}
	var nilTable *ImplTable
	if nilTable.Implements(add, "i32") {
		t.Fatalf("nil table must implement nothing")
	}
}

func TestImplTableConcurrentReads(t *testing.T) {
	strs := source.NewInterner()
	trait := strs.InternAll("Eq")
	table := NewImplTable()
	table.Add(trait, "bool")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !table.Implements(trait, "bool") {
				t.Error("missing impl")
			}
		}()
	}
	wg.Wait()
}
