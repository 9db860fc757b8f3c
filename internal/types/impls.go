package types

import (
	"sort"
	"sync"

	"flux/internal/source"
)

// ImplTable records which types implement which traits. Traits are keyed by
// their path, types by Env.Key of the implementing type, so a table built
// from one arena can answer queries from another.
type ImplTable struct {
	mu    sync.RWMutex
	impls map[string]map[string]struct{}
}

func NewImplTable() *ImplTable {
	return &ImplTable{impls: make(map[string]map[string]struct{})}
}

// Add registers that the type rendered as typeKey implements trait.
func (t *ImplTable) Add(trait []source.StringID, typeKey string) {
	key := pathKey(trait)
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.impls[key]
	if !ok {
		set = make(map[string]struct{})
		t.impls[key] = set
	}
	set[typeKey] = struct{}{}
}

func (t *ImplTable) Implements(trait []source.StringID, typeKey string) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.impls[pathKey(trait)][typeKey]
	return ok
}

// Implementors lists the type keys registered for trait, sorted.
func (t *ImplTable) Implementors(trait []source.StringID) []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.impls[pathKey(trait)]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len counts (trait, type) pairs.
func (t *ImplTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, set := range t.impls {
		n += len(set)
	}
	return n
}
