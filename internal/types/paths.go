package types

import (
	"encoding/binary"
	"slices"
	"strings"
	"sync"

	"flux/internal/source"
)

// PathSet is a registry of type paths, used for the numeric literal
// registries. Reads are safe from several goroutines.
type PathSet struct {
	mu      sync.RWMutex
	strings *source.Interner
	byKey   map[string]int
	paths   [][]source.StringID
}

func NewPathSet(strs *source.Interner) *PathSet {
	return &PathSet{strings: strs, byKey: make(map[string]int)}
}

func pathKey(path []source.StringID) string {
	buf := make([]byte, 0, 4*len(path))
	for _, seg := range path {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(seg))
	}
	return string(buf)
}

// Add registers a path; adding it twice is a no-op.
func (s *PathSet) Add(path ...source.StringID) {
	if len(path) == 0 {
		return
	}
	key := pathKey(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[key]; ok {
		return
	}
	s.byKey[key] = len(s.paths)
	s.paths = append(s.paths, slices.Clone(path))
}

func (s *PathSet) Contains(path []source.StringID) bool {
	if s == nil || len(path) == 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[pathKey(path)]
	return ok
}

func (s *PathSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// Names renders each path joined with "::", in insertion order.
func (s *PathSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.paths))
	for i, p := range s.paths {
		out[i] = joinPath(s.strings, p)
	}
	return out
}

func joinPath(strs *source.Interner, path []source.StringID) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		name, ok := strs.Lookup(seg)
		if !ok {
			name = "?"
		}
		parts[i] = name
	}
	return strings.Join(parts, "::")
}
