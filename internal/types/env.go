package types

import (
	"fmt"

	"fortio.org/safecast"

	"flux/internal/source"
)

type entry struct {
	ty   Type
	span source.Span
}

// Env is the type arena of one checking session. Entries are never removed
// or renumbered; Set is visible to every holder of the overwritten id.
type Env struct {
	entries []entry
	strings *source.Interner

	// IntPaths and FloatPaths list the paths an integer or float literal
	// variable may resolve to.
	IntPaths   *PathSet
	FloatPaths *PathSet
}

var (
	defaultIntNames   = []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64"}
	defaultFloatNames = []string{"f32", "f64"}
)

// DefaultIntNames returns the builtin integer type names.
func DefaultIntNames() []string { return append([]string(nil), defaultIntNames...) }

// DefaultFloatNames returns the builtin float type names.
func DefaultFloatNames() []string { return append([]string(nil), defaultFloatNames...) }

// NewEnv creates an empty arena whose numeric registries are seeded with the
// builtin integer and float names. A nil interner gets a private one.
func NewEnv(strs *source.Interner) *Env {
	if strs == nil {
		strs = source.NewInterner()
	}
	env := &Env{
		entries:    make([]entry, 1, 32),
		strings:    strs,
		IntPaths:   NewPathSet(strs),
		FloatPaths: NewPathSet(strs),
	}
	for _, name := range defaultIntNames {
		env.IntPaths.Add(strs.Intern(name))
	}
	for _, name := range defaultFloatNames {
		env.FloatPaths.Add(strs.Intern(name))
	}
	return env
}

// Strings exposes the interner used to render names.
func (e *Env) Strings() *source.Interner {
	return e.strings
}

// Insert appends t and returns its fresh id.
func (e *Env) Insert(t Type) TypeID {
	return e.InsertAt(t, source.Span{})
}

// InsertAt is Insert that also records where the type came from.
func (e *Env) InsertAt(t Type, span source.Span) TypeID {
	n, err := safecast.Conv[uint32](len(e.entries))
	if err != nil {
		panic(fmt.Errorf("type arena overflow: %w", err))
	}
	e.entries = append(e.entries, entry{ty: t, span: span})
	return TypeID(n)
}

// Lookup returns the entry for id, or false for NoTypeID and foreign ids.
func (e *Env) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(e.entries) {
		return Type{}, false
	}
	return e.entries[id].ty, true
}

// Get panics when id does not belong to this arena.
func (e *Env) Get(id TypeID) Type {
	t, ok := e.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return t
}

// Set overwrites the entry at id in place, keeping its span.
func (e *Env) Set(id TypeID, t Type) {
	if id == NoTypeID || int(id) >= len(e.entries) {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	e.entries[id].ty = t
}

// Span returns the recorded origin of id; zero when none was recorded.
func (e *Env) Span(id TypeID) source.Span {
	if id == NoTypeID || int(id) >= len(e.entries) {
		return source.Span{}
	}
	return e.entries[id].span
}

// Len counts entries including the reserved slot.
func (e *Env) Len() int {
	return len(e.entries)
}

// Resolve follows Int/Float forwarding links until it reaches an unlinked
// variable or a non-variable entry. A link cycle stops at the first id seen
// twice.
func (e *Env) Resolve(id TypeID) TypeID {
	var visited map[TypeID]struct{}
	for {
		t, ok := e.Lookup(id)
		if !ok || !t.IsVar() || t.Link == NoTypeID {
			return id
		}
		if visited == nil {
			visited = make(map[TypeID]struct{}, 4)
		}
		if _, seen := visited[id]; seen {
			return id
		}
		visited[id] = struct{}{}
		id = t.Link
	}
}

// ResolvedType is Get(Resolve(id)).
func (e *Env) ResolvedType(id TypeID) Type {
	t, _ := e.Lookup(e.Resolve(id))
	return t
}
