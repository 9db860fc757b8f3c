package hir

import (
	"fmt"

	"flux/internal/source"
	"flux/internal/types"
)

// InsertError reports a description that cannot be placed in an arena.
type InsertError struct {
	Kind InsertErrorKind
	Name string
	Span source.Span
}

type InsertErrorKind uint8

const (
	InsertThisOutsideTrait InsertErrorKind = iota + 1
	InsertUnknownLocal
	InsertUnknownGeneric
	InsertMalformed
)

func (e *InsertError) Error() string {
	switch e.Kind {
	case InsertThisOutsideTrait:
		return "This used outside of a trait or apply block"
	case InsertUnknownLocal:
		return fmt.Sprintf("unknown local $%s", e.Name)
	case InsertUnknownGeneric:
		return fmt.Sprintf("unknown generic parameter %s", e.Name)
	default:
		return "malformed type"
	}
}

// Inserter places type descriptions into one arena.
//
// Shareable descriptions (no unknowns, literal variables or locals) are
// inserted once and reused, so identical signatures inserted from a trait and
// from its implementation compare equal under identity-based equality.
type Inserter struct {
	Env *types.Env
	// This replaces TypeThis; nil outside traits.
	This *Type

	generics map[source.StringID][]TraitBound
	locals   map[source.StringID]types.TypeID
	cache    map[string]types.TypeID
	// genericKeys are cache keys of descriptions that mention a generic.
	genericKeys []string
}

func NewInserter(env *types.Env) *Inserter {
	return &Inserter{
		Env:      env,
		generics: make(map[source.StringID][]TraitBound),
		locals:   make(map[source.StringID]types.TypeID),
		cache:    make(map[string]types.TypeID),
	}
}

// DeclareGenerics opens a generic scope holding params. Parameters of the
// previous scope are forgotten, together with every cached type that
// mentions one of them, so a name reused by another method gets its own
// bounds.
func (in *Inserter) DeclareGenerics(params []GenericParam) {
	clear(in.generics)
	for _, key := range in.genericKeys {
		delete(in.cache, key)
	}
	in.genericKeys = in.genericKeys[:0]
	for _, p := range params {
		in.generics[p.Name] = p.Bounds
	}
}

// DeclareLocal inserts the local's type and binds its name.
func (in *Inserter) DeclareLocal(l Local) (types.TypeID, error) {
	id, err := in.Insert(l.Type)
	if err != nil {
		return types.NoTypeID, err
	}
	in.locals[l.Name] = id
	return id, nil
}

// LocalID returns the arena slot of a declared local.
func (in *Inserter) LocalID(name source.StringID) (types.TypeID, bool) {
	id, ok := in.locals[name]
	return id, ok
}

// Insert places t into the arena. A nil description is the unit type.
func (in *Inserter) Insert(t *Type) (types.TypeID, error) {
	if t == nil {
		t = &Type{Kind: TypeTuple}
	}
	t, err := in.substituteThis(t)
	if err != nil {
		return types.NoTypeID, err
	}
	switch t.Kind {
	case TypeUnknown:
		return in.Env.InsertAt(types.Unknown(), t.Span), nil
	case TypeIntLit:
		return in.Env.InsertAt(types.IntVar(types.NoTypeID), t.Span), nil
	case TypeFloatLit:
		return in.Env.InsertAt(types.FloatVar(types.NoTypeID), t.Span), nil
	case TypeLocal:
		id, ok := in.locals[t.Name]
		if !ok {
			return types.NoTypeID, &InsertError{Kind: InsertUnknownLocal, Name: in.Env.Strings().MustLookup(t.Name), Span: t.Span}
		}
		return id, nil
	}

	var key string
	if t.Shareable() {
		key = t.cacheKey()
		if id, ok := in.cache[key]; ok {
			return id, nil
		}
	}
	built, err := in.build(t)
	if err != nil {
		return types.NoTypeID, err
	}
	id := in.Env.InsertAt(built, t.Span)
	if key != "" {
		in.cache[key] = id
		if t.mentionsGeneric() {
			in.genericKeys = append(in.genericKeys, key)
		}
	}
	return id, nil
}

func (in *Inserter) build(t *Type) (types.Type, error) {
	switch t.Kind {
	case TypeNever:
		return types.Never(), nil
	case TypeGeneric:
		return in.generic(t)
	case TypePtr:
		elem, err := in.Insert(t.Elem)
		return types.MakePtr(elem), err
	case TypeTuple:
		elems, err := in.insertAll(t.Args)
		return types.MakeTuple(elems...), err
	case TypePath:
		args, err := in.insertAll(t.Args)
		return types.MakePath(t.Path.Segments, args...), err
	}
	return types.Type{}, &InsertError{Kind: InsertMalformed, Span: t.Span}
}

// substituteThis returns t with every This replaced by the apply target.
// Descriptions without This are returned unchanged.
func (in *Inserter) substituteThis(t *Type) (*Type, error) {
	hasThis := false
	t.Walk(func(n *Type) {
		if n.Kind == TypeThis {
			hasThis = true
		}
	})
	if !hasThis {
		return t, nil
	}
	if in.This == nil || !in.This.thisFree() {
		return nil, &InsertError{Kind: InsertThisOutsideTrait, Span: t.Span}
	}
	target := in.This
	return t.rewrite(func(n *Type) *Type {
		if n.Kind == TypeThis {
			return target
		}
		return nil
	}), nil
}

func (t *Type) thisFree() bool {
	free := true
	t.Walk(func(n *Type) {
		if n.Kind == TypeThis {
			free = false
		}
	})
	return free
}

func (t *Type) mentionsGeneric() bool {
	found := false
	t.Walk(func(n *Type) {
		if n.Kind == TypeGeneric {
			found = true
		}
	})
	return found
}

// RenameGenerics returns a copy of t with generic parameters renamed
// through names. Parameters missing from names keep their name.
func (t *Type) RenameGenerics(names map[source.StringID]source.StringID) *Type {
	return t.rewrite(func(n *Type) *Type {
		if n.Kind != TypeGeneric {
			return nil
		}
		to, ok := names[n.Name]
		if !ok {
			return nil
		}
		out := *n
		out.Name = to
		return &out
	})
}

// rewrite copies t, replacing every node for which fn returns non-nil.
func (t *Type) rewrite(fn func(*Type) *Type) *Type {
	if t == nil {
		return nil
	}
	if r := fn(t); r != nil {
		return r
	}
	out := *t
	if t.Args != nil {
		out.Args = make([]*Type, len(t.Args))
		for i, a := range t.Args {
			out.Args[i] = a.rewrite(fn)
		}
	}
	out.Elem = t.Elem.rewrite(fn)
	return &out
}

func (in *Inserter) insertAll(list []*Type) ([]types.TypeID, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]types.TypeID, len(list))
	for i, t := range list {
		id, err := in.Insert(t)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (in *Inserter) generic(t *Type) (types.Type, error) {
	bounds, ok := in.generics[t.Name]
	if !ok {
		return types.Type{}, &InsertError{Kind: InsertUnknownGeneric, Name: in.Env.Strings().MustLookup(t.Name), Span: t.Span}
	}
	restrictions := make([]types.TraitRestriction, 0, len(bounds))
	for _, b := range bounds {
		args, err := in.insertAll(b.Args)
		if err != nil {
			return types.Type{}, err
		}
		restrictions = append(restrictions, types.TraitRestriction{Path: b.Path.Segments, Args: args})
	}
	return types.Generic(t.Name, restrictions...), nil
}
