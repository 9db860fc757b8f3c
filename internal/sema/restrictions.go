package sema

import (
	"slices"

	"flux/internal/source"
	"flux/internal/types"
)

// checkRestrictions verifies every bound of the generic at genID against
// the type at other. Neither entry is modified.
func (c *Checker) checkRestrictions(genID types.TypeID, gen types.Type, other types.TypeID, span source.Span) error {
	for _, r := range gen.Restrictions {
		if c.Satisfies(other, r) {
			continue
		}
		return &RestrictionError{
			Generic:      genID,
			GenericLabel: c.Env.Format(genID),
			Type:         other,
			TypeLabel:    c.Env.Format(other),
			Trait:        c.Env.RestrictionName(r),
			TraitPath:    slices.Clone(r.Path),
			Span:         span,
			TypeSpan:     c.Env.Span(other),
		}
	}
	return nil
}

// Satisfies reports whether the type at id implements r.
//
//   - Never satisfies everything.
//   - A generic satisfies the bounds it was declared with.
//   - A concrete type satisfies r when the impl table has it.
//   - An unlinked literal variable satisfies r when some integer (or float)
//     type does, since it may still become that type.
//   - Unknown satisfies nothing.
//
// Trait arguments are ignored by the impl table lookup.
func (c *Checker) Satisfies(id types.TypeID, r types.TraitRestriction) bool {
	root := c.Env.Resolve(id)
	t, ok := c.Env.Lookup(root)
	if !ok {
		return false
	}
	switch t.Kind {
	case types.KindNever:
		return true
	case types.KindGeneric:
		for _, own := range t.Restrictions {
			if c.sameRestriction(own, r) {
				return true
			}
		}
		return false
	case types.KindConcrete:
		return c.Impls.Implements(r.Path, c.Env.Key(root))
	case types.KindInt:
		return c.anyImplements(c.Env.IntPaths, r)
	case types.KindFloat:
		return c.anyImplements(c.Env.FloatPaths, r)
	}
	return false
}

func (c *Checker) anyImplements(paths *types.PathSet, r types.TraitRestriction) bool {
	for _, name := range paths.Names() {
		if c.Impls.Implements(r.Path, name) {
			return true
		}
	}
	return false
}

// sameRestriction compares trait paths by name and arguments by key, so
// bounds inserted in separate slots still match.
func (c *Checker) sameRestriction(a, b types.TraitRestriction) bool {
	if !slices.Equal(a.Path, b.Path) || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] && c.Env.Key(a.Args[i]) != c.Env.Key(b.Args[i]) {
			return false
		}
	}
	return true
}
