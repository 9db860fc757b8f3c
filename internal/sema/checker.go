package sema

import (
	"flux/internal/hir"
	"flux/internal/source"
	"flux/internal/types"
)

// Checker unifies types of a single arena.
type Checker struct {
	Env   *types.Env
	Impls *types.ImplTable

	in *hir.Inserter
}

// NewChecker binds a checker to env. impls may be nil, in which case only
// Never and generic bounds satisfy restrictions.
func NewChecker(env *types.Env, impls *types.ImplTable) *Checker {
	return &Checker{
		Env:   env,
		Impls: impls,
		in:    hir.NewInserter(env),
	}
}

// Inserter returns the inserter that places descriptions into the
// checker's arena.
func (c *Checker) Inserter() *hir.Inserter {
	return c.in
}

func (c *Checker) strings() *source.Interner {
	return c.Env.Strings()
}
