package sema

import (
	"flux/internal/source"
	"flux/internal/types"
)

// Unify makes a and b consistent, overwriting entries in place when one
// side is still open.
//
// The rules are positional. Only an Unknown on the left is resolved: the
// caller places the possibly unresolved operand first, or uses UnifyExpected.
// Likewise a Generic or Never only acts from the left. Nested ids inside
// concrete types are compared by identity.
func (c *Checker) Unify(a, b types.TypeID, span source.Span) error {
	if a == b {
		return nil
	}
	ta, okA := c.Env.Lookup(a)
	tb, okB := c.Env.Lookup(b)
	if !okA || !okB {
		return c.mismatch(a, b, span)
	}

	switch ta.Kind {
	case types.KindUnknown:
		c.Env.Set(a, tb.Clone())
		return nil
	case types.KindGeneric:
		return c.checkRestrictions(a, ta, b, span)
	case types.KindNever:
		return nil
	}

	switch {
	case ta.Kind == types.KindConcrete && tb.IsVar():
		return c.unifyLiteral(b, tb, a, ta, span, false)
	case ta.IsVar() && tb.Kind == types.KindConcrete:
		return c.unifyLiteral(a, ta, b, tb, span, true)
	case ta.IsVar() && ta.Kind == tb.Kind:
		return c.unifyVars(a, ta, b, tb, span)
	case ta.Kind == types.KindConcrete && tb.Kind == types.KindConcrete:
		if types.ConcreteEqual(ta, tb) {
			return nil
		}
	}
	return c.mismatch(a, b, span)
}

// UnifyExpected unifies the actual type of an expression with the type it is
// expected to have. The actual side goes first, so a diverging expression
// fits any expectation and an open actual type picks up the expected one.
// When that fails and the expected side is still Unknown, the pair is
// retried the other way round.
//
// A returned TypeMismatchError has the actual type as A.
func (c *Checker) UnifyExpected(expected, actual types.TypeID, span source.Span) error {
	err := c.Unify(actual, expected, span)
	if err == nil {
		return nil
	}
	if t, ok := c.Env.Lookup(expected); ok && t.Kind == types.KindUnknown {
		if c.Unify(expected, actual, span) == nil {
			return nil
		}
	}
	return err
}

// unifyLiteral handles a literal variable against a concrete type.
// varFirst tells which side the variable was passed on so recursion keeps
// the caller's argument order.
func (c *Checker) unifyLiteral(varID types.TypeID, v types.Type, concID types.TypeID, conc types.Type, span source.Span, varFirst bool) error {
	if v.Link != types.NoTypeID {
		if varFirst {
			return c.Unify(v.Link, concID, span)
		}
		return c.Unify(concID, v.Link, span)
	}
	registry := c.Env.IntPaths
	if v.Kind == types.KindFloat {
		registry = c.Env.FloatPaths
	}
	if conc.Concrete != types.ConcretePath || len(conc.Args) != 0 || !registry.Contains(conc.Path) {
		if varFirst {
			return c.mismatch(varID, concID, span)
		}
		return c.mismatch(concID, varID, span)
	}
	c.Env.Set(varID, linkTo(v.Kind, concID))
	return nil
}

// unifyVars links two literal variables of the same kind.
func (c *Checker) unifyVars(a types.TypeID, ta types.Type, b types.TypeID, tb types.Type, span source.Span) error {
	linkedA := ta.Link != types.NoTypeID
	linkedB := tb.Link != types.NoTypeID
	if linkedA && linkedB {
		return c.Unify(ta.Link, tb.Link, span)
	}
	// already in one chain, another link would close a cycle
	if c.Env.Resolve(a) == c.Env.Resolve(b) {
		return nil
	}
	switch {
	case linkedA:
		c.Env.Set(b, linkTo(tb.Kind, a))
	case linkedB:
		c.Env.Set(a, linkTo(ta.Kind, b))
	default:
		c.Env.Set(b, linkTo(tb.Kind, a))
	}
	return nil
}

func linkTo(kind types.Kind, target types.TypeID) types.Type {
	if kind == types.KindFloat {
		return types.FloatVar(target)
	}
	return types.IntVar(target)
}

func (c *Checker) mismatch(a, b types.TypeID, span source.Span) error {
	return &TypeMismatchError{
		A:      a,
		B:      b,
		ALabel: c.Env.Format(a),
		BLabel: c.Env.Format(b),
		ASpan:  c.Env.Span(a),
		BSpan:  c.Env.Span(b),
		Span:   span,
	}
}
