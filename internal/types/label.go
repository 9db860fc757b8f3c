package types

import (
	"strings"
)

const maxLabelDepth = 8

// Format renders id for diagnostics: Vec<i32>, *u8, (i32, bool), (), !,
// {unknown}, {int}, {float}, T: Show + Eq. Linked literal variables are
// shown as the type they resolve to.
func (e *Env) Format(id TypeID) string {
	var b strings.Builder
	e.writeType(&b, id, 0, true)
	return b.String()
}

// Key is the canonical rendering of id after chasing literal links. Two
// types with equal keys name the same type; the impl table is keyed by it.
func (e *Env) Key(id TypeID) string {
	var b strings.Builder
	e.writeType(&b, id, 0, false)
	return b.String()
}

// RestrictionName renders a restriction as core::Add<i32>.
func (e *Env) RestrictionName(r TraitRestriction) string {
	var b strings.Builder
	b.WriteString(joinPath(e.strings, r.Path))
	e.writeArgs(&b, r.Args, 1, false)
	return b.String()
}

func (e *Env) writeType(b *strings.Builder, id TypeID, depth int, verbose bool) {
	if depth > maxLabelDepth {
		b.WriteString("...")
		return
	}
	t, ok := e.Lookup(e.Resolve(id))
	if !ok {
		b.WriteString("?")
		return
	}
	switch t.Kind {
	case KindUnknown:
		if verbose {
			b.WriteString("{unknown}")
		} else {
			b.WriteString("_")
		}
	case KindNever:
		b.WriteString("!")
	case KindInt:
		b.WriteString("{int}")
	case KindFloat:
		b.WriteString("{float}")
	case KindGeneric:
		b.WriteString(e.name(t))
		if verbose && depth == 0 && len(t.Restrictions) > 0 {
			b.WriteString(": ")
			for i, r := range t.Restrictions {
				if i > 0 {
					b.WriteString(" + ")
				}
				b.WriteString(e.RestrictionName(r))
			}
		}
	case KindConcrete:
		switch t.Concrete {
		case ConcretePath:
			b.WriteString(joinPath(e.strings, t.Path))
			e.writeArgs(b, t.Args, depth+1, verbose)
		case ConcretePtr:
			b.WriteByte('*')
			e.writeType(b, t.Elem, depth+1, verbose)
		case ConcreteTuple:
			b.WriteByte('(')
			for i, el := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				e.writeType(b, el, depth+1, verbose)
			}
			if len(t.Args) == 1 {
				b.WriteByte(',')
			}
			b.WriteByte(')')
		default:
			b.WriteString("?")
		}
	default:
		b.WriteString("?")
	}
}

func (e *Env) writeArgs(b *strings.Builder, args []TypeID, depth int, verbose bool) {
	if len(args) == 0 {
		return
	}
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		e.writeType(b, a, depth, verbose)
	}
	b.WriteByte('>')
}

func (e *Env) name(t Type) string {
	if s, ok := e.strings.Lookup(t.Name); ok && s != "" {
		return s
	}
	return "?"
}
