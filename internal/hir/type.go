package hir

import (
	"strconv"
	"strings"

	"flux/internal/source"
)

// TypeKind enumerates the shapes of a type description.
type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypeNever
	TypePath
	TypePtr
	TypeTuple
	TypeGeneric
	TypeIntLit
	TypeFloatLit
	TypeThis
	TypeLocal
)

// Type describes a type before it is inserted into an arena.
type Type struct {
	Kind TypeKind
	// Path names TypePath types.
	Path Path
	// Args are generic arguments of TypePath and elements of TypeTuple.
	Args []*Type
	// Elem is the pointee of TypePtr.
	Elem *Type
	// Name is the parameter of TypeGeneric or the local of TypeLocal.
	Name source.StringID
	Span source.Span
}

// Walk calls fn for t and every nested description, depth first.
func (t *Type) Walk(fn func(*Type)) {
	if t == nil {
		return
	}
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
	t.Elem.Walk(fn)
}

// Shareable reports whether every insertion of t may reuse one arena slot.
// Descriptions that can be refined by unification never are.
func (t *Type) Shareable() bool {
	ok := true
	t.Walk(func(n *Type) {
		switch n.Kind {
		case TypeUnknown, TypeIntLit, TypeFloatLit, TypeLocal, TypeThis:
			ok = false
		}
	})
	return ok
}

// String renders the description back in type notation.
func (t *Type) String(strs *source.Interner) string {
	var b strings.Builder
	t.write(&b, strs)
	return b.String()
}

func (t *Type) write(b *strings.Builder, strs *source.Interner) {
	if t == nil {
		b.WriteString("?")
		return
	}
	switch t.Kind {
	case TypeUnknown:
		b.WriteByte('_')
	case TypeNever:
		b.WriteByte('!')
	case TypeIntLit:
		b.WriteString("{int}")
	case TypeFloatLit:
		b.WriteString("{float}")
	case TypeThis:
		b.WriteString("This")
	case TypeLocal:
		b.WriteByte('$')
		b.WriteString(strs.MustLookup(t.Name))
	case TypeGeneric:
		b.WriteString(strs.MustLookup(t.Name))
	case TypePtr:
		b.WriteByte('*')
		t.Elem.write(b, strs)
	case TypeTuple:
		b.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b, strs)
		}
		if len(t.Args) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case TypePath:
		b.WriteString(t.Path.String(strs))
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b, strs)
			}
			b.WriteByte('>')
		}
	}
}

// cacheKey identifies shareable descriptions by interned ids.
func (t *Type) cacheKey() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t *Type) writeKey(b *strings.Builder) {
	b.WriteString(strconv.Itoa(int(t.Kind)))
	switch t.Kind {
	case TypeGeneric:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Name), 10))
	case TypePath:
		for _, seg := range t.Path.Segments {
			b.WriteByte('.')
			b.WriteString(strconv.FormatUint(uint64(seg), 10))
		}
	case TypePtr:
		b.WriteByte('^')
		t.Elem.writeKey(b)
	}
	if len(t.Args) > 0 {
		b.WriteByte('[')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.writeKey(b)
		}
		b.WriteByte(']')
	}
}
