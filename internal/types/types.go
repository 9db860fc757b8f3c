package types

import (
	"fmt"
	"slices"

	"flux/internal/source"
)

// TypeID identifies an entry inside one Env.
type TypeID uint32

// NoTypeID marks the absence of a type. Slot 0 of every Env is reserved for it.
const NoTypeID TypeID = 0

// Kind enumerates the variants an Env entry can take.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown is not yet constrained; unification may overwrite it.
	KindUnknown
	// KindNever is the bottom type.
	KindNever
	// KindGeneric is a type parameter with a fixed list of restrictions.
	KindGeneric
	// KindInt is an integer literal variable, Link forwards to another entry.
	KindInt
	// KindFloat is the floating point analogue of KindInt.
	KindFloat
	// KindConcrete is a named, pointer or tuple type; see ConcreteKind.
	KindConcrete
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "unknown"
	case KindNever:
		return "never"
	case KindGeneric:
		return "generic"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindConcrete:
		return "concrete"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ConcreteKind distinguishes the concrete shapes.
type ConcreteKind uint8

const (
	ConcreteNone ConcreteKind = iota
	ConcretePath
	ConcretePtr
	ConcreteTuple
)

func (c ConcreteKind) String() string {
	switch c {
	case ConcretePath:
		return "path"
	case ConcretePtr:
		return "ptr"
	case ConcreteTuple:
		return "tuple"
	default:
		return "none"
	}
}

// TraitRestriction names a trait a type must implement.
type TraitRestriction struct {
	Path []source.StringID
	Args []TypeID
}

// Equal compares paths by name and arguments by identity.
func (r TraitRestriction) Equal(other TraitRestriction) bool {
	return slices.Equal(r.Path, other.Path) && slices.Equal(r.Args, other.Args)
}

// Type is a single arena entry.
type Type struct {
	Kind     Kind
	Concrete ConcreteKind

	// Name is the parameter name for KindGeneric.
	Name         source.StringID
	Restrictions []TraitRestriction

	// Path and Args describe ConcretePath; Args also holds tuple elements.
	Path []source.StringID
	Args []TypeID
	// Elem is the pointee of ConcretePtr.
	Elem TypeID

	// Link is the forwarding target of KindInt/KindFloat; NoTypeID means unlinked.
	Link TypeID
}

func Unknown() Type {
	return Type{Kind: KindUnknown}
}

func Never() Type {
	return Type{Kind: KindNever}
}

func Generic(name source.StringID, restrictions ...TraitRestriction) Type {
	return Type{Kind: KindGeneric, Name: name, Restrictions: restrictions}
}

// IntVar describes an integer literal variable, optionally already linked.
func IntVar(link TypeID) Type {
	return Type{Kind: KindInt, Link: link}
}

func FloatVar(link TypeID) Type {
	return Type{Kind: KindFloat, Link: link}
}

// MakePath describes a named type such as core::Vec<T>.
func MakePath(path []source.StringID, args ...TypeID) Type {
	return Type{Kind: KindConcrete, Concrete: ConcretePath, Path: path, Args: args}
}

func MakePtr(elem TypeID) Type {
	return Type{Kind: KindConcrete, Concrete: ConcretePtr, Elem: elem}
}

// MakeTuple describes a tuple; no elements is the unit type.
func MakeTuple(elems ...TypeID) Type {
	return Type{Kind: KindConcrete, Concrete: ConcreteTuple, Args: elems}
}

// IsVar reports whether t is an integer or float literal variable.
func (t Type) IsVar() bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

// Clone copies t including its slices, so the result shares no backing
// arrays with the receiver.
func (t Type) Clone() Type {
	out := t
	out.Path = slices.Clone(t.Path)
	out.Args = slices.Clone(t.Args)
	if t.Restrictions != nil {
		out.Restrictions = make([]TraitRestriction, len(t.Restrictions))
		for i, r := range t.Restrictions {
			out.Restrictions[i] = TraitRestriction{Path: slices.Clone(r.Path), Args: slices.Clone(r.Args)}
		}
	}
	return out
}

// ConcreteEqual reports structural equality of two concrete entries.
// Nested TypeIDs are compared by identity, not by what they resolve to:
// two tuples holding distinct slots of the same type are not equal.
func ConcreteEqual(a, b Type) bool {
	if a.Kind != KindConcrete || b.Kind != KindConcrete || a.Concrete != b.Concrete {
		return false
	}
	switch a.Concrete {
	case ConcretePath:
		return slices.Equal(a.Path, b.Path) && slices.Equal(a.Args, b.Args)
	case ConcretePtr:
		return a.Elem == b.Elem
	case ConcreteTuple:
		return slices.Equal(a.Args, b.Args)
	}
	return false
}
