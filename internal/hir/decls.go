package hir

import (
	"sort"
	"strings"

	"flux/internal/source"
)

// Param is a function or trait method parameter. Names are informational:
// conformance compares parameters by position.
type Param struct {
	Name source.StringID
	Type *Type
	Span source.Span
}

// TraitBound is one bound on a generic parameter.
type TraitBound struct {
	Path Path
	Args []*Type
}

// GenericParam is a type parameter of a function.
type GenericParam struct {
	Name   source.StringID
	Bounds []TraitBound
	Span   source.Span
}

// String renders the bound as path::Trait<Args>.
func (b TraitBound) String(strs *source.Interner) string {
	t := Type{Kind: TypePath, Path: b.Path, Args: b.Args}
	return t.String(strs)
}

// String renders the parameter as T: A + B.
func (g GenericParam) String(strs *source.Interner) string {
	var sb strings.Builder
	sb.WriteString(strs.MustLookup(g.Name))
	for i, b := range g.Bounds {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString(" + ")
		}
		sb.WriteString(b.String(strs))
	}
	return sb.String()
}

// Equation asks the checker to unify two types in order.
type Equation struct {
	Left  *Type
	Right *Type
	Span  source.Span
}

// Local is a named local variable of a function body.
type Local struct {
	Name source.StringID
	Type *Type
	Span source.Span
}

// FnDecl is a lowered function: a free function or a method of an apply block.
type FnDecl struct {
	Name     source.StringID
	Vis      Visibility
	Generics []GenericParam
	Params   []Param
	Return   *Type
	Span     source.Span

	// Body is the type the body evaluates to; nil means unit.
	Body      *Type
	Locals    []Local
	Equations []Equation
}

// TraitMethod is a method signature declared in a trait. Generics, when
// present, are matched to the implementing method's by position.
type TraitMethod struct {
	Name     source.StringID
	Generics []GenericParam
	Params   []Param
	Return   *Type
	Span     source.Span
}

// TraitDecl maps method names to their declared signatures.
type TraitDecl struct {
	Name source.StringID
	// Path is the canonical path of the trait, the key used in the impl table.
	Path    []source.StringID
	Methods map[source.StringID]*TraitMethod
	Span    source.Span
}

func NewTraitDecl(name source.StringID, path []source.StringID, span source.Span) *TraitDecl {
	return &TraitDecl{
		Name:    name,
		Path:    path,
		Methods: make(map[source.StringID]*TraitMethod),
		Span:    span,
	}
}

// AddMethod registers m and reports false when the name is already taken.
func (t *TraitDecl) AddMethod(m *TraitMethod) bool {
	if _, ok := t.Methods[m.Name]; ok {
		return false
	}
	t.Methods[m.Name] = m
	return true
}

// MethodNames returns the method names sorted alphabetically.
func (t *TraitDecl) MethodNames(strs *source.Interner) []string {
	out := make([]string, 0, len(t.Methods))
	for id := range t.Methods {
		out = append(out, strs.MustLookup(id))
	}
	sort.Strings(out)
	return out
}

// ApplyDecl is an impl block. Trait is nil for inherent blocks.
type ApplyDecl struct {
	Trait   *Path
	Target  *Type
	Methods []*FnDecl
	Span    source.Span
}
