package sema

import (
	"sort"

	"flux/internal/hir"
	"flux/internal/source"
	"flux/internal/types"
)

// CheckApply validates an apply block against the trait it names.
//
// Methods are checked in declaration order and the first failure is
// returned: an implemented method the trait does not declare, a return or
// parameter type that does not unify with the declaration, or a differing
// parameter count. When every implemented method is fine, trait methods left
// unimplemented are reported together in one error.
//
// This in either signature stands for the apply target. Every method gets
// its own generic scope.
func (c *Checker) CheckApply(apply *hir.ApplyDecl, trait *hir.TraitDecl) error {
	strs := c.strings()
	traitName := pathString(strs, trait.Path, trait.Name)

	prevThis := c.in.This
	c.in.This = apply.Target
	defer func() { c.in.This = prevThis }()

	matched := make(map[source.StringID]struct{}, len(trait.Methods))
	for _, m := range apply.Methods {
		decl, ok := trait.Methods[m.Name]
		if !ok {
			return &ConformanceError{
				Kind:         ConfUnknownMethod,
				Trait:        traitName,
				Method:       strs.MustLookup(m.Name),
				TraitMethods: trait.MethodNames(strs),
				Span:         m.Span,
				DeclSpan:     trait.Span,
			}
		}
		if err := c.checkMethod(traitName, decl, m); err != nil {
			return err
		}
		matched[m.Name] = struct{}{}
	}

	var missing []string
	for name := range trait.Methods {
		if _, ok := matched[name]; !ok {
			missing = append(missing, strs.MustLookup(name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ConformanceError{
		Kind:         ConfUnimplementedMethods,
		Trait:        traitName,
		TraitMethods: trait.MethodNames(strs),
		Missing:      missing,
		Span:         apply.Span,
		DeclSpan:     trait.Span,
	}
}

func (c *Checker) checkMethod(traitName string, decl *hir.TraitMethod, impl *hir.FnDecl) error {
	strs := c.strings()
	method := strs.MustLookup(impl.Name)
	c.in.DeclareGenerics(impl.Generics)

	wrap := func(err error) error {
		return &ConformanceError{
			Kind:     ConfSignatureMismatch,
			Trait:    traitName,
			Method:   method,
			Span:     impl.Span,
			DeclSpan: decl.Span,
			Err:      err,
		}
	}

	rename, err := matchGenerics(strs, decl, impl)
	if err != nil {
		return wrap(err)
	}
	declared := func(t *hir.Type) (types.TypeID, error) {
		if rename != nil {
			t = t.RenameGenerics(rename)
		}
		return c.in.Insert(t)
	}

	declRet, err := declared(decl.Return)
	if err != nil {
		return wrap(err)
	}
	implRet, err := c.in.Insert(impl.Return)
	if err != nil {
		return wrap(err)
	}
	if err := c.Unify(declRet, implRet, spanOr(impl.Return, impl.Span)); err != nil {
		return wrap(err)
	}

	if len(decl.Params) != len(impl.Params) {
		return &ConformanceError{
			Kind:        ConfParamCountMismatch,
			Trait:       traitName,
			Method:      method,
			Declared:    len(decl.Params),
			Implemented: len(impl.Params),
			Span:        impl.Span,
			DeclSpan:    decl.Span,
		}
	}
	for i := range decl.Params {
		want, err := declared(decl.Params[i].Type)
		if err != nil {
			return wrap(err)
		}
		got, err := c.in.Insert(impl.Params[i].Type)
		if err != nil {
			return wrap(err)
		}
		if err := c.Unify(want, got, impl.Params[i].Span); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// matchGenerics pairs the trait method's generic parameters with the
// implementation's by position and returns the renaming that turns the
// declared signature into the implementation's terms. An implementation may
// drop a declared bound but not add one.
//
// A trait method without generics returns a nil renaming: its signature is
// read in the implementation's generic scope.
func matchGenerics(strs *source.Interner, decl *hir.TraitMethod, impl *hir.FnDecl) (map[source.StringID]source.StringID, error) {
	if len(decl.Generics) == 0 {
		return nil, nil
	}
	if len(decl.Generics) != len(impl.Generics) {
		return nil, &GenericParamsError{
			Declared:    renderGenerics(strs, decl.Generics),
			Implemented: renderGenerics(strs, impl.Generics),
		}
	}
	rename := make(map[source.StringID]source.StringID, len(decl.Generics))
	for i, want := range decl.Generics {
		got := impl.Generics[i]
		allowed := make(map[string]struct{}, len(want.Bounds))
		for _, b := range want.Bounds {
			allowed[b.String(strs)] = struct{}{}
		}
		for _, b := range got.Bounds {
			if _, ok := allowed[b.String(strs)]; !ok {
				return nil, &GenericParamsError{
					Declared:    renderGenerics(strs, decl.Generics),
					Implemented: renderGenerics(strs, impl.Generics),
					Param:       strs.MustLookup(got.Name),
					Bound:       b.String(strs),
				}
			}
		}
		rename[want.Name] = got.Name
	}
	return rename, nil
}

func renderGenerics(strs *source.Interner, gs []hir.GenericParam) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.String(strs)
	}
	return out
}

func spanOr(t *hir.Type, fallback source.Span) source.Span {
	if t == nil || t.Span.IsZero() {
		return fallback
	}
	return t.Span
}

func pathString(strs *source.Interner, path []source.StringID, name source.StringID) string {
	if len(path) == 0 {
		return strs.MustLookup(name)
	}
	return hir.Path{Segments: path}.String(strs)
}

// RegisterImpl records in impls that target implements trait.
func RegisterImpl(impls *types.ImplTable, env *types.Env, trait *hir.TraitDecl, target types.TypeID) {
	impls.Add(trait.Path, env.Key(target))
}
