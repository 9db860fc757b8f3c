package sema

import (
	"errors"
	"strings"
	"testing"

	"flux/internal/hir"
	"flux/internal/source"
	"flux/internal/types"
)

type traitFixture struct {
	*fixture
}

func (f traitFixture) ty(t *testing.T, text string) *hir.Type {
	t.Helper()
	if text == "" {
		return nil
	}
	ty, err := hir.ParseType(f.strs, text, hir.ParseOptions{})
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return ty
}

func (f traitFixture) params(t *testing.T, list ...string) []hir.Param {
	t.Helper()
	out := make([]hir.Param, len(list))
	for i, text := range list {
		out[i] = hir.Param{Name: f.strs.Intern("p"), Type: f.ty(t, text)}
	}
	return out
}

// trait builds geo::Shape with the given methods, each as "name(params)->ret".
func (f traitFixture) trait(t *testing.T, methods map[string][2][]string) *hir.TraitDecl {
	t.Helper()
	tr := hir.NewTraitDecl(f.strs.Intern("Shape"), f.strs.InternAll("geo", "Shape"), source.Span{File: 1, Start: 1, End: 2})
	for name, sig := range methods {
		ret := ""
		if len(sig[1]) > 0 {
			ret = sig[1][0]
		}
		tr.AddMethod(&hir.TraitMethod{Name: f.strs.Intern(name), Params: f.params(t, sig[0]...), Return: f.ty(t, ret)})
	}
	return tr
}

func (f traitFixture) method(t *testing.T, name string, ret string, params ...string) *hir.FnDecl {
	t.Helper()
	return &hir.FnDecl{Name: f.strs.Intern(name), Params: f.params(t, params...), Return: f.ty(t, ret)}
}

func (f traitFixture) apply(t *testing.T, methods ...*hir.FnDecl) *hir.ApplyDecl {
	t.Helper()
	path := hir.Path{Segments: f.strs.InternAll("geo", "Shape")}
	return &hir.ApplyDecl{Trait: &path, Target: f.ty(t, "geo::Square"), Methods: methods}
}

func newTraitFixture(t *testing.T) traitFixture {
	return traitFixture{newFixture(t)}
}

func sig(params []string, ret string) [2][]string {
	return [2][]string{params, {ret}}
}

func TestCheckApplyConforms(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{
		"area":  sig([]string{"*This"}, "f64"),
		"scale": sig([]string{"*This", "f64"}, "This"),
	})
	app := f.apply(t,
		f.method(t, "scale", "geo::Square", "*geo::Square", "f64"),
		f.method(t, "area", "f64", "*geo::Square"),
	)
	if err := f.c.CheckApply(app, tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckApplyUnimplementedMethods(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{
		"foo": sig(nil, "i32"),
		"bar": sig(nil, "i32"),
		"baz": sig(nil, "i32"),
	})
	err := f.c.CheckApply(f.apply(t, f.method(t, "foo", "i32")), tr)
	var ce *ConformanceError
	if !errors.As(err, &ce) || ce.Kind != ConfUnimplementedMethods {
		t.Fatalf("expected unimplemented methods, got %v", err)
	}
	if strings.Join(ce.Missing, ",") != "bar,baz" {
		t.Fatalf("missing = %v", ce.Missing)
	}
	if !strings.Contains(ce.Error(), "missing required methods of trait `geo::Shape`: `bar`, `baz`") {
		t.Fatalf("message: %s", ce.Error())
	}
}

func TestCheckApplyUnknownMethod(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{
		"foo": sig(nil, "i32"),
		"bar": sig(nil, "i32"),
	})
	app := f.apply(t, f.method(t, "foo", "i32"), f.method(t, "bar", "i32"), f.method(t, "baz", "i32"))
	err := f.c.CheckApply(app, tr)
	var ce *ConformanceError
	if !errors.As(err, &ce) || ce.Kind != ConfUnknownMethod {
		t.Fatalf("expected unknown method, got %v", err)
	}
	if ce.Method != "baz" || strings.Join(ce.TraitMethods, ",") != "bar,foo" {
		t.Fatalf("error fields: %+v", ce)
	}
}

func TestCheckApplyParamCountMismatch(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{"foo": sig([]string{"i32", "i32"}, "i32")})
	err := f.c.CheckApply(f.apply(t, f.method(t, "foo", "i32", "i32")), tr)
	var ce *ConformanceError
	if !errors.As(err, &ce) || ce.Kind != ConfParamCountMismatch {
		t.Fatalf("expected param count mismatch, got %v", err)
	}
	if ce.Declared != 2 || ce.Implemented != 1 {
		t.Fatalf("counts: declared %d implemented %d", ce.Declared, ce.Implemented)
	}
}

func TestCheckApplySignatureMismatch(t *testing.T) {
	tests := []struct {
		name   string
		ret    string
		params []string
	}{
		{"return type", "bool", []string{"i32"}},
		{"param type", "i32", []string{"u8"}},
		{"this substituted", "i32", []string{"geo::Circle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTraitFixture(t)
			declParam := "i32"
			if tt.name == "this substituted" {
				declParam = "This"
			}
			tr := f.trait(t, map[string][2][]string{"foo": sig([]string{declParam}, "i32")})
			err := f.c.CheckApply(f.apply(t, f.method(t, "foo", tt.ret, tt.params...)), tr)
			var ce *ConformanceError
			if !errors.As(err, &ce) || ce.Kind != ConfSignatureMismatch {
				t.Fatalf("expected signature mismatch, got %v", err)
			}
			var tm *TypeMismatchError
			if !errors.As(err, &tm) {
				t.Fatalf("underlying mismatch not reachable: %v", err)
			}
		})
	}
}

func TestCheckApplyParamNamesIgnored(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{"foo": sig([]string{"i32", "bool"}, "")})
	m := f.method(t, "foo", "", "i32", "bool")
	m.Params[0].Name = f.strs.Intern("completely")
	m.Params[1].Name = f.strs.Intern("different")
	if err := f.c.CheckApply(f.apply(t, m), tr); err != nil {
		t.Fatalf("names must not matter: %v", err)
	}
}

func TestCheckApplyRestoresThis(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, map[string][2][]string{"foo": sig(nil, "")})
	if err := f.c.CheckApply(f.apply(t, f.method(t, "foo", "")), tr); err != nil {
		t.Fatal(err)
	}
	if f.c.Inserter().This != nil {
		t.Fatalf("This leaked out of CheckApply")
	}
}

func TestRegisterImpl(t *testing.T) {
	f := newTraitFixture(t)
	tr := f.trait(t, nil)
	target := f.path("geo", "Square")
	RegisterImpl(f.c.Impls, f.env, tr, target)
	g := f.env.Insert(types.Generic(f.strs.Intern("S"), types.TraitRestriction{Path: tr.Path}))
	if err := f.c.Unify(g, f.path("geo", "Square"), source.Span{}); err != nil {
		t.Fatalf("registered impl not visible: %v", err)
	}
}

func (f traitFixture) generic(name string, bounds ...string) hir.GenericParam {
	g := hir.GenericParam{Name: f.strs.Intern(name)}
	for _, b := range bounds {
		g.Bounds = append(g.Bounds, hir.TraitBound{Path: hir.Path{Segments: f.strs.InternAll("core", b)}})
	}
	return g
}

func (f traitFixture) genericMethod(t *testing.T, name string, generics []hir.GenericParam, ret string, params ...string) *hir.FnDecl {
	t.Helper()
	names := make([]string, len(generics))
	for i, g := range generics {
		names[i] = f.strs.MustLookup(g.Name)
	}
	out := make([]hir.Param, len(params))
	for i, text := range params {
		ty, err := hir.ParseType(f.strs, text, hir.ParseOptions{Generics: names})
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		out[i] = hir.Param{Name: f.strs.Intern("p"), Type: ty}
	}
	m := &hir.FnDecl{Name: f.strs.Intern(name), Generics: generics, Params: out}
	if ret != "" {
		ty, err := hir.ParseType(f.strs, ret, hir.ParseOptions{Generics: names})
		if err != nil {
			t.Fatalf("parse %q: %v", ret, err)
		}
		m.Return = ty
	}
	return m
}

func (f traitFixture) traitMethod(t *testing.T, tr *hir.TraitDecl, m *hir.FnDecl) {
	t.Helper()
	tr.AddMethod(&hir.TraitMethod{Name: m.Name, Generics: m.Generics, Params: m.Params, Return: m.Return})
}

func TestCheckApplyGenericsScopedPerMethod(t *testing.T) {
	f := newTraitFixture(t)
	f.c.Impls.Add(f.strs.InternAll("core", "Show"), "i32")
	tr := hir.NewTraitDecl(f.strs.Intern("Shape"), f.strs.InternAll("geo", "Shape"), source.Span{})
	for _, name := range []string{"foo", "bar"} {
		ty, err := hir.ParseType(f.strs, "T", hir.ParseOptions{Generics: []string{"T"}})
		if err != nil {
			t.Fatal(err)
		}
		tr.AddMethod(&hir.TraitMethod{Name: f.strs.Intern(name), Params: []hir.Param{{Name: f.strs.Intern("x"), Type: ty}}})
	}
	app := f.apply(t,
		f.genericMethod(t, "foo", []hir.GenericParam{f.generic("T", "Show")}, "", "i32"),
		f.genericMethod(t, "bar", []hir.GenericParam{f.generic("T", "Eq")}, "", "i32"),
	)
	err := f.c.CheckApply(app, tr)
	var ce *ConformanceError
	if !errors.As(err, &ce) || ce.Kind != ConfSignatureMismatch || ce.Method != "bar" {
		t.Fatalf("expected bar to mismatch, got %v", err)
	}
	var re *RestrictionError
	if !errors.As(err, &re) || re.Trait != "core::Eq" {
		t.Fatalf("expected the Eq bound to fail, got %v", err)
	}
}

func TestCheckApplyTraitMethodGenerics(t *testing.T) {
	tests := []struct {
		name  string
		decl  []hir.GenericParam
		impl  []hir.GenericParam
		bound string
		ok    bool
	}{
		{"renamed", []hir.GenericParam{{}}, []hir.GenericParam{{}}, "", true},
		{"same bound", []hir.GenericParam{{}}, []hir.GenericParam{{}}, "Show", true},
		{"count differs", []hir.GenericParam{{}, {}}, []hir.GenericParam{{}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTraitFixture(t)
			var bounds []string
			if tt.bound != "" {
				bounds = []string{tt.bound}
			}
			decl := make([]hir.GenericParam, len(tt.decl))
			for i := range decl {
				decl[i] = f.generic([]string{"T", "V"}[i], bounds...)
			}
			impl := make([]hir.GenericParam, len(tt.impl))
			for i := range impl {
				impl[i] = f.generic([]string{"U", "W"}[i], bounds...)
			}
			tr := hir.NewTraitDecl(f.strs.Intern("Shape"), f.strs.InternAll("geo", "Shape"), source.Span{})
			f.traitMethod(t, tr, f.genericMethod(t, "foo", decl, "*T", "T"))
			err := f.c.CheckApply(f.apply(t, f.genericMethod(t, "foo", impl, "*U", "U")), tr)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *ConformanceError
			var ge *GenericParamsError
			if !errors.As(err, &ce) || ce.Kind != ConfSignatureMismatch || !errors.As(err, &ge) {
				t.Fatalf("expected generic parameter mismatch, got %v", err)
			}
		})
	}
}

func TestCheckApplyGenericBoundsAgainstTrait(t *testing.T) {
	f := newTraitFixture(t)
	tr := hir.NewTraitDecl(f.strs.Intern("Shape"), f.strs.InternAll("geo", "Shape"), source.Span{})
	f.traitMethod(t, tr, f.genericMethod(t, "foo", []hir.GenericParam{f.generic("T", "Show")}, "", "T"))
	f.traitMethod(t, tr, f.genericMethod(t, "bar", []hir.GenericParam{f.generic("T")}, "", "T"))

	dropped := f.apply(t,
		f.genericMethod(t, "foo", []hir.GenericParam{f.generic("U")}, "", "U"),
		f.genericMethod(t, "bar", []hir.GenericParam{f.generic("U")}, "", "U"),
	)
	if err := f.c.CheckApply(dropped, tr); err != nil {
		t.Fatalf("dropping a declared bound must conform: %v", err)
	}

	added := f.apply(t,
		f.genericMethod(t, "foo", []hir.GenericParam{f.generic("U", "Show")}, "", "U"),
		f.genericMethod(t, "bar", []hir.GenericParam{f.generic("U", "Eq")}, "", "U"),
	)
	err := f.c.CheckApply(added, tr)
	var ge *GenericParamsError
	if !errors.As(err, &ge) || ge.Param != "U" || ge.Bound != "core::Eq" {
		t.Fatalf("expected an added bound error, got %v", err)
	}
	want := "generic parameter `U` requires `core::Eq`, which the trait does not declare"
	if ge.Error() != want {
		t.Fatalf("message:\n got %s\nwant %s", ge.Error(), want)
	}
}

func TestCheckApplyUndeclaredGenericIsSignatureMismatch(t *testing.T) {
	f := newTraitFixture(t)
	tr := hir.NewTraitDecl(f.strs.Intern("Shape"), f.strs.InternAll("geo", "Shape"), source.Span{})
	ty, err := hir.ParseType(f.strs, "T", hir.ParseOptions{Generics: []string{"T"}})
	if err != nil {
		t.Fatal(err)
	}
	tr.AddMethod(&hir.TraitMethod{Name: f.strs.Intern("foo"), Params: []hir.Param{{Name: f.strs.Intern("x"), Type: ty}}})
	err = f.c.CheckApply(f.apply(t, f.genericMethod(t, "foo", []hir.GenericParam{f.generic("U")}, "", "U")), tr)
	var ce *ConformanceError
	var ie *hir.InsertError
	if !errors.As(err, &ce) || ce.Kind != ConfSignatureMismatch || !errors.As(err, &ie) {
		t.Fatalf("expected a wrapped insert error, got %v", err)
	}
}
