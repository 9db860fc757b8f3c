package hir

import (
	"errors"
	"testing"

	"flux/internal/source"
	"flux/internal/types"
)

func mustParse(t *testing.T, strs *source.Interner, text string, generics ...string) *Type {
	t.Helper()
	ty, err := ParseType(strs, text, ParseOptions{Generics: generics})
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return ty
}

func TestInserterSharesConcreteTypes(t *testing.T) {
	strs := source.NewInterner()
	in := NewInserter(types.NewEnv(strs))
	a, err := in.Insert(mustParse(t, strs, "core::Vec<i32>"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := in.Insert(mustParse(t, strs, "core::Vec<i32>"))
	if a != b {
		t.Fatalf("identical concrete types got distinct slots %d and %d", a, b)
	}
	u1, _ := in.Insert(mustParse(t, strs, "_"))
	u2, _ := in.Insert(mustParse(t, strs, "_"))
	if u1 == u2 {
		t.Fatalf("unknowns must never share a slot")
	}
	l1, _ := in.Insert(mustParse(t, strs, "Vec<{int}>"))
	l2, _ := in.Insert(mustParse(t, strs, "Vec<{int}>"))
	if l1 == l2 {
		t.Fatalf("literal variables must never share a slot")
	}
}

func TestInserterNilIsUnit(t *testing.T) {
	strs := source.NewInterner()
	env := types.NewEnv(strs)
	id, err := NewInserter(env).Insert(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := env.Format(id); got != "()" {
		t.Fatalf("nil inserted as %s", got)
	}
}

func TestInserterThisSubstitution(t *testing.T) {
	strs := source.NewInterner()
	env := types.NewEnv(strs)
	in := NewInserter(env)

	if _, err := in.Insert(mustParse(t, strs, "*This")); err == nil {
		t.Fatal("This without target must fail")
	} else {
		var ie *InsertError
		if !errors.As(err, &ie) || ie.Kind != InsertThisOutsideTrait {
			t.Fatalf("unexpected error %v", err)
		}
	}

	in.This = mustParse(t, strs, "geo::Point")
	fromTrait, err := in.Insert(mustParse(t, strs, "*This"))
	if err != nil {
		t.Fatal(err)
	}
	fromImpl, _ := in.Insert(mustParse(t, strs, "*geo::Point"))
	if fromTrait != fromImpl {
		t.Fatalf("*This and *geo::Point should share a slot: %s vs %s", env.Format(fromTrait), env.Format(fromImpl))
	}
}

func TestInserterLocalsAndGenerics(t *testing.T) {
	strs := source.NewInterner()
	env := types.NewEnv(strs)
	in := NewInserter(env)

	_, err := in.Insert(mustParse(t, strs, "$x"))
	var ie *InsertError
	if !errors.As(err, &ie) || ie.Kind != InsertUnknownLocal || ie.Name != "x" {
		t.Fatalf("expected unknown local error, got %v", err)
	}

	x, err := in.DeclareLocal(Local{Name: strs.Intern("x"), Type: mustParse(t, strs, "{int}")})
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := in.Insert(mustParse(t, strs, "$x"))
	if ref != x {
		t.Fatalf("local reference resolved to %d, want %d", ref, x)
	}

	if _, err := in.Insert(mustParse(t, strs, "T", "T")); err == nil {
		t.Fatal("undeclared generic must fail")
	}
	show, _ := ParsePath(strs, "core::Show", ParseOptions{})
	in.DeclareGenerics([]GenericParam{{Name: strs.Intern("T"), Bounds: []TraitBound{{Path: show}}}})
	g, err := in.Insert(mustParse(t, strs, "T", "T"))
	if err != nil {
		t.Fatal(err)
	}
	if got := env.Format(g); got != "T: core::Show" {
		t.Fatalf("generic formatted as %q", got)
	}
}

func TestInserterGenericScopes(t *testing.T) {
	strs := source.NewInterner()
	env := types.NewEnv(strs)
	in := NewInserter(env)
	show, _ := ParsePath(strs, "core::Show", ParseOptions{})
	eq, _ := ParsePath(strs, "core::Eq", ParseOptions{})
	tName := strs.Intern("T")

	in.DeclareGenerics([]GenericParam{{Name: tName, Bounds: []TraitBound{{Path: show}}}})
	first, err := in.Insert(mustParse(t, strs, "*T", "T"))
	if err != nil {
		t.Fatal(err)
	}
	again, _ := in.Insert(mustParse(t, strs, "*T", "T"))
	if first != again {
		t.Fatalf("one scope must share *T, got %d and %d", first, again)
	}
	concrete, _ := in.Insert(mustParse(t, strs, "i32"))

	in.DeclareGenerics([]GenericParam{{Name: tName, Bounds: []TraitBound{{Path: eq}}}})
	second, err := in.Insert(mustParse(t, strs, "*T", "T"))
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatal("a new scope reused the previous scope's *T")
	}
	ptr, _ := env.Lookup(second)
	if got := env.Format(ptr.Elem); got != "T: core::Eq" {
		t.Fatalf("second scope's T formatted as %q", got)
	}
	if id, _ := in.Insert(mustParse(t, strs, "i32")); id != concrete {
		t.Fatal("generic-free types must stay shared across scopes")
	}

	in.DeclareGenerics(nil)
	if _, err := in.Insert(mustParse(t, strs, "T", "T")); err == nil {
		t.Fatal("T must be unknown after an empty scope")
	}
}

func TestRenameGenerics(t *testing.T) {
	strs := source.NewInterner()
	orig := mustParse(t, strs, "(T, *core::Vec<T>, V)", "T", "V")
	renamed := orig.RenameGenerics(map[source.StringID]source.StringID{strs.Intern("T"): strs.Intern("U")})
	if got := renamed.String(strs); got != "(U, *core::Vec<U>, V)" {
		t.Fatalf("renamed = %s", got)
	}
	if got := orig.String(strs); got != "(T, *core::Vec<T>, V)" {
		t.Fatalf("original changed: %s", got)
	}
	if (*Type)(nil).RenameGenerics(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
