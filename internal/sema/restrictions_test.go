package sema

import (
	"errors"
	"testing"

	"flux/internal/source"
	"flux/internal/types"
)

func TestGenericRestrictions(t *testing.T) {
	f := newFixture(t)
	show := types.TraitRestriction{Path: f.strs.InternAll("core", "Show")}
	eq := types.TraitRestriction{Path: f.strs.InternAll("core", "Eq")}
	f.c.Impls.Add(show.Path, "i32")
	f.c.Impls.Add(eq.Path, "i32")
	f.c.Impls.Add(show.Path, "bool")
	f.c.Impls.Add(show.Path, "geo::Point")

	g := f.env.Insert(types.Generic(f.strs.Intern("T"), show, eq))
	other := f.env.Insert(types.Generic(f.strs.Intern("U"), show, eq))
	onlyShow := f.env.Insert(types.Generic(f.strs.Intern("V"), show))
	intVar := f.env.Insert(types.IntVar(types.NoTypeID))
	floatVar := f.env.Insert(types.FloatVar(types.NoTypeID))

	tests := []struct {
		name string
		id   types.TypeID
		ok   bool
	}{
		{"implements both", f.path("i32"), true},
		{"implements one", f.path("bool"), false},
		{"implements none", f.path("str"), false},
		{"never", f.env.Insert(types.Never()), true},
		{"unknown", f.env.Insert(types.Unknown()), false},
		{"generic with same bounds", other, true},
		{"generic missing bound", onlyShow, false},
		{"int literal", intVar, true},
		{"float literal", floatVar, false},
		{"linked literal", f.env.Insert(types.IntVar(f.path("bool"))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.env.Get(g)
			err := f.c.Unify(g, tt.id, source.Span{})
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var re *RestrictionError
				if !errors.As(err, &re) {
					t.Fatalf("expected restriction error, got %v", err)
				}
			}
			after := f.env.Get(g)
			if after.Kind != types.KindGeneric || len(after.Restrictions) != len(before.Restrictions) {
				t.Fatalf("generic entry mutated")
			}
		})
	}
}

func TestRestrictionErrorNamesTrait(t *testing.T) {
	f := newFixture(t)
	add := types.TraitRestriction{Path: f.strs.InternAll("core", "Add"), Args: []types.TypeID{f.path("i32")}}
	g := f.env.Insert(types.Generic(f.strs.Intern("T"), add))
	err := f.c.Unify(g, f.path("str"), source.Span{File: 1, Start: 2, End: 3})
	var re *RestrictionError
	if !errors.As(err, &re) {
		t.Fatalf("expected restriction error, got %v", err)
	}
	if re.Trait != "core::Add<i32>" || re.TypeLabel != "str" {
		t.Fatalf("error fields: %+v", re)
	}
	want := "type `str` does not implement `core::Add<i32>` required by `T: core::Add<i32>`"
	if re.Error() != want {
		t.Fatalf("message:\n got %s\nwant %s", re.Error(), want)
	}
}

// The impl table is keyed by trait path only, so an Add impl registered for
// one argument satisfies a bound naming another.
func TestRestrictionIgnoresTraitArgs(t *testing.T) {
	f := newFixture(t)
	addPath := f.strs.InternAll("core", "Add")
	f.c.Impls.Add(addPath, "i32")
	g := f.env.Insert(types.Generic(f.strs.Intern("T"),
		types.TraitRestriction{Path: addPath, Args: []types.TypeID{f.path("bool")}}))
	if err := f.c.Unify(g, f.path("i32"), source.Span{}); err != nil {
		t.Fatalf("Add<bool> bound rejected an Add impl: %v", err)
	}
	if err := f.c.Unify(g, f.path("str"), source.Span{}); err == nil {
		t.Fatal("type without any Add impl accepted")
	}
}
