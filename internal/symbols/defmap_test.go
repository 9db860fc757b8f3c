package symbols

import (
	"errors"
	"testing"

	"flux/internal/hir"
	"flux/internal/source"
)

func TestDefMapDuplicates(t *testing.T) {
	strs := source.NewInterner()
	dm := NewDefMap(strs, nil)
	name := strs.Intern("Point")
	if _, err := dm.AddItem(dm.Root, name, DefStruct, hir.Public, source.Span{}); err != nil {
		t.Fatal(err)
	}
	if _, err := dm.AddItem(dm.Root, name, DefFunction, hir.Public, source.Span{}); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := dm.AddModule(dm.Root, name, hir.Public, source.Span{}); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("module clashing with item: %v", err)
	}
	if _, err := dm.AddItem(dm.Root, strs.Intern("m"), DefModule, hir.Public, source.Span{}); err == nil {
		t.Fatalf("AddItem must refuse modules")
	}
}

func TestModuleTree(t *testing.T) {
	strs := source.NewInterner()
	dm := NewDefMap(strs, nil)
	a, _ := dm.AddModule(dm.Root, strs.Intern("a"), hir.Public, source.Span{})
	b, _ := dm.AddModule(a, strs.Intern("b"), hir.Private, source.Span{})
	c, _ := dm.AddModule(dm.Root, strs.Intern("c"), hir.Public, source.Span{})

	if !dm.IsAncestor(a, b) || !dm.IsAncestor(b, b) || !dm.IsAncestor(dm.Root, b) {
		t.Fatalf("ancestor relation broken")
	}
	if dm.IsAncestor(b, a) || dm.IsAncestor(c, b) {
		t.Fatalf("unexpected ancestor")
	}
	if got := (hir.Path{Segments: dm.ModulePath(b)}).String(strs); got != "a::b" {
		t.Fatalf("module path %q", got)
	}
	if child, ok := dm.Child(a, strs.Intern("b")); !ok || child != b {
		t.Fatalf("child lookup")
	}
	if dm.ModuleCount() != 4 {
		t.Fatalf("module count %d", dm.ModuleCount())
	}
	if err := dm.Validate(); err != nil {
		t.Fatal(err)
	}
	dm.SetPrelude(ModuleID(99))
	if err := dm.Validate(); err == nil {
		t.Fatal("dangling prelude accepted")
	}
}

func TestDefLookup(t *testing.T) {
	strs := source.NewInterner()
	dm := NewDefMap(strs, NewBuiltinScope(strs))
	id, err := dm.AddItem(dm.Root, strs.Intern("Add"), DefTrait, hir.Public, source.Span{Start: 4})
	if err != nil {
		t.Fatal(err)
	}
	def, ok := dm.Def(id)
	if !ok || def.Kind != DefTrait || def.Module != dm.Root || def.Span.Start != 4 {
		t.Fatalf("def = %+v", def)
	}
	if _, ok := dm.Def(ModuleDefID{Kind: DefModule, Index: 1}); ok {
		t.Fatalf("module ids are not defs")
	}
	if !IsBuiltinType(strs, strs.Intern("u16")) || IsBuiltinType(strs, strs.Intern("Add")) {
		t.Fatalf("builtin detection")
	}
}
