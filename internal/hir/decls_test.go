package hir

import (
	"testing"

	"flux/internal/source"
)

func TestTraitDeclMethods(t *testing.T) {
	strs := source.NewInterner()
	tr := NewTraitDecl(strs.Intern("Shape"), strs.InternAll("geo", "Shape"), source.Span{})
	for _, name := range []string{"perimeter", "area", "name"} {
		if !tr.AddMethod(&TraitMethod{Name: strs.Intern(name)}) {
			t.Fatalf("add %s", name)
		}
	}
	if tr.AddMethod(&TraitMethod{Name: strs.Intern("area")}) {
		t.Fatal("duplicate method accepted")
	}
	got := tr.MethodNames(strs)
	want := []string{"area", "name", "perimeter"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MethodNames = %v", got)
		}
	}
}
