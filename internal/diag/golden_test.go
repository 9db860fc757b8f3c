package diag

import (
	"testing"

	"flux/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("flux.toml", []byte("a\nb\n"))

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaTypeMismatch,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     ResUnresolvedPath,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "note line"},
				{Span: source.Span{File: 42}, Msg: "dropped"},
			},
		},
	}

	expected := "error RES4002 flux.toml:1:1 first line second\n" +
		"note RES4002 flux.toml:2:1 note line\n" +
		"warning SEM3001 flux.toml:2:1 another"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatShortDiagnostics(diags, fs, false); got != "error RES4002 flux.toml:1:1 first line second\nwarning SEM3001 flux.toml:2:1 another" {
		t.Fatalf("notes leaked without includeNotes:\n%s", got)
	}
}

func TestCodeIDs(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{SemaTypeMismatch, "SEM3001"},
		{ResPrivateSegment, "RES4003"},
		{ProjDependencyCycle, "PRJ5004"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d: got %s, want %s", tt.code, got, tt.want)
		}
	}
	if Code(3999).Title() != "Unknown error" {
		t.Errorf("unregistered code should fall back to the unknown title")
	}
}

func TestBagSortAndLimit(t *testing.T) {
	b := NewBag(3)
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 5, End: 6}, "b"))
	b.Add(New(SevWarning, SemaTypeMismatch, source.Span{Start: 1, End: 2}, "w"))
	b.Add(NewError(ResEmptyPath, source.Span{Start: 1, End: 2}, "a"))
	if b.Add(NewError(ResEmptyPath, source.Span{}, "overflow")) {
		t.Fatal("bag accepted a diagnostic past its cap")
	}
	b.Sort()
	got := []string{}
	for _, d := range b.Items() {
		got = append(got, d.Message)
	}
	want := []string{"a", "w", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
	if !b.HasErrors() || b.Count(SevWarning) != 1 {
		t.Fatalf("counts wrong: errors=%v warnings=%d", b.HasErrors(), b.Count(SevWarning))
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 4}
	ReportError(r, SemaTypeMismatch, sp, "mismatched types").Emit()
	ReportError(r, SemaTypeMismatch, sp, "mismatched types").Emit()
	ReportError(r, SemaTypeMismatch, sp, "other message").Emit()
	b := ReportWarning(r, ResUnresolvedPath, sp, "x").WithNote(source.Span{}, "zero span dropped")
	b.Emit()
	b.Emit()
	if bag.Len() != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", bag.Len())
	}
	if n := len(bag.Items()[2].Notes); n != 0 {
		t.Fatalf("zero-span note kept: %d", n)
	}
}
