package testkit

import (
	"strings"
	"testing"

	"flux/internal/diag"
	"flux/internal/source"
)

func TestCheckSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("flux.toml", []byte("name = \"app\"\n"))

	tests := []struct {
		name string
		d    diag.Diagnostic
		want string
	}{
		{"inside", diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: 0, End: 4}, "x"), ""},
		{"zero", diag.NewError(diag.ObsTimings, source.Span{}, "x"), ""},
		{"reversed", diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: 4, End: 2}, "x"), "end before start"},
		{"beyond", diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: 0, End: 99}, "x"), "beyond content"},
		{"unknown file", diag.NewError(diag.SemaTypeMismatch, source.Span{File: 7, Start: 0, End: 1}, "x"), "unknown file"},
		{
			"bad note",
			diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: 0, End: 4}, "x").
				WithNote(source.Span{File: id, Start: 0, End: 50}, "n"),
			"note #0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := diag.NewBag(0)
			bag.Add(tt.d)
			err := CheckSpanInvariants(bag, fs)
			switch {
			case tt.want == "" && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tt.want != "" && (err == nil || !strings.Contains(err.Error(), tt.want)):
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
