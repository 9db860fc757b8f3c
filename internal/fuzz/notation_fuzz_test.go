package fuzztests

import (
	"errors"
	"testing"

	"flux/internal/hir"
	"flux/internal/source"
)

const maxFuzzInput = 1 << 12

// FuzzParseType checks that parsed types print back to notation that parses
// to the same text again.
func FuzzParseType(f *testing.F) {
	addNotationSeeds(f)
	f.Fuzz(func(t *testing.T, input string) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		strs := source.NewInterner()
		opts := hir.ParseOptions{Generics: []string{"T", "U"}}
		ty, err := hir.ParseType(strs, input, opts)
		if err != nil {
			var perr *hir.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error %T is not a *hir.ParseError", err)
			}
			if perr.Pos < 0 || perr.Pos > len(input) {
				t.Fatalf("error position %d outside input of %d bytes", perr.Pos, len(input))
			}
			return
		}
		printed := ty.String(strs)
		again, err := hir.ParseType(strs, printed, opts)
		if err != nil {
			t.Fatalf("printed %q does not parse: %v", printed, err)
		}
		if got := again.String(strs); got != printed {
			t.Fatalf("round trip %q -> %q -> %q", input, printed, got)
		}
	})
}

func FuzzParsePath(f *testing.F) {
	addNotationSeeds(f)
	f.Fuzz(func(t *testing.T, input string) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		strs := source.NewInterner()
		path, err := hir.ParsePath(strs, input, hir.ParseOptions{Offset: 10})
		if err != nil {
			return
		}
		if len(path.SegmentSpans) != len(path.Segments) {
			t.Fatalf("%d segments but %d spans", len(path.Segments), len(path.SegmentSpans))
		}
		for _, sp := range path.SegmentSpans {
			if sp.Start < 10 || sp.End > 10+uint32(len(input)) || sp.End <= sp.Start {
				t.Fatalf("segment span %v outside input %q", sp, input)
			}
		}
	})
}
