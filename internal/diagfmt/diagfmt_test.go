package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"flux/internal/diag"
	"flux/internal/source"
)

const manifest = "[[package]]\nname = \"app\"\n\n[[package.function]]\nname = \"main\"\nreturn = \"i32\"\nbody = \"bool\"\n"

func sample(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/home/user/project/flux.toml", []byte(manifest))
	fs.SetBaseDir("/home/user/project")

	body := strings.Index(manifest, "bool")
	ret := strings.Index(manifest, "i32")
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemaReturnTypeMismatch,
		source.Span{File: id, Start: uint32(body), End: uint32(body + 4)},
		"function `app::main` returns `i32` but its body evaluates to `bool`").
		WithNote(source.Span{File: id, Start: uint32(ret), End: uint32(ret + 3)}, "`i32` originates here"))
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings (check): total 1.00 ms").
		WithNote(source.Span{}, `{"kind":"check"}`))
	return bag, fs
}

func TestPrettyPathModes(t *testing.T) {
	bag, fs := sample(t)
	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/flux.toml:7:9"},
		{"relative", PathModeRelative, "/home/user/project/flux.toml:7:9"},
		{"basename", PathModeBasename, "flux.toml:7:9: ERROR SEM3008"},
		{"auto short", PathModeAuto, "/home/user/project/flux.toml:7:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			if out := buf.String(); !strings.Contains(out, tt.contains) {
				t.Errorf("output does not contain %q:\n%s", tt.contains, out)
			}
		})
	}
}

func TestPrettyCaretsAndNotes(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, Context: 1})
	out := buf.String()

	for _, want := range []string{
		"6 | return = \"i32\"",
		"7 | body = \"bool\"",
		"  |         ^~~~",
		"= note: flux.toml:6:11: `i32` originates here",
		"INFO OBS6001: timings (check): total 1.00 ms",
		`= note: {"kind":"check"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour codes in uncoloured output")
	}
}

func TestPrettyHidesNotesByDefault(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	out := buf.String()
	if strings.Contains(out, "originates here") {
		t.Errorf("notes shown without ShowNotes:\n%s", out)
	}
	// timing payloads are always shown
	if !strings.Contains(out, `{"kind":"check"}`) {
		t.Errorf("timing note missing:\n%s", out)
	}
}

func TestPrettyWideCharacters(t *testing.T) {
	fs := source.NewFileSet()
	text := "name = \"日本\"\tx\n"
	id := fs.AddVirtual("w.toml", []byte(text))
	start := strings.Index(text, "x")
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.ProjBadManifest, source.Span{File: id, Start: uint32(start), End: uint32(start + 1)}, "bad"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	// name = "日本" is 13 columns wide, the tab expands to 4
	want := "  | " + strings.Repeat(" ", 17) + "^\n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("caret misplaced:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "SEM3008" || first.Severity != "ERROR" || first.Location == nil {
		t.Fatalf("first = %+v", first)
	}
	if loc := first.Location; loc.File != "flux.toml" || loc.StartLine != 7 || loc.StartCol != 9 || loc.EndCol != 13 {
		t.Fatalf("location = %+v", loc)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location == nil {
		t.Fatalf("notes = %+v", first.Notes)
	}
	if out.Diagnostics[1].Location != nil {
		t.Fatal("timings diagnostic has a location")
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs := sample(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("out = %+v", out)
	}
}

func TestShort(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "SEM3008") {
		t.Fatalf("short output:\n%s", buf.String())
	}
}
