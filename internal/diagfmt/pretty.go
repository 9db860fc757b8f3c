package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"flux/internal/diag"
	"flux/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note *color.Color
	gutter, caret, bold   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgGreen, color.Bold),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	head := pal.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID())
	if located(fs, d.Primary) {
		fmt.Fprintf(w, "%s: %s: %s\n", location(fs, d.Primary, opts.PathMode), head, pal.bold.Sprint(d.Message))
		snippet(w, fs, d.Primary, int(opts.Context), pal)
	} else {
		fmt.Fprintf(w, "%s: %s\n", head, pal.bold.Sprint(d.Message))
	}

	showNotes := opts.ShowNotes || d.Code == diag.ObsTimings
	if !showNotes {
		return
	}
	for _, n := range d.Notes {
		label := pal.note.Sprint("note")
		if !located(fs, n.Span) {
			fmt.Fprintf(w, "  = %s: %s\n", label, n.Msg)
			continue
		}
		fmt.Fprintf(w, "  = %s: %s: %s\n", label, location(fs, n.Span, opts.PathMode), n.Msg)
		snippet(w, fs, n.Span, 0, pal)
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, span.File, mode), start.Line, start.Col)
}

// snippet prints the primary line with context lines around it and
// underlines the span on the first line it covers.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, context int, pal palette) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	first := max(int(start.Line)-context, 1)
	last := int(start.Line) + context
	gutterWidth := len(strconv.Itoa(last))
	pad := strings.Repeat(" ", gutterWidth)
	fmt.Fprintf(w, "%s %s\n", pad, pal.gutter.Sprint("|"))

	for ln := first; ln <= last; ln++ {
		text, ok := lineText(f, ln)
		if !ok {
			break
		}
		num := fmt.Sprintf("%*d", gutterWidth, ln)
		fmt.Fprintf(w, "%s %s %s\n", pal.gutter.Sprint(num), pal.gutter.Sprint("|"), expandTabs(text))
		if ln != int(start.Line) {
			continue
		}
		raw := []byte(text)
		from := min(int(start.Col)-1, len(raw))
		to := len(raw)
		if end.Line == start.Line {
			to = min(int(end.Col)-1, len(raw))
		}
		indent := runewidth.StringWidth(expandTabs(string(raw[:from])))
		width := max(runewidth.StringWidth(expandTabs(string(raw[from:to]))), 1)
		marks := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, "%s %s %s%s\n", pad, pal.gutter.Sprint("|"), strings.Repeat(" ", indent), pal.caret.Sprint(marks))
	}
}

func lineText(f *source.File, ln int) (string, bool) {
	lines := len(f.LineIdx) + 1
	if n := len(f.Content); n > 0 && f.Content[n-1] == '\n' {
		lines--
	}
	if ln < 1 || ln > lines {
		return "", false
	}
	return f.GetLine(uint32(ln)), true // #nosec G115 -- bounded by line count
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// Short renders one line per diagnostic: severity CODE path:line:col msg.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, withNotes bool) error {
	if bag == nil {
		return nil
	}
	out := diag.FormatShortDiagnostics(bag.Items(), fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
