package project

import (
	"bytes"
	"strconv"

	"flux/internal/source"
)

// locator recovers spans for decoded values. The decoder does not report
// positions, so every table is anchored at its header: the n-th entry of
// [[package.trait]] in a package is the n-th such header after the
// package's own header. Values are then searched as quoted strings after
// the anchor. Values written with escapes are not found and fall back to
// the anchor span.
type locator struct {
	file *source.File
}

func newLocator(file *source.File) *locator {
	return &locator{file: file}
}

func (l *locator) end() uint32 {
	return uint32(len(l.file.Content)) // #nosec G115 -- FileSet caps content size
}

// header finds the n-th "[[name]]" at or after from, before limit.
func (l *locator) header(name string, from, limit uint32, n int) (source.Span, bool) {
	needle := "[[" + name + "]]"
	pos := from
	for {
		sp, ok := l.file.Find(needle, pos)
		if !ok || sp.Start >= limit {
			return source.Span{}, false
		}
		if n == 0 {
			return sp, true
		}
		n--
		pos = sp.End
	}
}

// value finds the quoted text at or after anchor and returns the span of
// the text without quotes.
func (l *locator) value(text string, anchor source.Span) source.Span {
	if text == "" {
		return anchor
	}
	sp, ok := l.file.Find(strconv.Quote(text), anchor.Start)
	if !ok {
		return anchor
	}
	return source.Span{File: sp.File, Start: sp.Start + 1, End: sp.End - 1}
}

// field finds `key = "text"` at or after anchor and returns the span of
// text. It falls back to a plain value search.
func (l *locator) field(key, text string, anchor source.Span) source.Span {
	if text == "" {
		return anchor
	}
	quoted := strconv.Quote(text)
	content := l.file.Content
	pos := anchor.Start
	for {
		sp, ok := l.file.Find(key, pos)
		if !ok {
			break
		}
		pos = sp.End
		if sp.Start > 0 && isIdentByte(content[sp.Start-1]) {
			continue
		}
		i := skipBlank(content, int(sp.End))
		if i >= len(content) || content[i] != '=' {
			continue
		}
		i = skipBlank(content, i+1)
		if !bytes.HasPrefix(content[i:], []byte(quoted)) {
			continue
		}
		// #nosec G115 -- offsets bounded by content size
		start := uint32(i + 1)
		// #nosec G115 -- offsets bounded by content size
		end := start + uint32(len(quoted)-2)
		return source.Span{File: l.file.ID, Start: start, End: end}
	}
	return l.value(text, anchor)
}

func skipBlank(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// section anchors the n-th entry of a nested table inside [from, limit).
// It falls back to the parent anchor when the header is written inline.
func (l *locator) section(name string, parent source.Span, limit uint32, n int) source.Span {
	if sp, ok := l.header(name, parent.Start, limit, n); ok {
		return sp
	}
	return parent
}

func (l *locator) locate(m *Manifest) {
	starts := make([]source.Span, len(m.Packages))
	for i := range m.Packages {
		sp, ok := l.header("package", 0, l.end(), i)
		if !ok {
			sp = source.Span{File: l.file.ID}
		}
		starts[i] = sp
	}
	for i := range m.Packages {
		limit := l.end()
		if i+1 < len(starts) && starts[i+1].Start > starts[i].Start {
			limit = starts[i+1].Start
		}
		l.locatePackage(&m.Packages[i], starts[i], limit)
	}
}

func (l *locator) locatePackage(p *PackageConfig, anchor source.Span, limit uint32) {
	p.Span = l.field("name", p.Name, anchor)
	p.DepSpans = make([]source.Span, len(p.Dependencies))
	for i, dep := range p.Dependencies {
		p.DepSpans[i] = l.value(dep, anchor)
	}
	for i := range p.Modules {
		at := l.section("package.module", anchor, limit, i)
		p.Modules[i].Span = l.field("path", p.Modules[i].Path, at)
	}
	for i := range p.Items {
		at := l.section("package.item", anchor, limit, i)
		p.Items[i].Span = l.field("name", p.Items[i].Name, at)
	}
	for i := range p.Traits {
		tr := &p.Traits[i]
		at := l.section("package.trait", anchor, limit, i)
		tr.Span = l.field("name", tr.Name, at)
		for j := range tr.Methods {
			l.locateMethod(&tr.Methods[j], l.section("package.trait.method", at, limit, j))
		}
	}
	for i := range p.Applies {
		ap := &p.Applies[i]
		at := l.section("package.apply", anchor, limit, i)
		ap.Span = at
		ap.TraitSpan = l.field("trait", ap.Trait, at)
		ap.TargetSpan = l.field("target", ap.Target, at)
		for j := range ap.Methods {
			l.locateMethod(&ap.Methods[j], l.section("package.apply.method", at, limit, j))
		}
	}
	for i := range p.Functions {
		fn := &p.Functions[i]
		at := l.section("package.function", anchor, limit, i)
		fn.Span = l.field("name", fn.Name, at)
		fn.ReturnSpan = l.field("return", fn.Return, at)
		fn.BodySpan = l.field("body", fn.Body, at)
		l.locateGenerics(fn.Generics, at)
		l.locateParams(fn.Params, at)
		for j := range fn.Locals {
			fn.Locals[j].Span = l.field("type", fn.Locals[j].Type, l.field("name", fn.Locals[j].Name, at))
		}
		for j := range fn.Equate {
			eq := &fn.Equate[j]
			eq.LeftSpan = l.field("left", eq.Left, at)
			eq.RightSpan = l.field("right", eq.Right, eq.LeftSpan)
			eq.Span = eq.LeftSpan.Cover(eq.RightSpan)
		}
	}
	for i := range p.Uses {
		at := l.section("package.use", anchor, limit, i)
		p.Uses[i].Span = l.field("path", p.Uses[i].Path, at)
	}
}

func (l *locator) locateMethod(m *MethodConfig, at source.Span) {
	m.Span = l.field("name", m.Name, at)
	m.ReturnSpan = l.field("return", m.Return, at)
	l.locateGenerics(m.Generics, at)
	l.locateParams(m.Params, at)
}

func (l *locator) locateGenerics(gs []GenericConfig, at source.Span) {
	for i := range gs {
		g := &gs[i]
		g.Span = l.field("name", g.Name, at)
		g.BoundSpans = make([]source.Span, len(g.Bounds))
		for j, b := range g.Bounds {
			g.BoundSpans[j] = l.value(b, g.Span)
		}
	}
}

// Param spans cover the type text, searched after the parameter name.
func (l *locator) locateParams(ps []ParamConfig, at source.Span) {
	for i := range ps {
		name := l.field("name", ps[i].Name, at)
		ps[i].Span = l.field("type", ps[i].Type, name)
	}
}
