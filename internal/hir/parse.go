package hir

import (
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"

	"flux/internal/source"
)

// ParseOptions positions parsed descriptions inside a source file.
type ParseOptions struct {
	File source.FileID
	// Offset is the byte offset of the first character of the text.
	Offset uint32
	// Generics lists names that denote generic parameters.
	Generics []string
}

// ParseError reports malformed type notation.
type ParseError struct {
	Text string
	Pos  int
	Msg  string
	Span source.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad type %q at %d: %s", e.Text, e.Pos, e.Msg)
}

type typeParser struct {
	strs *source.Interner
	text string
	pos  int
	opts ParseOptions
}

// ParseType parses a type in flux.toml notation.
func ParseType(strs *source.Interner, text string, opts ParseOptions) (*Type, error) {
	p := &typeParser{strs: strs, text: text, opts: opts}
	p.skipSpace()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.text) {
		return nil, p.errorf("unexpected %q", p.text[p.pos:])
	}
	return t, nil
}

// ParsePath parses a::b::c. Empty text yields an empty path.
func ParsePath(strs *source.Interner, text string, opts ParseOptions) (Path, error) {
	p := &typeParser{strs: strs, text: text, opts: opts}
	p.skipSpace()
	if p.pos == len(p.text) {
		return Path{Span: p.span(0, 0)}, nil
	}
	path, err := p.parsePath()
	if err != nil {
		return Path{}, err
	}
	p.skipSpace()
	if p.pos != len(p.text) {
		return Path{}, p.errorf("unexpected %q", p.text[p.pos:])
	}
	return path, nil
}

func (p *typeParser) parseType() (*Type, error) {
	start := p.pos
	switch {
	case p.eat("{int}"):
		return &Type{Kind: TypeIntLit, Span: p.span(start, p.pos)}, nil
	case p.eat("{float}"):
		return &Type{Kind: TypeFloatLit, Span: p.span(start, p.pos)}, nil
	case p.eat("!"):
		return &Type{Kind: TypeNever, Span: p.span(start, p.pos)}, nil
	case p.eat("*"):
		p.skipSpace()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: TypePtr, Elem: elem, Span: p.span(start, p.pos)}, nil
	case p.eat("$"):
		name, ok := p.ident()
		if !ok {
			return nil, p.errorf("expected local name after $")
		}
		return &Type{Kind: TypeLocal, Name: p.strs.Intern(name), Span: p.span(start, p.pos)}, nil
	case p.eat("("):
		elems, err := p.parseList(')')
		if err != nil {
			return nil, err
		}
		return &Type{Kind: TypeTuple, Args: elems, Span: p.span(start, p.pos)}, nil
	}

	if p.peekIdent() == "_" {
		p.pos++
		return &Type{Kind: TypeUnknown, Span: p.span(start, p.pos)}, nil
	}
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	var args []*Type
	if p.eat("<") {
		if args, err = p.parseList('>'); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, p.errorf("empty generic argument list")
		}
	}
	t := &Type{Kind: TypePath, Path: path, Args: args, Span: p.span(start, p.pos)}
	if len(path.Segments) == 1 && len(args) == 0 {
		name := p.strs.MustLookup(path.Segments[0])
		switch {
		case name == "This":
			t.Kind = TypeThis
			t.Path = Path{}
		case slices.Contains(p.opts.Generics, name):
			t.Kind = TypeGeneric
			t.Name = path.Segments[0]
			t.Path = Path{}
		}
	}
	return t, nil
}

// parseList parses "A, B, C" up to the closing delimiter, allowing a
// trailing comma. The opening delimiter is already consumed.
func (p *typeParser) parseList(closing byte) ([]*Type, error) {
	var out []*Type
	for {
		p.skipSpace()
		if p.pos < len(p.text) && p.text[p.pos] == closing {
			p.pos++
			return out, nil
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		p.skipSpace()
		if p.eat(",") {
			continue
		}
		if p.pos < len(p.text) && p.text[p.pos] == closing {
			p.pos++
			return out, nil
		}
		return nil, p.errorf("expected ',' or %q", closing)
	}
}

func (p *typeParser) parsePath() (Path, error) {
	start := p.pos
	var segs []source.StringID
	var spans []source.Span
	for {
		p.skipSpace()
		segStart := p.pos
		name, ok := p.ident()
		if !ok {
			return Path{}, p.errorf("expected identifier")
		}
		segs = append(segs, p.strs.Intern(name))
		spans = append(spans, p.span(segStart, p.pos))
		p.skipSpace()
		if !p.eat("::") {
			break
		}
	}
	return Path{Segments: segs, Span: p.span(start, p.pos), SegmentSpans: spans}, nil
}

func (p *typeParser) peekIdent() string {
	save := p.pos
	name, _ := p.ident()
	p.pos = save
	return name
}

func (p *typeParser) ident() (string, bool) {
	start := p.pos
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	return p.text[start:p.pos], p.pos > start
}

func (p *typeParser) eat(tok string) bool {
	if len(p.text)-p.pos >= len(tok) && p.text[p.pos:p.pos+len(tok)] == tok {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.text) && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) span(start, end int) source.Span {
	// #nosec G115 -- notation strings are short
	return source.Span{
		File:  p.opts.File,
		Start: p.opts.Offset + uint32(start),
		End:   p.opts.Offset + uint32(end),
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &ParseError{
		Text: p.text,
		Pos:  p.pos,
		Msg:  fmt.Sprintf(format, args...),
		Span: p.span(p.pos, len(p.text)),
	}
}
