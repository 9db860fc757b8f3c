package project

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"flux/internal/source"
)

// Manifest is a decoded flux.toml. Spans point into the manifest file so
// diagnostics can quote it.
type Manifest struct {
	Path     string          `toml:"-"`
	File     source.FileID   `toml:"-"`
	Digest   Digest          `toml:"-"`
	Packages []PackageConfig `toml:"package"`
}

type PackageConfig struct {
	Name         string           `toml:"name"`
	Dependencies []string         `toml:"dependencies"`
	Prelude      string           `toml:"prelude"`
	Modules      []ModuleConfig   `toml:"module"`
	Items        []ItemConfig     `toml:"item"`
	Traits       []TraitConfig    `toml:"trait"`
	Applies      []ApplyConfig    `toml:"apply"`
	Functions    []FunctionConfig `toml:"function"`
	Uses         []UseConfig      `toml:"use"`

	Span     source.Span   `toml:"-"`
	DepSpans []source.Span `toml:"-"`
}

// ModuleConfig declares a module by its path inside the package, "a::b".
// Parents must be declared first.
type ModuleConfig struct {
	Path   string      `toml:"path"`
	Public bool        `toml:"public"`
	Span   source.Span `toml:"-"`
}

// ItemConfig declares a plain item (struct, enum, alias, fn without a
// signature) in Module; "" is the root module.
type ItemConfig struct {
	Module string      `toml:"module"`
	Name   string      `toml:"name"`
	Kind   string      `toml:"kind"`
	Public bool        `toml:"public"`
	Span   source.Span `toml:"-"`
}

type ParamConfig struct {
	Name string      `toml:"name"`
	Type string      `toml:"type"`
	Span source.Span `toml:"-"`
}

// GenericConfig is a type parameter; each bound is a trait path with
// optional arguments, "core::Add<i32>".
type GenericConfig struct {
	Name       string        `toml:"name"`
	Bounds     []string      `toml:"bounds"`
	Span       source.Span   `toml:"-"`
	BoundSpans []source.Span `toml:"-"`
}

type MethodConfig struct {
	Name     string          `toml:"name"`
	Generics []GenericConfig `toml:"generics"`
	Params   []ParamConfig   `toml:"params"`
	Return   string          `toml:"return"`

	Span       source.Span `toml:"-"`
	ReturnSpan source.Span `toml:"-"`
}

type TraitConfig struct {
	Module  string         `toml:"module"`
	Name    string         `toml:"name"`
	Public  bool           `toml:"public"`
	Methods []MethodConfig `toml:"method"`
	Span    source.Span    `toml:"-"`
}

// ApplyConfig is an impl block. Trait may be empty for inherent blocks,
// which are recorded but not checked for conformance.
type ApplyConfig struct {
	Module  string         `toml:"module"`
	Trait   string         `toml:"trait"`
	Target  string         `toml:"target"`
	Methods []MethodConfig `toml:"method"`

	Span       source.Span `toml:"-"`
	TraitSpan  source.Span `toml:"-"`
	TargetSpan source.Span `toml:"-"`
}

type LocalConfig struct {
	Name string      `toml:"name"`
	Type string      `toml:"type"`
	Span source.Span `toml:"-"`
}

// EquationConfig asks for Left and Right to unify, in that order.
type EquationConfig struct {
	Left  string `toml:"left"`
	Right string `toml:"right"`

	Span      source.Span `toml:"-"`
	LeftSpan  source.Span `toml:"-"`
	RightSpan source.Span `toml:"-"`
}

// FunctionConfig is a free function with a body summary: its locals, the
// equations its statements imply and the type the body evaluates to.
type FunctionConfig struct {
	Module   string           `toml:"module"`
	Name     string           `toml:"name"`
	Public   bool             `toml:"public"`
	Generics []GenericConfig  `toml:"generics"`
	Params   []ParamConfig    `toml:"params"`
	Return   string           `toml:"return"`
	Body     string           `toml:"body"`
	Locals   []LocalConfig    `toml:"locals"`
	Equate   []EquationConfig `toml:"equate"`

	Span       source.Span `toml:"-"`
	ReturnSpan source.Span `toml:"-"`
	BodySpan   source.Span `toml:"-"`
}

// UseConfig is a path that must resolve from Module.
type UseConfig struct {
	Module string      `toml:"module"`
	Path   string      `toml:"path"`
	Span   source.Span `toml:"-"`
}

// LoadManifest reads path into fs and decodes it.
func LoadManifest(fs *source.FileSet, path string) (*Manifest, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DecodeManifest(fs, id)
}

// DecodeManifest decodes a manifest already present in fs.
func DecodeManifest(fs *source.FileSet, id source.FileID) (*Manifest, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, fmt.Errorf("unknown file %d", id)
	}
	m := &Manifest{Path: file.Path, File: id, Digest: file.Hash}
	meta, err := toml.Decode(string(file.Content), m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", file.Path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [[package]]", file.Path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", file.Path, strings.Join(keys, ", "))
	}
	for i := range m.Packages {
		if strings.TrimSpace(m.Packages[i].Name) == "" {
			return nil, fmt.Errorf("%s: package #%d has no name", file.Path, i+1)
		}
	}
	newLocator(file).locate(m)
	return m, nil
}

// Package returns the package config with the given name.
func (m *Manifest) Package(name string) (*PackageConfig, bool) {
	for i := range m.Packages {
		if m.Packages[i].Name == name {
			return &m.Packages[i], true
		}
	}
	return nil, false
}

// SplitPath splits "a::b::c" into segments; "" yields none.
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "::")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsValidIdent reports whether name is an ASCII identifier.
func IsValidIdent(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidModulePath reports whether every segment of path is an identifier.
func ValidModulePath(path string) bool {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return false
	}
	for _, s := range segs {
		if !IsValidIdent(s) {
			return false
		}
	}
	return true
}
