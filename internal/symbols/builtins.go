package symbols

import (
	"slices"

	"flux/internal/hir"
	"flux/internal/source"
)

var builtinTypeNames = []string{
	"i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64",
	"f32", "f64",
	"bool", "str", "char",
}

// BuiltinTypeNames returns the primitive type names of the builtin scope.
func BuiltinTypeNames() []string {
	return append([]string(nil), builtinTypeNames...)
}

// NewBuiltinScope returns a scope holding every primitive type as a public
// builtin item. One scope may be shared by every DefMap.
func NewBuiltinScope(strs *source.Interner) *ItemScope {
	s := NewItemScope()
	for i, name := range builtinTypeNames {
		s.Insert(strs.Intern(name), ModuleItem{
			Vis: hir.Public,
			Def: ModuleDefID{Kind: DefBuiltinType, Index: uint32(i + 1)}, // #nosec G115 -- fixed table
		})
	}
	return s
}

// IsBuiltinType reports whether name is a primitive type.
func IsBuiltinType(strs *source.Interner, name source.StringID) bool {
	s, ok := strs.Lookup(name)
	if !ok {
		return false
	}
	return slices.Contains(builtinTypeNames, s)
}
