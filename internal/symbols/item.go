package symbols

import (
	"flux/internal/hir"
	"flux/internal/source"
)

// DefKind enumerates what a module item refers to.
type DefKind uint8

const (
	DefInvalid DefKind = iota
	DefModule
	DefFunction
	DefStruct
	DefEnum
	DefTrait
	DefTypeAlias
	DefBuiltinType
)

func (k DefKind) String() string {
	switch k {
	case DefModule:
		return "module"
	case DefFunction:
		return "function"
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	case DefTrait:
		return "trait"
	case DefTypeAlias:
		return "type alias"
	case DefBuiltinType:
		return "builtin type"
	default:
		return "invalid"
	}
}

// ParseDefKind maps manifest spellings to kinds.
func ParseDefKind(s string) (DefKind, bool) {
	switch s {
	case "module":
		return DefModule, true
	case "fn", "function":
		return DefFunction, true
	case "struct":
		return DefStruct, true
	case "enum":
		return DefEnum, true
	case "trait":
		return DefTrait, true
	case "type", "alias":
		return DefTypeAlias, true
	}
	return DefInvalid, false
}

// IsType reports whether the kind can appear where a type is expected.
func (k DefKind) IsType() bool {
	switch k {
	case DefStruct, DefEnum, DefTypeAlias, DefBuiltinType:
		return true
	}
	return false
}

// ModuleDefID is a tagged reference to a definition. For DefModule, Index
// holds a ModuleID; for every other kind a DefID.
type ModuleDefID struct {
	Kind  DefKind
	Index uint32
}

func (d ModuleDefID) Module() ModuleID {
	if d.Kind != DefModule {
		return NoModuleID
	}
	return ModuleID(d.Index)
}

// ModuleItem is the value stored in a scope.
type ModuleItem struct {
	Vis hir.Visibility
	Def ModuleDefID
	// Module is where the item is declared; NoModuleID for builtins.
	Module ModuleID
	Span   source.Span
}

// Def describes a non-module definition.
type Def struct {
	Kind   DefKind
	Name   source.StringID
	Module ModuleID
	Span   source.Span
}
