package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Семантические: унификация и трейты
	SemaInfo                     Code = 3000
	SemaTypeMismatch             Code = 3001
	SemaRestrictionViolation     Code = 3002
	SemaUnknownTrait             Code = 3003
	SemaUnknownTraitMethod       Code = 3004
	SemaUnimplementedMethods     Code = 3005
	SemaParamCountMismatch       Code = 3006
	SemaSignatureMismatch        Code = 3007
	SemaReturnTypeMismatch       Code = 3008
	SemaBadTypeNotation          Code = 3009
	SemaNotATrait                Code = 3010
	SemaNotAType                 Code = 3011
	SemaUnknownLocal             Code = 3012
	SemaDuplicateMethod          Code = 3013
	SemaThisOutsideTrait         Code = 3014
	SemaApplyTargetNotNamed      Code = 3015
	SemaGenericBoundNotSatisfied Code = 3016

	// Разрешение путей
	ResInfo            Code = 4000
	ResEmptyPath       Code = 4001
	ResUnresolvedPath  Code = 4002
	ResPrivateSegment  Code = 4003
	ResUnresolvedType  Code = 4004
	ResDependencyCycle Code = 4005
	ResDuplicateItem   Code = 4006

	// Проектные (манифест, граф пакетов)
	ProjInfo              Code = 5000
	ProjDuplicatePackage  Code = 5001
	ProjMissingPackage    Code = 5002
	ProjSelfDependency    Code = 5003
	ProjDependencyCycle   Code = 5004
	ProjInvalidModulePath Code = 5005
	ProjDuplicateModule   Code = 5006
	ProjUnknownModule     Code = 5007
	ProjBadManifest       Code = 5008
	ProjUnknownItemKind   Code = 5009

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                  "Unknown error",
		SemaInfo:                     "Semantic information",
		SemaTypeMismatch:             "Type mismatch",
		SemaRestrictionViolation:     "Type does not satisfy trait restriction",
		SemaUnknownTrait:             "Applied unknown trait",
		SemaUnknownTraitMethod:       "Method is not part of the trait",
		SemaUnimplementedMethods:     "Trait methods not implemented",
		SemaParamCountMismatch:       "Parameter count differs from trait declaration",
		SemaSignatureMismatch:        "Method signature differs from trait declaration",
		SemaReturnTypeMismatch:       "Function body does not match return type",
		SemaBadTypeNotation:          "Malformed type",
		SemaNotATrait:                "Path does not name a trait",
		SemaNotAType:                 "Path does not name a type",
		SemaUnknownLocal:             "Unknown local variable",
		SemaDuplicateMethod:          "Duplicate method",
		SemaThisOutsideTrait:         "This used outside of a trait or apply",
		SemaApplyTargetNotNamed:      "Apply target must be a named type",
		SemaGenericBoundNotSatisfied: "Generic argument does not satisfy bound",
		ResInfo:                      "Resolution information",
		ResEmptyPath:                 "Empty path",
		ResUnresolvedPath:            "Unresolved path",
		ResPrivateSegment:            "Path goes through a private item",
		ResUnresolvedType:            "Unresolved type",
		ResDependencyCycle:           "Dependency delegation cycle",
		ResDuplicateItem:             "Duplicate item in module",
		ProjInfo:                     "Project information",
		ProjDuplicatePackage:         "Duplicate package",
		ProjMissingPackage:           "Missing dependency package",
		ProjSelfDependency:           "Package depends on itself",
		ProjDependencyCycle:          "Package dependency cycle",
		ProjInvalidModulePath:        "Invalid module path",
		ProjDuplicateModule:          "Duplicate module",
		ProjUnknownModule:            "Unknown module",
		ProjBadManifest:              "Malformed manifest",
		ProjUnknownItemKind:          "Unknown item kind",
		ObsInfo:                      "Observability information",
		ObsTimings:                   "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
