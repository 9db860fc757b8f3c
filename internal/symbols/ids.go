package symbols

// ModuleID identifies a module inside one DefMap.
type ModuleID uint32

// NoModuleID marks the absence of a module reference.
const NoModuleID ModuleID = 0

func (id ModuleID) IsValid() bool { return id != NoModuleID }

// PackageID identifies a package inside a PackageTable.
type PackageID uint32

// NoPackageID marks the absence of a package; in a Resolution it means the
// item was found in the requesting package itself.
const NoPackageID PackageID = 0

func (id PackageID) IsValid() bool { return id != NoPackageID }

// DefID indexes the non-module definitions of a DefMap.
type DefID uint32

const NoDefID DefID = 0
