package symbols

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"flux/internal/hir"
	"flux/internal/source"
)

type world struct {
	strs   *source.Interner
	table  *PackageTable
	app    PackageID
	core   PackageID
	appMod map[string]ModuleID
}

func must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
}

// newWorld builds two packages:
//
//	app (depends on core)
//	  pub mod geo { pub struct Point; fn helper; mod internal { pub fn secret } }
//	  fn main; type str
//	  mod prelude { pub trait Show; fn hidden }   (prelude)
//	core
//	  pub mod ops { pub trait Add; struct Hidden }
//	  mod imp { pub fn x }
//	  pub fn version
func newWorld(t *testing.T) *world {
	t.Helper()
	strs := source.NewInterner()
	builtins := NewBuiltinScope(strs)
	w := &world{strs: strs, table: NewPackageTable(strs), appMod: map[string]ModuleID{}}
	id := strs.Intern

	app := NewDefMap(strs, builtins)
	geo := must[ModuleID](t)(app.AddModule(app.Root, id("geo"), hir.Public, source.Span{}))
	internal := must[ModuleID](t)(app.AddModule(geo, id("internal"), hir.Private, source.Span{}))
	prelude := must[ModuleID](t)(app.AddModule(app.Root, id("prelude"), hir.Private, source.Span{}))
	app.SetPrelude(prelude)
	must[ModuleDefID](t)(app.AddItem(geo, id("Point"), DefStruct, hir.Public, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(geo, id("helper"), DefFunction, hir.Private, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(internal, id("secret"), DefFunction, hir.Public, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(app.Root, id("main"), DefFunction, hir.Private, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(app.Root, id("str"), DefTypeAlias, hir.Private, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(prelude, id("Show"), DefTrait, hir.Public, source.Span{}))
	must[ModuleDefID](t)(app.AddItem(prelude, id("hidden"), DefFunction, hir.Private, source.Span{}))
	w.appMod = map[string]ModuleID{"root": app.Root, "geo": geo, "internal": internal, "prelude": prelude}

	core := NewDefMap(strs, builtins)
	ops := must[ModuleID](t)(core.AddModule(core.Root, id("ops"), hir.Public, source.Span{}))
	imp := must[ModuleID](t)(core.AddModule(core.Root, id("imp"), hir.Private, source.Span{}))
	must[ModuleDefID](t)(core.AddItem(ops, id("Add"), DefTrait, hir.Public, source.Span{}))
	must[ModuleDefID](t)(core.AddItem(ops, id("Hidden"), DefStruct, hir.Private, source.Span{}))
	must[ModuleDefID](t)(core.AddItem(imp, id("x"), DefFunction, hir.Public, source.Span{}))
	must[ModuleDefID](t)(core.AddItem(core.Root, id("version"), DefFunction, hir.Public, source.Span{}))

	w.app = must[PackageID](t)(w.table.AddPackage(id("app"), app))
	w.core = must[PackageID](t)(w.table.AddPackage(id("core"), core))
	if err := w.table.AddDependency(w.app, w.core); err != nil {
		t.Fatal(err)
	}
	for _, dm := range []*DefMap{app, core} {
		if err := dm.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}
	return w
}

func (w *world) path(text string) hir.Path {
	if text == "" {
		return hir.Path{}
	}
	return hir.Path{Segments: w.strs.InternAll(strings.Split(text, "::")...)}
}

func TestResolvePath(t *testing.T) {
	w := newWorld(t)
	tests := []struct {
		name    string
		path    string
		from    string
		kind    DefKind
		pkg     PackageID
		rest    int
		errKind ResolveErrorKind
		errSeg  int
	}{
		{name: "empty", path: "", from: "geo", errKind: ResolveEmptyPath},
		{name: "package name only", path: "app", from: "root", errKind: ResolveEmptyPath},
		{name: "relative", path: "geo::Point", from: "root", kind: DefStruct, rest: 2},
		{name: "absolute from nested module", path: "app::geo::Point", from: "internal", kind: DefStruct, rest: 3},
		{name: "private fn from outside its module", path: "geo::helper", from: "root", errKind: ResolvePrivateModule, errSeg: 1},
		{name: "private fn from its module", path: "helper", from: "geo", kind: DefFunction, rest: 1},
		{name: "private fn from a descendant", path: "app::geo::helper", from: "internal", kind: DefFunction, rest: 3},
		{name: "private module on the way", path: "geo::internal::secret", from: "root", errKind: ResolvePrivateModule, errSeg: 1},
		{name: "private module from its parent", path: "internal::secret", from: "geo", kind: DefFunction, rest: 2},
		{name: "builtin", path: "i32", from: "geo", kind: DefBuiltinType, rest: 1},
		{name: "builtin through module", path: "geo::bool", from: "root", kind: DefBuiltinType, rest: 2},
		{name: "local shadows builtin", path: "str", from: "root", kind: DefTypeAlias, rest: 1},
		{name: "prelude", path: "Show", from: "geo", kind: DefTrait, rest: 1},
		{name: "private prelude item", path: "hidden", from: "geo", errKind: ResolvePrivateModule, errSeg: 0},
		{name: "dependency", path: "core::ops::Add", from: "geo", kind: DefTrait, pkg: 2, rest: 3},
		{name: "dependency root item", path: "core::version", from: "root", kind: DefFunction, pkg: 2, rest: 2},
		{name: "dependency private item", path: "core::ops::Hidden", from: "root", errKind: ResolvePrivateModule, errSeg: 2},
		{name: "dependency private module", path: "core::imp::x", from: "root", errKind: ResolvePrivateModule, errSeg: 1},
		{name: "dependency missing item", path: "core::nothing", from: "root", errKind: ResolveUnresolvedPath, errSeg: 1},
		{name: "dependency name only", path: "core", from: "root", errKind: ResolveEmptyPath},
		{name: "unknown first segment", path: "nothing::x", from: "root", errKind: ResolveUnresolvedPath, errSeg: 0},
		{name: "unknown after package name", path: "app::nothing", from: "root", errKind: ResolveUnresolvedPath, errSeg: 1},
		{name: "missing segment", path: "geo::missing", from: "root", errKind: ResolveUnresolvedPath, errSeg: 1},
		{name: "associated item left to caller", path: "geo::Point::new", from: "root", kind: DefStruct, rest: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := w.path(tt.path)
			res, err := w.table.ResolvePath(w.app, path, w.appMod[tt.from])
			if tt.errKind != 0 {
				var re *ResolveError
				if !errors.As(err, &re) {
					t.Fatalf("expected resolve error, got %v (%+v)", err, res)
				}
				if re.Kind != tt.errKind || (tt.errKind != ResolveEmptyPath && re.Segment != tt.errSeg) {
					t.Fatalf("got %s at %d, want %s at %d", re.Kind, re.Segment, tt.errKind, tt.errSeg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Item.Def.Kind != tt.kind || res.Package != tt.pkg || res.Rest != tt.rest {
				t.Fatalf("got kind=%s pkg=%d rest=%d, want kind=%s pkg=%d rest=%d",
					res.Item.Def.Kind, res.Package, res.Rest, tt.kind, tt.pkg, tt.rest)
			}
		})
	}
}

func TestEmptyPathFromEveryModule(t *testing.T) {
	w := newWorld(t)
	for name, m := range w.appMod {
		_, err := w.table.ResolvePath(w.app, hir.Path{}, m)
		var re *ResolveError
		if !errors.As(err, &re) || re.Kind != ResolveEmptyPath {
			t.Errorf("%s: expected empty path error, got %v", name, err)
		}
	}
}

func TestProviderPrecedence(t *testing.T) {
	w := newWorld(t)
	if got := strings.Join(ProviderNames(), ","); got != "local,builtin,prelude" {
		t.Fatalf("provider order %s", got)
	}
	dm := w.table.Package(w.app).Defs
	tests := []struct {
		name, from, provider string
	}{
		{"str", "root", "local"},
		{"str", "geo", "builtin"},
		{"Show", "root", "prelude"},
		{"Point", "geo", "local"},
	}
	for _, tt := range tests {
		_, provider, ok := dm.LookupName(w.appMod[tt.from], w.strs.Intern(tt.name))
		if !ok || provider != tt.provider {
			t.Errorf("%s from %s: got %q, want %q", tt.name, tt.from, provider, tt.provider)
		}
	}
	if _, _, ok := dm.LookupName(w.appMod["root"], w.strs.Intern("Point")); ok {
		t.Errorf("Point must not be visible at the root without a path")
	}
}

func TestDependencyCycleGuard(t *testing.T) {
	strs := source.NewInterner()
	table := NewPackageTable(strs)
	a := must[PackageID](t)(table.AddPackage(strs.Intern("a"), NewDefMap(strs, nil)))
	b := must[PackageID](t)(table.AddPackage(strs.Intern("b"), NewDefMap(strs, nil)))
	for _, dep := range [][2]PackageID{{a, b}, {b, a}} {
		if err := table.AddDependency(dep[0], dep[1]); err != nil {
			t.Fatalf("add dependency: %v", err)
		}
	}

	path := hir.Path{Segments: strs.InternAll("b", "a", "x")}
	_, err := table.ResolvePath(a, path, table.Package(a).Defs.Root)
	var re *ResolveError
	if !errors.As(err, &re) || re.Kind != ResolveDependencyCycle || re.Segment != 1 {
		t.Fatalf("expected dependency cycle at segment 1, got %v", err)
	}
}

func TestResolveErrorDescribe(t *testing.T) {
	w := newWorld(t)
	path, err := hir.ParsePath(w.strs, "geo::internal::secret", hir.ParseOptions{File: 1, Offset: 100})
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.table.ResolvePath(w.app, path, w.appMod["root"])
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected resolve error, got %v", err)
	}
	want := "cannot access private path segment `internal` in path `geo::internal::secret`"
	if got := re.Describe(w.strs); got != want {
		t.Fatalf("describe:\n got %s\nwant %s", got, want)
	}
	d := re.Diagnostic(w.strs)
	if d.Primary != (source.Span{File: 1, Start: 105, End: 113}) || len(d.Notes) != 1 {
		t.Fatalf("diagnostic spans: %+v", d)
	}
}

func TestConcurrentResolution(t *testing.T) {
	w := newWorld(t)
	paths := []string{"geo::Point", "core::ops::Add", "Show", "i64", "geo::helper"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range paths {
				_, _ = w.table.ResolvePath(w.app, w.path(p), w.appMod["root"])
			}
		}()
	}
	wg.Wait()
}

func TestCanonicalPath(t *testing.T) {
	w := newWorld(t)
	tests := []struct {
		path, from, want string
	}{
		{"geo::Point", "root", "app::geo::Point"},
		{"Point", "geo", "app::geo::Point"},
		{"core::ops::Add", "internal", "core::ops::Add"},
		{"i32", "geo", "i32"},
		{"Show", "root", "app::prelude::Show"},
		{"geo::internal", "geo", "app::geo::internal"},
	}
	for _, tt := range tests {
		res, err := w.table.ResolvePath(w.app, w.path(tt.path), w.appMod[tt.from])
		if err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		got := hir.Path{Segments: w.table.CanonicalPath(w.app, res)}.String(w.strs)
		if got != tt.want {
			t.Errorf("CanonicalPath(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
