package driver

import (
	"fmt"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/project"
	"flux/internal/source"
	"flux/internal/symbols"
	"flux/internal/types"
)

// applyTask is one trait apply block ready for conformance checking.
type applyTask struct {
	name  string
	decl  *hir.ApplyDecl
	trait *hir.TraitDecl
}

// fnTask is one lowered free function.
type fnTask struct {
	name     string
	decl     *hir.FnDecl
	bodySpan source.Span
}

func (w *world) scope(p *pkgState, module string, span source.Span, rep diag.Reporter) (symbols.ModuleID, bool) {
	mod, ok := p.module(module)
	if !ok {
		diag.ReportError(rep, diag.ProjUnknownModule, span,
			fmt.Sprintf("module %q is not declared in package %q", module, p.name)).Emit()
	}
	return mod, ok
}

// canonical is the canonical path of a declaration named name in module.
func (w *world) canonical(p *pkgState, module symbols.ModuleID, name string) []source.StringID {
	segs := []source.StringID{w.strs.Intern(p.name)}
	segs = append(segs, p.defs.ModulePath(module)...)
	return append(segs, w.strs.Intern(name))
}

// lowerTraits builds a TraitDecl for every [[trait]]. Method signatures may
// use This and are lowered against the trait's module.
func (w *world) lowerTraits(rep diag.Reporter) {
	l := &lowerer{w: w, rep: rep}
	for _, p := range w.pkgs {
		for i := range p.cfg.Traits {
			tc := &p.cfg.Traits[i]
			mod, ok := p.module(tc.Module)
			if !ok || !project.IsValidIdent(tc.Name) {
				continue // reported while building items
			}
			path := w.canonical(p, mod, tc.Name)
			key := w.pathString(path)
			if _, dup := w.traits[key]; dup {
				continue
			}
			decl := hir.NewTraitDecl(w.strs.Intern(tc.Name), path, tc.Span)
			for j := range tc.Methods {
				mc := &tc.Methods[j]
				sc := declScope{pkg: p, module: mod, generics: genericNames(mc.Generics), allowThis: true}
				generics, okGen := l.lowerGenerics(sc, mc.Generics)
				params, okParams := l.lowerParams(sc, mc.Params)
				ret, okRet := l.lowerType(sc, mc.Return, mc.ReturnSpan, true)
				if !okGen || !okParams || !okRet {
					continue
				}
				m := &hir.TraitMethod{Name: w.strs.Intern(mc.Name), Generics: generics, Params: params, Return: ret, Span: mc.Span}
				if !decl.AddMethod(m) {
					diag.ReportError(rep, diag.SemaDuplicateMethod, mc.Span,
						fmt.Sprintf("method `%s` is declared twice in trait `%s`", mc.Name, key)).
						WithNote(decl.Methods[m.Name].Span, "first declared here").
						Emit()
				}
			}
			w.traits[key] = decl
			w.stats.Traits++
		}
	}
}

// lowerMethod lowers an apply method. This stands for the apply target.
func (l *lowerer) lowerMethod(sc declScope, mc *project.MethodConfig) (*hir.FnDecl, bool) {
	sc.generics = genericNames(mc.Generics)
	sc.allowThis = true
	generics, okGen := l.lowerGenerics(sc, mc.Generics)
	params, okParams := l.lowerParams(sc, mc.Params)
	ret, okRet := l.lowerType(sc, mc.Return, mc.ReturnSpan, true)
	if !okGen || !okParams || !okRet {
		return nil, false
	}
	return &hir.FnDecl{
		Name:     l.w.strs.Intern(mc.Name),
		Vis:      hir.Public,
		Generics: generics,
		Params:   params,
		Return:   ret,
		Span:     mc.Span,
	}, true
}

// lowerApplies lowers every apply block, records the methods it attaches to
// its target and registers trait impls. Registration happens for every
// well-formed block before any of them is checked, so conformance results
// do not depend on the order blocks are checked in.
func (w *world) lowerApplies(rep diag.Reporter) []applyTask {
	l := &lowerer{w: w, rep: rep}
	var tasks []applyTask
	for _, p := range w.pkgs {
		for i := range p.cfg.Applies {
			ac := &p.cfg.Applies[i]
			mod, ok := w.scope(p, ac.Module, ac.Span, rep)
			if !ok {
				continue
			}
			w.stats.Applies++
			sc := declScope{pkg: p, module: mod}
			target, ok := l.lowerType(sc, ac.Target, ac.TargetSpan, false)
			if !ok {
				continue
			}
			if target.Kind != hir.TypePath {
				diag.ReportError(rep, diag.SemaApplyTargetNotNamed, target.Span,
					fmt.Sprintf("apply target `%s` is not a named type", ac.Target)).Emit()
				continue
			}

			apply := &hir.ApplyDecl{Target: target, Span: ac.Span}
			seen := make(map[string]source.Span, len(ac.Methods))
			good := true
			for j := range ac.Methods {
				mc := &ac.Methods[j]
				if prev, dup := seen[mc.Name]; dup {
					diag.ReportError(rep, diag.SemaDuplicateMethod, mc.Span,
						fmt.Sprintf("method `%s` is defined twice for `%s`", mc.Name, ac.Target)).
						WithNote(prev, "first defined here").
						Emit()
					good = false
					continue
				}
				seen[mc.Name] = mc.Span
				fn, ok := l.lowerMethod(sc, mc)
				if !ok {
					good = false
					continue
				}
				apply.Methods = append(apply.Methods, fn)
			}
			w.attach(target, apply.Methods)

			if ac.Trait == "" || !good {
				continue
			}
			tpath, ok := l.parse(sc, ac.Trait, ac.TraitSpan)
			if !ok {
				continue
			}
			if tpath.Kind != hir.TypePath {
				diag.ReportError(rep, diag.SemaNotATrait, tpath.Span,
					fmt.Sprintf("`%s` is not a trait path", ac.Trait)).Emit()
				continue
			}
			trait, canon, ok := l.resolveTrait(sc, tpath.Path)
			if !ok {
				continue
			}
			if trait == nil {
				// declared as an item but without a [[trait]] body
				diag.ReportError(rep, diag.SemaUnknownTrait, ac.TraitSpan,
					fmt.Sprintf("applied unknown trait `%s`", w.pathString(canon))).Emit()
				continue
			}
			apply.Trait = &hir.Path{Segments: canon, Span: tpath.Path.Span}

			env := types.NewEnv(w.strs)
			id, err := hir.NewInserter(env).Insert(target)
			if err != nil {
				l.emit(insertDiagnostic(err, target.Span))
				continue
			}
			w.impls.Add(trait.Path, env.Key(id))
			tasks = append(tasks, applyTask{
				name:  fmt.Sprintf("apply %s for %s", w.pathString(canon), target.String(w.strs)),
				decl:  apply,
				trait: trait,
			})
		}
	}
	return tasks
}

// attach records methods as associated items of the target's named type.
func (w *world) attach(target *hir.Type, methods []*hir.FnDecl) {
	key := w.pathString(target.Path.Segments)
	set := w.assoc[key]
	if set == nil {
		set = make(map[source.StringID]struct{}, len(methods))
		w.assoc[key] = set
	}
	for _, m := range methods {
		set[m.Name] = struct{}{}
	}
}

// checkUses resolves every [[use]]. A path may end in one method applied
// to the type it names.
func (w *world) checkUses(rep diag.Reporter) {
	l := &lowerer{w: w, rep: rep}
	for _, p := range w.pkgs {
		for i := range p.cfg.Uses {
			uc := &p.cfg.Uses[i]
			mod, ok := w.scope(p, uc.Module, uc.Span, rep)
			if !ok {
				continue
			}
			w.stats.Uses++
			opts := hir.ParseOptions{File: uc.Span.File, Offset: uc.Span.Start}
			path, err := hir.ParsePath(w.strs, uc.Path, opts)
			if err != nil {
				diag.ReportError(rep, diag.SemaBadTypeNotation, uc.Span, err.Error()).Emit()
				continue
			}
			if int(uc.Span.Len()) != len(uc.Path) {
				path.Span = uc.Span
				path.SegmentSpans = nil
			}
			res, ok := l.resolve(declScope{pkg: p, module: mod}, path)
			if !ok || res.Complete(path) {
				continue
			}
			w.checkAssoc(rep, p, path, res)
		}
	}
}

func (w *world) checkAssoc(rep diag.Reporter, p *pkgState, path hir.Path, res symbols.Resolution) {
	owner := w.pathString(w.table.CanonicalPath(p.id, res))
	if res.Rest == len(path.Segments)-1 {
		if _, ok := w.assoc[owner][path.Segments[res.Rest]]; ok {
			return
		}
	}
	diag.ReportError(rep, diag.ResUnresolvedPath, path.SegmentSpan(res.Rest),
		fmt.Sprintf("`%s` has no associated item `%s`", owner, w.strs.MustLookup(path.Segments[res.Rest]))).
		WithNote(path.Span, "in this path").
		Emit()
}

// lowerFunctions lowers every [[function]]. Parameters become locals
// named after them so equations can refer to them as $name.
func (w *world) lowerFunctions(rep diag.Reporter) []fnTask {
	l := &lowerer{w: w, rep: rep}
	var tasks []fnTask
	for _, p := range w.pkgs {
		for i := range p.cfg.Functions {
			fc := &p.cfg.Functions[i]
			mod, ok := p.module(fc.Module)
			if !ok {
				continue // reported while building items
			}
			w.stats.Functions++
			sc := declScope{pkg: p, module: mod, generics: genericNames(fc.Generics)}
			generics, good := l.lowerGenerics(sc, fc.Generics)
			params, ok := l.lowerParams(sc, fc.Params)
			good = good && ok
			ret, ok := l.lowerType(sc, fc.Return, fc.ReturnSpan, true)
			good = good && ok
			body, ok := l.lowerType(sc, fc.Body, fc.BodySpan, true)
			good = good && ok

			fn := &hir.FnDecl{
				Name:     w.strs.Intern(fc.Name),
				Vis:      visibility(fc.Public),
				Generics: generics,
				Params:   params,
				Return:   ret,
				Body:     body,
				Span:     fc.Span,
			}
			for _, lc := range fc.Locals {
				t, ok := l.lowerType(sc, lc.Type, lc.Span, false)
				if !ok {
					good = false
					continue
				}
				fn.Locals = append(fn.Locals, hir.Local{Name: w.strs.Intern(lc.Name), Type: t, Span: lc.Span})
			}
			for _, ec := range fc.Equate {
				left, okL := l.lowerType(sc, ec.Left, ec.LeftSpan, false)
				right, okR := l.lowerType(sc, ec.Right, ec.RightSpan, false)
				if !okL || !okR {
					good = false
					continue
				}
				fn.Equations = append(fn.Equations, hir.Equation{Left: left, Right: right, Span: ec.Span})
			}
			if !good {
				continue
			}
			span := fc.BodySpan
			if span.IsZero() {
				span = fc.Span
			}
			tasks = append(tasks, fnTask{
				name:     w.pathString(w.canonical(p, mod, fc.Name)),
				decl:     fn,
				bodySpan: span,
			})
		}
	}
	return tasks
}
