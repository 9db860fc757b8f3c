package driver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"flux/internal/diag"
	"flux/internal/hir"
	"flux/internal/observ"
	"flux/internal/project"
	"flux/internal/project/dag"
	"flux/internal/sema"
	"flux/internal/source"
	"flux/internal/trace"
	"flux/internal/types"
)

// Check loads the manifest at path and checks it.
func Check(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	m, err := project.LoadManifest(fs, path)
	if err != nil {
		return nil, err
	}
	return CheckManifest(ctx, fs, m, opts)
}

// CheckManifest runs the pipeline over a decoded manifest: the package
// graph, the symbol tables, trait and apply lowering, use resolution,
// then conformance and function checks in parallel. The returned error is
// reserved for cancellation; problems in the project are diagnostics.
func CheckManifest(ctx context.Context, fs *source.FileSet, m *project.Manifest, opts Options) (*Result, error) {
	ctx, span := trace.BeginCtx(ctx, trace.ScopeDriver, "check")
	defer span.End("")

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	res := &Result{FileSet: fs, Manifest: m}

	key := cacheKey(m, opts)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache", "read failed: "+err.Error(), span.ID())
		case hit && payload.Schema == diskCacheSchemaVersion:
			res.Bag = payload.restore(m.File, opts.MaxDiagnostics)
			res.Stats = payload.Stats
			res.FromCache = true
			opts.Progress.emit(ProgressEvent{Kind: ProgressCacheHit, Name: m.Path})
			finishTimings(res, timer)
			return res, nil
		}
	}

	strs := source.NewInterner()
	w := newWorld(strs)
	collected := diag.NewBag(0)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: collected})

	run := func(name string, fn func(ctx context.Context) (string, error)) error {
		pctx, ps := trace.BeginCtx(ctx, trace.ScopePass, name)
		idx := timer.Begin(name)
		start := time.Now()
		opts.Progress.emit(ProgressEvent{Kind: ProgressPhaseStart, Phase: name})
		note, err := fn(pctx)
		timer.End(idx, note)
		ps.End(note)
		opts.Progress.emit(ProgressEvent{Kind: ProgressPhaseEnd, Phase: name, Elapsed: time.Since(start)})
		return err
	}
	noErr := func(fn func() string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return fn(), nil }
	}

	var (
		applies []applyTask
		fns     []fnTask
	)
	steps := []struct {
		name string
		fn   func(context.Context) (string, error)
	}{
		{"graph", noErr(func() string { return checkGraph(m, rep) })},
		{"build", noErr(func() string {
			w.buildPackages(m, rep)
			return fmt.Sprintf("%d packages, %d modules", w.stats.Packages, w.stats.Modules)
		})},
		{"traits", noErr(func() string {
			w.lowerTraits(rep)
			return fmt.Sprintf("%d traits", w.stats.Traits)
		})},
		{"applies", noErr(func() string {
			applies = w.lowerApplies(rep)
			return fmt.Sprintf("%d impls", w.impls.Len())
		})},
		{"uses", noErr(func() string {
			w.checkUses(rep)
			return fmt.Sprintf("%d uses", w.stats.Uses)
		})},
		{"functions", noErr(func() string {
			fns = w.lowerFunctions(rep)
			return fmt.Sprintf("%d functions", len(fns))
		})},
		{"conformance", func(ctx context.Context) (string, error) {
			return w.runTasks(ctx, "conformance", len(applies), opts, rep, func(i int, r diag.Reporter) bool {
				return w.checkApply(applies[i], r)
			}, func(i int) string { return applies[i].name })
		}},
		{"bodies", func(ctx context.Context) (string, error) {
			return w.runTasks(ctx, "bodies", len(fns), opts, rep, func(i int, r diag.Reporter) bool {
				return w.checkFunction(fns[i], r)
			}, func(i int) string { return fns[i].name })
		}},
	}
	for _, step := range steps {
		if err := run(step.name, step.fn); err != nil {
			return nil, err
		}
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	bag.Merge(collected)
	bag.Sort()

	res.Strings = strs
	res.Table = w.table
	res.Impls = w.impls
	res.Bag = bag
	res.Stats = w.stats
	res.w = w

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, newPayload(m.File, bag, w.stats)); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache", "write failed: "+err.Error(), span.ID())
		}
	}
	finishTimings(res, timer)
	return res, nil
}

// checkGraph validates package names and dependencies. Cycles are reported
// but checking goes on: delegation during resolution is cycle-guarded.
func checkGraph(m *project.Manifest, rep diag.Reporter) string {
	metas := m.Metas()
	idx := dag.BuildIndex(metas)
	nodes := make([]dag.PackageNode, len(metas))
	for i, meta := range metas {
		nodes[i] = dag.PackageNode{Meta: meta, Reporter: rep}
	}
	graph, slots := dag.BuildGraph(idx, nodes)
	order := dag.SortDependencies(graph)
	dag.ReportCycles(idx, slots, order)
	if order.Cyclic() {
		return fmt.Sprintf("%d packages, %d on a cycle", order.Len(), len(order.Cycles))
	}
	return fmt.Sprintf("%d packages, %d layers", order.Len(), order.Layers)
}

// runTasks checks n declarations in parallel. Every task gets its own bag;
// the bags are replayed into rep in task order once all are done, so the
// output does not depend on scheduling.
func (w *world) runTasks(
	ctx context.Context,
	phase string,
	n int,
	opts Options,
	rep diag.Reporter,
	check func(i int, r diag.Reporter) bool,
	name func(i int) string,
) (string, error) {
	if n == 0 {
		return "0 checked", nil
	}
	bags := make([]*diag.Bag, n)
	var done, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.jobs(), n))
	tracer := trace.FromContext(ctx)
	parent := trace.ParentID(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			s := trace.Begin(tracer, trace.ScopeDecl, name(i), parent)
			bag := diag.NewBag(0)
			ok := check(i, diag.BagReporter{Bag: bag})
			bags[i] = bag
			if !ok {
				failed.Add(1)
				s.WithExtra("diagnostics", fmt.Sprint(bag.Len()))
			}
			s.End("")
			opts.Progress.emit(ProgressEvent{
				Kind:   ProgressDecl,
				Phase:  phase,
				Name:   name(i),
				Done:   int(done.Add(1)),
				Total:  n,
				Failed: !ok,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "cancelled", err
		}
		return "", err
	}
	for _, bag := range bags {
		for _, d := range bag.Items() {
			rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	return fmt.Sprintf("%d checked, %d failed", n, failed.Load()), nil
}

// checkApply checks one apply block in a fresh arena.
func (w *world) checkApply(t applyTask, rep diag.Reporter) bool {
	c := sema.NewChecker(types.NewEnv(w.strs), w.impls)
	if err := c.CheckApply(t.decl, t.trait); err != nil {
		d := errorDiagnostic(err, t.decl.Span)
		rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		return false
	}
	return true
}

// checkFunction checks one function body summary in a fresh arena:
// parameters and locals are bound, each equation is unified in order and
// finally the body is checked against the return type. Equation failures
// do not stop the remaining checks.
func (w *world) checkFunction(t fnTask, rep diag.Reporter) bool {
	fn := t.decl
	c := sema.NewChecker(types.NewEnv(w.strs), w.impls)
	in := c.Inserter()
	in.DeclareGenerics(fn.Generics)

	report := func(err error, span source.Span) {
		d := errorDiagnostic(err, span)
		rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
	for _, p := range fn.Params {
		if _, err := in.DeclareLocal(hir.Local{Name: p.Name, Type: p.Type, Span: p.Span}); err != nil {
			report(err, p.Span)
			return false
		}
	}
	for _, l := range fn.Locals {
		if _, err := in.DeclareLocal(l); err != nil {
			report(err, l.Span)
			return false
		}
	}

	ok := true
	for _, eq := range fn.Equations {
		left, err := in.Insert(eq.Left)
		if err != nil {
			report(err, eq.Span)
			ok = false
			continue
		}
		right, err := in.Insert(eq.Right)
		if err != nil {
			report(err, eq.Span)
			ok = false
			continue
		}
		if err := c.Unify(left, right, eq.Span); err != nil {
			report(err, eq.Span)
			ok = false
		}
	}

	ret, err := in.Insert(fn.Return)
	if err != nil {
		report(err, fn.Span)
		return false
	}
	body, err := in.Insert(fn.Body)
	if err != nil {
		report(err, t.bodySpan)
		return false
	}
	if err := c.UnifyExpected(ret, body, t.bodySpan); err != nil {
		var mismatch *sema.TypeMismatchError
		if errors.As(err, &mismatch) {
			d := returnMismatch(t.name, mismatch)
			rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		} else {
			report(err, t.bodySpan)
		}
		return false
	}
	return ok
}

func finishTimings(res *Result, timer *observ.Timer) {
	if timer == nil {
		return
	}
	res.Timings = timer.Report()
	appendTimingDiagnostic(res.Bag, timingPayload{
		Kind:    "check",
		Path:    res.Manifest.Path,
		TotalMS: res.Timings.TotalMS,
		Phases:  res.Timings.Phases,
	})
}
