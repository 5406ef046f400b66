// Package cha is the analysis orchestrator (§2/§4): it owns the
// registries every stage reads and writes, dispatches the four-stage
// pipeline over a source.SourceFileProvider's compilation units, and
// assembles the final bidirectional call graph.
package cha

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gocha/chatool/internal/callgraph"
	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/classpath"
	"github.com/gocha/chatool/internal/diag"
	"github.com/gocha/chatool/internal/fields"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/invoke"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/methods"
	"github.com/gocha/chatool/internal/overload"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

// AnalysisContext owns the registries for one build and runs the four
// stages in order. It is not reusable across builds: construct a fresh
// one per Run.
type AnalysisContext struct {
	Reg       *ids.Registry
	Classes   *classgraph.Graph
	Fields    *fields.Registry
	Methods   *methods.Registry
	CallGraph *callgraph.Graph

	progress source.ProgressReporter
	workers  int
}

// NewContext returns a ready-to-run AnalysisContext. progress may be
// source.NopReporter{} when no human-readable output is wanted. Worker
// concurrency is GOMAXPROCS-1, floored at 1, matching the rest of the
// pipeline's per-stage worker pools (§4).
func NewContext(progress source.ProgressReporter) *AnalysisContext {
	workers := runtime.GOMAXPROCS(0) - 1
	if workers < 1 {
		workers = 1
	}
	return NewContextWithWorkers(progress, workers)
}

// NewContextWithWorkers is NewContext with an explicit worker pool size
// per stage, overriding the GOMAXPROCS-1 default (e.g. from a CLI flag).
// workers is floored at 1.
func NewContextWithWorkers(progress source.ProgressReporter, workers int) *AnalysisContext {
	if progress == nil {
		progress = source.NopReporter{}
	}
	if workers < 1 {
		workers = 1
	}
	reg := ids.NewRegistry()
	return &AnalysisContext{
		Reg:       reg,
		Classes:   classgraph.NewGraph(reg),
		Fields:    fields.NewRegistry(),
		Methods:   methods.NewRegistry(),
		CallGraph: callgraph.New(),
		progress:  progress,
		workers:   workers,
	}
}

// Workers reports the worker pool size each stage was configured with.
func (a *AnalysisContext) Workers() int { return a.workers }

// unit bundles a parsed compilation unit with the classes Stage 1
// registered for it, carried forward so Stage 3/4 never re-parse.
type unit struct {
	tree    source.SyntaxTree
	decls   []source.TypeDeclNode
	classes []ids.ClassID
}

// Run executes the full pipeline: Stage 1 (parallel, per file), Stage 2
// (single-threaded closure), Stage 3 (parallel, per type declaration) and
// Stage 4 (parallel, per declared method's call sites). It returns the
// first error any stage's worker reported, after letting in-flight workers
// finish (errgroup.Group's own cancellation-on-first-error behavior). A
// provider that lists no files is a diag.ConfigError.
// cp registers the library classpath entries §4.4's "library super-types"
// fallback resolves against; it may be nil, in which case library
// supertypes are encoded with the plain unversioned "LIB:" id and that
// fallback never widens beyond whatever source subclasses happen to
// share the same unversioned id.
func (a *AnalysisContext) Run(ctx context.Context, provider source.SourceFileProvider, binder source.Binder, types source.TypeCalculator, rule classgraph.ExclusionRule, cp *classpath.Registry) error {
	files, err := provider.ListSourceFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return diag.ConfigErrorf("no source files to process")
	}

	a.progress.Report("stage 1: class/field skeleton")
	units, err := a.stage1(ctx, provider, binder, types, rule, cp, files)
	if err != nil {
		return err
	}

	a.progress.Report("stage 2: inheritance closure")
	a.Classes.Close()

	a.progress.Report("stage 3: method identities and inner/outer links")
	sites, err := a.stage3(ctx, binder, types, units)
	if err != nil {
		return err
	}

	a.progress.Report("stage 4: call-site resolution")
	return a.stage4(ctx, binder, types, cp, sites)
}

func (a *AnalysisContext) stage1(ctx context.Context, provider source.SourceFileProvider, binder source.Binder, types source.TypeCalculator, rule classgraph.ExclusionRule, cp *classpath.Registry, files []string) ([]*unit, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var mu sync.Mutex
	var units []*unit

	for _, f := range files {
		f := f
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			tree, err := provider.LoadUnit(f)
			if err != nil {
				return err
			}
			decls := tree.TypeDecls()
			classes := classgraph.Stage1Unit(a.Classes, a.Reg, binder, cp, tree, rule)
			for i, decl := range decls {
				fields.RegisterDeclaredFields(a.Fields, types, classes[i], decl)
			}

			mu.Lock()
			units = append(units, &unit{tree: tree, decls: decls, classes: classes})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// classSite pairs a registered method's Stage 3 call sites with the
// class it was declared on, so Stage 4 can anchor the servicing-method
// lookup.
type classSite struct {
	methods.DeclSite
}

// declUnit carries one type declaration through Stage 3's two fan-outs:
// the first registers every declaration's own methods, the second links
// constructor chains. The second fan-out needs every class's explicit
// constructors already registered (matchAnonymousConstructor looks up a
// *different* class's declared methods), so it cannot be folded into the
// same per-decl goroutine as the first without a race on Methods.
type declUnit struct {
	class source.TypeDeclNode
	id    ids.ClassID
	mctx  methodid.Context
}

func (a *AnalysisContext) stage3(ctx context.Context, binder source.Binder, types source.TypeCalculator, units []*unit) ([]classSite, error) {
	var decls []declUnit
	for _, u := range units {
		for i, decl := range u.decls {
			// Excluded classes get no methods registered, so no edge can
			// start or end on them.
			if a.Classes.IsExcluded(u.classes[i]) {
				continue
			}
			decls = append(decls, declUnit{class: decl, id: u.classes[i]})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var mu sync.Mutex
	var allSites []classSite

	for i := range decls {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			du := &decls[i]
			superName := a.immediateSuperSimpleName(binder, du.class)
			a.refineFieldTypes(types, du.id, du.class)
			du.mctx = methodid.Context{Binder: binder, Types: types}
			sites := methods.Stage3Unit(a.Methods, a.Fields, a.Reg, du.mctx, du.id, du.class, superName)
			du.mctx.EnclosingClassSuperName = superName

			mu.Lock()
			for _, s := range sites {
				allSites = append(allSites, classSite{s})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Second fan-out: every class's explicit constructors are now
	// registered, so linkConstructorChain can safely read a sibling
	// class's (e.g. an anonymous class's parent's) declared methods.
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.SetLimit(a.workers)
	for i := range decls {
		i := i
		g2.Go(func() error {
			if gctx2.Err() != nil {
				return gctx2.Err()
			}
			du := decls[i]
			a.linkConstructorChain(du.mctx, du.id, du.class)
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	return allSites, nil
}

// immediateSuperSimpleName resolves decl's supertype reference (if any)
// to a simple name, used as methodid.Context.EnclosingClassSuperName for
// super()-invocation call sites in constructor bodies (§4.3).
func (a *AnalysisContext) immediateSuperSimpleName(binder source.Binder, decl source.TypeDeclNode) string {
	ref, ok := decl.SuperclassRef()
	if !ok {
		return ""
	}
	tb, ok := binder.ResolveType(ref)
	if !ok {
		return ""
	}
	return simpleName(tb.QualifiedName())
}

func simpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// refineFieldTypes implements §4.2 Stage 3 point (c): recompute each of
// decl's declared fields' proper type now that Stage 1 has registered
// every file's class/field skeleton, replacing the soft type Stage 1
// could only approximate on its own.
func (a *AnalysisContext) refineFieldTypes(types source.TypeCalculator, class ids.ClassID, decl source.TypeDeclNode) {
	for _, f := range decl.Fields() {
		if fi, ok := a.Fields.Lookup(class, f.Name()); ok {
			fi.RefineProperType(types)
		}
	}
}

// linkConstructorChain implements §4.4/§5's constructor-chaining rules:
// every constructor with a body whose first statement is not a
// this()/super() invocation is linked to the class's synthetic default
// constructor, and the synthetic default constructor is itself linked
// to the immediate super's explicit zero-argument constructor when the
// super declares one with a body, else to the super's synthetic default.
// Constructors that do start with this()/super() chain instead through
// the ordinary call-site resolution Stage 4 performs on that
// invocation, so nothing further is recorded for them here.
func (a *AnalysisContext) linkConstructorChain(ctx methodid.Context, class ids.ClassID, decl source.TypeDeclNode) {
	defaultCtor := a.Methods.EnsureDefaultConstructor(a.Reg, class)

	for _, m := range decl.Methods() {
		if !m.Constructor() || !m.HasBody() {
			continue
		}
		if m.FirstStatementIsThisOrSuperCall() {
			continue
		}
		id, bits := methodid.HandleDecl(ctx, m)
		mid := a.Methods.Register(a.Reg, class, id, bits)
		a.CallGraph.AddEdge(mid, defaultCtor)
	}

	super, ok := a.Classes.ImmediateSuper(class)
	if !ok || super == classgraph.TopClassID {
		return
	}

	// §4.4 scenario S6: an anonymous class's synthetic default constructor
	// links to whichever of the parent's declared constructors best
	// matches the instance-creation's own argument list, not
	// unconditionally the parent's zero-arg/default constructor.
	if a.Classes.AnonymousFlag(class) {
		if matched, ok := a.matchAnonymousConstructor(ctx, super, decl); ok {
			a.CallGraph.AddEdge(defaultCtor, matched)
			return
		}
	}

	superDefault := a.Methods.EnsureDefaultConstructor(a.Reg, super)
	for _, mid := range a.Methods.DeclaredMethods(super) {
		b, ok := a.Methods.Bundle(mid)
		if !ok || !b.Bits.Has(methodid.Constructor) || b.Bits.Has(methodid.Bodyless) || len(b.Identity.Params) != 0 {
			continue
		}
		if methods.IsDefaultConstructor(b.Identity) || methods.IsStaticConstructor(b.Identity) {
			continue
		}
		superDefault = mid
		break
	}
	a.CallGraph.AddEdge(defaultCtor, superDefault)
}

// matchAnonymousConstructor best-matches decl's instance-creation
// argument list (AnonymousArgs) against super's declared, explicit
// constructors, per §4.4's anonymous-class constructor-chaining rule.
// It reports ok=false when super declares no explicit constructor that
// matches (or none at all), leaving the caller to fall back to super's
// zero-arg/synthetic default constructor.
func (a *AnalysisContext) matchAnonymousConstructor(ctx methodid.Context, super ids.ClassID, decl source.TypeDeclNode) (ids.MethodID, bool) {
	actuals := anonymousArgTypes(ctx, decl.AnonymousArgs())

	var candidateIDs []ids.MethodID
	var cands []overload.Candidate
	for _, mid := range a.Methods.DeclaredMethods(super) {
		b, ok := a.Methods.Bundle(mid)
		if !ok || !b.Bits.Has(methodid.Constructor) {
			continue
		}
		if methods.IsDefaultConstructor(b.Identity) || methods.IsStaticConstructor(b.Identity) {
			continue
		}
		candidateIDs = append(candidateIDs, mid)
		cands = append(cands, overload.MatchParams(b.Identity.Params, false, actuals, nil))
	}

	best := overload.Best(cands)
	if best == -1 {
		return "", false
	}
	return candidateIDs[best], true
}

// anonymousArgTypes resolves each of an anonymous instance-creation's
// argument nodes to its soft type, falling back to typeref.Dummy for any
// node the external type calculator can't resolve (§1/§7's recall rule:
// an unresolved argument type degrades the match, it never aborts it).
func anonymousArgTypes(ctx methodid.Context, nodes []source.Node) []typeref.Descriptor {
	out := make([]typeref.Descriptor, len(nodes))
	for i, n := range nodes {
		if t, ok := ctx.Types.SoftType(n); ok {
			out[i] = t
		} else {
			out[i] = typeref.Dummy
		}
	}
	return out
}

func (a *AnalysisContext) stage4(ctx context.Context, binder source.Binder, types source.TypeCalculator, cp *classpath.Registry, sites []classSite) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	lookup := invoke.Lookup{Classes: a.Classes, Methods: a.Methods}
	engine := &invoke.Engine{Classes: a.Classes, Methods: a.Methods, Reg: a.Reg}

	for _, s := range sites {
		s := s
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			// One site at a time: a panic while resolving a site is
			// reported and the method's remaining sites still run.
			for _, n := range s.Sites {
				one := s
				one.Sites = []source.Node{n}
				func() {
					defer func() {
						if r := recover(); r != nil {
							at := fmt.Sprintf("call site %s:%d", n.Range().File, n.Range().Offset)
							a.progress.Report(diag.Wrap(at, fmt.Errorf("%v", r)).Error())
						}
					}()
					a.resolveCallSites(binder, types, cp, lookup, engine, one)
				}()
			}
			return nil
		})
	}

	return g.Wait()
}

// resolveCallSites runs §4.4's full per-call-site pipeline: synthesize
// the call's identity, anchor it on class_c, run the servicing-method
// lookup (widening to the library super-types fallback when class_c
// itself is an unresolved library type), then broaden to every override
// that invocation-type propagation says may actually be dispatched.
//
// A call the external binder never resolves is never an error and never
// drops the site outright (§1/§7's maximum-recall requirement): the
// identity synthesized from whatever soft types are available, and the
// call's own containing class, are still enough to attempt a servicing
// match through the ordinary overload machinery.
func (a *AnalysisContext) resolveCallSites(binder source.Binder, types source.TypeCalculator, cp *classpath.Registry, lookup invoke.Lookup, engine *invoke.Engine, s classSite) {
	mctx := methodid.Context{
		Binder:                  binder,
		Types:                   types,
		ContainingMethodName:    s.ContainingMethodName,
		EnclosingClassSuperName: s.EnclosingClassSuperName,
	}

	for _, n := range s.Sites {
		csNode, ok := n.(source.CallSiteNode)
		if !ok {
			continue
		}
		identity, _ := methodid.HandleCallSite(mctx, n, csNode)

		declClass, hasReceiver := a.anchorClass(binder, cp, n, csNode, s.Class)

		var servicingMethods []ids.MethodID
		if m, ok := lookup.Resolve(declClass, identity, hasReceiver); ok {
			servicingMethods = append(servicingMethods, m)
		} else if classgraph.IsLibraryClass(declClass) {
			servicingMethods = a.resolveViaClasspath(lookup, declClass, identity, hasReceiver)
		}
		if len(servicingMethods) == 0 {
			continue
		}

		for i, servicing := range servicingMethods {
			candSet := engine.Propagate(servicing)
			sorted := candSet.Sorted(a.Methods)
			for _, cand := range sorted {
				if b, ok := a.Methods.Bundle(cand); ok && b.Bits.Has(methodid.Bodyless) {
					continue
				}
				a.CallGraph.AddEdge(s.Method, cand)
			}
			if i == 0 {
				a.CallGraph.RecordSite(callgraph.SiteKey{File: n.Range().File, Offset: n.Range().Offset}, callgraph.InvocationRecord{
					Servicing:  servicing,
					Candidates: sorted,
				})
			}
		}

		a.recordQualifiedNameEdge(types, n, s.Method)
	}
}

// anchorClass derives class_c for the servicing-method lookup (§4.4): the
// receiver expression's own resolved type when the call is qualified,
// falling back to the already-resolved method binding's declaring class
// when the receiver itself doesn't resolve, and finally to the call's
// own containing class when neither does — a call the binder can't
// resolve degrades the search instead of aborting it.
func (a *AnalysisContext) anchorClass(binder source.Binder, cp *classpath.Registry, n source.Node, csNode source.CallSiteNode, containing ids.ClassID) (ids.ClassID, bool) {
	receiver, hasReceiver := csNode.Receiver()
	if !hasReceiver {
		return containing, false
	}
	if tb, ok := binder.ResolveType(receiver); ok {
		return classgraph.ClassIDForBinding(a.Reg, cp, tb), true
	}
	if mb, ok := binder.ResolveMethod(n); ok {
		return classgraph.ClassIDForBinding(a.Reg, cp, mb.DeclaringClass()), true
	}
	return containing, true
}

// resolveViaClasspath implements §4.4's "library super-types" fallback
// (scenario S5): class is a library type the ordinary servicing-method
// lookup found nothing on, so the search widens to every one of its
// known source subclasses (Stage 2's ReachableSubs, populated for
// library classes precisely so this query works, resolved through cp's
// versioned registry back in Stage 1). Each subclass is independently
// best-matched; every match is returned so the caller can emit an edge
// to all of them, with the first treated as the call site's recorded
// servicing method.
func (a *AnalysisContext) resolveViaClasspath(lookup invoke.Lookup, class ids.ClassID, want methodid.Identity, hasReceiver bool) []ids.MethodID {
	var out []ids.MethodID
	for _, sub := range a.Classes.ReachableSubs(class) {
		if m, ok := lookup.Resolve(sub, want, hasReceiver); ok {
			out = append(out, m)
		}
	}
	return out
}

// recordQualifiedNameEdge populates the auxiliary qname export graph
// (§4.5) whenever the callee's qualified name is resolvable. The caller
// side uses its registry signature rather than a true qualified name:
// no source.Node survives past Stage 3 registration for the caller
// method itself, only its ids.MethodID, and this graph is export-only —
// it never feeds back into resolution.
func (a *AnalysisContext) recordQualifiedNameEdge(types source.TypeCalculator, n source.Node, caller ids.MethodID) {
	calleeQName, ok := types.QualifiedNameOf(n, n.Range().File, true)
	if !ok {
		return
	}
	callerQName, ok := a.Methods.Bundle(caller)
	if !ok {
		return
	}
	a.CallGraph.AddQualifiedNameEdge(callerQName.Signature, calleeQName)
}
