// Package classgraph builds the class hierarchy of §4.2: immediate-super
// and directly-implemented-interface edges in Stage 1, then the transitive
// closure (reachable supers/subs) and excluded-file propagation in
// Stage 2.
package classgraph

import (
	"strings"
	"sync"

	"github.com/gocha/chatool/internal/ids"
)

// TopClassID is the class id of the universal top type (e.g.
// java.lang.Object). Per §9 it is recorded as an immediate super of its
// direct subclasses but never accumulates reachable subclasses itself —
// that inconsistency in the source system is preserved intentionally.
const TopClassID ids.ClassID = "LIB:<top>"

type record struct {
	mu sync.Mutex

	id        ids.ClassID
	file      string
	nested    bool
	static    bool
	anonymous bool

	hasSuper       bool
	immediateSuper ids.ClassID
	interfaces     map[ids.ClassID]struct{}

	reachableSupers     map[ids.ClassID]struct{}
	reachableInterfaces map[ids.ClassID]struct{}
	reachableSubs       map[ids.ClassID]struct{}

	innerOf            map[ids.ClassID]struct{}
	hasEnclosingClass  bool
	enclosingClass     ids.ClassID
	hasEnclosingMethod bool
	enclosingMethod    ids.MethodID

	excluded bool
}

func newRecord(id ids.ClassID) *record {
	return &record{
		id:                   id,
		interfaces:           make(map[ids.ClassID]struct{}),
		reachableSupers:      make(map[ids.ClassID]struct{}),
		reachableInterfaces:  make(map[ids.ClassID]struct{}),
		reachableSubs:        make(map[ids.ClassID]struct{}),
		innerOf:              make(map[ids.ClassID]struct{}),
	}
}

// Graph holds the class hierarchy relationships of §3. It is owned by a
// single AnalysisContext (package cha) for the lifetime of one build.
type Graph struct {
	mu      sync.Mutex
	classes map[ids.ClassID]*record
	reg     *ids.Registry
}

// NewGraph returns an empty Graph. reg receives FlagExcluded updates as
// Close propagates exclusion down the hierarchy, keeping the registry's
// flag view consistent with the graph's own bookkeeping; it may be nil in
// tests that only exercise the graph shape.
func NewGraph(reg *ids.Registry) *Graph {
	return &Graph{classes: make(map[ids.ClassID]*record), reg: reg}
}

func (g *Graph) getOrCreate(id ids.ClassID) *record {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.classes[id]
	if !ok {
		rec = newRecord(id)
		g.classes[id] = rec
	}
	return rec
}

func (g *Graph) get(id ids.ClassID) *record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.classes[id]
}

// RegisterClass records the nested/static/anonymous flags and file of
// record for a class first seen in Stage 1. Safe to call concurrently for
// distinct ids (Stage 1 dispatches one task per file).
func (g *Graph) RegisterClass(id ids.ClassID, file string, nested, static, anonymous bool) {
	rec := g.getOrCreate(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.file = file
	rec.nested = nested
	rec.static = static
	rec.anonymous = anonymous
}

// SetImmediateSuper records c's immediate super. At most one per class
// (§3); a second call for the same class overwrites, which should not
// happen in practice but is tolerated.
//
// super is also given its own record here, even when it is a library
// type with no Stage 1 declaration of its own: Close's reachable-subs
// derivation pass only ever populates a record it can look up by id, so
// a library super that never gets one would silently never accumulate
// any reachable subclasses, breaking §4.4's "known source subclasses of
// a library type" fallback.
func (g *Graph) SetImmediateSuper(c, super ids.ClassID) {
	rec := g.getOrCreate(c)
	g.getOrCreate(super)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.hasSuper = true
	rec.immediateSuper = super
}

// AddInterface records that c directly implements iface. See
// SetImmediateSuper for why iface is also given its own record.
func (g *Graph) AddInterface(c, iface ids.ClassID) {
	rec := g.getOrCreate(c)
	g.getOrCreate(iface)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.interfaces[iface] = struct{}{}
}

// IsLibraryClass reports whether id is a library (non-source) type, per
// §6's "LIB:" encoding convention.
func IsLibraryClass(id ids.ClassID) bool {
	return strings.HasPrefix(string(id), "LIB:")
}

// MarkExcludedFile marks c's own file as excluded (test/example/
// auto-generated detection in Stage 1, §4.2). Downward propagation to
// subclasses in other files happens in Stage 2 (Close).
func (g *Graph) MarkExcludedFile(c ids.ClassID) {
	rec := g.getOrCreate(c)
	rec.mu.Lock()
	rec.excluded = true
	rec.mu.Unlock()
}

// IsExcluded reports whether c's file has been marked excluded, either
// directly (Stage 1) or through ancestor propagation (Stage 2).
func (g *Graph) IsExcluded(c ids.ClassID) bool {
	rec := g.get(c)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.excluded
}

// ImmediateSuper returns c's immediate super, if any.
func (g *Graph) ImmediateSuper(c ids.ClassID) (ids.ClassID, bool) {
	rec := g.get(c)
	if rec == nil {
		return "", false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.immediateSuper, rec.hasSuper
}

// DirectInterfaces returns the interfaces c directly implements.
func (g *Graph) DirectInterfaces(c ids.ClassID) []ids.ClassID {
	rec := g.get(c)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]ids.ClassID, 0, len(rec.interfaces))
	for i := range rec.interfaces {
		out = append(out, i)
	}
	return out
}

// ReachableSupers returns the transitive classes and interfaces reachable
// as supers of c, populated by Close.
func (g *Graph) ReachableSupers(c ids.ClassID) (classes, interfaces []ids.ClassID) {
	rec := g.get(c)
	if rec == nil {
		return nil, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for s := range rec.reachableSupers {
		classes = append(classes, s)
	}
	for i := range rec.reachableInterfaces {
		interfaces = append(interfaces, i)
	}
	return classes, interfaces
}

// ReachableSubs returns the transitive subclasses/implementors of c.
// TopClassID always returns nil, per the invariant in §3/§9.
func (g *Graph) ReachableSubs(c ids.ClassID) []ids.ClassID {
	if c == TopClassID {
		return nil
	}
	rec := g.get(c)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]ids.ClassID, 0, len(rec.reachableSubs))
	for s := range rec.reachableSubs {
		out = append(out, s)
	}
	return out
}

// SetInnerOf records that c is a member of outer's nested-class namespace.
func (g *Graph) SetInnerOf(c, outer ids.ClassID) {
	rec := g.getOrCreate(c)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.innerOf[outer] = struct{}{}
}

// InnerOf returns the classes c is recorded as nested within.
func (g *Graph) InnerOf(c ids.ClassID) []ids.ClassID {
	rec := g.get(c)
	if rec == nil {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]ids.ClassID, 0, len(rec.innerOf))
	for o := range rec.innerOf {
		out = append(out, o)
	}
	return out
}

// SetEnclosing records c's enclosing class and, for method-local classes,
// its enclosing method (§3: the enclosing-method entry exists iff the
// class is method-local, in which case enclosingClass also exists).
func (g *Graph) SetEnclosing(c, enclosingClass ids.ClassID, enclosingMethod ids.MethodID, isMethodLocal bool) {
	rec := g.getOrCreate(c)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.hasEnclosingClass = true
	rec.enclosingClass = enclosingClass
	if isMethodLocal {
		rec.hasEnclosingMethod = true
		rec.enclosingMethod = enclosingMethod
	}
}

// EnclosingClass returns c's syntactically enclosing class, if any.
func (g *Graph) EnclosingClass(c ids.ClassID) (ids.ClassID, bool) {
	rec := g.get(c)
	if rec == nil {
		return "", false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.enclosingClass, rec.hasEnclosingClass
}

// EnclosingMethod returns c's enclosing method, if c is method-local.
func (g *Graph) EnclosingMethod(c ids.ClassID) (ids.MethodID, bool) {
	rec := g.get(c)
	if rec == nil {
		return "", false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.enclosingMethod, rec.hasEnclosingMethod
}

// StaticFlag/NestedFlag/AnonymousFlag/File expose the Stage-1-recorded
// attributes.
func (g *Graph) StaticFlag(c ids.ClassID) bool {
	rec := g.get(c)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.static
}

func (g *Graph) NestedFlag(c ids.ClassID) bool {
	rec := g.get(c)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.nested
}

func (g *Graph) AnonymousFlag(c ids.ClassID) bool {
	rec := g.get(c)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.anonymous
}

func (g *Graph) File(c ids.ClassID) string {
	rec := g.get(c)
	if rec == nil {
		return ""
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.file
}

// AllClasses returns every class id registered so far. Used by Stage 2
// (Close) and by tests.
func (g *Graph) AllClasses() []ids.ClassID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ids.ClassID, 0, len(g.classes))
	for id := range g.classes {
		out = append(out, id)
	}
	return out
}

// Close is Stage 2 (§4.2): single-threaded closure over immediate-super/
// interface edges, with excluded-file propagation. It must run after every
// Stage 1 task has completed and before Stage 3 begins.
//
// The recursion walks from each class upward to its ultimate ancestors,
// memoizing results in a visited set that also bounds tolerated cycles;
// exclusion is computed on the way back down, matching the order-dependent
// behavior called out as intentional in §9. Reachable-subs — the inverse
// relation — is then derived in a second, order-independent pass, which
// observably matches "symmetrically grow reachable_subs" during the same
// recursion without depending on visit order to do so.
func (g *Graph) Close() {
	visited := make(map[ids.ClassID]bool) // id -> "this class's file is (or inherits) excluded"
	var visiting map[ids.ClassID]bool = make(map[ids.ClassID]bool)

	var visit func(c ids.ClassID) bool
	visit = func(c ids.ClassID) bool {
		if excl, ok := visited[c]; ok {
			return excl
		}
		if visiting[c] {
			// Cycle: tolerate it, treat as not (yet) excluded.
			return false
		}
		visiting[c] = true
		defer delete(visiting, c)

		rec := g.get(c)
		if rec == nil {
			visited[c] = false
			return false
		}

		ancestorExcluded := false

		rec.mu.Lock()
		hasSuper, super := rec.hasSuper, rec.immediateSuper
		var directIfaces []ids.ClassID
		for i := range rec.interfaces {
			directIfaces = append(directIfaces, i)
		}
		ownExcluded := rec.excluded
		rec.mu.Unlock()

		if hasSuper {
			if visit(super) {
				ancestorExcluded = true
			}
			if superRec := g.get(super); superRec != nil {
				superRec.mu.Lock()
				superClasses := cloneSet(superRec.reachableSupers)
				superIfaces := cloneSet(superRec.reachableInterfaces)
				superRec.mu.Unlock()

				rec.mu.Lock()
				rec.reachableSupers[super] = struct{}{}
				for s := range superClasses {
					rec.reachableSupers[s] = struct{}{}
				}
				for i := range superIfaces {
					rec.reachableInterfaces[i] = struct{}{}
				}
				rec.mu.Unlock()
			} else {
				// Super has no record of its own (SetImmediateSuper
				// creates one for every super it is given, so this only
				// happens for a record lost some other way): still record
				// it as a reachable super.
				rec.mu.Lock()
				rec.reachableSupers[super] = struct{}{}
				rec.mu.Unlock()
			}
		}

		for _, iface := range directIfaces {
			if visit(iface) {
				ancestorExcluded = true
			}
			if ifaceRec := g.get(iface); ifaceRec != nil {
				ifaceRec.mu.Lock()
				ifaceSupers := cloneSet(ifaceRec.reachableSupers)
				ifaceIfaces := cloneSet(ifaceRec.reachableInterfaces)
				ifaceRec.mu.Unlock()

				rec.mu.Lock()
				rec.reachableInterfaces[iface] = struct{}{}
				for s := range ifaceSupers {
					rec.reachableSupers[s] = struct{}{}
				}
				for i := range ifaceIfaces {
					rec.reachableInterfaces[i] = struct{}{}
				}
				rec.mu.Unlock()
			} else {
				rec.mu.Lock()
				rec.reachableInterfaces[iface] = struct{}{}
				rec.mu.Unlock()
			}
		}

		excluded := ownExcluded || ancestorExcluded
		if excluded {
			rec.mu.Lock()
			rec.excluded = true
			rec.mu.Unlock()
			if g.reg != nil {
				g.reg.SetClassFlags(c, ids.FlagExcluded)
			}
		}
		visited[c] = excluded
		return excluded
	}

	for _, c := range g.AllClasses() {
		visit(c)
	}

	// Derive reachable_subs as the inverse of reachable_supers/interfaces,
	// skipping TopClassID per the preserved invariant.
	for _, c := range g.AllClasses() {
		rec := g.get(c)
		rec.mu.Lock()
		supers := cloneSet(rec.reachableSupers)
		ifaces := cloneSet(rec.reachableInterfaces)
		rec.mu.Unlock()

		for s := range supers {
			if s == TopClassID {
				continue
			}
			if supRec := g.get(s); supRec != nil {
				supRec.mu.Lock()
				supRec.reachableSubs[c] = struct{}{}
				supRec.mu.Unlock()
			}
		}
		for i := range ifaces {
			if i == TopClassID {
				continue
			}
			if ifaceRec := g.get(i); ifaceRec != nil {
				ifaceRec.mu.Lock()
				ifaceRec.reachableSubs[c] = struct{}{}
				ifaceRec.mu.Unlock()
			}
		}
	}
}

func cloneSet(m map[ids.ClassID]struct{}) map[ids.ClassID]struct{} {
	out := make(map[ids.ClassID]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
