// Package invoke implements Stage 4's invocation-type propagation (§4.4):
// given a call site's servicing method, it discovers every override
// reachable through the subclass lattice that may actually be dispatched
// to at runtime, so the call graph can emit an edge to each.
package invoke

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/methods"
)

// CandidateSet is the result of propagating one servicing method: the
// resolved method index (m0, per §4.4) plus every override index that
// may service the same call site polymorphically.
type CandidateSet struct {
	Servicing  ids.MethodID
	Candidates map[ids.MethodID]struct{}
}

// Sorted returns the candidate set as a deterministically ordered slice,
// keyed by each method's registry signature under a locale-aware
// collator (§5's determinism requirement — two runs over the same input
// must produce byte-identical output).
func (cs CandidateSet) Sorted(methReg *methods.Registry) []ids.MethodID {
	out := make([]ids.MethodID, 0, len(cs.Candidates))
	for m := range cs.Candidates {
		out = append(out, m)
	}
	col := collate.New(language.Und)
	sort.Slice(out, func(i, j int) bool {
		bi, _ := methReg.Bundle(out[i])
		bj, _ := methReg.Bundle(out[j])
		si, sj := "", ""
		if bi != nil {
			si = bi.Signature
		}
		if bj != nil {
			sj = bj.Signature
		}
		return col.CompareString(si, sj) < 0
	})
	return out
}

// Engine holds the registries a build's Stage 4 propagation reads from.
// Owned by a single AnalysisContext.
type Engine struct {
	Classes *classgraph.Graph
	Methods *methods.Registry
	Reg     *ids.Registry
}

// ancestorsBFS returns c's ancestors (immediate super, then direct
// interfaces, breadth-first) restricted to subs, nearest first. BFS order
// gives the propagation walk a deterministic "closest ancestor wins" rule
// for the purge-stopping behavior of §4.4/§9.
func ancestorsBFS(g *classgraph.Graph, start ids.ClassID, subs map[ids.ClassID]bool) []ids.ClassID {
	visited := map[ids.ClassID]bool{start: true}
	queue := []ids.ClassID{start}
	var order []ids.ClassID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var next []ids.ClassID
		if sup, ok := g.ImmediateSuper(cur); ok && subs[sup] && !visited[sup] {
			next = append(next, sup)
		}
		for _, ifc := range g.DirectInterfaces(cur) {
			if subs[ifc] && !visited[ifc] {
				next = append(next, ifc)
			}
		}
		for _, n := range next {
			visited[n] = true
			order = append(order, n)
			queue = append(queue, n)
		}
	}
	return order
}

// Propagate runs §4.4's invocation-type propagation for a call site whose
// servicing method is m0. Static methods short-circuit to the single
// candidate {m0}, per point 4 of §4.4.
func (e *Engine) Propagate(m0 ids.MethodID) CandidateSet {
	result := CandidateSet{Servicing: m0, Candidates: map[ids.MethodID]struct{}{m0: {}}}

	bundle0, ok := e.Methods.Bundle(m0)
	if !ok {
		return result
	}
	if bundle0.Bits.Has(methodid.Static) {
		return result
	}

	c0, ok := e.Methods.ClassOf(m0)
	if !ok {
		return result
	}

	subs := map[ids.ClassID]bool{c0: true}
	for _, s := range e.Classes.ReachableSubs(c0) {
		subs[s] = true
	}

	// Step 2: find every class in subs with an exact override of m0's
	// identity (c0 always trivially qualifies via m0 itself).
	overriders := map[ids.ClassID]ids.MethodID{c0: m0}
	for c := range subs {
		if c == c0 {
			continue
		}
		for _, mid := range e.Methods.DeclaredMethods(c) {
			b, ok := e.Methods.Bundle(mid)
			if !ok {
				continue
			}
			if b.Identity.ExactOverride(bundle0.Identity) {
				overriders[c] = mid
				break
			}
		}
	}

	// Step 2 continued: walk each overrider upward, recording its
	// coverage at every ancestor, purging (stopping) at the first
	// ancestor that is itself an overrider — that ancestor already
	// finalized its own shadow set (§9's preserved stopping rule).
	subscribers := map[ids.ClassID]map[ids.ClassID]bool{}
	for c := range overriders {
		if c == c0 {
			continue
		}
		for _, anc := range ancestorsBFS(e.Classes, c, subs) {
			if subscribers[anc] == nil {
				subscribers[anc] = map[ids.ClassID]bool{}
			}
			subscribers[anc][c] = true
			if _, isOverrider := overriders[anc]; isOverrider {
				break
			}
		}
	}

	// Step 3: contenders (no own override) propagate "reaches m0 (or
	// whichever override absorbs them)" upward until the first
	// overriding ancestor, which absorbs them.
	for c := range subs {
		if _, ok := overriders[c]; ok {
			continue
		}
		for _, anc := range ancestorsBFS(e.Classes, c, subs) {
			if subscribers[anc] == nil {
				subscribers[anc] = map[ids.ClassID]bool{}
			}
			subscribers[anc][c] = true
			if _, isOverrider := overriders[anc]; isOverrider {
				break
			}
		}
	}

	for subC := range subscribers[c0] {
		if mc, ok := overriders[subC]; ok {
			result.Candidates[mc] = struct{}{}
		}
	}

	recordBookkeeping(e, bundle0, overriders, subscribers, c0)

	if len(result.Candidates) > 1 {
		for m := range result.Candidates {
			if b, ok := e.Methods.Bundle(m); ok {
				b.Bits |= methodid.PossiblyPolymorphic
			}
		}
	}

	return result
}

// recordBookkeeping populates each overriding method's InvocationCallers
// (which classes, by dense index, route through it) and the servicing
// method's SubclassInvocationIdxs (which of its own overrides exist).
// Package callgraph's InvocationCandidates query does not read these
// fields; it answers from the records cha.resolveCallSites stores.
func recordBookkeeping(e *Engine, bundle0 *methodid.Bundle, overriders map[ids.ClassID]ids.MethodID, subscribers map[ids.ClassID]map[ids.ClassID]bool, c0 ids.ClassID) {
	for anc, subs := range subscribers {
		mid, ok := overriders[anc]
		if !ok {
			continue
		}
		b, ok := e.Methods.Bundle(mid)
		if !ok {
			continue
		}
		for subC := range subs {
			if idx := e.Reg.IndexFromClass(subC); idx != ids.InvalidIndex {
				b.InvocationCallers = append(b.InvocationCallers, idx)
			}
		}
	}
	for c, mid := range overriders {
		if c == c0 {
			continue
		}
		if idx := e.Reg.IndexFromMethod(mid); idx != ids.InvalidIndex {
			bundle0.SubclassInvocationIdxs = append(bundle0.SubclassInvocationIdxs, idx)
		}
	}
}
