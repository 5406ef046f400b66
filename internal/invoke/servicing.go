package invoke

import (
	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/methods"
	"github.com/gocha/chatool/internal/overload"
)

// Lookup resolves the servicing method for a call site per §4.4's
// servicing-method lookup order: search the receiver's own class first,
// then its whole superclass chain, then its whole interface closure
// (nearest first), and only when the call has no receiver expression (an
// unqualified call that may resolve through an enclosing instance) widen
// the search to the enclosing class chain and its supers.
type Lookup struct {
	Classes *classgraph.Graph
	Methods *methods.Registry
}

// Resolve finds the best-matching declared method on class (or its
// ancestors, per the search order above) for the given call identity.
// hasReceiver distinguishes a qualified call (x.m()) — which never
// widens to the enclosing chain — from an unqualified one.
func (l Lookup) Resolve(class ids.ClassID, want methodid.Identity, hasReceiver bool) (ids.MethodID, bool) {
	if m, ok := l.searchClassAndSupers(class, want); ok {
		return m, true
	}
	if hasReceiver {
		return "", false
	}

	// Widen to the enclosing class chain: an unqualified call inside a
	// nested/inner/method-local class may resolve against the
	// surrounding class's own method set.
	enclosing, ok := l.Classes.EnclosingClass(class)
	for ok {
		if m, ok := l.searchClassAndSupers(enclosing, want); ok {
			return m, true
		}
		enclosing, ok = l.Classes.EnclosingClass(enclosing)
	}
	return "", false
}

// searchClassAndSupers looks for a matching method declared directly on
// class, then walks the full transitive closure per §4.4 step 2: every
// class up the superclass chain first (an instance method declared
// anywhere up that chain always takes precedence over an interface
// default method), then every interface reachable from class or any of
// those superclasses, nearest first (a default method found closer to
// class supersedes one found farther away). Subclass polymorphism itself
// is handled separately by Engine.Propagate once a servicing method is
// found here.
func (l Lookup) searchClassAndSupers(class ids.ClassID, want methodid.Identity) (ids.MethodID, bool) {
	if m, ok := l.bestOn(class, want); ok {
		return m, true
	}

	supers, interfaces := l.ancestorChain(class)

	for _, super := range supers {
		if m, ok := l.bestOn(super, want); ok {
			return m, true
		}
	}
	for _, ifc := range interfaces {
		if m, ok := l.bestOn(ifc, want); ok {
			return m, true
		}
	}
	return "", false
}

// ancestorChain returns class's superclass chain and its full interface
// closure, each ordered nearest first. The membership bound for both
// comes from Stage 2's precomputed Graph.ReachableSupers (so that output
// is actually consumed, not just produced and left for a test to pin
// down); the ordering itself comes from a fresh breadth-first walk over
// ImmediateSuper/DirectInterfaces, since ReachableSupers returns its two
// sets unordered and §4.4 step 2's precedence rule depends on distance.
func (l Lookup) ancestorChain(class ids.ClassID) (supers, interfaces []ids.ClassID) {
	reachableSupers, reachableIfaces := l.Classes.ReachableSupers(class)
	inSupers := make(map[ids.ClassID]bool, len(reachableSupers))
	for _, c := range reachableSupers {
		inSupers[c] = true
	}
	inIfaces := make(map[ids.ClassID]bool, len(reachableIfaces))
	for _, c := range reachableIfaces {
		inIfaces[c] = true
	}

	seen := map[ids.ClassID]bool{}
	for c, ok := l.Classes.ImmediateSuper(class); ok && inSupers[c] && !seen[c]; c, ok = l.Classes.ImmediateSuper(c) {
		seen[c] = true
		supers = append(supers, c)
	}

	ifaceSeen := map[ids.ClassID]bool{}
	frontier := l.Classes.DirectInterfaces(class)
	for _, super := range supers {
		frontier = append(frontier, l.Classes.DirectInterfaces(super)...)
	}
	for len(frontier) > 0 {
		var next []ids.ClassID
		for _, ifc := range frontier {
			if ifaceSeen[ifc] || !inIfaces[ifc] {
				continue
			}
			ifaceSeen[ifc] = true
			interfaces = append(interfaces, ifc)
			next = append(next, l.Classes.DirectInterfaces(ifc)...)
		}
		frontier = next
	}
	return supers, interfaces
}

// bestOn matches want's parameter list against every method named
// want.Name declared directly on class, returning the best candidate per
// §4.4's ranking.
func (l Lookup) bestOn(class ids.ClassID, want methodid.Identity) (ids.MethodID, bool) {
	declared := l.Methods.DeclaredMethods(class)
	var matched []ids.MethodID
	var cands []overload.Candidate
	for _, mid := range declared {
		b, ok := l.Methods.Bundle(mid)
		if !ok || b.Identity.Name != want.Name {
			continue
		}
		c := overload.MatchParams(b.Identity.Params, false, want.Params, nil)
		matched = append(matched, mid)
		cands = append(cands, c)
	}
	best := overload.Best(cands)
	if best == -1 {
		return "", false
	}
	return matched[best], true
}
