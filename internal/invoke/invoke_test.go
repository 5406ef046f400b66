package invoke

import (
	"testing"

	"github.com/gocha/chatool/internal/classgraph"
	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/methodid"
	"github.com/gocha/chatool/internal/methods"
)

// buildHierarchy sets up B (declares foo), C extends B (overrides foo),
// D extends C (no override), E extends B (no override) — the three-level
// shape of scenario S1 in §8, used to pin down the contender/purge
// stopping rule of §9.
func buildHierarchy(t *testing.T) (*classgraph.Graph, *methods.Registry, *ids.Registry, ids.MethodID, ids.MethodID) {
	t.Helper()
	reg := ids.NewRegistry()
	g := classgraph.NewGraph(reg)
	b, c, d, e := ids.ClassID("B"), ids.ClassID("C"), ids.ClassID("D"), ids.ClassID("E")
	g.RegisterClass(b, "b.go", false, false, false)
	g.RegisterClass(c, "c.go", false, false, false)
	g.RegisterClass(d, "d.go", false, false, false)
	g.RegisterClass(e, "e.go", false, false, false)
	g.SetImmediateSuper(c, b)
	g.SetImmediateSuper(d, c)
	g.SetImmediateSuper(e, b)
	g.Close()

	methReg := methods.NewRegistry()
	identity := methodid.Identity{Name: "foo"}
	m0 := methReg.Register(reg, b, identity, methodid.Virtual)
	mc := methReg.Register(reg, c, identity, methodid.Virtual)

	return g, methReg, reg, m0, mc
}

func TestPropagateOverrideReachesDirectSubAndContenderSiblings(t *testing.T) {
	g, methReg, reg, m0, mc := buildHierarchy(t)
	e := &Engine{Classes: g, Methods: methReg, Reg: reg}

	cs := e.Propagate(m0)
	if _, ok := cs.Candidates[m0]; !ok {
		t.Fatalf("expected m0 itself to always be a candidate")
	}
	if _, ok := cs.Candidates[mc]; !ok {
		t.Fatalf("expected C's override to be a candidate of B's call site, got %v", cs.Candidates)
	}
	if len(cs.Candidates) != 2 {
		t.Fatalf("expected exactly 2 candidates (m0, mc), got %d: %v", len(cs.Candidates), cs.Candidates)
	}
}

func TestPropagateSetsPossiblyPolymorphicOnCandidates(t *testing.T) {
	g, methReg, reg, m0, mc := buildHierarchy(t)
	e := &Engine{Classes: g, Methods: methReg, Reg: reg}
	e.Propagate(m0)

	b0, _ := methReg.Bundle(m0)
	bc, _ := methReg.Bundle(mc)
	if !b0.Bits.Has(methodid.PossiblyPolymorphic) {
		t.Fatalf("expected m0 to be flagged POSSIBLY_POLYMORPHIC once an override exists")
	}
	if !bc.Bits.Has(methodid.PossiblyPolymorphic) {
		t.Fatalf("expected mc to be flagged POSSIBLY_POLYMORPHIC once it is a candidate")
	}
}

func TestPropagateStaticMethodSkipsOverrideSearch(t *testing.T) {
	g, methReg, reg, _, _ := buildHierarchy(t)
	identity := methodid.Identity{Name: "util"}
	sm := methReg.Register(reg, ids.ClassID("B"), identity, methodid.Static)
	e := &Engine{Classes: g, Methods: methReg, Reg: reg}

	cs := e.Propagate(sm)
	if len(cs.Candidates) != 1 {
		t.Fatalf("expected exactly one candidate for a static method call, got %v", cs.Candidates)
	}
	if _, ok := cs.Candidates[sm]; !ok {
		t.Fatalf("expected the static method itself to be the sole candidate")
	}
}

func TestSortedIsDeterministic(t *testing.T) {
	g, methReg, reg, m0, _ := buildHierarchy(t)
	e := &Engine{Classes: g, Methods: methReg, Reg: reg}
	cs := e.Propagate(m0)
	s1 := cs.Sorted(methReg)
	s2 := cs.Sorted(methReg)
	if len(s1) != len(s2) {
		t.Fatalf("expected stable length")
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("expected deterministic order across calls")
		}
	}
}
