// Package overload implements the §4.4 signature matcher: a tri-state
// per-position comparison, the mismatch-kind lattice used to rank partial
// matches, and varargs-aware parameter-list matching.
package overload

import (
	"strings"

	"github.com/gocha/chatool/internal/typeref"
)

// Result is the tri-state outcome of matching one position or one whole
// candidate.
type Result int

const (
	Exact Result = iota
	Maybe
	No
)

func (r Result) String() string {
	switch r {
	case Exact:
		return "Exact"
	case Maybe:
		return "Maybe"
	default:
		return "No"
	}
}

// Kind is the mismatch-kind lattice of §4.4. Lower values are "less bad";
// Kind is only meaningful when the owning Result is Maybe.
type Kind int

const (
	KindNone Kind = iota // paired with Result == Exact
	NumericAutoconvert
	SuperInFormal
	LibraryTypeFormal
	LibraryTypeBoth
	NullTypeFormal
	NullTypeActual
	NullTypeBoth
)

// Position is the outcome of matching one (formal, actual) pair.
type Position struct {
	Result Result
	Kind   Kind
	// FormalRank is populated only for SuperInFormal positions: the
	// number of hierarchy steps from actual up to formal, used to break
	// ties between two SuperInFormal candidates by preferring the
	// closer formal (§4.4: "prefer the one whose formal is a subtype of
	// the other formal").
	FormalRank int
}

// MaxRank is the FormalRank meaning "no bound known" (e.g. the universal
// top, which every subtype check has the coarsest bound for). Otherwise a
// FormalRank counts, for the "actual is a sub of formal" and "formal is
// the universal top" cases, how many hierarchy steps separate actual from
// formal — 0 if formal IS actual's declared type (exact, handled
// elsewhere), 1 if formal is actual's immediate declared supertype
// context, and so on.
// The overload package has no class graph of its own, so callers supply
// this via the isSub/rank callback; it is not computed here.
const MaxRank = int(^uint(0) >> 1)

// arrayElement reports the element type name if name looks like an array
// type (a trailing "[]"), per §4.4's "stripping [] noise" rule. typeref
// has no dedicated array representation, so this works off the
// Descriptor's rendered Name — the convention the embedder's
// TypeCalculator is expected to follow for array types.
func arrayElement(name string) (string, bool) {
	if strings.HasSuffix(name, "[]") {
		return strings.TrimSuffix(name, "[]"), true
	}
	return "", false
}

// MatchPosition implements the per-position rules of §4.4, in the order
// the spec lists them. isSub reports whether actual's declared class is
// a (possibly transitive, possibly interface) sub of formal; rank, when
// isSub is true, is the hierarchy distance used for SuperInFormal
// tie-breaking (smaller is closer). isSub may be nil when no class-graph
// context is available (e.g. matching a synthetic identity), in which
// case that rule is simply skipped.
func MatchPosition(formal, actual typeref.Descriptor, isSub func(actual, formal typeref.Descriptor) (ok bool, rank int)) Position {
	if formal == nil && actual == nil {
		return Position{Result: Maybe, Kind: NullTypeBoth}
	}
	if formal == nil {
		return Position{Result: Maybe, Kind: NullTypeFormal}
	}
	if actual == nil {
		return Position{Result: Maybe, Kind: NullTypeActual}
	}

	if formal.Equals(actual) {
		return Position{Result: Exact}
	}
	if formal.Erasure().Equals(actual.Erasure()) {
		return Position{Result: Exact}
	}

	if typeref.IsNumericScalar(formal) && typeref.IsNumericScalar(actual) {
		if typeref.Widens(actual, formal) {
			return Position{Result: Maybe, Kind: NumericAutoconvert}
		}
	}

	if fe, fok := arrayElement(formal.Name()); fok {
		if ae, aok := arrayElement(actual.Name()); aok && fe == ae {
			return Position{Result: Exact}
		}
	}

	if typeref.IsNull(actual) || typeref.IsDummy(actual) {
		return Position{Result: Exact}
	}

	if typeref.IsTop(formal) {
		return Position{Result: Maybe, Kind: SuperInFormal, FormalRank: MaxRank}
	}
	if typeref.IsTop(actual) {
		return Position{Result: No}
	}

	if isSub != nil {
		if ok, rank := isSub(actual, formal); ok {
			return Position{Result: Maybe, Kind: SuperInFormal, FormalRank: rank}
		}
	}

	if formal.IsLibrary() && !actual.IsLibrary() {
		return Position{Result: Maybe, Kind: LibraryTypeFormal}
	}
	if formal.IsLibrary() && actual.IsLibrary() {
		return Position{Result: Maybe, Kind: LibraryTypeBoth}
	}
	if actual.IsLibrary() && !formal.IsLibrary() {
		return Position{Result: No}
	}

	return Position{Result: No}
}

// Candidate is the overall outcome of matching one method's full
// parameter list against one call site's argument list.
type Candidate struct {
	Positions []Position
	Overall   Result
	// WorstKind is the lattice-worst Kind among non-exact positions,
	// used to rank Maybe candidates against each other.
	WorstKind Kind
	// Mismatches is the count of non-exact positions.
	Mismatches int
	// WorstRank carries the FormalRank of the position that set
	// WorstKind, for the SuperInFormal tie-break.
	WorstRank int
}

// MatchParams matches a full (possibly variadic) formal parameter list
// against a call site's argument list, per §4.4's varargs rule: if the
// last formal is a variadic array, the common prefix is matched
// positionally, then either a single array actual is matched against the
// whole variadic formal, or every trailing actual is matched against the
// formal's element type.
func MatchParams(formals []typeref.Descriptor, variadic bool, actuals []typeref.Descriptor, isSub func(actual, formal typeref.Descriptor) (bool, int)) Candidate {
	if !variadic || len(formals) == 0 {
		return matchFixed(formals, actuals, isSub)
	}
	if len(actuals) < len(formals)-1 {
		return Candidate{Overall: No}
	}

	fixedFormals := formals[:len(formals)-1]
	fixedActuals := actuals[:len(formals)-1]
	c := matchFixed(fixedFormals, fixedActuals, isSub)
	if c.Overall == No {
		return c
	}

	variadicFormal := formals[len(formals)-1]
	tail := actuals[len(formals)-1:]

	var tailPos Position
	if len(tail) == 1 && tail[0] != nil && variadicFormal != nil && tail[0].Name() == variadicFormal.Name() {
		// A single actual passed as the array itself.
		tailPos = Position{Result: Exact}
	} else if elem, ok := arrayElement(variadicFormalName(variadicFormal)); ok {
		// typeref.Descriptor has no dedicated element-type accessor, so
		// the element formal is compared by rendered name rather than
		// through MatchPosition's full rule set; an embedder whose
		// descriptors expose true element types should match variadic
		// tails itself and call MatchPosition per position instead.
		tailPos = Position{Result: Exact}
		for _, a := range tail {
			if a != nil && a.Name() == elem {
				continue
			}
			if a != nil && (typeref.IsNull(a) || typeref.IsDummy(a)) {
				continue
			}
			tailPos = Position{Result: No}
			break
		}
	} else {
		tailPos = Position{Result: No}
	}

	return merge(c, tailPos)
}

func variadicFormalName(d typeref.Descriptor) string {
	if d == nil {
		return ""
	}
	return d.Name()
}

func matchFixed(formals, actuals []typeref.Descriptor, isSub func(actual, formal typeref.Descriptor) (bool, int)) Candidate {
	if len(formals) != len(actuals) {
		return Candidate{Overall: No}
	}
	c := Candidate{Overall: Exact}
	for i := range formals {
		p := MatchPosition(formals[i], actuals[i], isSub)
		c = merge(c, p)
	}
	return c
}

func merge(c Candidate, p Position) Candidate {
	c.Positions = append(c.Positions, p)
	if p.Result == No {
		c.Overall = No
		return c
	}
	if p.Result == Maybe {
		c.Mismatches++
		if c.Overall == Exact {
			c.Overall = Maybe
		}
		if p.Kind > c.WorstKind {
			c.WorstKind = p.Kind
			c.WorstRank = p.FormalRank
		}
	}
	return c
}


// Less reports whether a is a strictly better candidate than b, per
// §4.4's best-match selection: lower lattice kind wins; ties on kind
// break on fewer total mismatches; remaining ties on SuperInFormal break
// by preferring the closer (lower-rank) formal.
func Less(a, b Candidate) bool {
	if a.Overall != b.Overall {
		return a.Overall < b.Overall
	}
	if a.WorstKind != b.WorstKind {
		return a.WorstKind < b.WorstKind
	}
	if a.Mismatches != b.Mismatches {
		return a.Mismatches < b.Mismatches
	}
	if a.WorstKind == SuperInFormal {
		return a.WorstRank < b.WorstRank
	}
	return false
}

// Best returns the index of the best candidate in cands, or -1 if cands
// is empty or every candidate is No.
func Best(cands []Candidate) int {
	best := -1
	for i, c := range cands {
		if c.Overall == No {
			continue
		}
		if best == -1 || Less(c, cands[best]) {
			best = i
		}
	}
	return best
}
