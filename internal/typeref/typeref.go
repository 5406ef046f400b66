// Package typeref defines the opaque type-descriptor handle the CHA core
// consumes from an external type calculator (§6), plus the small set of
// well-known sentinel descriptors the overload resolver and invocation-type
// engine reason about symbolically (void, null, the unresolved "dummy"
// type, and the universal top type).
//
// The core never constructs a TypeDescriptor for a real program type
// itself — that's the external collaborator's job — but it does need a
// handful of fixed sentinels to exist so the matching rules of §4.4 have
// something concrete to compare against.
package typeref

// LibraryPrefix is the fixed separator-prefixed encoding used for class ids
// of library (non-source) types, per §6.
const LibraryPrefix = "LIB:"

// Descriptor is the opaque type handle produced by the external type
// calculator. Implementations are supplied by the embedder; this package
// only provides the interface and a handful of sentinel instances.
type Descriptor interface {
	// Name returns a human-readable, stable name for the type.
	Name() string

	// Erasure returns the type with generic parameterization stripped
	// (identity for non-generic types).
	Erasure() Descriptor

	// Matches reports whether this type is a subtype of other (used for
	// the "actual's declared class is a sub of formal's" rule of §4.4).
	Matches(other Descriptor) bool

	// Equals reports type identity after erasure-insensitive comparison
	// is NOT implied; callers erase explicitly where the spec calls for it.
	Equals(other Descriptor) bool

	// IsLibrary reports whether the type comes from a library (non-source)
	// declaration, per the "from source" vs "library" distinction of §6.
	IsLibrary() bool

	// Parameterized reports whether this descriptor carries symbolic type
	// parameters (e.g. Container<T>) eligible for §4.4's parametric-type
	// refinement.
	Parameterized() bool

	// ParseAndMapSymbols attempts to unify this (symbolic) descriptor
	// against a concrete specialization, writing the substitution into out
	// and reporting whether unification succeeded.
	ParseAndMapSymbols(concrete Descriptor, out map[string]Descriptor) bool

	// Substitute returns a copy of this descriptor with symbolic
	// parameters replaced according to subst.
	Substitute(subst map[string]Descriptor) Descriptor
}

// sentinel is a fixed, parameterless descriptor used for void/null/dummy/
// top. It is never a library type and never parameterized.
type sentinel struct{ name string }

func (s sentinel) Name() string          { return s.name }
func (s sentinel) Erasure() Descriptor   { return s }
func (s sentinel) IsLibrary() bool       { return false }
func (s sentinel) Parameterized() bool   { return false }
func (s sentinel) Equals(o Descriptor) bool {
	os, ok := o.(sentinel)
	return ok && os.name == s.name
}
func (s sentinel) Matches(Descriptor) bool { return false }
func (s sentinel) ParseAndMapSymbols(Descriptor, map[string]Descriptor) bool {
	return false
}
func (s sentinel) Substitute(map[string]Descriptor) Descriptor { return s }

var (
	// Void is the return type of a method with no declared return type.
	Void Descriptor = sentinel{"void"}

	// Null is the type of the null literal; it matches any formal (§4.4).
	Null Descriptor = sentinel{"<null>"}

	// Dummy is the sentinel "unresolved" type used when a method
	// invocation's return type cannot be determined from its binding and
	// it isn't used as an expression statement (§4.3).
	Dummy Descriptor = sentinel{"<dummy>"}

	// Top is the universal top type (e.g. java.lang.Object). Per §9, the
	// core records it as an immediate super but never lets it accumulate
	// reachable subclasses — that inconsistency is preserved intentionally.
	Top Descriptor = sentinel{"<top>"}
)

// IsVoid, IsNull, IsDummy and IsTop test identity against the sentinels
// above. Descriptor implementations supplied by an embedder should return
// these exact values (not look-alikes) so these tests are valid; §4.4's
// matching rules depend on it.
func IsVoid(d Descriptor) bool  { return d == Void }
func IsNull(d Descriptor) bool  { return d == Null }
func IsDummy(d Descriptor) bool { return d == Dummy }
func IsTop(d Descriptor) bool   { return d == Top }

// Numeric scalar widening order (§4.4): byte|short|char -> int -> long ->
// float -> double. Encoded as a rank; Widens reports whether from can widen
// to to.
var numericRank = map[string]int{
	"byte": 0, "short": 0, "char": 0,
	"int":   1,
	"long":  2,
	"float": 3,
	"double": 4,
}

// IsNumericScalar reports whether d names one of the primitive numeric
// scalar types the widening lattice covers.
func IsNumericScalar(d Descriptor) bool {
	_, ok := numericRank[d.Name()]
	return ok
}

// Widens reports whether values of type from may be widened to type to
// under the conversions enumerated in §4.4. Equal types are not considered
// a widening (callers check exact-match first).
func Widens(from, to Descriptor) bool {
	rf, ok := numericRank[from.Name()]
	if !ok {
		return false
	}
	rt, ok := numericRank[to.Name()]
	if !ok {
		return false
	}
	return rf < rt
}
