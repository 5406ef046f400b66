// Package methods is the method registry of §3/§4.2/§4.3, Stage 3:
// registering every declared method's identity and modifier bits, and
// synthesizing the per-class default/static constructors that field
// initializers and static blocks are attributed to.
package methods

import (
	"strings"
	"sync"

	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/methodid"
)

// Registry is the method registry for one build. Owned by a single
// AnalysisContext.
type Registry struct {
	mu      sync.Mutex
	byID    map[ids.MethodID]*methodid.Bundle
	classOf map[ids.MethodID]ids.ClassID
	byClass map[ids.ClassID][]ids.MethodID
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[ids.MethodID]*methodid.Bundle),
		classOf: make(map[ids.MethodID]ids.ClassID),
		byClass: make(map[ids.ClassID][]ids.MethodID),
	}
}

// signatureOf renders a deterministic signature string for a method
// identity, scoped to its declaring class so overloads and overrides
// across unrelated classes never collide.
func signatureOf(class ids.ClassID, id methodid.Identity) string {
	var b strings.Builder
	b.WriteString(string(class))
	b.WriteByte('#')
	b.WriteString(id.Name)
	b.WriteByte('(')
	for i, p := range id.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Name())
	}
	b.WriteByte(')')
	return b.String()
}

// Register records one declared method, identified by its declaring
// class and identity. Registration is idempotent: re-registering the
// same (class, identity) pair returns the existing method id without
// overwriting its bits, matching the Stage 3 guarantee that each method
// declaration is handled exactly once but may be looked up repeatedly by
// Stage 4.
func (r *Registry) Register(reg *ids.Registry, class ids.ClassID, id methodid.Identity, bits methodid.Bits) ids.MethodID {
	sig := signatureOf(class, id)
	hash := ids.MethodID(sig)
	reg.InternMethod(hash, sig)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[hash]; !ok {
		r.byID[hash] = &methodid.Bundle{Signature: sig, Identity: id, Bits: bits}
		r.classOf[hash] = class
		r.byClass[class] = append(r.byClass[class], hash)
	}
	return hash
}

// Bundle returns the registered state for a method id.
func (r *Registry) Bundle(id ids.MethodID) (*methodid.Bundle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	return b, ok
}

// ClassOf returns the declaring class of a registered method.
func (r *Registry) ClassOf(id ids.MethodID) (ids.ClassID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classOf[id]
	return c, ok
}

// DeclaredMethods returns every method registered directly on class, in
// registration order.
func (r *Registry) DeclaredMethods(class ids.ClassID) []ids.MethodID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ids.MethodID, len(r.byClass[class]))
	copy(out, r.byClass[class])
	return out
}

// Names of the synthetic default ("<init>") and static ("<clinit>")
// constructors used for field-initializer attribution (§4.2 point 5, §5
// Glossary).
const (
	defaultCtorName = "<init>"
	staticCtorName  = "<clinit>"
)

// EnsureDefaultConstructor registers (idempotently) the synthetic default
// constructor for class: BODYLESS | CONSTRUCTOR, no parameters. Every
// class gets one, used as the attribution point for instance-field
// initializers and instance initializer blocks regardless of whether the
// class also declares explicit constructors.
func (r *Registry) EnsureDefaultConstructor(reg *ids.Registry, class ids.ClassID) ids.MethodID {
	return r.Register(reg, class, methodid.Identity{Name: defaultCtorName}, methodid.Bodyless|methodid.Constructor)
}

// EnsureStaticConstructor registers (idempotently) the synthetic static
// constructor for class: BODYLESS | CONSTRUCTOR | STATIC. Only needed
// when the class declares at least one static field or static
// initializer block; callers check that before calling this.
func (r *Registry) EnsureStaticConstructor(reg *ids.Registry, class ids.ClassID) ids.MethodID {
	return r.Register(reg, class, methodid.Identity{Name: staticCtorName}, methodid.Bodyless|methodid.Constructor|methodid.Static)
}

// IsDefaultConstructor/IsStaticConstructor let downstream stages
// recognize a synthetic constructor's role from its identity alone.
func IsDefaultConstructor(id methodid.Identity) bool { return id.Name == defaultCtorName }
func IsStaticConstructor(id methodid.Identity) bool  { return id.Name == staticCtorName }
