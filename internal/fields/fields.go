// Package fields is the field registry of §4.2: declared fields, their
// static/private/type attributes, and the set of call-site-shaped nodes
// found in each field's initializer expression — consumed later by
// package methods to attribute those call sites to a class's synthetic
// default/static constructor.
package fields

import (
	"sync"

	"github.com/gocha/chatool/internal/ids"
	"github.com/gocha/chatool/internal/source"
	"github.com/gocha/chatool/internal/typeref"
)

// Info is one declared field's registered state.
type Info struct {
	mu sync.Mutex

	Class   ids.ClassID
	Name    string
	Static  bool
	Private bool
	Type    typeref.Descriptor

	// typeNode is the field's declared-type syntax node, kept around so
	// RefineProperType can recompute Type once the registries it depends
	// on are fully populated.
	typeNode source.Node

	// initializerSites are call-site-shaped nodes found in this field's
	// initializer expression, queued for attribution to the owning
	// class's synthetic constructor (§4.2 point 3, §5 constructor
	// chaining).
	initializerSites []source.Node
}

// AddInitializerSite records a call-site node discovered in this field's
// initializer. Safe for concurrent use: Stage 1 dispatches one goroutine
// per file, but a field's initializer is always walked by exactly one
// goroutine, so this lock only guards against the rare case of a field
// being revisited (e.g. a retry after a partial Stage 1 failure).
func (fi *Info) AddInitializerSite(n source.Node) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.initializerSites = append(fi.initializerSites, n)
}

// InitializerSites returns the call-site nodes recorded for this field.
func (fi *Info) InitializerSites() []source.Node {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	out := make([]source.Node, len(fi.initializerSites))
	copy(out, fi.initializerSites)
	return out
}

// RefineProperType recomputes this field's type via types.ProperType now
// that Stage 1 has finished registering every file's class and field
// skeleton (§4.2 Stage 3 point (c)). Stage 1 can only ever produce a
// SoftType for a field's declared type, since at that point the rest of
// the field registry it might reference isn't populated yet; once Stage 3
// runs, the full registry is available and a proper type can be
// recomputed. A type that still fails to resolve leaves the existing
// (soft) type in place rather than clearing it.
func (fi *Info) RefineProperType(types source.TypeCalculator) {
	t, ok := types.ProperType(fi.typeNode)
	if !ok {
		return
	}
	fi.mu.Lock()
	fi.Type = t
	fi.mu.Unlock()
}

// key identifies a field by its owning class and name. Field names are
// unique within a class (shadowing across the hierarchy is a hierarchy
// concern, not a registry concern: each class's own fields are keyed
// independently).
type key struct {
	class ids.ClassID
	name  string
}

// Registry is the field registry for one build. Owned by a single
// AnalysisContext.
type Registry struct {
	mu     sync.Mutex
	fields map[key]*Info

	// byClass keeps each class's declared fields in declaration order, so
	// DeclaredFields needs no scan of the whole registry. Only declared
	// fields are kept; no inherited field list is computed.
	byClass map[ids.ClassID][]*Info

	// staticByClass tracks whether any static field has been declared,
	// answered by HasStaticField. Package methods decides on a static
	// synthetic constructor from the declaration itself
	// (classgraph.HasStaticField), not from this map.
	staticByClass map[ids.ClassID]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		fields:        make(map[key]*Info),
		byClass:       make(map[ids.ClassID][]*Info),
		staticByClass: make(map[ids.ClassID]bool),
	}
}

// RegisterDeclared records one declared field. Must be called once per
// (class, field) pair; Stage 1 calls it for every FieldDeclNode found on
// a type declaration.
func (r *Registry) RegisterDeclared(class ids.ClassID, decl source.FieldDeclNode, typ typeref.Descriptor) *Info {
	fi := &Info{Class: class, Name: decl.Name(), Static: decl.Static(), Private: decl.Private(), Type: typ, typeNode: decl.TypeNode()}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{class, decl.Name()}
	r.fields[k] = fi
	r.byClass[class] = append(r.byClass[class], fi)
	if decl.Static() {
		r.staticByClass[class] = true
	}
	return fi
}

// Lookup returns the registered field named name declared directly on
// class, if any.
func (r *Registry) Lookup(class ids.ClassID, name string) (*Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fi, ok := r.fields[key{class, name}]
	return fi, ok
}

// DeclaredFields returns every field declared directly on class, in
// registration order.
func (r *Registry) DeclaredFields(class ids.ClassID) []*Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Info, len(r.byClass[class]))
	copy(out, r.byClass[class])
	return out
}

// HasStaticField reports whether class declares at least one static
// field (§4.2 point 5: decides whether a static synthetic constructor is
// created).
func (r *Registry) HasStaticField(class ids.ClassID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.staticByClass[class]
}
