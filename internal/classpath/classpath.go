// Package classpath resolves library-type references against a
// registered classpath: a set of name@version entries a CLI or embedder
// supplies up front (domain-stack addition, see SPEC_FULL.md's Domain
// stack and §6's "LIB:" encoding). When two registered entries shadow the
// same qualified name, the highest valid semver version wins, matching
// how a real build's classpath resolves a duplicate jar on the path.
package classpath

import (
	"sync"

	"golang.org/x/mod/semver"
)

// Entry is one registered library artifact: a qualified class/interface
// name and the version of the artifact it was found in.
type Entry struct {
	QualifiedName string
	Version       string
}

// Registry tracks registered classpath entries, keyed by qualified name,
// keeping only the highest valid semver version when more than one
// version of the same name is registered.
type Registry struct {
	mu      sync.Mutex
	best    map[string]string // qualified name -> best version seen
	invalid map[string]bool   // qualified names registered with a non-semver version
}

// NewRegistry returns an empty classpath registry.
func NewRegistry() *Registry {
	return &Registry{
		best:    make(map[string]string),
		invalid: make(map[string]bool),
	}
}

// Register adds one classpath entry. A version that isn't valid semver
// (per golang.org/x/mod/semver.IsValid) is still recorded so Resolve can
// report the name as known, but it never wins a version comparison
// against a valid one.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !semver.IsValid(e.Version) {
		r.invalid[e.QualifiedName] = true
		if _, ok := r.best[e.QualifiedName]; !ok {
			r.best[e.QualifiedName] = e.Version
		}
		return
	}
	current, ok := r.best[e.QualifiedName]
	if !ok || !semver.IsValid(current) || semver.Compare(e.Version, current) > 0 {
		r.best[e.QualifiedName] = e.Version
	}
}

// Resolve reports the best registered version for a qualified name, and
// whether any entry was ever registered for it.
func (r *Registry) Resolve(qualifiedName string) (version string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.best[qualifiedName]
	return v, ok
}

// LibraryID formats the §6 "LIB:" class-id encoding for a qualified name,
// appending "@version" when the classpath registry has a resolved
// version for it.
func (r *Registry) LibraryID(qualifiedName string) string {
	if v, ok := r.Resolve(qualifiedName); ok && v != "" {
		return "LIB:" + qualifiedName + "@" + v
	}
	return "LIB:" + qualifiedName
}
