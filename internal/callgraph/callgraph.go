// Package callgraph is the bidirectional method-level call graph of §3:
// caller→callee and callee→caller edges, a secondary qualified-name
// graph for export (§4.5), and the per-call-site candidate record Stage 4
// produces.
package callgraph

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gocha/chatool/internal/ids"
)

// SiteKey identifies a call site by its stable token-range (§4.4's
// "keyed by the site's token-range").
type SiteKey struct {
	File   string
	Offset int
}

// InvocationRecord is the per-call-site candidate record of §4.4: the
// resolved servicing method and every override that may actually be
// dispatched to.
type InvocationRecord struct {
	Servicing  ids.MethodID
	Candidates []ids.MethodID
}

// Graph is the bidirectional method call graph plus the auxiliary qname
// graph. Owned by a single AnalysisContext; edges are added concurrently
// by Stage 4's per-method workers.
type Graph struct {
	mu        sync.Mutex
	callers   map[ids.MethodID]map[ids.MethodID]struct{} // callee -> callers
	callees   map[ids.MethodID]map[ids.MethodID]struct{} // caller -> callees
	sites     map[SiteKey]InvocationRecord

	qnameMu sync.Mutex
	qnames  map[string]map[string]struct{} // caller qname -> callee qnames

	size int
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		callers: make(map[ids.MethodID]map[ids.MethodID]struct{}),
		callees: make(map[ids.MethodID]map[ids.MethodID]struct{}),
		sites:   make(map[SiteKey]InvocationRecord),
		qnames:  make(map[string]map[string]struct{}),
	}
}

// AddEdge records an edge caller -> callee. Safe for concurrent use: each
// Stage 4 worker owns a disjoint set of call sites but may race on the
// shared callee's caller-set, hence the single graph-wide mutex (edge
// insertion is cheap enough that finer sharding isn't worth the
// complexity here, unlike the ids.Registry's hot interning path).
func (g *Graph) AddEdge(caller, callee ids.MethodID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.callees[caller] == nil {
		g.callees[caller] = make(map[ids.MethodID]struct{})
	}
	if _, exists := g.callees[caller][callee]; !exists {
		g.callees[caller][callee] = struct{}{}
		g.size++
	}
	if g.callers[callee] == nil {
		g.callers[callee] = make(map[ids.MethodID]struct{})
	}
	g.callers[callee][caller] = struct{}{}
}

// RecordSite stores the candidate set resolved for one call site.
func (g *Graph) RecordSite(key SiteKey, rec InvocationRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sites[key] = rec
}

// InvocationCandidates returns the candidate set recorded for a call
// site, if any.
func (g *Graph) InvocationCandidates(key SiteKey) (InvocationRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.sites[key]
	return rec, ok
}

// Callees returns every method a caller has an edge to.
func (g *Graph) Callees(caller ids.MethodID) []ids.MethodID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ids.MethodID, 0, len(g.callees[caller]))
	for c := range g.callees[caller] {
		out = append(out, c)
	}
	return out
}

// Callers returns every method with an edge to callee.
func (g *Graph) Callers(callee ids.MethodID) []ids.MethodID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ids.MethodID, 0, len(g.callers[callee]))
	for c := range g.callers[callee] {
		out = append(out, c)
	}
	return out
}

// Size returns the total number of distinct edges added so far.
func (g *Graph) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.size
}

// RootMethods returns every method with at least one callee but no
// recorded caller — candidate entry points for downstream consumers
// (§6's "downstream consumers" note; this package only surfaces the
// query, it does not interpret "root" any further).
func (g *Graph) RootMethods() []ids.MethodID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []ids.MethodID
	for caller := range g.callees {
		if len(g.callers[caller]) == 0 {
			out = append(out, caller)
		}
	}
	return out
}

// AddQualifiedNameEdge records an edge in the auxiliary qname graph
// (§4.5). It exists solely for export and never feeds back into
// analysis, so it is kept behind its own lock rather than the primary
// graph's.
func (g *Graph) AddQualifiedNameEdge(callerQName, calleeQName string) {
	if callerQName == "" || calleeQName == "" {
		return
	}
	g.qnameMu.Lock()
	defer g.qnameMu.Unlock()
	if g.qnames[callerQName] == nil {
		g.qnames[callerQName] = make(map[string]struct{})
	}
	g.qnames[callerQName][calleeQName] = struct{}{}
}

// ExportQualifiedNames renders the auxiliary qname graph as a
// map[string][]string whose callee lists are sorted under a locale-aware
// collator, so the same input always yields the same list for a caller.
// The map's keys carry no order; ranging over the result visits callers
// in Go's unspecified map order.
func (g *Graph) ExportQualifiedNames() map[string][]string {
	g.qnameMu.Lock()
	defer g.qnameMu.Unlock()

	col := collate.New(language.Und)
	out := make(map[string][]string, len(g.qnames))
	for caller, callees := range g.qnames {
		list := make([]string, 0, len(callees))
		for c := range callees {
			list = append(list, c)
		}
		sort.Slice(list, func(i, j int) bool { return col.CompareString(list[i], list[j]) < 0 })
		out[caller] = list
	}
	return out
}
