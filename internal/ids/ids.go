// Package ids interns class and method identities behind dense integer
// indices so that every downstream registry in the CHA pipeline can use
// value-typed indices instead of string keys or pointers.
package ids

import "sync"

// InvalidIndex is the sentinel returned for a lookup that found nothing.
// Callers must treat it as "not applicable", never as an error.
const InvalidIndex = -1

// ClassID is a stable string hash derived from a class's source location
// and signature, or the LIB: encoding of a library type (see package
// classpath).
type ClassID string

// MethodID is a stable string hash for a registered method.
type MethodID string

// ClassFlags are the optional per-class attributes of §3.
type ClassFlags uint8

const (
	FlagNested ClassFlags = 1 << iota
	FlagStatic
	FlagExcluded
	FlagAutoGenerated
)

func (f ClassFlags) Has(bit ClassFlags) bool { return f&bit != 0 }

type classRecord struct {
	id        ClassID
	signature string
	index     int
	flags     ClassFlags
	mu        sync.Mutex
}

type methodRecord struct {
	hash      MethodID
	signature string
	index     int
}

const shardCount = 32

type classShard struct {
	mu      sync.Mutex
	byID    map[ClassID]*classRecord
	byIndex map[int]*classRecord
}

type methodShard struct {
	mu      sync.Mutex
	byID    map[MethodID]*methodRecord
	byIndex map[int]*methodRecord
}

// Registry interns class ids and method ids behind dense integer indices.
// It is the only component in the pipeline where first-assignment must be
// strictly atomic (§4.1); everything else tolerates benign re-reads.
//
// A Registry belongs to exactly one AnalysisContext (see package cha) and
// must never be shared across concurrent builds.
type Registry struct {
	classShards  [shardCount]classShard
	methodShards [shardCount]methodShard

	classCounter  counter
	methodCounter counter

	bindingMu sync.Mutex
	binding   map[string]ClassID // binding-hash -> class id; never holds anonymous bindings
}

// counter is a mutex-guarded monotonic counter. A single mutex per kind
// (class/method) is enough: the index assignment itself is the only
// operation that must be atomic, and it's cheap relative to everything
// else Stage 1/3 do per file.
type counter struct {
	mu  sync.Mutex
	val int
}

func (c *counter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.val
	c.val++
	return v
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{binding: make(map[string]ClassID)}
	for i := range r.classShards {
		r.classShards[i].byID = make(map[ClassID]*classRecord)
		r.classShards[i].byIndex = make(map[int]*classRecord)
	}
	for i := range r.methodShards {
		r.methodShards[i].byID = make(map[MethodID]*methodRecord)
		r.methodShards[i].byIndex = make(map[int]*methodRecord)
	}
	return r
}

func shardFor[T ~string](id T, n int) int {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return int(h % uint32(n))
}

// InternClass assigns (or returns the existing) bit-index for id, updating
// its signature on first insertion. This is the idempotent, atomic
// operation required by §4.1: concurrent first-assignments for the same id
// produce a single index.
func (r *Registry) InternClass(id ClassID, signature string) int {
	sh := &r.classShards[shardFor(id, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if rec, ok := sh.byID[id]; ok {
		return rec.index
	}
	rec := &classRecord{id: id, signature: signature, index: r.classCounter.next()}
	sh.byID[id] = rec
	sh.byIndex[rec.index] = rec
	return rec.index
}

// UpdateOrGetBitIndex is InternClass without an accompanying signature
// update; it is the operation named in §4.1 and used whenever a class id is
// re-encountered after its first registration.
func (r *Registry) UpdateOrGetBitIndex(id ClassID) int {
	return r.InternClass(id, "")
}

// SetClassFlags ORs extra into the class's flag set. It is safe to call
// concurrently for the same class (e.g. once per ancestor during Stage 2
// closure).
func (r *Registry) SetClassFlags(id ClassID, extra ClassFlags) {
	sh := &r.classShards[shardFor(id, shardCount)]
	sh.mu.Lock()
	rec, ok := sh.byID[id]
	sh.mu.Unlock()
	if !ok {
		return
	}
	rec.mu.Lock()
	rec.flags |= extra
	rec.mu.Unlock()
}

// ClassFlagsOf returns the current flag set for id.
func (r *Registry) ClassFlagsOf(id ClassID) ClassFlags {
	sh := &r.classShards[shardFor(id, shardCount)]
	sh.mu.Lock()
	rec, ok := sh.byID[id]
	sh.mu.Unlock()
	if !ok {
		return 0
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.flags
}

// IndexFromClass returns the dense index for id, or InvalidIndex.
func (r *Registry) IndexFromClass(id ClassID) int {
	sh := &r.classShards[shardFor(id, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if rec, ok := sh.byID[id]; ok {
		return rec.index
	}
	return InvalidIndex
}

// ClassFromIndex returns the class id for a previously-assigned index.
// Index -> shard has no fixed relationship (the shard key is hashed from
// the class id, not the index), so this scans all shards; call volume for
// this accessor is low relative to InternClass/UpdateOrGetBitIndex.
func (r *Registry) ClassFromIndex(index int) (ClassID, bool) {
	for i := range r.classShards {
		s := &r.classShards[i]
		s.mu.Lock()
		rec, ok := s.byIndex[index]
		s.mu.Unlock()
		if ok {
			return rec.id, true
		}
	}
	return "", false
}

// ClassSignature returns the signature string recorded for id.
func (r *Registry) ClassSignature(id ClassID) (string, bool) {
	sh := &r.classShards[shardFor(id, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.byID[id]
	if !ok {
		return "", false
	}
	return rec.signature, true
}

// InternMethod assigns (or returns the existing) bit-index for hash.
func (r *Registry) InternMethod(hash MethodID, signature string) int {
	sh := &r.methodShards[shardFor(hash, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if rec, ok := sh.byID[hash]; ok {
		return rec.index
	}
	rec := &methodRecord{hash: hash, signature: signature, index: r.methodCounter.next()}
	sh.byID[hash] = rec
	sh.byIndex[rec.index] = rec
	return rec.index
}

// IndexFromMethod returns the dense index for hash, or InvalidIndex.
func (r *Registry) IndexFromMethod(hash MethodID) int {
	sh := &r.methodShards[shardFor(hash, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if rec, ok := sh.byID[hash]; ok {
		return rec.index
	}
	return InvalidIndex
}

// MethodFromIndex returns the method hash for a previously-assigned index.
func (r *Registry) MethodFromIndex(index int) (MethodID, bool) {
	for i := range r.methodShards {
		s := &r.methodShards[i]
		s.mu.Lock()
		rec, ok := s.byIndex[index]
		s.mu.Unlock()
		if ok {
			return rec.hash, true
		}
	}
	return "", false
}

// MethodSignature returns the signature string recorded for hash.
func (r *Registry) MethodSignature(hash MethodID) (string, bool) {
	sh := &r.methodShards[shardFor(hash, shardCount)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.byID[hash]
	if !ok {
		return "", false
	}
	return rec.signature, true
}

// RecordBinding remembers the class id recovered from a binding whose
// token-range could not be read. Anonymous bindings must never be passed
// here: their binding hashes collide across distinct declarations.
func (r *Registry) RecordBinding(bindingHash string, id ClassID) {
	r.bindingMu.Lock()
	defer r.bindingMu.Unlock()
	r.binding[bindingHash] = id
}

// ClassForBinding recovers a class id previously recorded by RecordBinding.
func (r *Registry) ClassForBinding(bindingHash string) (ClassID, bool) {
	r.bindingMu.Lock()
	defer r.bindingMu.Unlock()
	id, ok := r.binding[bindingHash]
	return id, ok
}
