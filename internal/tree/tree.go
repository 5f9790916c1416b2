// Package tree provides the external LSM tree collaborator named, but left
// out of scope, by spec.md §6 ("Tree (external): exposes init, deinit,
// get, put, remove, compact_io, compact_cpu, checkpoint, open, with
// callback-based completion for async variants"). Grove and Forest are
// written against this package's Tree type; a production build would swap
// it for the real sorted-run/bloom-filter/manifest engine, but the shape
// of the interface (and therefore everything Grove/Forest do with it) is
// fixed here so the rest of the subsystem can be exercised and tested.
package tree

import (
	"sync"

	"github.com/google/btree"
	"github.com/holiman/bloomfilter/v2"
)

// Phase identifies which async lifecycle phase a Tree is running, used to
// catch a completion arriving for the wrong phase (spec.md §4.6: "a
// completion arriving for the wrong phase is an assertion failure").
type Phase int

const (
	PhaseNone Phase = iota
	PhaseOpen
	PhaseCompactIO
	PhaseCheckpoint
)

// Config parameterizes a Tree the way spec.md §4.3/§4.4 parameterize the
// object tree and index trees: comparison, key projection, tombstone
// encoding, and commit/prefetch budgets.
type Config[K any, V any] struct {
	Less             func(a, b K) bool
	KeyFromValue     func(v V) K
	Tombstone        func(v V) bool
	TombstoneFromKey func(k K) V
	Hash             func(k K) uint64
	PrefetchCountMax int
	CommitCountMax   int
}

// Tree is a reference, in-memory stand-in for the real LSM tree: a single
// sorted structure (google/btree, matching the corpus's own ordered-map
// dependency) plus a bloom filter sized to CommitCountMax to short-circuit
// negative lookups the way the teacher's pull-replication bloom filters
// short-circuit absent keys.
type Tree[K any, V any] struct {
	cfg    Config[K, V]
	mu     sync.RWMutex
	data   *btree.BTreeG[entry[K, V]]
	filter *bloomfilter.Filter
	phase  Phase
}

type entry[K any, V any] struct {
	key K
	val V
}

// New constructs a Tree per cfg. It never fails in this reference
// implementation; the only init-time resource error NewGrove reports is
// its own node-pool capacity check (see grove.go).
func New[K any, V any](cfg Config[K, V]) *Tree[K, V] {
	less := func(a, b entry[K, V]) bool { return cfg.Less(a.key, b.key) }
	n := cfg.CommitCountMax
	if n <= 0 {
		n = 1
	}
	filter, _ := bloomfilter.NewOptimal(uint64(n*8), 0.01)
	return &Tree[K, V]{
		cfg:    cfg,
		data:   btree.NewG(32, less),
		filter: filter,
	}
}

// Get returns the value stored for key, if any.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var zero V
	if t.filter != nil && t.cfg.Hash != nil && !t.filter.Contains(t.cfg.Hash(key)) {
		return zero, false
	}
	e, ok := t.data.Get(entry[K, V]{key: key})
	if !ok || t.cfg.Tombstone(e.val) {
		return zero, false
	}
	return e.val, true
}

// Put inserts or overwrites the entry for KeyFromValue(v).
func (t *Tree[K, V]) Put(v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.cfg.KeyFromValue(v)
	t.data.ReplaceOrInsert(entry[K, V]{key: key, val: v})
	if t.filter != nil && t.cfg.Hash != nil {
		t.filter.Add(t.cfg.Hash(key))
	}
}

// Remove tombstones the entry at key, if present, the same way a real
// compaction-aware LSM tree would: the entry is not erased, it is
// rewritten with its tombstone bit set so a later compaction can drop it.
func (t *Tree[K, V]) Remove(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.data.Get(entry[K, V]{key: key}); !ok {
		return
	}
	t.data.ReplaceOrInsert(entry[K, V]{key: key, val: t.cfg.TombstoneFromKey(key)})
}

// Len returns the number of entries, tombstoned or not, currently held.
func (t *Tree[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data.Len()
}

// Live calls fn for every non-tombstone entry in key order.
func (t *Tree[K, V]) Live(fn func(key K, val V)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.data.Ascend(func(e entry[K, V]) bool {
		if !t.cfg.Tombstone(e.val) {
			fn(e.key, e.val)
		}
		return true
	})
}

// beginPhase asserts no other async phase is outstanding on this tree and
// marks p as in flight.
func (t *Tree[K, V]) beginPhase(p Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseNone {
		panic("tree: overlapping async phase")
	}
	t.phase = p
}

func (t *Tree[K, V]) endPhase(p Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != p {
		panic("tree: phase completion out of order")
	}
	t.phase = PhaseNone
}

// Open simulates recovering the tree's in-memory structures from disk; the
// reference implementation has nothing to recover, so it completes
// immediately.
func (t *Tree[K, V]) Open(cb func(error)) {
	t.beginPhase(PhaseOpen)
	t.endPhase(PhaseOpen)
	cb(nil)
}

// CompactIO simulates the I/O half of compaction (reading/writing table
// blocks through the grid); the reference implementation has no on-disk
// state, so it completes immediately.
func (t *Tree[K, V]) CompactIO(op uint64, cb func(error)) {
	t.beginPhase(PhaseCompactIO)
	t.endPhase(PhaseCompactIO)
	cb(nil)
}

// CompactCPU simulates the synchronous CPU half of compaction: dropping
// tombstones whose retention window has passed. The reference
// implementation drops every tombstone unconditionally, since it keeps no
// on-disk history for replication to resurrect.
func (t *Tree[K, V]) CompactCPU(op uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dead []K
	t.data.Ascend(func(e entry[K, V]) bool {
		if t.cfg.Tombstone(e.val) {
			dead = append(dead, e.key)
		}
		return true
	})
	for _, k := range dead {
		t.data.Delete(entry[K, V]{key: k})
	}
	return nil
}

// Checkpoint simulates durably persisting the current epoch through the
// grid; the reference implementation has nothing to flush.
func (t *Tree[K, V]) Checkpoint(op uint64, cb func(error)) {
	t.beginPhase(PhaseCheckpoint)
	t.endPhase(PhaseCheckpoint)
	cb(nil)
}
