package grove

import (
	"container/list"
	"sync"

	"github.com/grovedb/grove/internal/tree"
)

// objectTombstoneBit is the reserved high bit of a record's 64-bit
// timestamp, the object tree's own tombstone marker (spec.md §4.3). It is
// a distinct encoding from tombstoneBit in compositekey.go even though
// the two happen to occupy the same bit position in their respective
// trees — spec.md §9 is explicit that the two must never be merged.
const objectTombstoneBit = uint64(1) << 63

// ObjectTombstone reports whether ts carries the object tree's tombstone
// marker.
func ObjectTombstone(ts uint64) bool { return ts&objectTombstoneBit != 0 }

// WithObjectTombstone sets the tombstone marker on ts.
func WithObjectTombstone(ts uint64) uint64 { return ts | objectTombstoneBit }

// valueCache is a bounded, timestamp-keyed cache of the most recently
// touched live records, backing Grove.Get without descending the object
// tree. It is private to one Grove's object tree (spec.md §5, "Cache:
// private to one Grove's object tree; not aliased").
type valueCache[R any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[uint64]*list.Element
}

type cacheEntry[R any] struct {
	ts  uint64
	rec R
}

func newValueCache[R any](capacity int) *valueCache[R] {
	if capacity <= 0 {
		capacity = 1
	}
	return &valueCache[R]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element, capacity),
	}
}

func (c *valueCache[R]) get(ts uint64) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero R
	el, ok := c.items[ts]
	if !ok {
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry[R]).rec, true
}

func (c *valueCache[R]) put(ts uint64, rec R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[ts]; ok {
		el.Value.(*cacheEntry[R]).rec = rec
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry[R]{ts: ts, rec: rec})
	c.items[ts] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry[R]).ts)
		}
	}
}

func (c *valueCache[R]) remove(ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[ts]; ok {
		c.ll.Remove(el)
		delete(c.items, ts)
	}
}

// ObjectTree is the thin wrapper spec.md §4.3 describes: an LSM tree keyed
// by a record's timestamp, storing the whole record as the value, backed
// by a read cache.
type ObjectTree[R any] struct {
	schema *Schema[R]
	t      *tree.Tree[uint64, R]
	cache  *valueCache[R]
}

func newObjectTree[R any](schema *Schema[R], cacheSize, prefetchCountMax, commitCountMax int) *ObjectTree[R] {
	cfg := tree.Config[uint64, R]{
		Less:         func(a, b uint64) bool { return a < b },
		KeyFromValue: func(r R) uint64 { return schema.Timestamp(&r) },
		Tombstone: func(r R) bool {
			return ObjectTombstone(schema.Timestamp(&r))
		},
		TombstoneFromKey: func(ts uint64) R {
			return schema.WithTombstoneTimestamp(WithObjectTombstone(ts))
		},
		Hash:             func(ts uint64) uint64 { return ts },
		PrefetchCountMax: prefetchCountMax,
		CommitCountMax:   commitCountMax,
	}
	return &ObjectTree[R]{
		schema: schema,
		t:      tree.New(cfg),
		cache:  newValueCache[R](cacheSize),
	}
}

// Get consults the cache first and falls back to the tree, matching
// Grove.get's "pure read, non-blocking" contract (spec.md §4.5).
func (o *ObjectTree[R]) Get(ts uint64) (R, bool) {
	if rec, ok := o.cache.get(ts); ok {
		return rec, true
	}
	rec, ok := o.t.Get(ts)
	if ok {
		o.cache.put(ts, rec)
	}
	return rec, ok
}

// Put writes rec and refreshes the cache.
func (o *ObjectTree[R]) Put(rec R) {
	o.t.Put(rec)
	o.cache.put(o.schema.Timestamp(&rec), rec)
}

// Remove tombstones ts in both the tree and the cache.
func (o *ObjectTree[R]) Remove(ts uint64) {
	o.t.Remove(ts)
	o.cache.remove(ts)
}

func (o *ObjectTree[R]) Open(cb func(error))                 { o.t.Open(cb) }
func (o *ObjectTree[R]) CompactIO(op uint64, cb func(error))  { o.t.CompactIO(op, cb) }
func (o *ObjectTree[R]) CompactCPU(op uint64) error           { return o.t.CompactCPU(op) }
func (o *ObjectTree[R]) Checkpoint(op uint64, cb func(error)) { o.t.Checkpoint(op, cb) }
