package grove

import (
	"github.com/grovedb/grove/internal/tree"
	"github.com/spaolacci/murmur3"
)

// IndexTree64 is an LSM tree over CompositeKey64 whose payload is the key
// itself (membership only), per spec.md §4.4.
type IndexTree64 struct {
	t *tree.Tree[CompositeKey64, CompositeKey64]
}

func newIndexTree64(commitCountMax int) *IndexTree64 {
	cfg := tree.Config[CompositeKey64, CompositeKey64]{
		Less:             func(a, b CompositeKey64) bool { return CompareKeys64(a, b) < 0 },
		KeyFromValue:     KeyFromValue64,
		Tombstone:        Tombstone64,
		TombstoneFromKey: TombstoneFromKey64,
		Hash: func(k CompositeKey64) uint64 {
			var buf [16]byte
			putUint64(buf[0:8], k.Payload)
			putUint64(buf[8:16], k.Timestamp&^tombstoneBit)
			return murmur3.Sum64(buf[:])
		},
		// Indexes are never prefetched: they're written from records
		// already in hand, never pre-read on the hot path (spec.md §4.4).
		PrefetchCountMax: 0,
		CommitCountMax:   commitCountMax,
	}
	return &IndexTree64{t: tree.New(cfg)}
}

// Put inserts a live composite key.
func (x *IndexTree64) Put(k CompositeKey64) { x.t.Put(k) }

// Remove tombstones k.
func (x *IndexTree64) Remove(k CompositeKey64) { x.t.Remove(k) }

// Contains reports whether k is present and live.
func (x *IndexTree64) Contains(k CompositeKey64) bool {
	_, ok := x.t.Get(k)
	return ok
}

// Live calls fn for every non-tombstone key in order, used by tests
// asserting T1.
func (x *IndexTree64) Live(fn func(k CompositeKey64)) {
	x.t.Live(func(k CompositeKey64, _ CompositeKey64) { fn(k) })
}

func (x *IndexTree64) Open(cb func(error))                { x.t.Open(cb) }
func (x *IndexTree64) CompactIO(op uint64, cb func(error)) { x.t.CompactIO(op, cb) }
func (x *IndexTree64) CompactCPU(op uint64) error          { return x.t.CompactCPU(op) }
func (x *IndexTree64) Checkpoint(op uint64, cb func(error)) { x.t.Checkpoint(op, cb) }

// IndexTree128 is IndexTree64's counterpart over CompositeKey128.
type IndexTree128 struct {
	t *tree.Tree[CompositeKey128, CompositeKey128]
}

func newIndexTree128(commitCountMax int) *IndexTree128 {
	cfg := tree.Config[CompositeKey128, CompositeKey128]{
		Less:             func(a, b CompositeKey128) bool { return CompareKeys128(a, b) < 0 },
		KeyFromValue:     KeyFromValue128,
		Tombstone:        Tombstone128,
		TombstoneFromKey: TombstoneFromKey128,
		Hash: func(k CompositeKey128) uint64 {
			var buf [24]byte
			putUint64(buf[0:8], k.Payload.Hi)
			putUint64(buf[8:16], k.Payload.Lo)
			putUint64(buf[16:24], k.Timestamp&^tombstoneBit)
			return murmur3.Sum64(buf[:])
		},
		PrefetchCountMax: 0,
		CommitCountMax:   commitCountMax,
	}
	return &IndexTree128{t: tree.New(cfg)}
}

func (x *IndexTree128) Put(k CompositeKey128)    { x.t.Put(k) }
func (x *IndexTree128) Remove(k CompositeKey128) { x.t.Remove(k) }
func (x *IndexTree128) Contains(k CompositeKey128) bool {
	_, ok := x.t.Get(k)
	return ok
}
func (x *IndexTree128) Live(fn func(k CompositeKey128)) {
	x.t.Live(func(k CompositeKey128, _ CompositeKey128) { fn(k) })
}
func (x *IndexTree128) Open(cb func(error))                { x.t.Open(cb) }
func (x *IndexTree128) CompactIO(op uint64, cb func(error)) { x.t.CompactIO(op, cb) }
func (x *IndexTree128) CompactCPU(op uint64) error          { return x.t.CompactCPU(op) }
func (x *IndexTree128) Checkpoint(op uint64, cb func(error)) { x.t.Checkpoint(op, cb) }

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}
