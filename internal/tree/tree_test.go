package tree

import "testing"

type kv struct {
	key uint64
	val uint64
	tomb bool
}

func uintCfg() Config[uint64, kv] {
	return Config[uint64, kv]{
		Less:             func(a, b uint64) bool { return a < b },
		KeyFromValue:     func(v kv) uint64 { return v.key },
		Tombstone:        func(v kv) bool { return v.tomb },
		TombstoneFromKey: func(k uint64) kv { return kv{key: k, tomb: true} },
		Hash:             func(k uint64) uint64 { return k },
		CommitCountMax:   16,
	}
}

func TestPutGetRemove(t *testing.T) {
	tr := New(uintCfg())
	tr.Put(kv{key: 1, val: 100})
	v, ok := tr.Get(1)
	if !ok || v.val != 100 {
		t.Fatalf("Get(1) = %+v, %v", v, ok)
	}
	tr.Remove(1)
	if _, ok := tr.Get(1); ok {
		t.Fatalf("expected tombstoned key to read as absent")
	}
}

func TestCompactCPUDropsTombstones(t *testing.T) {
	tr := New(uintCfg())
	tr.Put(kv{key: 1, val: 1})
	tr.Remove(1)
	if tr.Len() != 1 {
		t.Fatalf("expected tombstone to still occupy a slot before compaction")
	}
	if err := tr.CompactCPU(0); err != nil {
		t.Fatalf("CompactCPU: %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("expected CompactCPU to drop the tombstone, Len()=%d", tr.Len())
	}
}

func TestLiveSkipsTombstones(t *testing.T) {
	tr := New(uintCfg())
	tr.Put(kv{key: 1, val: 1})
	tr.Put(kv{key: 2, val: 2})
	tr.Remove(1)
	var seen []uint64
	tr.Live(func(k uint64, v kv) { seen = append(seen, k) })
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("Live() = %v, want [2]", seen)
	}
}

func TestOpenCompactIOCheckpointCallbacksFireOnce(t *testing.T) {
	tr := New(uintCfg())
	for _, run := range []func(func(error)){
		tr.Open,
		func(cb func(error)) { tr.CompactIO(0, cb) },
		func(cb func(error)) { tr.Checkpoint(0, cb) },
	} {
		calls := 0
		run(func(error) { calls++ })
		if calls != 1 {
			t.Fatalf("expected exactly 1 callback, got %d", calls)
		}
	}
}
