package grove

import "testing"

func TestIndexTree64PutContainsRemove(t *testing.T) {
	x := newIndexTree64(16)
	k := CompositeKey64{Payload: 7, Timestamp: 1}
	x.Put(k)
	if !x.Contains(k) {
		t.Fatalf("expected key to be present after Put")
	}
	x.Remove(k)
	if x.Contains(k) {
		t.Fatalf("expected key to be absent after Remove")
	}
}

func TestIndexTree64LiveSkipsTombstones(t *testing.T) {
	x := newIndexTree64(16)
	x.Put(CompositeKey64{Payload: 1, Timestamp: 1})
	x.Put(CompositeKey64{Payload: 2, Timestamp: 2})
	x.Remove(CompositeKey64{Payload: 1, Timestamp: 1})
	var live []uint64
	x.Live(func(k CompositeKey64) { live = append(live, k.Payload) })
	if len(live) != 1 || live[0] != 2 {
		t.Fatalf("Live() = %v, want [2]", live)
	}
}

func TestIndexTree128PutContainsRemove(t *testing.T) {
	x := newIndexTree128(16)
	k := CompositeKey128{Payload: Uint128{Hi: 1, Lo: 2}, Timestamp: 1}
	x.Put(k)
	if !x.Contains(k) {
		t.Fatalf("expected 128-bit key to be present after Put")
	}
	x.Remove(k)
	if x.Contains(k) {
		t.Fatalf("expected 128-bit key to be absent after Remove")
	}
}
