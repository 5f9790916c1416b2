package grove

import "testing"

func TestObjectTombstoneBitRoundTrip(t *testing.T) {
	ts := uint64(123)
	if ObjectTombstone(ts) {
		t.Fatalf("fresh timestamp should not read as a tombstone")
	}
	tomb := WithObjectTombstone(ts)
	if !ObjectTombstone(tomb) {
		t.Fatalf("WithObjectTombstone did not set the marker bit")
	}
}

func TestValueCacheEvictsOldest(t *testing.T) {
	c := newValueCache[widgetRecord](2)
	c.put(1, widgetRecord{Timestamp: 1})
	c.put(2, widgetRecord{Timestamp: 2})
	c.put(3, widgetRecord{Timestamp: 3})
	if _, ok := c.get(1); ok {
		t.Fatalf("expected timestamp 1 to have been evicted")
	}
	if _, ok := c.get(2); !ok {
		t.Fatalf("expected timestamp 2 to still be cached")
	}
	if _, ok := c.get(3); !ok {
		t.Fatalf("expected timestamp 3 to still be cached")
	}
}

func TestValueCacheGetRefreshesRecency(t *testing.T) {
	c := newValueCache[widgetRecord](2)
	c.put(1, widgetRecord{Timestamp: 1})
	c.put(2, widgetRecord{Timestamp: 2})
	c.get(1) // touch 1 so 2 becomes the oldest
	c.put(3, widgetRecord{Timestamp: 3})
	if _, ok := c.get(2); ok {
		t.Fatalf("expected timestamp 2 to have been evicted instead of 1")
	}
	if _, ok := c.get(1); !ok {
		t.Fatalf("expected timestamp 1 to remain cached after being touched")
	}
}

func TestObjectTreePutGetRemove(t *testing.T) {
	s := widgetSchema()
	ot := newObjectTree[widgetRecord](s, 4, 8, 4)
	rec := widgetRecord{Timestamp: 1, ID: 9, Count: 2}
	ot.Put(rec)
	got, ok := ot.Get(1)
	if !ok || got != rec {
		t.Fatalf("Get(1) = %+v, %v", got, ok)
	}
	ot.Remove(1)
	if _, ok := ot.Get(1); ok {
		t.Fatalf("expected removed record to read as absent")
	}
}
