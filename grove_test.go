package grove

import (
	"testing"

	"github.com/grovedb/grove/internal/grid"
	"github.com/grovedb/grove/internal/nodepool"
)

func mustPool(t *testing.T, n int) *nodepool.Pool {
	t.Helper()
	p, err := nodepool.New(n)
	if err != nil {
		t.Fatalf("nodepool.New: %v", err)
	}
	return p
}

func newTestGrid() *grid.Grid { return grid.New() }

func TestNewGroveRejectsSignedIndexField(t *testing.T) {
	s := &Schema[signedRecord]{
		Timestamp:      func(r *signedRecord) uint64 { return r.Timestamp },
		TimestampField: "Timestamp",
		WithTombstoneTimestamp: func(ts uint64) signedRecord {
			return signedRecord{Timestamp: ts}
		},
	}
	pool := mustPool(t, 16)
	g := newTestGrid()
	if _, err := NewGrove("bad", s, pool, g, GroveOpts{CacheSize: 4, CommitCountMax: 4}); err == nil {
		t.Fatalf("expected NewGrove to reject a signed index field")
	}
}

func TestGrovePutThenGetRoundTrips(t *testing.T) {
	pool := mustPool(t, 64)
	g := newTestGrid()
	gr, err := NewGrove("widget", widgetSchema(), pool, g, GroveOpts{CacheSize: 8, CommitCountMax: 8})
	if err != nil {
		t.Fatalf("NewGrove: %v", err)
	}
	rec := widgetRecord{Timestamp: 5, ID: 10, Count: 2, Label: "x"}
	gr.Put(rec)
	got, ok := gr.Get(5)
	if !ok || got != rec {
		t.Fatalf("Get(5) = %+v, %v; want %+v, true", got, ok, rec)
	}
}

func TestNewGroveRejectsInsufficientPoolCapacity(t *testing.T) {
	// widgetSchema generates 2 indexes (ID, Count), so the Grove needs 3
	// nodes (1 object tree + 2 index trees); a pool of 2 is one short.
	pool := mustPool(t, 2)
	g := newTestGrid()
	if _, err := NewGrove("widget", widgetSchema(), pool, g, GroveOpts{CacheSize: 4, CommitCountMax: 4}); err == nil {
		t.Fatalf("expected NewGrove to reject a pool with insufficient capacity")
	}
}

func TestGroveCacheEvictionStillConsultsTree(t *testing.T) {
	pool := mustPool(t, 256)
	g := newTestGrid()
	gr, err := NewGrove("widget", widgetSchema(), pool, g, GroveOpts{CacheSize: 2, CommitCountMax: 64})
	if err != nil {
		t.Fatalf("NewGrove: %v", err)
	}
	for i := uint64(1); i <= 10; i++ {
		gr.Put(widgetRecord{Timestamp: i, ID: i, Count: uint32(i)})
	}
	// The cache capacity is 2, far smaller than the 10 records written, so
	// this Get must fall through to the underlying tree rather than the
	// cache (which has long since evicted timestamp 1).
	got, ok := gr.Get(1)
	if !ok || got.ID != 1 {
		t.Fatalf("expected record at ts=1 to still be retrievable via the tree, got %+v ok=%v", got, ok)
	}
}
