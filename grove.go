package grove

import (
	"fmt"

	"github.com/grovedb/grove/internal/digest"
	"github.com/grovedb/grove/internal/grid"
	"github.com/grovedb/grove/internal/nodepool"
	"github.com/grovedb/grove/internal/recordcodec"
)

// GroveOpts are the per-Grove tunables spec.md §4.5 lists: a cache
// capacity and a commit-count budget shared by the object tree and every
// index tree.
type GroveOpts struct {
	// CacheSize bounds the object tree's value cache.
	CacheSize int
	// CommitCountMax bounds mutations per batch; sized large enough to
	// cover the worst-case churn a single Grove.Put can generate (old +
	// new object write, times old/new per index) — see spec.md §9's
	// commit_count_max Open Question, resolved in DESIGN.md.
	CommitCountMax int
	// Log receives diagnostic messages; defaults to a no-op.
	Log LogFunc
}

type groveIndex[R any] struct {
	field IndexField[R]
	t64   *IndexTree64
	t128  *IndexTree128
}

func (gi *groveIndex[R]) put(k Uint128, ts uint64) {
	switch gi.field.Width {
	case Kind64:
		gi.t64.Put(CompositeKey64{Payload: k.Lo, Timestamp: ts})
	case Kind128:
		gi.t128.Put(CompositeKey128{Payload: k, Timestamp: ts})
	}
}

func (gi *groveIndex[R]) remove(k Uint128, ts uint64) {
	switch gi.field.Width {
	case Kind64:
		gi.t64.Remove(CompositeKey64{Payload: k.Lo, Timestamp: ts})
	case Kind128:
		gi.t128.Remove(CompositeKey128{Payload: k, Timestamp: ts})
	}
}

func (gi *groveIndex[R]) open(cb func(error)) {
	if gi.t64 != nil {
		gi.t64.Open(cb)
	} else {
		gi.t128.Open(cb)
	}
}

func (gi *groveIndex[R]) compactIO(op uint64, cb func(error)) {
	if gi.t64 != nil {
		gi.t64.CompactIO(op, cb)
	} else {
		gi.t128.CompactIO(op, cb)
	}
}

func (gi *groveIndex[R]) compactCPU(op uint64) error {
	if gi.t64 != nil {
		return gi.t64.CompactCPU(op)
	}
	return gi.t128.CompactCPU(op)
}

func (gi *groveIndex[R]) checkpoint(op uint64, cb func(error)) {
	if gi.t64 != nil {
		gi.t64.Checkpoint(op, cb)
	} else {
		gi.t128.Checkpoint(op, cb)
	}
}

// Grove owns one ObjectTree, its read cache, and a fixed tuple of
// IndexTrees for one record type (spec.md §4.5).
type Grove[R any] struct {
	Name    string
	schema  *Schema[R]
	grid    *grid.Grid
	object  *ObjectTree[R]
	idx     []groveIndex[R]
	digests []digest.ID
	opts    GroveOpts
	log     LogFunc
	phases  join
}

// NewGrove builds a Grove for the given schema, drawing its trees from
// pool and grid. It mirrors spec.md §4.5's init order — cache, then
// object tree, then each index tree in declaration order. Before
// building anything it validates that pool has enough spare capacity
// for the Grove's full fan-out (one object tree plus one tree per
// index field); a real allocator would acquire the nodes themselves,
// but the reference trees in internal/tree keep their own in-memory
// storage, so the check here only guards the budget, returning
// ErrNodePoolExhausted rather than silently over-committing the pool
// a sibling Grove also draws from.
func NewGrove[R any](name string, schema *Schema[R], pool *nodepool.Pool, g *grid.Grid, opts GroveOpts) (*Grove[R], error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1
	}
	if opts.CommitCountMax <= 0 {
		opts.CommitCountMax = 1
	}
	opts.Log = resolveLogFunc(opts.Log)

	fields, err := schema.fields()
	if err != nil {
		return nil, fmt.Errorf("grove %s: %w", name, err)
	}

	if pool.Available() < 1+len(fields) {
		return nil, fmt.Errorf("grove %s: %w: need %d nodes, %d available", name, ErrNodePoolExhausted, 1+len(fields), pool.Available())
	}

	object := newObjectTree[R](schema, opts.CacheSize, 2*opts.CommitCountMax, opts.CommitCountMax)

	seen := make(map[digest.ID]string, len(fields)+1)
	objectID := digest.TreeIdentity(name, "object")
	seen[objectID] = name + "/object"
	digests := make([]digest.ID, 0, len(fields)+1)
	digests = append(digests, objectID)

	idx := make([]groveIndex[R], 0, len(fields))
	for _, f := range fields {
		id := digest.TreeIdentity(name, "index:"+f.Name)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("grove %s: %w between %s and index:%s", name, ErrDigestCollision, prev, f.Name)
		}
		seen[id] = name + "/index:" + f.Name
		digests = append(digests, id)

		gi := groveIndex[R]{field: f}
		switch f.Width {
		case Kind64:
			gi.t64 = newIndexTree64(opts.CommitCountMax)
		case Kind128:
			gi.t128 = newIndexTree128(opts.CommitCountMax)
		}
		idx = append(idx, gi)
	}

	return &Grove[R]{
		Name:    name,
		schema:  schema,
		grid:    g,
		object:  object,
		idx:     idx,
		digests: digests,
		opts:    opts,
		log:     opts.Log,
	}, nil
}

// Digests returns the tree identity of the object tree and every index
// tree this Grove owns, in declaration order (object tree first). Forest
// uses this to assert pairwise digest uniqueness across every registered
// Grove at Register time (spec.md §6: "The Forest must assert pairwise
// uniqueness of these digests at startup").
func (gr *Grove[R]) Digests() []digest.ID { return gr.digests }

// Deinit is the Grove half of Forest.Deinit's spec.md §6 "deinit —
// infallible" contract. The object tree, its cache, and every index
// tree are plain Go values with no manually managed resource, so there
// is nothing to release; Deinit exists so the lifecycle surface Forest
// fans out across stays complete.
func (gr *Grove[R]) Deinit() {}

// Get returns the record stored at ts, if any. It is a pure, non-blocking
// read (spec.md §4.5).
func (gr *Grove[R]) Get(ts uint64) (R, bool) {
	return gr.object.Get(ts)
}

// Put inserts rec if record.timestamp is unknown, or diffs it against the
// existing record otherwise (spec.md §4.5).
func (gr *Grove[R]) Put(rec R) {
	ts := gr.schema.Timestamp(&rec)
	if existing, ok := gr.object.Get(ts); ok {
		gr.update(existing, rec)
		return
	}
	gr.insert(rec)
}

func (gr *Grove[R]) insert(rec R) {
	ts := gr.schema.Timestamp(&rec)
	gr.object.Put(rec)
	for i := range gr.idx {
		if v, ok := gr.idx[i].field.Derive(&rec); ok {
			gr.idx[i].put(v, ts)
		}
	}
}

// update implements spec.md §4.5's update(old, new): the object tree is
// rewritten whenever the byte image differs at all (even on non-indexed
// fields, to keep the object tree canonical), and each index is diffed
// independently with remove always preceding put.
func (gr *Grove[R]) update(old, new_ R) {
	ts := gr.schema.Timestamp(&new_)
	if !recordcodec.Equal(old, new_) {
		gr.object.Remove(gr.schema.Timestamp(&old))
		gr.object.Put(new_)
	}
	for i := range gr.idx {
		oldV, oldOK := gr.idx[i].field.Derive(&old)
		newV, newOK := gr.idx[i].field.Derive(&new_)
		switch {
		case !oldOK && !newOK:
			// no-op
		case oldOK && newOK && oldV == newV:
			// no-op
		case oldOK && !newOK:
			gr.idx[i].remove(oldV, gr.schema.Timestamp(&old))
		case !oldOK && newOK:
			gr.idx[i].put(newV, ts)
		default: // both present, different
			gr.idx[i].remove(oldV, gr.schema.Timestamp(&old))
			gr.idx[i].put(newV, ts)
		}
	}
}

// Remove retracts rec, asserting it matches what is currently stored
// (spec.md §4.5, T2).
func (gr *Grove[R]) Remove(rec R) {
	ts := gr.schema.Timestamp(&rec)
	stored, ok := gr.object.Get(ts)
	invariant(ok, "grove %s: remove of timestamp %d with nothing stored", gr.Name, ts)
	invariant(recordcodec.Equal(stored, rec), "grove %s: remove of timestamp %d does not byte-match the stored record", gr.Name, ts)
	gr.object.Remove(ts)
	for i := range gr.idx {
		if v, ok := gr.idx[i].field.Derive(&rec); ok {
			gr.idx[i].remove(v, ts)
		}
	}
}

// Index64 returns the live IndexTree64 handle for the named field, or nil
// if the field is 128-bit or unknown. Tests and callers that need to
// inspect index contents directly (T1 property checks) use this.
func (gr *Grove[R]) Index64(name string) *IndexTree64 {
	for i := range gr.idx {
		if gr.idx[i].field.Name == name {
			return gr.idx[i].t64
		}
	}
	return nil
}

// Index128 is Index64's 128-bit counterpart.
func (gr *Grove[R]) Index128(name string) *IndexTree128 {
	for i := range gr.idx {
		if gr.idx[i].field.Name == name {
			return gr.idx[i].t128
		}
	}
	return nil
}

func (gr *Grove[R]) fanOutCount() int { return 1 + len(gr.idx) }

// Open fans out to the object tree and every index tree, invoking cb once
// all 1+#indexes child opens complete (spec.md §4.5/§4.6).
func (gr *Grove[R]) Open(cb func(error)) {
	gr.log("grove %s: opening at grid clock %d", gr.Name, gr.grid.Clock())
	gr.runPhase(phaseOp(opOpen, 0), func(j *join, op uint64, report func(error)) {
		gr.object.Open(func(err error) { report(err); j.complete(op) })
		for i := range gr.idx {
			gi := &gr.idx[i]
			gi.open(func(err error) { report(err); j.complete(op) })
		}
	}, cb)
}

// CompactIO is Open's counterpart for the async I/O half of compaction.
func (gr *Grove[R]) CompactIO(op uint64, cb func(error)) {
	gr.runPhase(phaseOp(opCompactIO, op), func(j *join, tag uint64, report func(error)) {
		gr.object.CompactIO(op, func(err error) { report(err); j.complete(tag) })
		for i := range gr.idx {
			gi := &gr.idx[i]
			gi.compactIO(op, func(err error) { report(err); j.complete(tag) })
		}
	}, cb)
}

// CompactCPU is synchronous: it fans out to every tree's CompactCPU in
// turn without a join, per spec.md §4.5.
func (gr *Grove[R]) CompactCPU(op uint64) error {
	if err := gr.object.CompactCPU(op); err != nil {
		return err
	}
	for i := range gr.idx {
		if err := gr.idx[i].compactCPU(op); err != nil {
			return err
		}
	}
	return nil
}

// Checkpoint fans out to the object tree and every index tree, invoking
// cb once all complete.
func (gr *Grove[R]) Checkpoint(op uint64, cb func(error)) {
	gr.runPhase(phaseOp(opCheckpoint, op), func(j *join, tag uint64, report func(error)) {
		gr.object.Checkpoint(op, func(err error) { report(err); j.complete(tag) })
		for i := range gr.idx {
			gi := &gr.idx[i]
			gi.checkpoint(op, func(err error) { report(err); j.complete(tag) })
		}
	}, cb)
}

// runPhase starts the Grove's shared join for n=1+#indexes children,
// dispatches via start, and reports the first error (if any) to cb once
// every child has completed (spec.md §4.5: "on error the Grove's
// callback still fires").
func (gr *Grove[R]) runPhase(tag uint64, dispatch func(j *join, tag uint64, report func(error)), cb func(error)) {
	var firstErr error
	var errOnce bool
	report := func(err error) {
		if err != nil && !errOnce {
			firstErr = err
			errOnce = true
		}
	}
	gr.phases.start(gr.fanOutCount(), tag, func(uint64) {
		cb(firstErr)
	})
	dispatch(&gr.phases, tag, report)
}
