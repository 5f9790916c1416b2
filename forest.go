package grove

import (
	"fmt"

	"github.com/grovedb/grove/internal/digest"
	"github.com/grovedb/grove/internal/grid"
	"github.com/grovedb/grove/internal/nodepool"
)

// groveLifecycle is the subset of Grove[R]'s methods Forest fans out
// across; because Go generics can't hold a slice of Grove[R] for
// different R in one Forest, Forest is written against this
// non-generic method set instead (spec.md §9's design note (b): "a
// trait/interface whose method-set is known at compile time ... visited
// by a static-dispatch fold"). Grove[R] satisfies it for every R without
// any extra glue.
type groveLifecycle interface {
	Open(cb func(error))
	CompactIO(op uint64, cb func(error))
	CompactCPU(op uint64) error
	Checkpoint(op uint64, cb func(error))
	Digests() []digest.ID
	Deinit()
}

// ForestOpts are the Forest-level construction parameters of spec.md
// §4.6: a node-pool size and a logging hook. Per-Grove options
// (cache_size, commit_count_max) are supplied by the caller directly to
// each NewGrove call, since a Go Forest's Grove tuple is assembled by the
// embedding application rather than generated from one schema list (see
// examples/account for the intended usage shape).
type ForestOpts struct {
	NodeCount int
	Log       LogFunc
}

// Forest coordinates the shared lifecycle — open, compact, checkpoint,
// tick — of a fixed set of Groves against one block grid and node pool
// (spec.md §4.6). A concrete application embeds *Forest alongside its own
// named Grove[R] fields and calls Forest.Register for each one at
// construction; see examples/account.AccountForest for the pattern.
type Forest struct {
	Grid *grid.Grid
	Pool *nodepool.Pool
	log  LogFunc

	groves  []groveLifecycle
	names   []string
	digests map[digest.ID]string
	phases  join
}

// NewForest allocates the node pool on the heap (so its address is stable
// for the Forest's lifetime, per I5) and wires it to grid. Groves are
// added afterward via Register, since this package does not know the
// concrete Grove[R] types an application will declare.
func NewForest(g *grid.Grid, opts ForestOpts) (*Forest, error) {
	if opts.NodeCount <= 0 {
		return nil, fmt.Errorf("grove: forest node_count must be positive")
	}
	pool, err := nodepool.New(opts.NodeCount)
	if err != nil {
		return nil, fmt.Errorf("grove: forest node pool: %w", err)
	}
	return &Forest{
		Grid:    g,
		Pool:    pool,
		log:     resolveLogFunc(opts.Log),
		digests: make(map[digest.ID]string),
	}, nil
}

// Register adds a Grove to the Forest's fan-out tuple in declaration
// order, asserting that none of its tree digests collides with a
// digest already claimed by a previously registered Grove (spec.md §6:
// "The Forest must assert pairwise uniqueness of these digests at
// startup"). It must be called for every Grove before any lifecycle
// phase runs; registering after a phase has started is a programming
// error.
func (f *Forest) Register(name string, gr groveLifecycle) {
	invariant(!f.phases.inFlight(), "forest: cannot register grove %s while a phase is outstanding", name)
	for _, id := range gr.Digests() {
		prev, collision := f.digests[id]
		invariant(!collision, "forest: tree digest collision between grove %s and grove %s", prev, name)
		f.digests[id] = name
	}
	f.groves = append(f.groves, gr)
	f.names = append(f.names, name)
}

// Tick advances the grid's underlying storage clock; no Grove is ticked
// directly (spec.md §4.6).
func (f *Forest) Tick() {
	f.Grid.Tick()
}

func (f *Forest) fanOutCount() int { return len(f.groves) }

// Open fans out to every Grove's Open and joins their completions into
// one callback (spec.md §4.6, O4).
func (f *Forest) Open(cb func(error)) {
	tag := phaseOp(opOpen, 0)
	f.runPhase(tag, func(report func(error)) {
		for _, gr := range f.groves {
			gr := gr
			gr.Open(func(err error) { report(err); f.phases.complete(tag) })
		}
	}, cb)
}

// Compact fans out to every Grove's CompactIO, then (once every Grove's
// I/O phase completes) runs every Grove's synchronous CompactCPU in
// declaration order, then invokes cb. This mirrors spec.md §4.5/§4.6:
// compact_io is async and joined, compact_cpu is synchronous.
func (f *Forest) Compact(op uint64, cb func(error)) {
	tag := phaseOp(opCompact, op)
	f.runPhase(tag, func(report func(error)) {
		for _, gr := range f.groves {
			gr := gr
			gr.CompactIO(op, func(err error) { report(err); f.phases.complete(tag) })
		}
	}, func(err error) {
		if err == nil {
			for _, gr := range f.groves {
				if cerr := gr.CompactCPU(op); cerr != nil {
					err = cerr
					break
				}
			}
		}
		cb(err)
	})
}

// Checkpoint fans out to every Grove's Checkpoint and joins their
// completions into one callback.
func (f *Forest) Checkpoint(op uint64, cb func(error)) {
	tag := phaseOp(opCheckpoint, op)
	f.runPhase(tag, func(report func(error)) {
		for _, gr := range f.groves {
			gr := gr
			gr.Checkpoint(op, func(err error) { report(err); f.phases.complete(tag) })
		}
	}, cb)
}

// Deinit tears down every registered Grove in declaration order, then the
// Forest itself, matching spec.md §6's "deinit(allocator) — infallible"
// surface. It must not be called while a phase is outstanding. Neither a
// Grove nor the reference trees it owns hold any resource Go's garbage
// collector won't reclaim on its own, so Deinit has nothing to release;
// it exists so a caller written against the spec's lifecycle contract
// has a matching call to make, and so a future on-disk backend has a
// place to close its file handles.
func (f *Forest) Deinit() {
	invariant(!f.phases.inFlight(), "forest: cannot deinit while a phase is outstanding")
	for _, gr := range f.groves {
		gr.Deinit()
	}
}

func (f *Forest) runPhase(tag uint64, dispatch func(report func(error)), cb func(error)) {
	var firstErr error
	var errOnce bool
	report := func(err error) {
		if err != nil && !errOnce {
			firstErr = err
			errOnce = true
		}
	}
	f.phases.start(f.fanOutCount(), tag, func(uint64) {
		cb(firstErr)
	})
	dispatch(report)
}
