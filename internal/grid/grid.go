// Package grid stands in for the block-level storage grid that Grove and
// Forest submit reads and writes through. The real grid (out of scope for
// this subsystem, per spec.md §1) issues overlapping async block I/O and
// hosts the replica's logical storage clock; this package gives tests and
// the debug CLI a minimal in-process implementation so the Grove/Forest
// fan-out/fan-in logic can be exercised end to end without a real disk.
package grid

import "sync"

// Callback is invoked once a submitted block operation completes.
type Callback func(err error)

// Grid is the external collaborator Groves and Forests read and write
// blocks through. It is shared read-mostly across every tree in a Forest
// and serializes its own I/O internally, matching spec.md §5's "Shared
// resources" description.
type Grid struct {
	mu    sync.Mutex
	clock uint64
	blocks map[uint64][]byte
}

// New returns an empty in-memory Grid.
func New() *Grid {
	return &Grid{blocks: make(map[uint64][]byte)}
}

// Tick advances the grid's logical storage clock by one. Forest.Tick
// calls this and nothing else, per spec.md §4.6.
func (g *Grid) Tick() {
	g.mu.Lock()
	g.clock++
	g.mu.Unlock()
}

// Clock returns the current logical storage clock value.
func (g *Grid) Clock() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock
}

// Write submits a block write, invoking cb on completion. The in-memory
// implementation completes synchronously but still goes through the
// callback so callers exercise the same completion shape a real async
// grid would present.
func (g *Grid) Write(block uint64, data []byte, cb Callback) {
	g.mu.Lock()
	cp := make([]byte, len(data))
	copy(cp, data)
	g.blocks[block] = cp
	g.mu.Unlock()
	cb(nil)
}

// Read submits a block read, invoking cb with the bytes found (nil if
// absent) on completion.
func (g *Grid) Read(block uint64, cb func(data []byte, err error)) {
	g.mu.Lock()
	data := g.blocks[block]
	g.mu.Unlock()
	cb(data, nil)
}
