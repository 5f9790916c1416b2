package grove

import "sync"

// join is the one-shot counter + callback slot + operation tag spec.md
// §2/§4.6 describes: it coalesces N child completions into one parent
// completion and enforces "one outstanding async phase at a time" (I4).
// Both Grove and Forest embed one of these per async surface rather than
// duplicating the bookkeeping (spec.md: "Join primitive (~15%, shared by
// Grove and Forest)").
type join struct {
	mu       sync.Mutex
	active   bool
	op       uint64
	pending  int
	callback func(op uint64)
}

// start begins a new phase of n outstanding child completions, tagged op,
// firing cb once every child has completed. It panics if a phase is
// already outstanding (T5: "starting a second phase before the first has
// completed triggers an assertion").
func (j *join) start(n int, op uint64, cb func(op uint64)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	invariant(!j.active, "join: phase %d started while phase %d is outstanding", op, j.op)
	j.active = true
	j.op = op
	j.pending = n
	j.callback = cb
	if n == 0 {
		j.fireLocked()
	}
}

// complete records one child completion for op. It panics if no phase is
// active or op doesn't match the active phase (spec.md §4.6: "a
// completion arriving for the wrong phase is an assertion failure, not a
// silent hang").
func (j *join) complete(op uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	invariant(j.active, "join: completion for op %d with no phase active", op)
	invariant(j.op == op, "join: completion for op %d while op %d is active", op, j.op)
	j.pending--
	invariant(j.pending >= 0, "join: more completions than were started for op %d", op)
	if j.pending == 0 {
		j.fireLocked()
	}
}

// fireLocked clears the active phase and invokes the callback. Must be
// called with j.mu held; it unlocks around the callback invocation so the
// callback may itself start a new phase without deadlocking.
func (j *join) fireLocked() {
	cb := j.callback
	op := j.op
	j.active = false
	j.callback = nil
	j.mu.Unlock()
	cb(op)
	j.mu.Lock()
}

// inFlight reports whether a phase is currently outstanding.
func (j *join) inFlight() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.active
}
