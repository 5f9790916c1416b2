package grove

import (
	"errors"
	"fmt"
)

// Configuration errors (build-time, see spec §7).
var (
	ErrUnsupportedFieldType = errors.New("grove: unsupported index field type")
	ErrMissingTimestamp     = errors.New("grove: schema is missing a timestamp field")
	ErrBadTimestampWidth    = errors.New("grove: timestamp field must be exactly 64 bits")
	ErrDigestCollision      = errors.New("grove: colliding tree digests")
)

// ErrNodePoolExhausted is returned by NewGrove when the shared node pool
// does not have enough spare capacity for the Grove's object tree and
// index trees.
var ErrNodePoolExhausted = errors.New("grove: node pool has no free nodes")

// invariant panics if cond is false. It is the stand-in for the spec's
// "assertion failure in debug, undefined in release" programming errors:
// Go has no compile-time-disableable assert, so a panic plays that role.
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("grove: invariant violated: "+format, args...))
	}
}
