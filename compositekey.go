package grove

// Uint128 is a 128-bit unsigned payload, represented as two 64-bit halves
// in natural (Hi, Lo) order. It exists because Go has no native 128-bit
// integer; every CompositeKey128 operation treats (Hi, Lo) as a single
// big-endian-ordered value for comparison purposes.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// MaxUint128 is the all-ones 128-bit payload, the sentinel upper bound.
var MaxUint128 = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}

func uint128Less(a, b Uint128) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}
	return a.Lo < b.Lo
}

// tombstoneBit is the reserved bit of a composite key's embedded timestamp
// used to flag a retracted index entry. It is a distinct encoding from the
// object tree's own tombstone bit (see objecttree.go): the two never share
// storage, only a bit position, because they live in unrelated trees.
const tombstoneBit = uint64(1) << 63

// CompositeKey64 packs a 64-bit index payload with the owning object's
// timestamp into the fixed-width, lexicographically ordered key used by a
// 64-bit-wide index tree.
type CompositeKey64 struct {
	Payload   uint64
	Timestamp uint64
}

// SentinelKey64 is strictly greater than every live CompositeKey64.
var SentinelKey64 = CompositeKey64{Payload: ^uint64(0), Timestamp: ^uint64(0)}

// CompareKeys64 orders two keys lexicographically on (payload, timestamp),
// ignoring each key's tombstone bit so tombstoned and live entries for the
// same (payload, timestamp) pair compare equal in ordering terms.
func CompareKeys64(a, b CompositeKey64) int {
	if a.Payload != b.Payload {
		if a.Payload < b.Payload {
			return -1
		}
		return 1
	}
	at, bt := a.Timestamp&^tombstoneBit, b.Timestamp&^tombstoneBit
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	default:
		return 0
	}
}

// KeyFromValue64 is the identity projection: a CompositeKey64 index tree
// stores the key itself as its value (membership only).
func KeyFromValue64(v CompositeKey64) CompositeKey64 { return v }

// Tombstone64 reports whether v's reserved bit marks it as retracted.
func Tombstone64(v CompositeKey64) bool { return v.Timestamp&tombstoneBit != 0 }

// TombstoneFromKey64 returns k with its tombstone bit set.
func TombstoneFromKey64(k CompositeKey64) CompositeKey64 {
	k.Timestamp |= tombstoneBit
	return k
}

// CompositeKey128 is CompositeKey64's counterpart for index fields whose
// normalized payload exceeds 64 bits (widths in (64, 128]).
type CompositeKey128 struct {
	Payload   Uint128
	Timestamp uint64
}

// SentinelKey128 is strictly greater than every live CompositeKey128.
var SentinelKey128 = CompositeKey128{Payload: MaxUint128, Timestamp: ^uint64(0)}

// CompareKeys128 orders two keys lexicographically on (payload, timestamp),
// ignoring each key's tombstone bit, mirroring CompareKeys64.
func CompareKeys128(a, b CompositeKey128) int {
	if a.Payload != b.Payload {
		if uint128Less(a.Payload, b.Payload) {
			return -1
		}
		return 1
	}
	at, bt := a.Timestamp&^tombstoneBit, b.Timestamp&^tombstoneBit
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	default:
		return 0
	}
}

// KeyFromValue128 is the identity projection, mirroring KeyFromValue64.
func KeyFromValue128(v CompositeKey128) CompositeKey128 { return v }

// Tombstone128 reports whether v's reserved bit marks it as retracted.
func Tombstone128(v CompositeKey128) bool { return v.Timestamp&tombstoneBit != 0 }

// TombstoneFromKey128 returns k with its tombstone bit set.
func TombstoneFromKey128(k CompositeKey128) CompositeKey128 {
	k.Timestamp |= tombstoneBit
	return k
}
