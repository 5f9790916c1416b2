// Package digest implements the stable 128-bit tree-identity digest named
// in spec.md §6 ("Schema identity (planned)") and resolved as an Open
// Question in spec.md §9: a Blake3 hash of grove_name || tree_name,
// truncated to 128 bits.
package digest

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// ID is a 128-bit stable tree identity.
type ID struct {
	Hi uint64
	Lo uint64
}

// TreeIdentity returns the stable digest for a (grove name, tree name)
// pair, e.g. TreeIdentity("Account", "object") or
// TreeIdentity("Account", "index:ledger").
func TreeIdentity(groveName, treeName string) ID {
	h := blake3.New()
	h.Write([]byte(groveName))
	h.Write([]byte{0}) // separator so "ab"+"c" != "a"+"bc"
	h.Write([]byte(treeName))
	sum := h.Sum(nil)
	return ID{
		Hi: binary.BigEndian.Uint64(sum[0:8]),
		Lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}
