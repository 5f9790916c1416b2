// Package recordcodec turns an arbitrary record value into the checksummed
// byte image the object tree uses for I1's byte-equality comparisons
// ("two records are identical for cache/equality purposes only if their
// full byte representations are identical"). It reuses the teacher's own checksummed-stream
// framing (gholt/brimutil's ChecksummedReader/Writer over a murmur3
// checksum) rather than inventing a new wire format.
package recordcodec

import (
	"bytes"
	"encoding/gob"

	"github.com/gholt/brimutil"
	"github.com/spaolacci/murmur3"
)

// checksumInterval matches the teacher's smallest configured checksum
// interval (see valuesstore.go's ChecksumInterval default of 65532); our
// records are tiny compared to a value-store block, so every Encode call
// produces a single checksummed frame.
const checksumInterval = 65532

// Encode returns the checksummed byte image of v, suitable for direct
// byte-equality comparison via bytes.Equal.
func Encode[R any](v R) ([]byte, error) {
	var buf bytes.Buffer
	w := brimutil.NewChecksummedWriter(&buf, checksumInterval, murmur3.New32)
	enc := gob.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Equal reports whether a and b encode the same byte image.
func Equal[R any](a, b R) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// Decode reverses Encode.
func Decode[R any](data []byte) (R, error) {
	var out R
	r := brimutil.NewChecksummedReader(bytes.NewReader(data), checksumInterval, murmur3.New32)
	dec := gob.NewDecoder(r)
	err := dec.Decode(&out)
	return out, err
}
