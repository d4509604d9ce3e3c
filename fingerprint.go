package silo

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the identity of a query shape (spec §3): the sorted
// required-component tuple, the predicate's identity hash, and the
// spatial/parallel intent flags, folded into one stable value so two
// call sites building the same query collide on the same cache key.
type Fingerprint uint64

func computeFingerprint(sig Signature, predicateID string, spatialHint, parallelHint bool) Fingerprint {
	h := xxhash.New()
	var buf [4]byte
	for _, id := range sig.ComponentIDs() {
		binary.LittleEndian.PutUint32(buf[:], id)
		h.Write(buf[:])
	}
	h.Write([]byte(predicateID))
	var flags byte
	if spatialHint {
		flags |= 1 << 0
	}
	if parallelHint {
		flags |= 1 << 1
	}
	h.Write([]byte{flags})
	return Fingerprint(h.Sum64())
}
