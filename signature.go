package silo

import (
	"encoding/binary"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// Signature is the bitset identity of a component-type set, keyed by the
// dense row index the table schema assigns each component type on first
// registration (spec §4.2). Per-archetype containment tests during query
// evaluation go through the faster mask.Mask the table package already
// carries on every Table; Signature exists for the operations mask.Mask
// doesn't expose — notably enumerating the set bits in order, which the
// query fingerprint needs (spec §3).
type Signature struct {
	bits *bitset.BitSet
}

// NewSignature returns an empty signature.
func NewSignature() Signature {
	return Signature{bits: bitset.New(64)}
}

// SignatureOf builds a signature from a set of dense component row indices.
func SignatureOf(ids ...uint32) Signature {
	s := NewSignature()
	for _, id := range ids {
		s.Set(id)
	}
	return s
}

// Set marks id as present, mutating the signature in place.
func (s Signature) Set(id uint32) {
	s.bits.Set(uint(id))
}

// Clear marks id as absent, mutating the signature in place.
func (s Signature) Clear(id uint32) {
	s.bits.Clear(uint(id))
}

// Test reports whether id is present.
func (s Signature) Test(id uint32) bool {
	return s.bits.Test(uint(id))
}

// Union returns a new signature containing the bits of both s and other.
func (s Signature) Union(other Signature) Signature {
	return Signature{bits: s.bits.Union(other.bits)}
}

// IsSuperSetOf reports whether s contains every bit set in other —
// spec §4.2's "subset/superset checks are bitwise-AND operations".
func (s Signature) IsSuperSetOf(other Signature) bool {
	return s.bits.IsSuperSet(other.bits)
}

// Equal reports whether two signatures name the same component set.
func (s Signature) Equal(other Signature) bool {
	return s.bits.Equal(other.bits)
}

// Len returns the number of component types present in the signature.
func (s Signature) Len() int {
	return int(s.bits.Count())
}

// ComponentIDs returns the sorted component-type row indices in the
// signature — the sorted tuple spec §3's fingerprint is built from.
func (s Signature) ComponentIDs() []uint32 {
	ids := make([]uint32, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		ids = append(ids, uint32(i))
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// Hash returns a stable xxhash of the signature's bit words; equal
// signatures hash equally. The archetype directory is keyed by mask.Mask
// and the query fingerprint hashes ComponentIDs, so neither uses Hash.
func (s Signature) Hash() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, word := range s.bits.Bytes() {
		binary.LittleEndian.PutUint64(buf[:], word)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// SignatureFor builds the signature for a set of components, registering
// each with the world's schema first so every component has a dense row
// index assigned before it is used as a bit position.
func (w *World) SignatureFor(components ...Component) Signature {
	w.storage.Register(components...)
	sig := NewSignature()
	for _, c := range components {
		sig.Set(w.storage.RowIndexFor(c))
	}
	return sig
}
