package hopscotch

import (
	"math/bits"

	"github.com/tooein/hopscotch/shared"
)

// table is one generation of the map. The segment array and the geometry
// are immutable once published; only the buckets inside the segments
// mutate. A resize builds a fresh table and swaps the map's pointer.
type table[V any] struct {
	segments []segment[V]
	// segShift selects a segment from the top bits of a hash.
	segShift uint64
	// bucketMask selects the home bucket from the low bits.
	bucketMask uint64
	hopRange   uint64
	addRange   uint64
}

func newTable[V any](nSegments, nBuckets, hopRange, addRange uint64) *table[V] {
	t := &table[V]{
		segments:   make([]segment[V], nSegments),
		segShift:   64 - shared.Log2(nSegments),
		bucketMask: nBuckets - 1,
		hopRange:   hopRange,
		addRange:   addRange,
	}
	for i := range t.segments {
		t.segments[i].buckets = make([]bucket[V], nBuckets)
	}

	return t
}

// locate returns the segment and the home bucket index for a hash.
//
//go:inline
func (t *table[V]) locate(h uint64) (*segment[V], uint64) {
	return &t.segments[h>>t.segShift], h & t.bucketMask
}

// findNeighbor looks within the neighborhood of the home bucket for the
// hashed key. It visits only the buckets whose bit is set in the home
// bucket's bitmap snapshot, so the runtime is bounded by the popcount.
//
// The function is safe to run without the segment lock: a stale set bit
// leads to a key mismatch and is skipped, a stale clear bit is the miss
// the caller's timestamp check exists to catch.
//
//go:inline
func (t *table[V]) findNeighbor(s *segment[V], homeIdx, h uint64) (uint64, bool) {
	info := s.buckets[homeIdx].hop.Load()
	for off := uint64(0); info != 0; off++ {
		if (info & 1) == 1 {
			idx := (homeIdx + off) & t.bucketMask
			if s.buckets[idx].hkey.Load() == h {
				return idx, true
			}
		}

		info >>= 1
	}

	return 0, false
}

// findCloserFree tries to move the free bucket closer to the home bucket
// it is needed for. Another entry is moved onto the free bucket instead:
// for each candidate home C = free − window the lowest set bit j with
// 1 <= j < window names an entry that may legally live at offset window,
// because window is still inside the hop range. Picking the lowest such
// j maximizes the distance won per swap, so the cascade strictly
// shrinks and terminates.
//
// The swap keeps a path to the moved entry visible at all times: the
// destination bit is set before the source bit is cleared. A reader that
// probed the stale location first is caught by the timestamp bump.
func (t *table[V]) findCloserFree(s *segment[V], freeIdx uint64) (uint64, bool) {
	for window := t.hopRange - 1; window > 0; window-- {
		cIdx := (freeIdx - window) & t.bucketMask
		c := &s.buckets[cIdx]

		info := c.hop.Load()
		candidates := info & (uint32(1)<<window - 1) &^ 1
		if candidates == 0 {
			continue
		}

		j := uint64(bits.TrailingZeros32(candidates))
		mIdx := (cIdx + j) & t.bucketMask
		m := &s.buckets[mIdx]
		free := &s.buckets[freeIdx]

		c.setHop(window)
		free.val.Store(m.val.Load())
		free.hkey.Store(m.hkey.Load())
		c.clearHop(j)
		m.release()
		s.timestamp.Inc()

		return mIdx, true
	}

	return 0, false
}

// emplace inserts a hashed key that is known to be absent. It linear
// probes for an empty bucket within addRange of the home bucket and
// drags it into the hop range with displacement swaps if needed.
// Returns false if no empty bucket could be brought into range, which
// means the segment is too dense and the table has to grow.
//
// The caller must hold the segment lock, or own the table exclusively as
// the resize rebuild does.
func (t *table[V]) emplace(s *segment[V], homeIdx, h uint64, val *V) bool {
	freeIdx := uint64(0)
	found := false
	for d := uint64(0); d < t.addRange; d++ {
		idx := (homeIdx + d) & t.bucketMask
		if s.buckets[idx].isEmpty() {
			freeIdx, found = idx, true
			break
		}
	}
	if !found {
		return false
	}

	for {
		distance := (freeIdx - homeIdx) & t.bucketMask
		if distance < t.hopRange {
			// we found an empty bucket within the neighborhood.
			// we are finished and can emplace the key-value pair.
			b := &s.buckets[freeIdx]
			b.val.Store(val)
			b.hkey.Store(h)
			// the home bit goes last so that readers only follow
			// it to a fully written entry.
			s.buckets[homeIdx].setHop(distance)

			return true
		}

		// try to move the empty bucket closer, so that it is within
		// the hop range of the home bucket.
		idx, ok := t.findCloserFree(s, freeIdx)
		if !ok {
			return false
		}
		freeIdx = idx
	}
}

// rehashInto reinserts every live entry into nt. The hashed keys are
// already known, so nothing is rehashed. Returns false if nt is still
// too small.
//
// The caller owns both tables exclusively.
func (t *table[V]) rehashInto(nt *table[V]) bool {
	for si := range t.segments {
		s := &t.segments[si]
		for bi := range s.buckets {
			h := s.buckets[bi].hkey.Load()
			if h == 0 {
				continue
			}
			ns, homeIdx := nt.locate(h)
			if !nt.emplace(ns, homeIdx, h, s.buckets[bi].val.Load()) {
				return false
			}
		}
	}

	return true
}
