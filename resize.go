package hopscotch

import "github.com/tooein/hopscotch/shared"

// maxBucketsPerSegment caps the doubling of a segment ring. Reaching it
// means the hash function is broken or the machine is out of its depth,
// either way the insert fails with ErrTableFull.
const maxBucketsPerSegment = 1 << 30

// grow replaces the table with one whose segment rings are twice as
// large. Growing is a global pause: every segment lock of the old table
// is taken in ascending index order, every live entry is reinserted into
// the new table using its stored hash, and the new segment array is
// published with an atomic store. Readers still probing the old array
// finish against its frozen contents; the collector reclaims it once
// they are done.
//
// A caller passes the table it failed on. If the table was already
// replaced in the meantime the grow is someone else's finished work and
// the caller simply retries.
func (m *Map[K, V]) grow(old *table[V]) error {
	m.resizeMu.Lock()
	defer m.resizeMu.Unlock()

	if m.table.Load() != old {
		return nil
	}

	return m.rebuild(old, 2*(old.bucketMask+1))
}

// rebuild swaps in a table with nBuckets buckets per segment, doubling
// further if the reinsertion itself gets stuck. The caller must hold
// resizeMu, and old must be the live table.
func (m *Map[K, V]) rebuild(old *table[V], nBuckets uint64) error {
	for i := range old.segments {
		old.segments[i].mu.Lock()
	}
	defer func() {
		for i := range old.segments {
			old.segments[i].mu.Unlock()
		}
	}()

	for {
		if nBuckets > maxBucketsPerSegment {
			return ErrTableFull
		}

		nt := newTable[V](uint64(len(old.segments)), nBuckets, old.hopRange, old.addRange)
		if old.rehashInto(nt) {
			m.table.Store(nt)
			return nil
		}

		nBuckets <<= 1
	}
}

// Reserve grows the map to hold at least n elements without further
// resizing. If the map is already large enough the call has no effect.
func (m *Map[K, V]) Reserve(n uint64) error {
	m.resizeMu.Lock()
	defer m.resizeMu.Unlock()

	t := m.table.Load()
	needed := shared.NextPowerOf2(2 * n / uint64(len(t.segments)))
	if needed <= t.bucketMask+1 {
		return nil
	}

	return m.rebuild(t, needed)
}
