package hopscotch

import "go.uber.org/atomic"

const (
	// hopInfoBits is the width of the hop bitmap. The bitmap is read in
	// one atomic load on the lock-free path, so it cannot exceed the
	// smallest atomic word the map relies on.
	hopInfoBits = 32
)

// bucket is one cell of a segment ring. A zero hashed key marks the cell
// as empty; val is only meaningful while hkey is nonzero. hop is the
// neighborhood bitmap of this cell in its role as a home bucket: bit i
// set means the bucket at offset i (wrapping within the ring) holds an
// entry whose home is this bucket.
//
// All three words are atomics because the read path runs without the
// segment lock. Mutations happen only under the lock, so writers can use
// plain load-modify-store on the bitmap.
type bucket[V any] struct {
	hkey atomic.Uint64
	hop  atomic.Uint32
	val  atomic.Pointer[V]
}

//go:inline
func (b *bucket[V]) isEmpty() bool {
	return b.hkey.Load() == 0
}

// setHop marks offset i as occupied in the neighborhood bitmap.
//
//go:inline
func (b *bucket[V]) setHop(i uint64) {
	b.hop.Store(b.hop.Load() | uint32(1)<<i)
}

// clearHop marks offset i as free in the neighborhood bitmap.
//
//go:inline
func (b *bucket[V]) clearHop(i uint64) {
	b.hop.Store(b.hop.Load() &^ (uint32(1) << i))
}

// release empties the cell. The hashed key goes first so that a reader
// can no longer match the entry before the value is dropped.
//
//go:inline
func (b *bucket[V]) release() {
	b.hkey.Store(0)
	b.val.Store(nil)
}
