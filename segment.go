package hopscotch

import (
	"sync"

	"go.uber.org/atomic"
)

// segment is an independently locked ring of buckets. Writers serialize
// on mu; readers never take it. timestamp counts displacement swaps, so
// a reader that probed while an entry was in flight can detect the race
// and retry.
type segment[V any] struct {
	mu        sync.Mutex
	timestamp atomic.Uint32
	buckets   []bucket[V]
}
