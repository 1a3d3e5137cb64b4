// Package hopscotch provides a concurrent hash map based on hopscotch
// hashing. Collisions are managed within a limited neighborhood of the
// home bucket, tracked as a per-bucket bitmap. From this it follows a
// constant lookup time for the Get function, which runs without taking
// any lock: a per-segment timestamp lets it detect entries that were
// displaced mid-probe and retry. Writers serialize on the home
// segment's mutex only, so inserts and removals into different segments
// never contend.
package hopscotch

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/tooein/hopscotch/shared"
)

// Map is a concurrent hopscotch hash map. Put never replaces: a key
// that is already present is left untouched. Callers wanting replace
// semantics combine Remove and Put.
//
// The map stores the 64-bit hash of every key, not the key itself, and
// probes compare hashes. Two keys colliding on all 64 bits are
// indistinguishable; the default hashers in the shared package make
// this astronomically unlikely, callers with adversarial key sets
// supply their own hasher.
type Map[K comparable, V any] struct {
	table  atomic.Pointer[table[V]]
	hasher shared.HashFn[K]
	// length stores the current inserted elements
	length   atomic.Int64
	maxTries uint64
	// resizeMu serializes table replacement: grow, Reserve and Clear.
	resizeMu sync.Mutex
}

// New creates a map with the given configuration. Zero-valued fields of
// the configuration fall back to the defaults of the shared package.
func New[K comparable, V any](cfg Config[K]) (*Map[K, V], error) {
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Map[K, V]{
		hasher:   cfg.Hasher,
		maxTries: cfg.MaxTries,
	}
	m.table.Store(newTable[V](cfg.Segments, cfg.BucketsPerSegment, cfg.HopRange, cfg.AddRange))

	return m, nil
}

// MustNew same as `New` but panics if and only if an error occurs.
func MustNew[K comparable, V any](cfg Config[K]) *Map[K, V] {
	m, err := New[K, V](cfg)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// NewWithHasher creates a map with default geometry and the given hash
// function.
func NewWithHasher[K comparable, V any](hasher shared.HashFn[K]) *Map[K, V] {
	return MustNew[K, V](Config[K]{Hasher: hasher})
}

// hash maps a key to its nonzero 64-bit hash. Zero is the empty-bucket
// sentinel, so a hasher that produces it is remapped to 1.
//
//go:inline
func (m *Map[K, V]) hash(key K) uint64 {
	h := m.hasher(key)
	if h == 0 {
		return 1
	}
	return h
}

// Put inserts the given key-value pair. If the key is already present
// the map is left unchanged. Returns true if the element is a new item
// in the map, and ErrTableFull if the table could not grow any further
// to make room.
func (m *Map[K, V]) Put(key K, val V) (bool, error) {
	h := m.hash(key)

	for {
		t := m.table.Load()
		s, homeIdx := t.locate(h)

		s.mu.Lock()
		if m.table.Load() != t {
			// the table was swapped while we waited for the lock,
			// this segment is no longer live
			s.mu.Unlock()
			continue
		}

		if _, found := t.findNeighbor(s, homeIdx, h); found {
			s.mu.Unlock()
			return false, nil
		}

		if t.emplace(s, homeIdx, h, &val) {
			m.length.Inc()
			s.mu.Unlock()
			return true, nil
		}

		s.mu.Unlock()
		if err := m.grow(t); err != nil {
			return false, err
		}
	}
}

// Get returns the value stored for this key, or false if there is no
// such value. It takes no lock: the home bucket's bitmap drives the
// probe, and a changed segment timestamp afterwards means an entry was
// displaced mid-probe, in which case the probe is retried up to
// MaxTries times.
func (m *Map[K, V]) Get(key K) (V, bool) {
	h := m.hash(key)

	for tries := uint64(0); ; tries++ {
		t := m.table.Load()
		s, homeIdx := t.locate(h)

		ts := s.timestamp.Load()
		if idx, found := t.findNeighbor(s, homeIdx, h); found {
			b := &s.buckets[idx]
			// recheck the key after the value load: the bucket may
			// have been released and refilled for another key in
			// between
			if v := b.val.Load(); v != nil && b.hkey.Load() == h {
				return *v, true
			}
		}

		if s.timestamp.Load() == ts || tries >= m.maxTries {
			var v V
			return v, false
		}
	}
}

// Remove removes the specified key from the map and returns the value
// it held, or false if the key was not present. The timestamp is not
// bumped: removal does not move any entry, a concurrent reader that
// witnesses the cleared bucket correctly reports absent.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	h := m.hash(key)

	for {
		t := m.table.Load()
		s, homeIdx := t.locate(h)

		s.mu.Lock()
		if m.table.Load() != t {
			s.mu.Unlock()
			continue
		}

		idx, found := t.findNeighbor(s, homeIdx, h)
		if !found {
			s.mu.Unlock()
			var v V
			return v, false
		}

		val := *s.buckets[idx].val.Load()
		distance := (idx - homeIdx) & t.bucketMask
		s.buckets[homeIdx].clearHop(distance)
		s.buckets[idx].release()
		m.length.Dec()
		s.mu.Unlock()

		return val, true
	}
}

// Size returns the number of items in the map.
func (m *Map[K, V]) Size() int {
	return int(m.length.Load())
}

// Load returns the current load of the map.
func (m *Map[K, V]) Load() float32 {
	t := m.table.Load()
	capacity := (t.bucketMask + 1) * uint64(len(t.segments))
	return float32(m.length.Load()) / float32(capacity)
}

// Each calls 'fn' on every value in the map in no particular order.
// If 'fn' returns true, the iteration stops. Each segment is captured
// under its lock and handed to fn afterwards, so fn may use the map.
func (m *Map[K, V]) Each(fn func(val V) bool) {
	t := m.table.Load()

	for si := range t.segments {
		s := &t.segments[si]

		s.mu.Lock()
		vals := make([]V, 0, len(s.buckets)/4)
		for bi := range s.buckets {
			if s.buckets[bi].isEmpty() {
				continue
			}
			if v := s.buckets[bi].val.Load(); v != nil {
				vals = append(vals, *v)
			}
		}
		s.mu.Unlock()

		for _, v := range vals {
			if stop := fn(v); stop {
				return
			}
		}
	}
}

// Clear removes all key-value pairs from the map.
func (m *Map[K, V]) Clear() {
	m.resizeMu.Lock()
	defer m.resizeMu.Unlock()

	t := m.table.Load()
	for i := range t.segments {
		t.segments[i].mu.Lock()
	}

	for si := range t.segments {
		s := &t.segments[si]
		for bi := range s.buckets {
			s.buckets[bi].hop.Store(0)
			s.buckets[bi].release()
		}
	}
	m.length.Store(0)

	for i := range t.segments {
		t.segments[i].mu.Unlock()
	}
}
