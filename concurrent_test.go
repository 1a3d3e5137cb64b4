package hopscotch_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/tooein/hopscotch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestConcurrentPutSameSegment aims two writers at one segment with
// disjoint key ranges. The segment lock must serialize every insert and
// displacement without losing an entry.
func TestConcurrentPutSameSegment(t *testing.T) {
	m := hopscotch.MustNew[uint64, uint64](hopscotch.Config[uint64]{
		Segments:          1,
		BucketsPerSegment: 1024,
		HopRange:          32,
		AddRange:          64,
		MaxTries:          4,
		Hasher:            func(k uint64) uint64 { return k },
	})

	const perWriter = 10000

	var g errgroup.Group
	for w := 0; w < 2; w++ {
		lo := uint64(w*perWriter) + 1
		g.Go(func() error {
			for k := lo; k < lo+perWriter; k++ {
				if _, err := m.Put(k, k*2); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if m.Size() != 2*perWriter {
		t.Fatalf("Size = %d, want %d", m.Size(), 2*perWriter)
	}
	for k := uint64(1); k <= 2*perWriter; k++ {
		v, found := m.Get(k)
		if !found || v != k*2 {
			t.Fatalf("Get(%d) = %d, %v", k, v, found)
		}
	}
}

// TestConcurrentReadersDuringWrites floods the map with lock-free
// readers while writers insert. A reader may miss a key that is being
// displaced, it must never observe a wrong value.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	m := hopscotch.MustNew[uint64, uint64](hopscotch.Config[uint64]{})

	const nkeys = 50000

	done := make(chan struct{})
	var g errgroup.Group

	for r := 0; r < 4; r++ {
		seed := int64(r)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-done:
					return nil
				default:
				}
				k := uint64(rng.Intn(nkeys)) + 1
				if v, found := m.Get(k); found && v != k*3 {
					t.Errorf("Get(%d) observed wrong value %d", k, v)
					return nil
				}
			}
		})
	}

	var writers sync.WaitGroup
	for w := 0; w < 4; w++ {
		writers.Add(1)
		lo := uint64(w * (nkeys / 4))
		go func() {
			defer writers.Done()
			for k := lo + 1; k <= lo+nkeys/4; k++ {
				m.Put(k, k*3)
			}
		}()
	}
	writers.Wait()
	close(done)

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if m.Size() != nkeys {
		t.Fatalf("Size = %d, want %d", m.Size(), nkeys)
	}
	for k := uint64(1); k <= nkeys; k++ {
		v, found := m.Get(k)
		if !found || v != k*3 {
			t.Fatalf("Get(%d) = %d, %v after writers joined", k, v, found)
		}
	}
}

// TestConcurrentDisjointMixedOps runs put/get/remove stripes per
// goroutine. Because the key ranges are disjoint, the post-join state
// must match each goroutine's serial model exactly.
func TestConcurrentDisjointMixedOps(t *testing.T) {
	m := hopscotch.MustNew[uint64, uint64](hopscotch.Config[uint64]{})

	const (
		workers = 8
		stripe  = 4096
		nops    = 20000
	)

	models := make([]map[uint64]uint64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			model := make(map[uint64]uint64)
			lo := uint64(w*stripe) + 1

			for i := 0; i < nops; i++ {
				key := lo + uint64(rng.Intn(stripe))
				switch rng.Intn(3) {
				case 0, 1:
					val := rng.Uint64()
					isNew, err := m.Put(key, val)
					if err != nil {
						return err
					}
					if _, wasIn := model[key]; !wasIn {
						if !isNew {
							t.Errorf("Put(%d) denied a fresh key", key)
						}
						model[key] = val
					} else if isNew {
						t.Errorf("Put(%d) re-inserted a live key", key)
					}
				case 2:
					v, found := m.Remove(key)
					want, wasIn := model[key]
					if found != wasIn || v != want {
						t.Errorf("Remove(%d) = %d, %v, want %d, %v", key, v, found, want, wasIn)
					}
					delete(model, key)
				}
			}

			models[w] = model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	total := 0
	for w, model := range models {
		total += len(model)
		for k, v := range model {
			got, found := m.Get(k)
			if !found || got != v {
				t.Fatalf("worker %d: Get(%d) = %d, %v, want %d", w, k, got, found, v)
			}
		}
	}
	if m.Size() != total {
		t.Fatalf("Size = %d, want %d", m.Size(), total)
	}
}
