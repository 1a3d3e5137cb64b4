package hopscotch

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/tooein/hopscotch/shared"
)

// Config describes the geometry of a map. The zero value of every field
// selects the default from the shared package.
type Config[K comparable] struct {
	// Segments is the number of independently locked segments.
	// Must be a power of two.
	Segments uint64
	// BucketsPerSegment is the initial ring size of every segment.
	// Must be a power of two and at least AddRange.
	BucketsPerSegment uint64
	// HopRange is the neighborhood size: the maximum distance an entry
	// may live from its home bucket. At most 32, the hop bitmap width.
	HopRange uint64
	// AddRange bounds the linear probe for an empty bucket before an
	// insert resorts to growing the table. At least HopRange.
	AddRange uint64
	// MaxTries bounds lookup retries under concurrent displacement.
	MaxTries uint64
	// Hasher that is used. Must be configured for complex data types
	// or slices. If unset a default hasher is used for golang basic
	// types.
	Hasher shared.HashFn[K]
}

func (c *Config[K]) withDefaults() {
	if c.Segments == 0 {
		c.Segments = shared.DefaultSegments
	}
	if c.BucketsPerSegment == 0 {
		c.BucketsPerSegment = shared.DefaultBucketsPerSegment
	}
	if c.HopRange == 0 {
		c.HopRange = shared.DefaultHopRange
	}
	if c.AddRange == 0 {
		c.AddRange = shared.DefaultAddRange
	}
	if c.MaxTries == 0 {
		c.MaxTries = shared.DefaultMaxTries
	}
	if c.Hasher == nil {
		c.Hasher = shared.GetHasher[K]()
	}
}

// validate reports every violation at once, so a caller fixing a
// hand-written config does not chase them one by one.
func (c *Config[K]) validate() error {
	var err error

	if !shared.IsPowerOf2(c.Segments) {
		err = multierr.Append(err, fmt.Errorf("segments %d: %w", c.Segments, ErrNotPowerOf2))
	}
	if !shared.IsPowerOf2(c.BucketsPerSegment) {
		err = multierr.Append(err, fmt.Errorf("buckets per segment %d: %w", c.BucketsPerSegment, ErrNotPowerOf2))
	}
	if c.HopRange > hopInfoBits {
		err = multierr.Append(err, fmt.Errorf("hop range %d exceeds bitmap width %d: %w", c.HopRange, hopInfoBits, ErrOutOfRange))
	}
	if c.AddRange < c.HopRange {
		err = multierr.Append(err, fmt.Errorf("add range %d below hop range %d: %w", c.AddRange, c.HopRange, ErrOutOfRange))
	}
	if shared.IsPowerOf2(c.BucketsPerSegment) && c.BucketsPerSegment < c.AddRange {
		err = multierr.Append(err, fmt.Errorf("buckets per segment %d below add range %d: %w", c.BucketsPerSegment, c.AddRange, ErrOutOfRange))
	}

	return err
}
