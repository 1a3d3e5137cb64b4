package shared

const (
	// DefaultSegments is the number of independently locked segments.
	// More segments reduce write contention, each one costs a mutex
	// and a timestamp word.
	DefaultSegments = 16

	// DefaultBucketsPerSegment is the initial ring size of a segment.
	DefaultBucketsPerSegment = 128

	// DefaultHopRange is the neighborhood size. 32 fills the hop
	// bitmap word completely.
	DefaultHopRange = 32

	// DefaultAddRange bounds the linear probe for an empty bucket
	// before an insert gives up and resizes.
	DefaultAddRange = 64

	// DefaultMaxTries bounds read-path retries on observed
	// displacement activity.
	DefaultMaxTries = 4
)
