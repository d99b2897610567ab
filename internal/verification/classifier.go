package verification

// Classifier derives the classification flag from a disclosed scalar. It must
// be pure: the flag is stored once and never recomputed.
type Classifier func(value uint64) bool

// AtLeast flags values greater than or equal to threshold, e.g. a spam score
// at or above 70.
func AtLeast(threshold uint64) Classifier {
	return func(value uint64) bool { return value >= threshold }
}
