// Package check provides the threshold and interval tests a table draw
// applies to a rolled value.
package check

// WithinThreshold reports whether a roll is at or under its threshold. This
// is the percentile presence check used by treasure entries.
func WithinThreshold(roll, threshold int) bool {
	return roll <= threshold
}

// WithinRange reports whether value lies in [low, high], inclusive at both
// ends.
func WithinRange(value, low, high int) bool {
	return value >= low && value <= high
}

// Overlaps reports whether [aLow, aHigh] and [bLow, bHigh] share at least one
// value.
func Overlaps(aLow, aHigh, bLow, bHigh int) bool {
	return aLow <= bHigh && bLow <= aHigh
}
