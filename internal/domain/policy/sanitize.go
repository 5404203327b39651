package policy

import "math"

// sanitizeCounter normalizes a behavioral counter: non-finite and negative
// values become 0, fractional values are floored. Malformed input is absorbed
// rather than rejected.
func sanitizeCounter(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}
