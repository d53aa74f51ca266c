// Package units provides the plausible physical ranges for wearable metrics.
// Decoded samples outside these ranges are treated as sensor or transport
// noise and dropped before normalization.
package units

import "fmt"

// Range is an inclusive [Min, Max] interval for a metric's values.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Admissible ranges per metric. Values outside these are not physiologically
// possible for a wrist wearable and indicate a corrupted sample.
var (
	// HeartRate is in beats per minute.
	HeartRate = Range{Min: 20, Max: 250}

	// Stress is the vendor's unitless 0-100 score.
	Stress = Range{Min: 0, Max: 100}

	// Respiration is in breaths per minute.
	Respiration = Range{Min: 2, Max: 60}

	// BodyBattery is the vendor's 0-100 energy gauge.
	BodyBattery = Range{Min: 0, Max: 100}
)
