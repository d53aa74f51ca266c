package series

import (
	"fmt"
	"math"
	"time"
)

// FillPolicy names one of the gap-filling strategies applied to an aligned
// body-battery column. The device reports body battery as a gauge that
// stays meaningful between sparse samples, which is why it is the only
// metric that gets filled.
type FillPolicy int

const (
	// FillNone leaves the column untouched.
	FillNone FillPolicy = iota

	// FillForward propagates the last known value into later gaps.
	FillForward

	// FillForwardBackward forward-fills, then back-fills a still-missing
	// leading gap.
	FillForwardBackward

	// FillInterpolate linearly interpolates interior gaps weighted by
	// elapsed time, then fills remaining edge gaps from the nearest known
	// value.
	FillInterpolate
)

var fillPolicyNames = map[string]FillPolicy{
	"none":        FillNone,
	"ffill":       FillForward,
	"ffill_bfill": FillForwardBackward,
	"interpolate": FillInterpolate,
}

// ParseFillPolicy maps a configuration string onto its policy.
func ParseFillPolicy(name string) (FillPolicy, error) {
	p, ok := fillPolicyNames[name]
	if !ok {
		return FillNone, fmt.Errorf("unknown fill policy %q (want none, ffill, ffill_bfill or interpolate)", name)
	}
	return p, nil
}

func (p FillPolicy) String() string {
	for name, policy := range fillPolicyNames {
		if policy == p {
			return name
		}
	}
	return fmt.Sprintf("FillPolicy(%d)", int(p))
}

// Apply fills missing slots of values in place. times carries the grid
// instant of each slot and must be the same length as values; it drives
// the time weighting of FillInterpolate. A column with no known value is
// left entirely missing under every policy.
func (p FillPolicy) Apply(times []time.Time, values []float64) {
	switch p {
	case FillNone:
	case FillForward:
		forwardFill(values)
	case FillForwardBackward:
		forwardFill(values)
		backwardFill(values)
	case FillInterpolate:
		interpolateByTime(times, values)
		forwardFill(values)
		backwardFill(values)
	}
}

func forwardFill(values []float64) {
	last := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = last
		} else {
			last = v
		}
	}
}

func backwardFill(values []float64) {
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
		} else {
			next = values[i]
		}
	}
}

// interpolateByTime fills each interior gap between two known slots with
// values linearly weighted by elapsed time. Edge gaps have only one known
// neighbor and are left for the fallback fills.
func interpolateByTime(times []time.Time, values []float64) {
	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			t0 := times[prev]
			span := times[i].Sub(t0)
			for k := prev + 1; k < i; k++ {
				w := float64(times[k].Sub(t0)) / float64(span)
				values[k] = values[prev] + w*(values[i]-values[prev])
			}
		}
		prev = i
	}
}
