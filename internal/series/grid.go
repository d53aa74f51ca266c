package series

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DayGrid is the fixed slot layout for one calendar day: 24 hours of
// absolute time starting at the day's local midnight, divided into
// equal-width steps. Slots advance in absolute time, so the count stays
// 24h/step even on days where a zone transition shifts the wall clock.
type DayGrid struct {
	start time.Time
	step  time.Duration
	slots int
}

// NewDayGrid builds the grid anchored at start, which must be the day's
// midnight in the target zone. step must divide 24 hours evenly.
func NewDayGrid(start time.Time, step time.Duration) DayGrid {
	return DayGrid{
		start: start,
		step:  step,
		slots: int(24 * time.Hour / step),
	}
}

// Start returns the first grid instant.
func (g DayGrid) Start() time.Time { return g.start }

// End returns the exclusive end of the grid span.
func (g DayGrid) End() time.Time { return g.start.Add(time.Duration(g.slots) * g.step) }

// Slots returns the number of grid instants.
func (g DayGrid) Slots() int { return g.slots }

// TimeAt returns the instant of slot i.
func (g DayGrid) TimeAt(i int) time.Time { return g.start.Add(time.Duration(i) * g.step) }

// Times returns every grid instant in order.
func (g DayGrid) Times() []time.Time {
	out := make([]time.Time, g.slots)
	for i := range out {
		out[i] = g.TimeAt(i)
	}
	return out
}

// Resample restricts s to the grid's half-open day span and aggregates it
// onto the grid: each slot takes the arithmetic mean of the samples
// falling inside [TimeAt(i), TimeAt(i+1)), and slots with no samples are
// NaN. Averaging, rather than picking nearest or last, keeps sub-slot
// sampling noise from leaking through as jitter.
func (g DayGrid) Resample(s Series) []float64 {
	out := make([]float64, g.slots)
	for i := range out {
		out[i] = math.NaN()
	}
	if s.Empty() {
		return out
	}
	j := s.searchFrom(g.start)
	bucket := make([]float64, 0, 8)
	for i := 0; i < g.slots && j < s.Len(); i++ {
		next := g.TimeAt(i + 1)
		bucket = bucket[:0]
		for j < s.Len() && s.Time(j).Before(next) {
			bucket = append(bucket, s.Value(j))
			j++
		}
		if len(bucket) > 0 {
			out[i] = stat.Mean(bucket, nil)
		}
	}
	return out
}
