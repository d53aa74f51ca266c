// Package series turns extracted sample pairs into timezone-aware,
// regularly gridded time series. A Series is the normalized form of one
// metric's samples; a DayGrid aligns a Series onto fixed-width slots
// covering one calendar day; a FillPolicy closes gaps in an aligned
// column. Missing slots are represented as NaN until the row layer maps
// them to nullable fields.
package series

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pulse.report/internal/extract"
)

// Series is an immutable sequence of (instant, value) samples sorted
// ascending by instant with no duplicate instants.
type Series struct {
	times  []time.Time
	values []float64
}

// FromPairs normalizes raw pairs into a Series in the given location.
// Epochs are interpreted as UTC and converted to loc. Duplicate instants
// keep the value appearing last in input order, which lets overlapping
// export files override each other in processing order.
func FromPairs(pairs []extract.Pair, loc *time.Location) Series {
	if len(pairs) == 0 {
		return Series{}
	}
	latest := make(map[int64]float64, len(pairs))
	for _, p := range pairs {
		latest[p.Millis] = p.Value
	}
	millis := make([]int64, 0, len(latest))
	for ms := range latest {
		millis = append(millis, ms)
	}
	sort.Slice(millis, func(i, j int) bool { return millis[i] < millis[j] })

	s := Series{
		times:  make([]time.Time, len(millis)),
		values: make([]float64, len(millis)),
	}
	for i, ms := range millis {
		s.times[i] = time.UnixMilli(ms).In(loc)
		s.values[i] = latest[ms]
	}
	return s
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.times) }

// Empty reports whether the series holds no samples.
func (s Series) Empty() bool { return len(s.times) == 0 }

// Time returns the instant of sample i.
func (s Series) Time(i int) time.Time { return s.times[i] }

// Value returns the value of sample i.
func (s Series) Value(i int) float64 { return s.values[i] }

// searchFrom returns the index of the first sample at or after t.
func (s Series) searchFrom(t time.Time) int {
	return sort.Search(len(s.times), func(i int) bool {
		return !s.times[i].Before(t)
	})
}

// CountValid returns the number of non-missing slots in an aligned column.
func CountValid(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// MeanValid returns the arithmetic mean over the non-missing slots of an
// aligned column. ok is false when every slot is missing.
func MeanValid(values []float64) (mean float64, ok bool) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	return stat.Mean(valid, nil), true
}

// LastValid returns the last non-missing value of an aligned column. ok is
// false when every slot is missing.
func LastValid(values []float64) (v float64, ok bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}
