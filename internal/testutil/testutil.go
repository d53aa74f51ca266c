// Package testutil builds the raw export documents shared by tests
// across the extraction, assembly, and pipeline packages.
package testutil

import (
	"fmt"
	"strings"
	"time"
)

// Sample is one (instant, value) reading.
type Sample struct {
	At    time.Time
	Value float64
}

// SamplesDoc renders a JSON document holding one pair list under key,
// each pair encoded as [epoch-millis, value].
func SamplesDoc(key string, samples []Sample) []byte {
	elems := make([]string, len(samples))
	for i, s := range samples {
		elems[i] = fmt.Sprintf("[%d,%g]", s.At.UnixMilli(), s.Value)
	}
	return []byte(fmt.Sprintf(`{"%s": [%s]}`, key, strings.Join(elems, ",")))
}

// MinuteSeries returns n readings of value, one minute apart starting
// at `at`. Ten or more make a list long enough for pair detection.
func MinuteSeries(at time.Time, value float64, n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{At: at.Add(time.Duration(i) * time.Minute), Value: value}
	}
	return out
}

// RepeatedSample returns n identical readings at the same instant.
func RepeatedSample(at time.Time, value float64, n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{At: at, Value: value}
	}
	return out
}
