// Package extract locates metric samples inside raw wearable-cloud JSON.
// The export variants nest their value arrays differently and share no
// schema, so the walkers here match on structure instead of key names: a
// long list whose elements look like [epoch, value] pairs is treated as a
// sample series wherever it sits in the document.
package extract

import (
	"encoding/json"
	"sort"
)

// Pair is one decoded sample: a UTC epoch in milliseconds and its value.
type Pair struct {
	Millis int64
	Value  float64
}

// Pair-list detection heuristic. Only the head of a list is inspected so
// classification stays cheap on multi-thousand element payloads.
const (
	// pairSampleSize is how many leading elements of a candidate list are
	// inspected.
	pairSampleSize = 10

	// pairEpochQuorum is how many of the sampled elements must open with
	// an epoch-looking number for the whole list to count as a series.
	pairEpochQuorum = 8
)

// epochFloor separates real calendar epochs from indexes and readings: any
// number at or below it cannot be a timestamp for dates this system cares
// about.
const epochFloor = 1e9

// millisFloor separates second-resolution epochs from millisecond ones.
// Timestamps below it are seconds and get scaled up.
const millisFloor = 1e10

// ParsePairs decodes a raw JSON document and collects every [timestamp,
// value] pair whose value lies within [min, max]. A document that fails to
// decode contributes nothing; callers treat a bad file the same as a
// missing one.
func ParsePairs(raw []byte, min, max float64) []Pair {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return CollectPairs(v, min, max)
}

// CollectPairs walks a decoded JSON value and returns the pairs found in
// embedded pair lists, filtered to values within [min, max]. Object values
// are visited in sorted key order so repeated runs over the same document
// always yield the same pair order.
func CollectPairs(v any, min, max float64) []Pair {
	var out []Pair
	collectPairs(v, min, max, &out)
	return out
}

func collectPairs(v any, min, max float64, out *[]Pair) {
	switch node := v.(type) {
	case []any:
		if isPairList(node) {
			for _, e := range node {
				if p, ok := decodePair(e, min, max); ok {
					*out = append(*out, p)
				}
			}
			// An accepted series is a leaf; its elements are samples,
			// not containers worth searching.
			return
		}
		for _, e := range node {
			collectPairs(e, min, max, out)
		}
	case map[string]any:
		for _, key := range sortedKeys(node) {
			collectPairs(node[key], min, max, out)
		}
	}
}

// isPairList applies the sampling heuristic: the list must have at least
// pairSampleSize elements, every sampled element must itself be a sequence
// of length >= 2, and at least pairEpochQuorum of the sampled elements must
// open with an epoch-looking number.
func isPairList(list []any) bool {
	if len(list) < pairSampleSize {
		return false
	}
	score := 0
	for _, e := range list[:pairSampleSize] {
		inner, ok := e.([]any)
		if !ok || len(inner) < 2 {
			return false
		}
		if isEpoch(inner[0]) {
			score++
		}
	}
	return score >= pairEpochQuorum
}

func isEpoch(v any) bool {
	f, ok := v.(float64)
	return ok && f > epochFloor
}

// decodePair extracts (timestamp, value) from one element of an accepted
// pair list. Elements with a non-numeric timestamp, a null or non-numeric
// value, or a value outside [min, max] are dropped.
func decodePair(e any, min, max float64) (Pair, bool) {
	inner, ok := e.([]any)
	if !ok || len(inner) < 2 {
		return Pair{}, false
	}
	ts, ok := inner[0].(float64)
	if !ok {
		return Pair{}, false
	}
	val, ok := inner[1].(float64)
	if !ok {
		return Pair{}, false
	}
	if val < min || val > max {
		return Pair{}, false
	}
	return Pair{Millis: toEpochMillis(ts), Value: val}, true
}

// toEpochMillis normalizes a numeric epoch to milliseconds. Fractional
// parts are truncated.
func toEpochMillis(ts float64) int64 {
	v := int64(ts)
	if float64(v) < millisFloor {
		return v * 1000
	}
	return v
}

// FirstNumber searches a decoded JSON value depth-first for the first
// numeric field whose key matches one of the given aliases and returns its
// value. The alias set is unordered; within an object, fields are checked
// in sorted key order.
func FirstNumber(v any, aliases []string) (float64, bool) {
	match := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		match[a] = true
	}
	return firstNumber(v, match)
}

func firstNumber(v any, match map[string]bool) (float64, bool) {
	switch node := v.(type) {
	case map[string]any:
		for _, key := range sortedKeys(node) {
			if match[key] {
				if f, ok := node[key].(float64); ok {
					return f, true
				}
			}
			if f, ok := firstNumber(node[key], match); ok {
				return f, true
			}
		}
	case []any:
		for _, e := range node {
			if f, ok := firstNumber(e, match); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
