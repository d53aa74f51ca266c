package extract

import (
	"time"
)

// Sleep endpoint aliases in priority order. The GMT variants are true
// epochs and win over the vendor's pre-shifted Local ones when both are
// present.
var (
	sleepStartKeys = []string{"sleepStartTimestampGMT", "sleepStartTimestampLocal"}
	sleepEndKeys   = []string{"sleepEndTimestampGMT", "sleepEndTimestampLocal"}
)

// isoNaiveLayout matches timestamps exported without a zone designator,
// such as "2023-07-23T22:22:00.0". Fractional seconds are accepted by the
// parser whether or not the layout names them.
const isoNaiveLayout = "2006-01-02T15:04:05"

// SleepWindow searches a decoded sleep document depth-first for an object
// carrying both a start and an end endpoint, expressed in loc. The first
// object whose endpoints parse wins. Objects holding only one endpoint, or
// endpoints in a shape the parser does not recognize, do not end the
// search; a document with no usable pair yields no window.
func SleepWindow(v any, loc *time.Location) (start, end time.Time, ok bool) {
	switch node := v.(type) {
	case map[string]any:
		if start, end, ok = windowFromObject(node, loc); ok {
			return start, end, true
		}
		for _, k := range sortedKeys(node) {
			if start, end, ok = SleepWindow(node[k], loc); ok {
				return start, end, true
			}
		}
	case []any:
		for _, e := range node {
			if start, end, ok = SleepWindow(e, loc); ok {
				return start, end, true
			}
		}
	}
	return time.Time{}, time.Time{}, false
}

// windowFromObject tries every start/end alias combination present on one
// object, in priority order, and returns the first combination where both
// values parse.
func windowFromObject(node map[string]any, loc *time.Location) (time.Time, time.Time, bool) {
	for _, sk := range sleepStartKeys {
		sv, present := node[sk]
		if !present {
			continue
		}
		for _, ek := range sleepEndKeys {
			ev, present := node[ek]
			if !present {
				continue
			}
			start, ok := parseSleepTime(sv, loc)
			if !ok {
				continue
			}
			end, ok := parseSleepTime(ev, loc)
			if !ok {
				continue
			}
			return start, end, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// parseSleepTime decodes a sleep endpoint value. Numbers are epoch
// milliseconds. Strings are ISO-8601: with an explicit offset they convert
// to loc, without one they are read as wall time already in loc.
func parseSleepTime(v any, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case float64:
		return time.UnixMilli(int64(val)).In(loc), true
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.In(loc), true
		}
		if t, err := time.ParseInLocation(isoNaiveLayout, val, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
