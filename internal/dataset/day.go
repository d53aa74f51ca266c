package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/extract"
	"github.com/banshee-data/pulse.report/internal/series"
	"github.com/banshee-data/pulse.report/internal/units"
)

// Recognized daily-summary key aliases, in priority order.
var (
	stepsAliases = []string{"totalSteps", "steps"}
	kcalAliases  = []string{"totalKilocalories", "totalKiloCalories", "kilocalories", "kiloCalories"}
)

// Options configures day assembly.
type Options struct {
	// Location is the target timezone of the output grid.
	Location *time.Location

	// Step is the grid slot width. Must divide 24 hours evenly.
	Step time.Duration

	// BodyBatteryFill is the gap-fill policy applied to the aligned
	// body-battery column.
	BodyBatteryFill series.FillPolicy

	// DropEmptyDays excludes days with no usable signal from both output
	// tables.
	DropEmptyDays bool
}

// DayInput carries the raw documents available for one day. A nil document
// means the category was never fetched for that day; the metric is simply
// missing.
type DayInput struct {
	Day         string // YYYY-MM-DD
	HeartRates  []byte
	Stress      []byte
	Respiration []byte
	Sleep       []byte
	UserSummary []byte
}

// DayResult is one assembled day. Usable reports whether at least one of
// the four aligned metrics holds a value anywhere in the day's grid,
// before gap filling; callers dropping empty days discard results with
// Usable false.
type DayResult struct {
	Minutes []MinuteRow
	Daily   DailyRow
	Usable  bool
}

// AssembleDay runs the full per-day pipeline: extract and normalize each
// metric, align onto the day's grid, fill body-battery gaps, overlay the
// sleep window, and summarize. Malformed or missing documents contribute
// nothing; the only error is an input day that is not a calendar date.
func AssembleDay(in DayInput, bodyBattery series.Series, opts Options) (DayResult, error) {
	midnight, err := dateutil.ParseDay(in.Day, opts.Location)
	if err != nil {
		return DayResult{}, fmt.Errorf("assembling day: %w", err)
	}
	grid := series.NewDayGrid(midnight, opts.Step)

	hr := alignDoc(in.HeartRates, units.HeartRate, grid, opts.Location)
	stress := alignDoc(in.Stress, units.Stress, grid, opts.Location)
	resp := alignDoc(in.Respiration, units.Respiration, grid, opts.Location)
	bb := grid.Resample(bodyBattery)

	steps, kcal := summaryScalars(in.UserSummary)
	flags := sleepFlags(in.Sleep, grid, opts.Location)

	usable := series.CountValid(hr) > 0 ||
		series.CountValid(stress) > 0 ||
		series.CountValid(resp) > 0 ||
		series.CountValid(bb) > 0

	// Fill after the usability check: a day counts as empty on what was
	// observed, not on what filling could invent.
	opts.BodyBatteryFill.Apply(grid.Times(), bb)

	res := DayResult{
		Minutes: make([]MinuteRow, grid.Slots()),
		Usable:  usable,
	}
	maxFlag := 0
	for i := range res.Minutes {
		if flags[i] > maxFlag {
			maxFlag = flags[i]
		}
		res.Minutes[i] = MinuteRow{
			Timestamp: grid.TimeAt(i),
			HR:        maybe(hr[i]),
			Stress:    maybe(stress[i]),
			Resp:      maybe(resp[i]),
			BB:        maybe(bb[i]),
			Steps:     steps,
			Kcal:      kcal,
			SleepFlag: flags[i],
		}
	}

	slots := float64(grid.Slots())
	res.Daily = DailyRow{
		Date:           in.Day,
		Steps:          steps,
		Kcal:           kcal,
		SleepFlag:      maxFlag,
		CoverageHR:     float64(series.CountValid(hr)) / slots,
		CoverageStress: float64(series.CountValid(stress)) / slots,
		CoverageResp:   float64(series.CountValid(resp)) / slots,
		CoverageBB:     float64(series.CountValid(bb)) / slots,
	}
	if m, ok := series.MeanValid(hr); ok {
		res.Daily.HR = ptr(m)
	}
	if m, ok := series.MeanValid(stress); ok {
		res.Daily.Stress = ptr(m)
	}
	if m, ok := series.MeanValid(resp); ok {
		res.Daily.Resp = ptr(m)
	}
	if v, ok := series.LastValid(bb); ok {
		res.Daily.BB = ptr(v)
	}
	return res, nil
}

// alignDoc extracts one metric's pairs from a raw document and aligns them
// onto the grid. A nil or malformed document yields an all-missing column.
func alignDoc(doc []byte, r units.Range, grid series.DayGrid, loc *time.Location) []float64 {
	var s series.Series
	if doc != nil {
		s = series.FromPairs(extract.ParsePairs(doc, r.Min, r.Max), loc)
	}
	return grid.Resample(s)
}

// summaryScalars pulls the day's step and kilocalorie totals out of the
// user-summary document.
func summaryScalars(doc []byte) (steps, kcal *float64) {
	if doc == nil {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, nil
	}
	if f, ok := extract.FirstNumber(v, stepsAliases); ok {
		steps = ptr(f)
	}
	if f, ok := extract.FirstNumber(v, kcalAliases); ok {
		kcal = ptr(f)
	}
	return steps, kcal
}

// sleepFlags marks the grid slots inside the day's sleep window, if the
// sleep document yields one: 1 for every instant t with start <= t < end,
// 0 elsewhere.
func sleepFlags(doc []byte, grid series.DayGrid, loc *time.Location) []int {
	flags := make([]int, grid.Slots())
	if doc == nil {
		return flags
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return flags
	}
	start, end, ok := extract.SleepWindow(v, loc)
	if !ok {
		return flags
	}
	for i := range flags {
		t := grid.TimeAt(i)
		if !t.Before(start) && t.Before(end) {
			flags[i] = 1
		}
	}
	return flags
}

func maybe(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return ptr(v)
}
