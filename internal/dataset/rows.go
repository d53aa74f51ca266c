// Package dataset assembles raw wearable exports into two normalized
// tables: one row per grid minute and one summary row per calendar day.
// Each day is computed independently from its per-day documents plus the
// shared body-battery series, then concatenated in date order.
package dataset

import (
	"time"
)

// MinuteRow is one grid instant of the minute table. Metric fields are nil
// where no observation covers the slot; Steps and Kcal repeat the day's
// scalar totals on every row.
type MinuteRow struct {
	Timestamp time.Time
	HR        *float64
	Stress    *float64
	Resp      *float64
	BB        *float64
	Steps     *float64
	Kcal      *float64
	SleepFlag int
}

// DailyRow is one calendar day of the daily table. HR, Stress and Resp are
// means over the day's observed minutes, BB is the day's last observed
// value, SleepFlag is 1 when any minute was flagged asleep, and the
// coverage ratios give the fraction of grid slots holding a value, after
// gap filling.
type DailyRow struct {
	Date           string
	HR             *float64
	Stress         *float64
	Resp           *float64
	BB             *float64
	Steps          *float64
	Kcal           *float64
	SleepFlag      int
	CoverageHR     float64
	CoverageStress float64
	CoverageResp   float64
	CoverageBB     float64
}

// Tables is the assembled dataset, both tables in ascending date order.
type Tables struct {
	Minutes []MinuteRow
	Daily   []DailyRow
}

// Days returns the number of daily rows.
func (t *Tables) Days() int { return len(t.Daily) }

// DateRange returns the first and last daily dates. ok is false for an
// empty dataset.
func (t *Tables) DateRange() (first, last string, ok bool) {
	if len(t.Daily) == 0 {
		return "", "", false
	}
	return t.Daily[0].Date, t.Daily[len(t.Daily)-1].Date, true
}

func ptr(v float64) *float64 { return &v }
