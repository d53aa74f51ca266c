package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/pulse.report/internal/extract"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/series"
	"github.com/banshee-data/pulse.report/internal/units"
)

// ErrNoUsableDays reports a build that produced no output rows at all. An
// empty dataset is never a valid artifact, so this aborts the run.
var ErrNoUsableDays = errors.New("no usable days in raw data")

// Builder assembles the full dataset from a raw store.
type Builder struct {
	raw  *rawstore.Store
	opts Options
}

// NewBuilder returns a Builder over the given raw store.
func NewBuilder(raw *rawstore.Store, opts Options) *Builder {
	return &Builder{raw: raw, opts: opts}
}

// BodyBatterySeries builds the series spanning every body-battery batch in
// the store. Batches are concatenated in filename order before
// normalization, so for overlapping date ranges the lexicographically
// later file wins.
func BodyBatterySeries(raw *rawstore.Store, loc *time.Location) (series.Series, error) {
	docs, err := raw.BodyBatteryDocs()
	if err != nil {
		return series.Series{}, err
	}
	var pairs []extract.Pair
	for _, doc := range docs {
		pairs = append(pairs, extract.ParsePairs(doc, units.BodyBattery.Min, units.BodyBattery.Max)...)
	}
	return series.FromPairs(pairs, loc), nil
}

// Build assembles every available day in ascending date order and
// concatenates the results. Days with no usable signal are excluded when
// DropEmptyDays is set. The build fails only when it would produce an
// empty dataset.
func (b *Builder) Build() (*Tables, error) {
	days, err := b.raw.Days()
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no raw days in %s (want YYYY-MM-DD_<category>.json files): %w", b.raw.Dir(), ErrNoUsableDays)
	}

	bodyBattery, err := BodyBatterySeries(b.raw, b.opts.Location)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("building dataset: %d days, step %s, body battery fill %s",
		len(days), b.opts.Step, b.opts.BodyBatteryFill)

	tables := &Tables{}
	skipped := 0
	for _, day := range days {
		res, err := AssembleDay(b.readDay(day), bodyBattery, b.opts)
		if err != nil {
			return nil, err
		}
		if !res.Usable && b.opts.DropEmptyDays {
			monitoring.Debugf("dropping %s: no usable signal", day)
			skipped++
			continue
		}
		tables.Minutes = append(tables.Minutes, res.Minutes...)
		tables.Daily = append(tables.Daily, res.Daily)
	}
	if len(tables.Minutes) == 0 {
		return nil, fmt.Errorf("all %d raw days empty: %w", len(days), ErrNoUsableDays)
	}
	if skipped > 0 {
		monitoring.Logf("dropped %d of %d days with no usable signal", skipped, len(days))
	}
	return tables, nil
}

func (b *Builder) readDay(day string) DayInput {
	in := DayInput{Day: day}
	if data, ok := b.raw.ReadDay(day, rawstore.CategoryHeartRates); ok {
		in.HeartRates = data
	}
	if data, ok := b.raw.ReadDay(day, rawstore.CategoryStress); ok {
		in.Stress = data
	}
	if data, ok := b.raw.ReadDay(day, rawstore.CategoryRespiration); ok {
		in.Respiration = data
	}
	if data, ok := b.raw.ReadDay(day, rawstore.CategorySleep); ok {
		in.Sleep = data
	}
	if data, ok := b.raw.ReadDay(day, rawstore.CategoryUserSummary); ok {
		in.UserSummary = data
	}
	return in
}
