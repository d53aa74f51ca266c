package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/timeutil"
)

// CategoryBodyBattery labels the ranged body battery document in fetch
// results. Per-day categories come from rawstore.
const CategoryBodyBattery = "body_battery"

// FetchStatus classifies the outcome of one document fetch.
type FetchStatus int

const (
	// StatusFetched means the document was downloaded and saved.
	StatusFetched FetchStatus = iota
	// StatusSkipped means the document already existed.
	StatusSkipped
	// StatusFailed means the fetch failed and an error sidecar was saved.
	StatusFailed
)

// FetchResult reports the outcome of one document fetch.
type FetchResult struct {
	Day      string // empty for the ranged body battery document
	Category string
	Status   FetchStatus
	Err      error
}

// FetchStats counts outcomes over a whole run.
type FetchStats struct {
	Fetched int
	Skipped int
	Failed  int
}

// Options configures a fetch run over an inclusive day range.
type Options struct {
	Start string
	End   string
	Force bool
	Pause time.Duration

	// OnResult, when set, is called after each document fetch.
	OnResult func(FetchResult)
}

// Fetcher downloads raw exports into a rawstore directory. Failures are
// contained per document: the failing fetch gets an error sidecar and
// the run continues.
type Fetcher struct {
	client *Client
	raw    *rawstore.Store
	clock  timeutil.Clock
}

// NewFetcher returns a Fetcher writing through raw.
func NewFetcher(client *Client, raw *rawstore.Store, clock timeutil.Clock) *Fetcher {
	return &Fetcher{client: client, raw: raw, clock: clock}
}

// Run fetches the body battery report for the whole range and then the
// per-day documents for every day in it. Existing files are kept unless
// opts.Force is set.
func (f *Fetcher) Run(ctx context.Context, opts Options) (FetchStats, error) {
	var stats FetchStats

	days, err := dateutil.DayRange(opts.Start, opts.End, time.UTC)
	if err != nil {
		return stats, err
	}
	if err := f.raw.EnsureDir(); err != nil {
		return stats, err
	}

	f.fetchBodyBattery(ctx, opts, &stats)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for _, category := range rawstore.Categories {
			f.fetchDay(ctx, opts, day, category, &stats)
		}
		if opts.Pause > 0 {
			f.clock.Sleep(opts.Pause)
		}
	}
	return stats, nil
}

func (f *Fetcher) fetchBodyBattery(ctx context.Context, opts Options, stats *FetchStats) {
	result := FetchResult{Category: CategoryBodyBattery}

	if !opts.Force && f.raw.HasBodyBattery(opts.Start, opts.End) {
		result.Status = StatusSkipped
		f.record(opts, stats, result)
		return
	}

	data, err := f.client.BodyBattery(ctx, opts.Start, opts.End)
	if err == nil {
		data, err = indentJSON(data)
	}
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		if werr := f.raw.WriteBodyBatteryError(opts.Start, opts.End, err); werr != nil {
			result.Err = fmt.Errorf("%w (saving sidecar: %v)", err, werr)
		}
		f.record(opts, stats, result)
		return
	}

	if err := f.raw.WriteBodyBattery(opts.Start, opts.End, data); err != nil {
		result.Status = StatusFailed
		result.Err = err
		f.record(opts, stats, result)
		return
	}
	result.Status = StatusFetched
	f.record(opts, stats, result)
}

func (f *Fetcher) fetchDay(ctx context.Context, opts Options, day, category string, stats *FetchStats) {
	result := FetchResult{Day: day, Category: category}

	if !opts.Force && f.raw.HasDay(day, category) {
		result.Status = StatusSkipped
		f.record(opts, stats, result)
		return
	}

	data, err := f.client.FetchCategory(ctx, category, day)
	if err == nil {
		data, err = indentJSON(data)
	}
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		if werr := f.raw.WriteDayError(day, category, err); werr != nil {
			result.Err = fmt.Errorf("%w (saving sidecar: %v)", err, werr)
		}
		f.record(opts, stats, result)
		return
	}

	if err := f.raw.WriteDay(day, category, data); err != nil {
		result.Status = StatusFailed
		result.Err = err
		f.record(opts, stats, result)
		return
	}
	result.Status = StatusFetched
	f.record(opts, stats, result)
}

func (f *Fetcher) record(opts Options, stats *FetchStats, result FetchResult) {
	switch result.Status {
	case StatusFetched:
		stats.Fetched++
	case StatusSkipped:
		stats.Skipped++
	case StatusFailed:
		stats.Failed++
	}
	if opts.OnResult != nil {
		opts.OnResult(result)
	}
}

// indentJSON reformats an API response with two-space indentation,
// matching how saved exports are stored. A response that is not valid
// JSON is treated as a fetch failure.
func indentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return buf.Bytes(), nil
}
