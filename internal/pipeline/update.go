package pipeline

import (
	"context"
	"time"

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/garmin"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/store"
)

// DefaultChunkDays bounds one fetch request range in the updater.
const DefaultChunkDays = 7

// Update configures an incremental catch-up: fetch the days missing
// since the last build, then rebuild.
type Update struct {
	Build   Build
	Fetcher *garmin.Fetcher

	EndDay     string // empty: yesterday in Build.Timezone
	ChunkDays  int    // <= 0: DefaultChunkDays
	Rebuild    bool
	FetchPause time.Duration

	// OnFetch, when set, receives every fetch result.
	OnFetch func(garmin.FetchResult)
}

// UpdateSummary reports what an update run did.
type UpdateSummary struct {
	Start   string
	End     string
	Fetched bool // whether any fetch pass ran
	Stats   garmin.FetchStats
	Build   *BuildSummary // nil when Rebuild is off
}

// RunUpdate determines the missing day range, downloads it in chunks,
// and rebuilds the dataset. The range starts the day after the newest
// known day (daily table first, raw directory as fallback) and ends at
// EndDay. With no known day only EndDay itself is fetched.
func RunUpdate(ctx context.Context, u Update) (*UpdateSummary, error) {
	loc, err := dateutil.LoadLocation(u.Build.Timezone)
	if err != nil {
		return nil, err
	}

	end := u.EndDay
	if end == "" {
		end = dateutil.Yesterday(u.Build.Clock.Now(), loc)
	} else if _, err := dateutil.ParseDay(end, loc); err != nil {
		return nil, err
	}

	start := end
	last, known := lastKnownDay(u.Build)
	if known {
		start, err = dateutil.AddDays(last, 1, loc)
		if err != nil {
			return nil, err
		}
	}

	summary := &UpdateSummary{Start: start, End: end}

	// ISO dates order lexicographically, so string comparison is date
	// comparison here.
	if start <= end {
		chunk := u.ChunkDays
		if chunk <= 0 {
			chunk = DefaultChunkDays
		}
		monitoring.Logf("fetching %s to %s", start, end)

		for current := start; current <= end; {
			chunkEnd, err := dateutil.AddDays(current, chunk-1, loc)
			if err != nil {
				return summary, err
			}
			if chunkEnd > end {
				chunkEnd = end
			}

			stats, err := u.Fetcher.Run(ctx, garmin.Options{
				Start:    current,
				End:      chunkEnd,
				Pause:    u.FetchPause,
				OnResult: u.OnFetch,
			})
			summary.Stats.Fetched += stats.Fetched
			summary.Stats.Skipped += stats.Skipped
			summary.Stats.Failed += stats.Failed
			if err != nil {
				return summary, err
			}
			summary.Fetched = true

			current, err = dateutil.AddDays(chunkEnd, 1, loc)
			if err != nil {
				return summary, err
			}
		}
	} else {
		monitoring.Logf("nothing to fetch (last day %s, end %s)", last, end)
	}

	if u.Rebuild {
		b := u.Build
		// A catch-up rebuild always drops all-gap days; freshly fetched
		// tails often include days the device never synced.
		b.DropEmptyDays = true
		bs, err := Run(b)
		if err != nil {
			return summary, err
		}
		summary.Build = bs
	}
	return summary, nil
}

// lastKnownDay finds the newest day the system has seen: the daily
// table when a database exists, else the newest raw filename date.
func lastKnownDay(b Build) (string, bool) {
	dbPath := b.dbPath()
	if b.FS.Exists(dbPath) {
		if db, err := store.Open(dbPath); err == nil {
			day, ok, err := db.LastDailyDate()
			db.Close()
			if err == nil && ok {
				return day, true
			}
		}
	}

	raw := rawstore.New(b.FS, b.RawDir)
	day, ok, err := raw.LastDay()
	if err != nil || !ok {
		return "", false
	}
	return day, true
}
