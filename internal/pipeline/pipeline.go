// Package pipeline wires the raw store, dataset builder, SQLite store,
// exports, and reports into the build and update flows behind the CLI
// binaries.
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/pulse.report/internal/dataset"
	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/report"
	"github.com/banshee-data/pulse.report/internal/series"
	"github.com/banshee-data/pulse.report/internal/store"
	"github.com/banshee-data/pulse.report/internal/timeutil"
)

// DefaultDBName is the SQLite filename used when no -db flag is given.
const DefaultDBName = "pulse.db"

// ReportSubdir holds rendered dashboards and plots under the output dir.
const ReportSubdir = "reports"

// Build bundles everything one dataset build needs. Zero values are not
// usable; the CLIs populate all fields from flags and config.
type Build struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock

	RawDir string
	OutDir string
	DBPath string // empty: OutDir/pulse.db

	Timezone        string
	Step            time.Duration
	BodyBatteryFill series.FillPolicy
	DropEmptyDays   bool

	WriteCSV bool
	Charts   bool
}

func (b *Build) dbPath() string {
	if b.DBPath != "" {
		return b.DBPath
	}
	return filepath.Join(b.OutDir, DefaultDBName)
}

// BuildSummary reports what a build produced.
type BuildSummary struct {
	RunID      string
	Days       int
	MinuteRows int
	DBPath     string
	MinutePath string
	DailyPath  string
	Elapsed    time.Duration
}

// Run builds the dataset from the raw directory and persists it: SQLite
// first, then parquet, then the optional CSV and report artifacts.
// Report rendering failures are logged, not returned; everything else
// is fatal.
func Run(b Build) (*BuildSummary, error) {
	started := b.Clock.Now()

	loc, err := dateutil.LoadLocation(b.Timezone)
	if err != nil {
		return nil, err
	}

	raw := rawstore.New(b.FS, b.RawDir)
	builder := dataset.NewBuilder(raw, dataset.Options{
		Location:        loc,
		Step:            b.Step,
		BodyBatteryFill: b.BodyBatteryFill,
		DropEmptyDays:   b.DropEmptyDays,
	})
	tables, err := builder.Build()
	if err != nil {
		return nil, err
	}

	if err := b.FS.MkdirAll(b.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", b.OutDir, err)
	}
	dbPath := b.dbPath()
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := b.FS.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.ReplaceDataset(tables); err != nil {
		return nil, err
	}

	run := &store.BuildRun{
		StartedAt:       started,
		FinishedAt:      b.Clock.Now(),
		RawDir:          b.RawDir,
		Timezone:        b.Timezone,
		StepMinutes:     int(b.Step / time.Minute),
		BodyBatteryFill: b.BodyBatteryFill.String(),
		Days:            len(tables.Daily),
		Minutes:         len(tables.Minutes),
	}
	if err := db.RecordBuildRun(run); err != nil {
		return nil, err
	}

	if err := store.WriteParquet(b.FS, b.OutDir, tables); err != nil {
		return nil, err
	}
	if b.WriteCSV {
		if err := store.WriteCSV(b.FS, b.OutDir, tables); err != nil {
			return nil, err
		}
	}

	if b.Charts {
		renderReports(b, tables)
	}

	summary := &BuildSummary{
		RunID:      run.ID,
		Days:       len(tables.Daily),
		MinuteRows: len(tables.Minutes),
		DBPath:     dbPath,
		MinutePath: filepath.Join(b.OutDir, store.MinuteParquetName),
		DailyPath:  filepath.Join(b.OutDir, store.DailyParquetName),
		Elapsed:    b.Clock.Since(started),
	}
	monitoring.Logf("dataset built: %d days, %d minute rows -> %s", summary.Days, summary.MinuteRows, b.OutDir)
	return summary, nil
}

// renderReports draws the dashboard and trend plots. The dataset is
// already persisted at this point, so a rendering failure costs only
// the report.
func renderReports(b Build, tables *dataset.Tables) {
	dir := filepath.Join(b.OutDir, ReportSubdir)
	if err := b.FS.MkdirAll(dir, 0o755); err != nil {
		monitoring.Logf("skipping reports: %v", err)
		return
	}
	if err := report.WriteDashboard(b.FS, dir, tables.Daily); err != nil {
		monitoring.Logf("dashboard not rendered: %v", err)
	}
	if _, err := report.WriteTrendPlots(b.FS, dir, tables.Daily); err != nil {
		monitoring.Logf("trend plots not rendered: %v", err)
	}
}
