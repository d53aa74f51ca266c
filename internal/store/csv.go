package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/banshee-data/pulse.report/internal/dataset"
	"github.com/banshee-data/pulse.report/internal/fsutil"
)

// CSV export filenames.
const (
	MinuteCSVName = "minute.csv"
	DailyCSVName  = "daily.csv"
)

// WriteCSV writes both tables as CSV files under dir, mirroring the
// parquet column order. Missing values become empty cells.
func WriteCSV(fs fsutil.FileSystem, dir string, tables *dataset.Tables) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"timestamp", "hr", "stress", "resp", "bb", "steps", "kcal", "sleep_flag"}); err != nil {
		return err
	}
	for _, row := range tables.Minutes {
		record := []string{
			row.Timestamp.Format(time.RFC3339),
			cell(row.HR),
			cell(row.Stress),
			cell(row.Resp),
			cell(row.BB),
			cell(row.Steps),
			cell(row.Kcal),
			strconv.Itoa(row.SleepFlag),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", MinuteCSVName, err)
	}
	if err := fs.WriteFile(filepath.Join(dir, MinuteCSVName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", MinuteCSVName, err)
	}

	buf.Reset()
	w = csv.NewWriter(&buf)
	header := []string{"date", "hr", "stress", "resp", "bb", "steps", "kcal", "sleep_flag",
		"coverage_hr", "coverage_stress", "coverage_resp", "coverage_bb"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range tables.Daily {
		record := []string{
			row.Date,
			cell(row.HR),
			cell(row.Stress),
			cell(row.Resp),
			cell(row.BB),
			cell(row.Steps),
			cell(row.Kcal),
			strconv.Itoa(row.SleepFlag),
			formatFloat(row.CoverageHR),
			formatFloat(row.CoverageStress),
			formatFloat(row.CoverageResp),
			formatFloat(row.CoverageBB),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", DailyCSVName, err)
	}
	if err := fs.WriteFile(filepath.Join(dir, DailyCSVName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", DailyCSVName, err)
	}
	return nil
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
