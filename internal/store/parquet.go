package store

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/pulse.report/internal/dataset"
	"github.com/banshee-data/pulse.report/internal/fsutil"
)

// Parquet export filenames, fixed so downstream notebooks can rely on
// them.
const (
	MinuteParquetName = "minute.parquet"
	DailyParquetName  = "daily.parquet"
)

// minuteRecord is the parquet row shape of the minute table. Optional
// columns carry missing observations as nulls rather than sentinel values.
type minuteRecord struct {
	Timestamp int64    `parquet:"timestamp,timestamp(millisecond)"`
	HR        *float64 `parquet:"hr,optional"`
	Stress    *float64 `parquet:"stress,optional"`
	Resp      *float64 `parquet:"resp,optional"`
	BB        *float64 `parquet:"bb,optional"`
	Steps     *float64 `parquet:"steps,optional"`
	Kcal      *float64 `parquet:"kcal,optional"`
	SleepFlag int32    `parquet:"sleep_flag"`
}

// dailyRecord is the parquet row shape of the daily table.
type dailyRecord struct {
	Date           string   `parquet:"date"`
	HR             *float64 `parquet:"hr,optional"`
	Stress         *float64 `parquet:"stress,optional"`
	Resp           *float64 `parquet:"resp,optional"`
	BB             *float64 `parquet:"bb,optional"`
	Steps          *float64 `parquet:"steps,optional"`
	Kcal           *float64 `parquet:"kcal,optional"`
	SleepFlag      int32    `parquet:"sleep_flag"`
	CoverageHR     float64  `parquet:"coverage_hr"`
	CoverageStress float64  `parquet:"coverage_stress"`
	CoverageResp   float64  `parquet:"coverage_resp"`
	CoverageBB     float64  `parquet:"coverage_bb"`
}

// WriteParquet writes both tables as parquet files under dir.
func WriteParquet(fs fsutil.FileSystem, dir string, tables *dataset.Tables) error {
	minutes := make([]minuteRecord, len(tables.Minutes))
	for i, row := range tables.Minutes {
		minutes[i] = minuteRecord{
			Timestamp: row.Timestamp.UnixMilli(),
			HR:        row.HR,
			Stress:    row.Stress,
			Resp:      row.Resp,
			BB:        row.BB,
			Steps:     row.Steps,
			Kcal:      row.Kcal,
			SleepFlag: int32(row.SleepFlag),
		}
	}
	if err := writeParquetFile(fs, filepath.Join(dir, MinuteParquetName), minutes); err != nil {
		return err
	}

	daily := make([]dailyRecord, len(tables.Daily))
	for i, row := range tables.Daily {
		daily[i] = dailyRecord{
			Date:           row.Date,
			HR:             row.HR,
			Stress:         row.Stress,
			Resp:           row.Resp,
			BB:             row.BB,
			Steps:          row.Steps,
			Kcal:           row.Kcal,
			SleepFlag:      int32(row.SleepFlag),
			CoverageHR:     row.CoverageHR,
			CoverageStress: row.CoverageStress,
			CoverageResp:   row.CoverageResp,
			CoverageBB:     row.CoverageBB,
		}
	}
	return writeParquetFile(fs, filepath.Join(dir, DailyParquetName), daily)
}

func writeParquetFile[T any](fs fsutil.FileSystem, path string, records []T) error {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(records); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
