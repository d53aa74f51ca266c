package store

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/banshee-data/pulse.report/internal/fsutil"
)

func TestWriteCSV(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	if err := WriteCSV(fs, "out", sampleTables()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	minuteCSV, err := fs.ReadFile("out/" + MinuteCSVName)
	if err != nil {
		t.Fatalf("read minute csv: %v", err)
	}
	wantMinute := "timestamp,hr,stress,resp,bb,steps,kcal,sleep_flag\n" +
		"2023-07-24T00:00:00Z,71,,,80,9441,,1\n" +
		"2023-07-24T00:01:00Z,,12.5,,,,,0\n"
	if string(minuteCSV) != wantMinute {
		t.Errorf("minute csv:\n%s\nwant:\n%s", minuteCSV, wantMinute)
	}

	dailyCSV, err := fs.ReadFile("out/" + DailyCSVName)
	if err != nil {
		t.Fatalf("read daily csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(dailyCSV), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("daily csv has %d lines, want 2:\n%s", len(lines), dailyCSV)
	}
	wantHeader := "date,hr,stress,resp,bb,steps,kcal,sleep_flag,coverage_hr,coverage_stress,coverage_resp,coverage_bb"
	if lines[0] != wantHeader {
		t.Errorf("daily header = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2023-07-24,71,,,80,9441,,1,") {
		t.Errorf("daily row = %s", lines[1])
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()

	if err := WriteParquet(fs, "out", sampleTables()); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	data, err := fs.ReadFile("out/" + MinuteParquetName)
	if err != nil {
		t.Fatalf("read minute parquet: %v", err)
	}
	minutes, err := parquet.Read[minuteRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parquet.Read minutes: %v", err)
	}
	if len(minutes) != 2 {
		t.Fatalf("decoded %d minute records, want 2", len(minutes))
	}
	wantTS := time.Date(2023, 7, 24, 0, 0, 0, 0, time.UTC).UnixMilli()
	if minutes[0].Timestamp != wantTS {
		t.Errorf("timestamp = %d, want %d", minutes[0].Timestamp, wantTS)
	}
	if minutes[0].HR == nil || *minutes[0].HR != 71 {
		t.Errorf("hr = %v, want 71", minutes[0].HR)
	}
	if minutes[0].Resp != nil {
		t.Errorf("resp = %v, want nil", *minutes[0].Resp)
	}
	if minutes[0].SleepFlag != 1 {
		t.Errorf("sleep_flag = %d, want 1", minutes[0].SleepFlag)
	}
	if minutes[1].Stress == nil || *minutes[1].Stress != 12.5 {
		t.Errorf("stress = %v, want 12.5", minutes[1].Stress)
	}

	data, err = fs.ReadFile("out/" + DailyParquetName)
	if err != nil {
		t.Fatalf("read daily parquet: %v", err)
	}
	daily, err := parquet.Read[dailyRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parquet.Read daily: %v", err)
	}
	if len(daily) != 1 {
		t.Fatalf("decoded %d daily records, want 1", len(daily))
	}
	if daily[0].Date != "2023-07-24" {
		t.Errorf("date = %s", daily[0].Date)
	}
	if daily[0].Steps == nil || *daily[0].Steps != 9441 {
		t.Errorf("steps = %v, want 9441", daily[0].Steps)
	}
	if daily[0].CoverageHR != 1.0/1440.0 {
		t.Errorf("coverage_hr = %v", daily[0].CoverageHR)
	}
}
