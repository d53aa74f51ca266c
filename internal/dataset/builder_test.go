package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/series"
	"github.com/banshee-data/pulse.report/internal/testutil"
)

func writeFixture(t *testing.T, memfs *fsutil.MemoryFileSystem, name string, data []byte) {
	t.Helper()
	require.NoError(t, memfs.WriteFile("raw/"+name, data, 0o644))
}

// hrDoc builds a heart-rate document with ten valid one-minute samples
// starting at start.
func hrDoc(start time.Time, value float64) []byte {
	return testutil.SamplesDoc("heartRateValues", testutil.MinuteSeries(start, value, 10))
}

func TestBuildConcatenatesDaysInOrder(t *testing.T) {
	loc := madrid(t)
	memfs := fsutil.NewMemoryFileSystem()
	raw := rawstore.New(memfs, "raw")

	day1 := time.Date(2023, 7, 24, 8, 0, 0, 0, loc)
	day2 := time.Date(2023, 7, 25, 9, 0, 0, 0, loc)
	writeFixture(t, memfs, "2023-07-25_heart_rates.json", hrDoc(day2, 80))
	writeFixture(t, memfs, "2023-07-24_heart_rates.json", hrDoc(day1, 70))

	tables, err := NewBuilder(raw, testOptions(loc)).Build()
	require.NoError(t, err)

	require.Len(t, tables.Daily, 2)
	assert.Equal(t, "2023-07-24", tables.Daily[0].Date)
	assert.Equal(t, "2023-07-25", tables.Daily[1].Date)
	require.Len(t, tables.Minutes, 2*1440)
	assert.True(t, tables.Minutes[0].Timestamp.Equal(time.Date(2023, 7, 24, 0, 0, 0, 0, loc)))
	assert.True(t, tables.Minutes[1440].Timestamp.Equal(time.Date(2023, 7, 25, 0, 0, 0, 0, loc)))

	first, last, ok := tables.DateRange()
	require.True(t, ok)
	assert.Equal(t, "2023-07-24", first)
	assert.Equal(t, "2023-07-25", last)
}

func TestBuildDropsEmptyDays(t *testing.T) {
	loc := madrid(t)
	memfs := fsutil.NewMemoryFileSystem()
	raw := rawstore.New(memfs, "raw")

	day1 := time.Date(2023, 7, 24, 8, 0, 0, 0, loc)
	writeFixture(t, memfs, "2023-07-24_heart_rates.json", hrDoc(day1, 70))
	// A day whose only file is a daily summary carries no usable signal.
	writeFixture(t, memfs, "2023-07-25_user_summary.json", []byte(`{"totalSteps": 100}`))

	opts := testOptions(loc)
	tables, err := NewBuilder(raw, opts).Build()
	require.NoError(t, err)
	require.Len(t, tables.Daily, 1)
	assert.Equal(t, "2023-07-24", tables.Daily[0].Date)
	assert.Len(t, tables.Minutes, 1440)

	// Without dropping, the empty day stays in both tables.
	opts.DropEmptyDays = false
	tables, err = NewBuilder(raw, opts).Build()
	require.NoError(t, err)
	require.Len(t, tables.Daily, 2)
	assert.Equal(t, "2023-07-25", tables.Daily[1].Date)
	assert.Nil(t, tables.Daily[1].HR)
	assert.Equal(t, 0.0, tables.Daily[1].CoverageHR)
	require.NotNil(t, tables.Daily[1].Steps)
	assert.Equal(t, 100.0, *tables.Daily[1].Steps)
	assert.Len(t, tables.Minutes, 2*1440)
}

func TestBuildFailsWithoutDays(t *testing.T) {
	loc := madrid(t)
	raw := rawstore.New(fsutil.NewMemoryFileSystem(), "raw")

	_, err := NewBuilder(raw, testOptions(loc)).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableDays)
}

func TestBuildFailsWhenEveryDayIsEmpty(t *testing.T) {
	loc := madrid(t)
	memfs := fsutil.NewMemoryFileSystem()
	raw := rawstore.New(memfs, "raw")
	writeFixture(t, memfs, "2023-07-24_user_summary.json", []byte(`{"totalSteps": 100}`))
	writeFixture(t, memfs, "2023-07-25_stress.json", []byte(`{"error": "service unavailable"}`))

	_, err := NewBuilder(raw, testOptions(loc)).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableDays)
}

func TestBuildUsesGlobalBodyBattery(t *testing.T) {
	loc := madrid(t)
	memfs := fsutil.NewMemoryFileSystem()
	raw := rawstore.New(memfs, "raw")

	// The day is discovered through its sleep file; its only signal comes
	// from the multi-day body-battery batch.
	writeFixture(t, memfs, "2023-07-24_sleep.json", []byte(`{}`))
	bbStart := time.Date(2023, 7, 24, 12, 0, 0, 0, loc)
	samples := make([]testutil.Sample, 10)
	for i := range samples {
		samples[i] = testutil.Sample{At: bbStart.Add(time.Duration(i) * time.Minute), Value: float64(50 + i)}
	}
	writeFixture(t, memfs, "body_battery_2023-07-20_2023-07-26.json", testutil.SamplesDoc("bodyBatteryValuesArray", samples))

	tables, err := NewBuilder(raw, testOptions(loc)).Build()
	require.NoError(t, err)
	require.Len(t, tables.Daily, 1)
	assert.Greater(t, tables.Daily[0].CoverageBB, 0.0)
	require.NotNil(t, tables.Daily[0].BB)
	assert.Equal(t, 59.0, *tables.Daily[0].BB)
}

func TestBodyBatterySeriesLaterFileWins(t *testing.T) {
	loc := madrid(t)
	memfs := fsutil.NewMemoryFileSystem()
	raw := rawstore.New(memfs, "raw")

	at := time.Date(2023, 7, 24, 12, 0, 0, 0, loc)
	older := testutil.MinuteSeries(at, 50, 10)
	newer := testutil.MinuteSeries(at, 70, 10)
	writeFixture(t, memfs, "body_battery_2023-07-10_2023-07-24.json", testutil.SamplesDoc("bodyBatteryValuesArray", older))
	writeFixture(t, memfs, "body_battery_2023-07-20_2023-07-31.json", testutil.SamplesDoc("bodyBatteryValuesArray", newer))

	s, err := BodyBatterySeries(raw, loc)
	require.NoError(t, err)
	require.Equal(t, 10, s.Len())
	for i := 0; i < s.Len(); i++ {
		assert.Equal(t, 70.0, s.Value(i))
	}
}
