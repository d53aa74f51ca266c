package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/extract"
)

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func TestFromPairsSortsAndConverts(t *testing.T) {
	loc := madrid(t)
	pairs := []extract.Pair{
		{Millis: 1690157400000, Value: 74},
		{Millis: 1690156800000, Value: 71},
		{Millis: 1690157100000, Value: 72},
	}

	s := FromPairs(pairs, loc)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, int64(1690156800000), s.Time(0).UnixMilli())
	assert.Equal(t, int64(1690157100000), s.Time(1).UnixMilli())
	assert.Equal(t, int64(1690157400000), s.Time(2).UnixMilli())
	assert.Equal(t, 71.0, s.Value(0))
	assert.Equal(t, loc, s.Time(0).Location())
}

func TestFromPairsLastWriteWins(t *testing.T) {
	loc := madrid(t)
	pairs := []extract.Pair{
		{Millis: 1690156800000, Value: 70},
		{Millis: 1690156860000, Value: 65},
		{Millis: 1690156800000, Value: 72},
	}

	s := FromPairs(pairs, loc)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 72.0, s.Value(0))
	assert.Equal(t, 65.0, s.Value(1))
}

func TestFromPairsIdempotent(t *testing.T) {
	loc := madrid(t)
	pairs := []extract.Pair{
		{Millis: 1690157400000, Value: 74},
		{Millis: 1690156800000, Value: 71},
		{Millis: 1690156800000, Value: 73},
	}

	first := FromPairs(pairs, loc)
	again := make([]extract.Pair, 0, first.Len())
	for i := 0; i < first.Len(); i++ {
		again = append(again, extract.Pair{Millis: first.Time(i).UnixMilli(), Value: first.Value(i)})
	}
	second := FromPairs(again, loc)

	require.Equal(t, first.Len(), second.Len())
	for i := 0; i < first.Len(); i++ {
		assert.True(t, first.Time(i).Equal(second.Time(i)))
		assert.Equal(t, first.Value(i), second.Value(i))
	}
}

func TestFromPairsEmpty(t *testing.T) {
	s := FromPairs(nil, madrid(t))
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Len())
}

func TestCountValid(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0, CountValid(nil))
	assert.Equal(t, 0, CountValid([]float64{nan, nan}))
	assert.Equal(t, 2, CountValid([]float64{nan, 1, nan, 2}))
}

func TestMeanValid(t *testing.T) {
	nan := math.NaN()

	mean, ok := MeanValid([]float64{nan, 60, nan, 70})
	require.True(t, ok)
	assert.InDelta(t, 65.0, mean, 1e-12)

	_, ok = MeanValid([]float64{nan, nan})
	assert.False(t, ok)
}

func TestLastValid(t *testing.T) {
	nan := math.NaN()

	v, ok := LastValid([]float64{nan, 42, 55, nan})
	require.True(t, ok)
	assert.Equal(t, 55.0, v)

	_, ok = LastValid([]float64{nan, nan, nan})
	assert.False(t, ok)
}
