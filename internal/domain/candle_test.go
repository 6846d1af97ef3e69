package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCandles_ReversesWireOrder(t *testing.T) {
	base := time.Date(2025, 5, 19, 12, 0, 0, 0, time.UTC)
	wire := []Candle{
		{Time: base.Add(20 * time.Minute), Close: 3},
		{Time: base.Add(10 * time.Minute), Close: 2},
		{Time: base, Close: 1},
	}

	out := NormalizeCandles(wire)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{out[0].Close, out[1].Close, out[2].Close})
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i].Time.After(out[i-1].Time))
	}
	// el input no se toca
	assert.Equal(t, 3.0, wire[0].Close)
}

func TestNormalizeCandles_DropsDuplicates(t *testing.T) {
	base := time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC)
	out := NormalizeCandles([]Candle{
		{Time: base.Add(time.Hour), Close: 2},
		{Time: base, Close: 1},
		{Time: base.Add(time.Hour), Close: 5},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 5.0, out[1].Close)
}

func TestNormalizeCandles_Empty(t *testing.T) {
	assert.Empty(t, NormalizeCandles(nil))
}

func TestChangeRate(t *testing.T) {
	c := dailyCandles(100, 101, 102, 103, 110)
	assert.Equal(t, 10.0, ChangeRate(c, 4))
	assert.Equal(t, 0.0, ChangeRate(c, 5), "no hay vela de referencia")
	assert.Equal(t, 0.0, ChangeRate(dailyCandles(0, 5), 1), "referencia 0")
	assert.Equal(t, 0.0, ChangeRate(c, 0))
}

func TestLastClose(t *testing.T) {
	_, ok := LastClose(nil)
	assert.False(t, ok)
	v, ok := LastClose(dailyCandles(1, 2))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestInterval_DefaultCount(t *testing.T) {
	assert.Equal(t, 144, IntervalMinute10.DefaultCount())
	assert.Equal(t, 36, IntervalMinute240.DefaultCount())
	assert.Equal(t, 30, IntervalDay.DefaultCount())
	assert.False(t, Interval("minutes/7").Valid())
	for _, i := range Intervals {
		assert.True(t, i.Valid(), string(i))
	}
}
