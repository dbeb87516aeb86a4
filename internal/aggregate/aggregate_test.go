package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-data/internal/model"
)

func tick(ts time.Time, mid, askVol, bidVol float64) model.Tick {
	return model.Tick{Timestamp: ts, Mid: mid, AskVolume: askVol, BidVolume: bidVol}
}

func TestMinuteBarsEmptyInput(t *testing.T) {
	bars := MinuteBars(nil, "dukascopy")
	require.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestMinuteBarsSingleMinute(t *testing.T) {
	base := time.Date(2023, 5, 10, 14, 10, 0, 0, time.UTC)
	ticks := []model.Tick{
		tick(base.Add(2*time.Second), 1.1000, 0.5, 0.5),
		tick(base.Add(20*time.Second), 1.1005, 1, 0),
		tick(base.Add(55*time.Second), 1.0995, 0.25, 0.25),
	}

	bars := MinuteBars(ticks, "dukascopy")
	require.Len(t, bars, 1)

	b := bars[0]
	assert.Equal(t, base, b.Timestamp)
	assert.Equal(t, 1.1000, b.Open)
	assert.Equal(t, 1.1005, b.High)
	assert.Equal(t, 1.0995, b.Low)
	assert.Equal(t, 1.0995, b.Close)
	assert.InDelta(t, 2.5, b.Volume, 1e-12)
	assert.Equal(t, "dukascopy", b.Source)
	assert.True(t, b.Valid())
}

func TestMinuteBarsMultipleMinutesOrdered(t *testing.T) {
	hour := time.Date(2023, 5, 10, 14, 0, 0, 0, time.UTC)
	var ticks []model.Tick
	// Three minutes of ticks, already time-ordered as the feed guarantees.
	for m, mids := range [][]float64{
		{1.10, 1.11, 1.09},
		{1.12},
		{1.08, 1.085},
	} {
		for s, mid := range mids {
			ticks = append(ticks, tick(hour.Add(time.Duration(m)*time.Minute+time.Duration(s)*time.Second), mid, 1, 1))
		}
	}

	bars := MinuteBars(ticks, "dukascopy")
	require.Len(t, bars, 3)

	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Timestamp.Before(bars[i].Timestamp), "bars must be sorted")
	}
	for _, b := range bars {
		assert.True(t, b.Valid(), "bar %s violates OHLC invariants", b.Timestamp)
	}

	assert.Equal(t, 1.10, bars[0].Open)
	assert.Equal(t, 1.09, bars[0].Close)
	assert.Equal(t, 1.12, bars[1].Open)
	assert.Equal(t, 1.12, bars[1].High)
	assert.Equal(t, 1.12, bars[1].Low)
	assert.Equal(t, 1.085, bars[2].Close)
}

func TestMinuteBarsOnePerDistinctMinute(t *testing.T) {
	hour := time.Date(2023, 5, 10, 9, 0, 0, 0, time.UTC)
	ticks := []model.Tick{
		tick(hour.Add(10*time.Minute), 1.2, 1, 0),
		tick(hour.Add(10*time.Minute+59*time.Second+999*time.Millisecond), 1.3, 1, 0),
		tick(hour.Add(11*time.Minute), 1.4, 1, 0),
	}

	bars := MinuteBars(ticks, "dukascopy")
	require.Len(t, bars, 2)
	assert.Equal(t, hour.Add(10*time.Minute), bars[0].Timestamp)
	assert.Equal(t, 1.3, bars[0].Close)
	assert.Equal(t, hour.Add(11*time.Minute), bars[1].Timestamp)
}
