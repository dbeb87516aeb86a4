// Package aggregate reduces ordered ticks to 1-minute OHLCV bars. Pure
// reduction over one call's input; no cross-hour state.
package aggregate

import (
	"time"

	"fx-data/internal/model"
)

// MinuteBars groups ticks by the UTC minute floor of their timestamps and
// emits one bar per minute, in first-seen minute order. OHLC is taken over
// the tick mid price; volume is the sum of ask+bid volumes. Empty input
// yields an empty (non-nil) slice.
func MinuteBars(ticks []model.Tick, source string) []model.Bar {
	bars := make([]model.Bar, 0, len(ticks)/10+1)
	index := make(map[time.Time]int)

	for _, tk := range ticks {
		minute := tk.Timestamp.UTC().Truncate(time.Minute)
		vol := tk.AskVolume + tk.BidVolume

		i, ok := index[minute]
		if !ok {
			index[minute] = len(bars)
			bars = append(bars, model.Bar{
				Timestamp: minute,
				Open:      tk.Mid,
				High:      tk.Mid,
				Low:       tk.Mid,
				Close:     tk.Mid,
				Volume:    vol,
				Source:    source,
			})
			continue
		}

		b := &bars[i]
		if tk.Mid > b.High {
			b.High = tk.Mid
		}
		if tk.Mid < b.Low {
			b.Low = tk.Mid
		}
		b.Close = tk.Mid
		b.Volume += vol
	}
	return bars
}
