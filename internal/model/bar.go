package model

import "time"

// Bar represents one 1-minute OHLCV bar built from tick mid prices.
// Dùng chung cho aggregate, store và quality.
type Bar struct {
	Timestamp     time.Time // minute floor, UTC
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64 // sum of ask+bid volumes over the minute
	Source        string
	KnowledgeTime time.Time // when the data was ingested, not when it happened
	BarHash       string    // sha256 over timestamp|open|high|low|close|volume|source
}

// Valid reports whether the OHLC fields are internally consistent.
func (b Bar) Valid() bool {
	hi := b.Open
	if b.Close > hi {
		hi = b.Close
	}
	lo := b.Open
	if b.Close < lo {
		lo = b.Close
	}
	return b.High >= hi && b.Low <= lo && b.High >= b.Low && b.Volume >= 0
}
