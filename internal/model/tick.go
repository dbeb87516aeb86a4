package model

import "time"

// Tick is one bid/ask quote decoded from an hourly feed file. Ticks are
// ephemeral: produced and consumed within one hour slot, never persisted.
type Tick struct {
	Timestamp time.Time // millisecond precision, UTC
	Ask       float64
	Bid       float64
	Mid       float64
	AskVolume float64
	BidVolume float64
}

// SlotStatus is the terminal outcome of one (pair, hour) fetch slot.
type SlotStatus string

const (
	StatusFetched SlotStatus = "fetched"
	StatusNoData  SlotStatus = "no_data"
	StatusError   SlotStatus = "error"
)
