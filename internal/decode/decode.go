// Package decode turns compressed hourly feed files into ordered ticks.
//
// A feed file is an LZMA stream of fixed 20-byte big-endian records:
//
//	uint32  ms offset into the hour
//	uint32  ask price, fixed point
//	uint32  bid price, fixed point
//	float32 ask volume
//	float32 bid volume
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"fx-data/internal/model"
)

const recordSize = 20

// TicksFromBI5 decompresses and parses one hour of ticks. Prices are scaled
// by pointValue; timestamps are offsets from hourStart. A corrupt compressed
// stream is an error; a trailing partial record is logged and dropped.
func TicksFromBI5(data []byte, pointValue int, hourStart time.Time, log *slog.Logger) ([]model.Tick, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma header: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	return parseRecords(raw, pointValue, hourStart, log), nil
}

func parseRecords(raw []byte, pointValue int, hourStart time.Time, log *slog.Logger) []model.Tick {
	n := len(raw) / recordSize
	if len(raw)%recordSize != 0 {
		log.Warn("decompressed size not a whole number of records, truncating",
			"size", len(raw), "record_size", recordSize, "records", n)
	}

	pv := float64(pointValue)
	ticks := make([]model.Tick, 0, n)
	for i := 0; i < n; i++ {
		rec := raw[i*recordSize:]
		ms := binary.BigEndian.Uint32(rec[0:4])
		ask := float64(binary.BigEndian.Uint32(rec[4:8])) / pv
		bid := float64(binary.BigEndian.Uint32(rec[8:12])) / pv
		askVol := math.Float32frombits(binary.BigEndian.Uint32(rec[12:16]))
		bidVol := math.Float32frombits(binary.BigEndian.Uint32(rec[16:20]))

		ticks = append(ticks, model.Tick{
			Timestamp: hourStart.Add(time.Duration(ms) * time.Millisecond),
			Ask:       ask,
			Bid:       bid,
			Mid:       (ask + bid) / 2,
			AskVolume: float64(askVol),
			BidVolume: float64(bidVol),
		})
	}
	return ticks
}
