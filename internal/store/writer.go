// Package store owns the durable per-pair, per-year bar datasets. Writes
// merge, deduplicate and validate before persisting atomically; a dataset on
// disk is always a complete, consistent file.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"fx-data/internal/model"
)

// barRow is the persisted schema. Struct field order fixes the column order
// on disk regardless of in-memory ordering.
type barRow struct {
	Timestamp     int64   `parquet:"timestamp"` // UnixNano, UTC
	Open          float64 `parquet:"open"`
	High          float64 `parquet:"high"`
	Low           float64 `parquet:"low"`
	Close         float64 `parquet:"close"`
	Volume        float64 `parquet:"volume"`
	Source        string  `parquet:"source"`
	KnowledgeTime int64   `parquet:"knowledge_time"` // UnixNano, UTC
	BarHash       string  `parquet:"bar_hash"`
}

func toRow(b model.Bar) barRow {
	return barRow{
		Timestamp:     b.Timestamp.UnixNano(),
		Open:          b.Open,
		High:          b.High,
		Low:           b.Low,
		Close:         b.Close,
		Volume:        b.Volume,
		Source:        b.Source,
		KnowledgeTime: b.KnowledgeTime.UnixNano(),
		BarHash:       b.BarHash,
	}
}

func fromRow(r barRow) model.Bar {
	return model.Bar{
		Timestamp:     time.Unix(0, r.Timestamp).UTC(),
		Open:          r.Open,
		High:          r.High,
		Low:           r.Low,
		Close:         r.Close,
		Volume:        r.Volume,
		Source:        r.Source,
		KnowledgeTime: time.Unix(0, r.KnowledgeTime).UTC(),
		BarHash:       r.BarHash,
	}
}

// Writer merges new bars into yearly datasets. Not safe for concurrent use;
// exactly one process should write a given data directory.
type Writer struct {
	dir string
	log *slog.Logger

	// Now stamps knowledge time; overridable in tests.
	Now func() time.Time
}

// NewWriter creates a Writer rooted at dir (one subdirectory per pair).
func NewWriter(dir string, log *slog.Logger) *Writer {
	return &Writer{dir: dir, log: log, Now: time.Now}
}

// DatasetPath returns the file for one (pair, year) dataset.
func (w *Writer) DatasetPath(pair string, year int) string {
	return filepath.Join(w.dir, pair, fmt.Sprintf("%s_%d.parquet", pair, year))
}

// WriteBars folds newBars into the yearly datasets for pair.
//
// Per year: load existing bars, append the new ones, deduplicate by
// timestamp keeping the FIRST occurrence after a stable sort in which
// existing rows precede new rows (so re-delivery of an already persisted
// minute is a no-op), drop bars violating OHLC integrity, sort, stamp
// knowledge time and recompute bar hashes, then write atomically via a
// temp file renamed over the final path. Zero new bars is a no-op.
func (w *Writer) WriteBars(pair string, newBars []model.Bar) error {
	if len(newBars) == 0 {
		return nil
	}
	knowledge := w.Now().UTC()

	byYear := make(map[int][]model.Bar)
	for _, b := range newBars {
		b.KnowledgeTime = knowledge
		byYear[b.Timestamp.UTC().Year()] = append(byYear[b.Timestamp.UTC().Year()], b)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		if err := w.mergeYear(pair, year, byYear[year]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) mergeYear(pair string, year int, incoming []model.Bar) error {
	path := w.DatasetPath(pair, year)

	existing, err := readDataset(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	combined := append(existing, incoming...)
	combined = w.dedup(combined)
	combined = w.validate(combined)

	for i := range combined {
		combined[i].BarHash = HashBar(combined[i])
	}

	if err := w.writeAtomic(path, combined); err != nil {
		return err
	}
	w.log.Info("wrote bars", "pair", pair, "year", year,
		"new", len(incoming), "total", len(combined))
	return nil
}

// dedup keeps one bar per timestamp. Stable sort preserves the
// existing-before-new ordering among equal timestamps, so the earliest
// delivery wins.
func (w *Writer) dedup(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	out := bars[:0]
	var last time.Time
	removed := 0
	for i, b := range bars {
		if i > 0 && b.Timestamp.Equal(last) {
			removed++
			continue
		}
		out = append(out, b)
		last = b.Timestamp
	}
	if removed > 0 {
		w.log.Info("deduplication removed bars", "count", removed)
	}
	return out
}

// validate drops bars violating the OHLC invariants. Rejected bars are
// logged and never persisted; rejection is not fatal.
func (w *Writer) validate(bars []model.Bar) []model.Bar {
	out := bars[:0]
	for _, b := range bars {
		if !b.Valid() {
			w.log.Warn("rejecting bar failing OHLC integrity",
				"timestamp", b.Timestamp,
				"open", b.Open, "high", b.High, "low", b.Low,
				"close", b.Close, "volume", b.Volume)
			continue
		}
		out = append(out, b)
	}
	return out
}

// writeAtomic persists rows via temp file + rename in the same directory.
// On failure the temp file is removed and the error propagates: a
// half-written dataset must never be assumed usable.
func (w *Writer) writeAtomic(path string, bars []model.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	rows := make([]barRow, len(bars))
	for i, b := range bars {
		rows[i] = toRow(b)
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readDataset(path string) ([]model.Bar, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[barRow](path)
	if err != nil {
		return nil, err
	}
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = fromRow(r)
	}
	return bars, nil
}

// ReadPair loads every yearly dataset for pair, merged and sorted by
// timestamp. Used by the read-only quality engine.
func (w *Writer) ReadPair(pair string) ([]model.Bar, error) {
	pattern := filepath.Join(w.dir, pair, pair+"_*.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var bars []model.Bar
	for _, f := range files {
		part, err := readDataset(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		bars = append(bars, part...)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}
