// Package catalog tracks fetch state for every (pair, hour) slot and derives
// the next batch of work. The whole catalog is loaded into memory and indexed
// by key; lookups never scan.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"fx-data/internal/calendar"
	"fx-data/internal/model"
)

// Key identifies one fetch slot. Month is 1-based.
type Key struct {
	Pair  string
	Year  int
	Month int
	Day   int
	Hour  int
}

// Time returns the start of the slot's hour.
func (k Key) Time() time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, k.Hour, 0, 0, 0, time.UTC)
}

func (k Key) String() string {
	return fmt.Sprintf("%s %d-%02d-%02d %02dh", k.Pair, k.Year, k.Month, k.Day, k.Hour)
}

// Slot is the recorded outcome for one key.
type Slot struct {
	Status    model.SlotStatus
	FetchedAt time.Time
}

// row is the persisted schema. Field order is the column order on disk.
type row struct {
	Pair      string `parquet:"pair"`
	Year      int16  `parquet:"year"`
	Month     int8   `parquet:"month"`
	Day       int8   `parquet:"day"`
	Hour      int8   `parquet:"hour"`
	Status    string `parquet:"status"`
	FetchedAt int64  `parquet:"fetched_at"` // UnixNano, UTC
}

// Catalog is the in-memory fetch-state manifest. Not safe for concurrent
// use; a run owns exactly one instance.
type Catalog struct {
	path  string
	slots map[Key]Slot
	log   *slog.Logger

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Load reads the catalog dataset from path. A missing file is an empty
// catalog, not an error.
func Load(path string, log *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		path:  path,
		slots: make(map[Key]Slot),
		log:   log,
		Now:   time.Now,
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info("no existing catalog, starting fresh", "path", path)
		return c, nil
	}
	rows, err := parquet.ReadFile[row](path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	for _, r := range rows {
		k := Key{r.Pair, int(r.Year), int(r.Month), int(r.Day), int(r.Hour)}
		c.slots[k] = Slot{
			Status:    model.SlotStatus(r.Status),
			FetchedAt: time.Unix(0, r.FetchedAt).UTC(),
		}
	}
	log.Info("loaded catalog", "entries", len(c.slots))
	return c, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.slots) }

// HasEntry reports whether the slot has been processed (any status).
func (c *Catalog) HasEntry(k Key) bool {
	_, ok := c.slots[k]
	return ok
}

// Status returns the slot's status and whether the slot exists.
func (c *Catalog) Status(k Key) (model.SlotStatus, bool) {
	s, ok := c.slots[k]
	return s.Status, ok
}

// Update upserts a slot. Idempotent by key; FetchedAt is refreshed on every
// call, including status re-writes.
func (c *Catalog) Update(k Key, status model.SlotStatus) {
	c.slots[k] = Slot{Status: status, FetchedAt: c.Now().UTC()}
}

// Save persists the full catalog atomically (temp file + rename). A reader
// never observes a partially written catalog.
func (c *Catalog) Save() error {
	rows := make([]row, 0, len(c.slots))
	for k, s := range c.slots {
		rows = append(rows, row{
			Pair:      k.Pair,
			Year:      int16(k.Year),
			Month:     int8(k.Month),
			Day:       int8(k.Day),
			Hour:      int8(k.Hour),
			Status:    string(s.Status),
			FetchedAt: s.FetchedAt.UnixNano(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Pair != rows[j].Pair {
			return rows[i].Pair < rows[j].Pair
		}
		a := [4]int{int(rows[i].Year), int(rows[i].Month), int(rows[i].Day), int(rows[i].Hour)}
		b := [4]int{int(rows[j].Year), int(rows[j].Month), int(rows[j].Day), int(rows[j].Hour)}
		return less4(a, b)
	})

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save catalog: %w", err)
	}
	c.log.Debug("catalog saved", "entries", len(rows))
	return nil
}

// NextBatch returns up to n unprocessed slots for pair, walking backward
// hour-by-hour from the most recent complete hour down to start. Hours the
// calendar marks closed and hours already in the catalog (any status) are
// skipped, so repeated runs make monotonic progress toward the past.
func (c *Catalog) NextBatch(pair string, start time.Time, n int) []Key {
	cur := c.Now().UTC().Truncate(time.Hour).Add(-time.Hour)
	var batch []Key
	for !cur.Before(start) && len(batch) < n {
		k := Key{pair, cur.Year(), int(cur.Month()), cur.Day(), cur.Hour()}
		if !calendar.IsClosed(cur) && !c.HasEntry(k) {
			batch = append(batch, k)
		}
		cur = cur.Add(-time.Hour)
	}
	return batch
}

// ErrorBatch returns up to n slots currently in error status for pair, most
// recent first, for deliberate retry.
func (c *Catalog) ErrorBatch(pair string, n int) []Key {
	var keys []Key
	for k, s := range c.slots {
		if k.Pair == pair && s.Status == model.StatusError {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[j].Time().Before(keys[i].Time())
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// PairSummary aggregates catalog state for one pair.
type PairSummary struct {
	Total   int
	Fetched int
	NoData  int
	Errors  int
	Oldest  string // yyyy-mm-dd of oldest fetched slot, "" when none
	Newest  string
}

// Summary returns per-pair aggregate counts plus the oldest and newest
// fetched dates.
func (c *Catalog) Summary(pairs []string) map[string]PairSummary {
	out := make(map[string]PairSummary, len(pairs))
	for _, pair := range pairs {
		var s PairSummary
		var oldest, newest time.Time
		for k, slot := range c.slots {
			if k.Pair != pair {
				continue
			}
			s.Total++
			switch slot.Status {
			case model.StatusFetched:
				s.Fetched++
				t := k.Time()
				if oldest.IsZero() || t.Before(oldest) {
					oldest = t
				}
				if t.After(newest) {
					newest = t
				}
			case model.StatusNoData:
				s.NoData++
			case model.StatusError:
				s.Errors++
			}
		}
		if !oldest.IsZero() {
			s.Oldest = oldest.Format("2006-01-02")
			s.Newest = newest.Format("2006-01-02")
		}
		out[pair] = s
	}
	return out
}

func less4(a, b [4]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
