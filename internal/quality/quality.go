// Package quality runs read-only data-quality checks over the persisted bar
// datasets and produces a structured report.
package quality

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fx-data/internal/calendar"
	"fx-data/internal/model"
)

const (
	gapThreshold = 5 * time.Minute
	spikePct     = 0.05
	maxExamples  = 10
)

// Source provides read access to a pair's merged, sorted bar history.
type Source interface {
	ReadPair(pair string) ([]model.Bar, error)
}

// Engine runs the QA suite. It never mutates the store.
type Engine struct {
	src   Source
	pairs []string
	log   *slog.Logger

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates an Engine checking the given pairs.
func NewEngine(src Source, pairs []string, log *slog.Logger) *Engine {
	return &Engine{src: src, pairs: pairs, log: log, Now: time.Now}
}

// Report is the full validation document.
type Report struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Pairs       map[string]*PairReport `json:"pairs"`
}

// PairReport carries the check results for one pair.
type PairReport struct {
	Status    string     `json:"status,omitempty"` // "no_data" when the pair has no datasets
	TotalBars int        `json:"total_bars"`
	DateRange *DateRange `json:"date_range,omitempty"`
	Checks    *Checks    `json:"checks,omitempty"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Checks struct {
	Duplicates      CountCheck     `json:"duplicates"`
	OHLCIntegrity   CountCheck     `json:"ohlc_integrity"`
	ZeroVolume      int            `json:"zero_volume"`
	Gaps            GapCheck       `json:"gaps_over_5min"`
	Completeness    Completeness   `json:"completeness"`
	Sources         []string       `json:"sources"`
	BarHashNulls    CountCheck     `json:"bar_hash_nulls"`
	PriceSpikes     SpikeCheck     `json:"price_spikes_5pct"`
	YearlyRowCounts map[string]int `json:"yearly_row_counts"`
}

type CountCheck struct {
	Count int  `json:"count"`
	Pass  bool `json:"pass"`
}

type GapCheck struct {
	Count    int   `json:"count"`
	Examples []Gap `json:"examples,omitempty"`
}

type Gap struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Minutes int       `json:"minutes"`
}

type Completeness struct {
	Percent  float64 `json:"percent"`
	Actual   int     `json:"actual"`
	Expected int     `json:"expected"`
}

type SpikeCheck struct {
	Count    int     `json:"count"`
	Examples []Spike `json:"examples,omitempty"`
}

type Spike struct {
	Timestamp time.Time `json:"timestamp"`
	PrevClose float64   `json:"prev_close"`
	Open      float64   `json:"open"`
	PctChange float64   `json:"pct_change"`
}

// ValidateAll runs the full QA suite across all pairs and writes the report
// as JSON to reportPath.
func (e *Engine) ValidateAll(reportPath string) (*Report, error) {
	report := &Report{
		GeneratedAt: e.Now().UTC(),
		Pairs:       make(map[string]*PairReport, len(e.pairs)),
	}

	for _, pair := range e.pairs {
		bars, err := e.src.ReadPair(pair)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", pair, err)
		}
		if len(bars) == 0 {
			report.Pairs[pair] = &PairReport{Status: "no_data"}
			continue
		}
		report.Pairs[pair] = e.validatePair(bars)
	}

	if err := writeReport(report, reportPath); err != nil {
		return nil, err
	}
	e.log.Info("validation report saved", "path", reportPath)
	return report, nil
}

func (e *Engine) validatePair(bars []model.Bar) *PairReport {
	// Source guarantees sorted input; checks rely on it.
	checks := &Checks{
		Duplicates:      countDuplicates(bars),
		OHLCIntegrity:   countBadOHLC(bars),
		ZeroVolume:      countZeroVolume(bars),
		Gaps:            findGaps(bars),
		Completeness:    estimateCompleteness(bars),
		Sources:         distinctSources(bars),
		BarHashNulls:    countNullHashes(bars),
		PriceSpikes:     findPriceSpikes(bars),
		YearlyRowCounts: yearlyRowCounts(bars),
	}
	return &PairReport{
		TotalBars: len(bars),
		DateRange: &DateRange{
			Start: bars[0].Timestamp,
			End:   bars[len(bars)-1].Timestamp,
		},
		Checks: checks,
	}
}

func countDuplicates(bars []model.Bar) CountCheck {
	n := 0
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Equal(bars[i-1].Timestamp) {
			n++
		}
	}
	return CountCheck{Count: n, Pass: n == 0}
}

func countBadOHLC(bars []model.Bar) CountCheck {
	n := 0
	for _, b := range bars {
		hi, lo := b.Open, b.Open
		if b.Close > hi {
			hi = b.Close
		}
		if b.Close < lo {
			lo = b.Close
		}
		if b.High < hi || b.Low > lo || b.High < b.Low {
			n++
		}
	}
	return CountCheck{Count: n, Pass: n == 0}
}

func countZeroVolume(bars []model.Bar) int {
	n := 0
	for _, b := range bars {
		if b.Volume <= 0 {
			n++
		}
	}
	return n
}

// findGaps reports gaps longer than the threshold that contain at least one
// minute the market was open. Gaps fully inside a closure window are
// expected and not reported.
func findGaps(bars []model.Bar) GapCheck {
	var check GapCheck
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		d := cur.Sub(prev)
		if d <= gapThreshold {
			continue
		}
		if insideClosure(prev, cur) {
			continue
		}
		check.Count++
		if len(check.Examples) < maxExamples {
			check.Examples = append(check.Examples, Gap{
				From:    prev,
				To:      cur,
				Minutes: int(d.Minutes()),
			})
		}
	}
	return check
}

// insideClosure reports whether every missing minute strictly between start
// and end falls in a calendar closure.
func insideClosure(start, end time.Time) bool {
	for cur := start.Add(time.Minute); cur.Before(end); cur = cur.Add(time.Minute) {
		if !calendar.IsClosed(cur) {
			return false
		}
	}
	return true
}

// estimateCompleteness compares actual bar count against the number of open
// minutes between the first and last bar.
func estimateCompleteness(bars []model.Bar) Completeness {
	start := bars[0].Timestamp.Truncate(time.Minute)
	end := bars[len(bars)-1].Timestamp.Truncate(time.Minute)

	expected := 0
	for cur := start; !cur.After(end); cur = cur.Add(time.Minute) {
		if !calendar.IsClosed(cur) {
			expected++
		}
	}
	pct := 0.0
	if expected > 0 {
		pct = float64(len(bars)) / float64(expected) * 100
	}
	return Completeness{
		Percent:  roundTo(pct, 2),
		Actual:   len(bars),
		Expected: expected,
	}
}

// findPriceSpikes flags bars whose open jumps more than spikePct from the
// previous close within the same UTC day.
func findPriceSpikes(bars []model.Bar) SpikeCheck {
	var check SpikeCheck
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		py, pm, pd := prev.Timestamp.Date()
		cy, cm, cd := cur.Timestamp.Date()
		if py != cy || pm != cm || pd != cd {
			continue
		}
		if prev.Close == 0 {
			continue
		}
		change := (cur.Open - prev.Close) / prev.Close
		if change < 0 {
			change = -change
		}
		if change <= spikePct {
			continue
		}
		check.Count++
		if len(check.Examples) < maxExamples {
			check.Examples = append(check.Examples, Spike{
				Timestamp: cur.Timestamp,
				PrevClose: prev.Close,
				Open:      cur.Open,
				PctChange: roundTo(change*100, 3),
			})
		}
	}
	return check
}

func distinctSources(bars []model.Bar) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range bars {
		if _, ok := seen[b.Source]; !ok {
			seen[b.Source] = struct{}{}
			out = append(out, b.Source)
		}
	}
	sort.Strings(out)
	return out
}

func countNullHashes(bars []model.Bar) CountCheck {
	n := 0
	for _, b := range bars {
		if b.BarHash == "" {
			n++
		}
	}
	return CountCheck{Count: n, Pass: n == 0}
}

func yearlyRowCounts(bars []model.Bar) map[string]int {
	out := make(map[string]int)
	for _, b := range bars {
		out[fmt.Sprintf("%d", b.Timestamp.Year())]++
	}
	return out
}

func writeReport(r *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}
