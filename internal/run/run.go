// Package run drives the backfill loop: derive per-pair slot batches, fetch
// in strict round-robin, decode, aggregate, and checkpoint buffers and
// catalog periodically. One network call is in flight at a time; the remote
// feed's rate limits dominate any benefit of parallel fetches.
package run

import (
	"fmt"
	"log/slog"
	"time"

	"fx-data/internal/aggregate"
	"fx-data/internal/app"
	"fx-data/internal/catalog"
	"fx-data/internal/decode"
	"fx-data/internal/model"
)

// Fetcher downloads one hour slot. Implemented by fetch.Client.
type Fetcher interface {
	FetchHour(pair string, year, month, day, hour int) (model.SlotStatus, []byte)
}

// BarWriter persists aggregated bars. Implemented by store.Writer.
type BarWriter interface {
	WriteBars(pair string, bars []model.Bar) error
}

// Options select what one backfill run does.
type Options struct {
	Pairs       []string // default: all configured pairs
	MaxHours    int      // default: Config.MaxHoursPerRun
	RetryErrors bool     // service errored slots instead of new ones
}

// Runner composes the pipeline for one process.
type Runner struct {
	cfg     *app.Config
	cat     *catalog.Catalog
	fetcher Fetcher
	writer  BarWriter
	log     *slog.Logger

	// sleep is overridable in tests; defaults to time.Sleep.
	sleep func(time.Duration)
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg *app.Config, cat *catalog.Catalog, fetcher Fetcher, writer BarWriter, log *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		cat:     cat,
		fetcher: fetcher,
		writer:  writer,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Run executes one backfill run. Buffered bars and the catalog are
// checkpointed every Config.WriteEvery fetches per pair and unconditionally
// at run end, so a killed run resumes from the last consistent state.
func (r *Runner) Run(opts Options) error {
	pairs := opts.Pairs
	if len(pairs) == 0 {
		pairs = r.cfg.Pairs
	}
	maxHours := opts.MaxHours
	if maxHours <= 0 {
		maxHours = r.cfg.MaxHoursPerRun
	}

	batches := r.deriveBatches(pairs, maxHours, opts.RetryErrors)
	totalPending := 0
	for _, b := range batches {
		totalPending += len(b)
	}
	if totalPending == 0 {
		r.log.Info("nothing to fetch, all slots processed or target reached")
		return nil
	}
	r.log.Info("starting backfill",
		"hours", totalPending, "pairs", len(pairs),
		"request_delay", r.cfg.RequestDelay, "retry_errors", opts.RetryErrors)

	start := time.Now()
	var totalFetched, totalBars int
	buffers := make(map[string][]model.Bar, len(pairs))
	sinceFlush := make(map[string]int, len(pairs))
	next := make(map[string]int, len(pairs)) // cursor into each pair's batch

	active := len(pairs)
	for active > 0 {
		active = 0
		for _, pair := range pairs {
			batch := batches[pair]
			if next[pair] >= len(batch) {
				continue
			}
			active++
			k := batch[next[pair]]
			next[pair]++

			r.processSlot(k, buffers)
			totalFetched++
			sinceFlush[pair]++

			if sinceFlush[pair] >= r.cfg.WriteEvery {
				n, err := r.flush(pair, buffers)
				if err != nil {
					return err
				}
				totalBars += n
				sinceFlush[pair] = 0
				if err := r.cat.Save(); err != nil {
					return err
				}
			}

			r.sleep(r.cfg.RequestDelay)
		}
	}

	for _, pair := range pairs {
		n, err := r.flush(pair, buffers)
		if err != nil {
			return err
		}
		totalBars += n
	}
	if err := r.cat.Save(); err != nil {
		return err
	}

	r.log.Info("run complete",
		"hours_fetched", totalFetched,
		"bars_written", totalBars,
		"pairs", len(pairs),
		"elapsed", time.Since(start).Round(time.Second))
	return nil
}

// deriveBatches splits the hour budget evenly across pairs and asks the
// catalog for each pair's slots.
func (r *Runner) deriveBatches(pairs []string, maxHours int, retryErrors bool) map[string][]catalog.Key {
	perPair := maxHours / len(pairs)
	remainder := maxHours % len(pairs)
	start := r.cfg.StartBoundary()

	batches := make(map[string][]catalog.Key, len(pairs))
	for i, pair := range pairs {
		n := perPair
		if i < remainder {
			n++
		}
		if retryErrors {
			batches[pair] = r.cat.ErrorBatch(pair, n)
		} else {
			batches[pair] = r.cat.NextBatch(pair, start, n)
		}
	}
	return batches
}

// processSlot fetches one slot and folds the outcome into the catalog and
// the pair's bar buffer. Decode failure after a successful fetch forces the
// slot to error status; the run continues.
func (r *Runner) processSlot(k catalog.Key, buffers map[string][]model.Bar) {
	status, data := r.fetcher.FetchHour(k.Pair, k.Year, k.Month, k.Day, k.Hour)
	r.cat.Update(k, status)

	switch status {
	case model.StatusFetched:
		ticks, err := decode.TicksFromBI5(data, r.cfg.PointValues[k.Pair], k.Time(), r.log)
		if err != nil {
			r.log.Error("decode failed", "slot", k.String(), "error", err)
			r.cat.Update(k, model.StatusError)
			return
		}
		bars := aggregate.MinuteBars(ticks, r.cfg.Source)
		if len(bars) > 0 {
			buffers[k.Pair] = append(buffers[k.Pair], bars...)
		}
		r.log.Info("fetched", "slot", k.String(), "ticks", len(ticks), "bars", len(bars))
	case model.StatusNoData:
		r.log.Info("no_data", "slot", k.String())
	case model.StatusError:
		r.log.Warn("slot errored", "slot", k.String())
	}
}

// flush writes a pair's buffered bars and clears the buffer.
func (r *Runner) flush(pair string, buffers map[string][]model.Bar) (int, error) {
	bars := buffers[pair]
	if len(bars) == 0 {
		return 0, nil
	}
	if err := r.writer.WriteBars(pair, bars); err != nil {
		return 0, fmt.Errorf("flush %s: %w", pair, err)
	}
	buffers[pair] = nil
	return len(bars), nil
}
