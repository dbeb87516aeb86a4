package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"fx-data/internal/catalog"
	"fx-data/internal/run"
)

// backfillCmd runs one backfill pass: derive slot batches, fetch, decode,
// aggregate and merge minute bars into the yearly datasets.
type backfillCmd struct {
	pair        string
	maxHours    int
	retryErrors bool
}

func (*backfillCmd) Name() string { return "backfill" }
func (*backfillCmd) Synopsis() string {
	return "fetch historical tick hours and merge 1-minute bars"
}
func (*backfillCmd) Usage() string {
	return `backfill [-pair EURUSD] [-max-hours N] [-retry-errors]:
  Run one incremental backfill pass. Safe to re-run; progress is tracked
  in the slot catalog.
`
}

func (c *backfillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pair, "pair", "", "restrict the run to a single pair")
	f.IntVar(&c.maxHours, "max-hours", 0, "max hourly slots this run (default from env)")
	f.BoolVar(&c.retryErrors, "retry-errors", false, "retry previously errored slots instead of new ones")
}

func (c *backfillCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := InitializeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		return subcommands.ExitFailure
	}

	var pairs []string
	if c.pair != "" {
		if _, ok := a.Config.PointValues[c.pair]; !ok {
			fmt.Fprintf(os.Stderr, "unknown pair %q\n", c.pair)
			return subcommands.ExitUsageError
		}
		pairs = []string{c.pair}
	}

	cat, err := catalog.Load(a.Config.CatalogPath(), a.Log)
	if err != nil {
		a.Log.Error("cannot load catalog", "error", err)
		return subcommands.ExitFailure
	}

	runner := run.NewRunner(a.Config, cat, a.Fetcher, a.Writer, a.Log)
	if err := runner.Run(run.Options{
		Pairs:       pairs,
		MaxHours:    c.maxHours,
		RetryErrors: c.retryErrors,
	}); err != nil {
		a.Log.Error("backfill failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
