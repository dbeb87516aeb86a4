package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"fx-data/internal/quality"
)

// validateCmd runs the data-quality suite over the persisted datasets.
type validateCmd struct{}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "run data-quality checks over the bar datasets" }
func (*validateCmd) Usage() string {
	return `validate:
  Check duplicates, OHLC integrity, gaps, completeness and price spikes.
  Writes a JSON report and prints a summary. No fetching.
`
}
func (*validateCmd) SetFlags(*flag.FlagSet) {}

func (*validateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := InitializeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		return subcommands.ExitFailure
	}
	engine := quality.NewEngine(a.Writer, a.Config.Pairs, a.Log)
	report, err := engine.ValidateAll(a.Config.ReportPath())
	if err != nil {
		a.Log.Error("validation failed", "error", err)
		return subcommands.ExitFailure
	}
	quality.PrintReport(os.Stdout, report, a.Config.Pairs)
	return subcommands.ExitSuccess
}
