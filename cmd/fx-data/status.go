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

// statusCmd prints the per-pair backfill progress summary.
type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show backfill progress per pair" }
func (*statusCmd) Usage() string {
	return `status:
  Print per-pair slot counts, covered date range and storage sizes.
`
}
func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (*statusCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := InitializeApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		return subcommands.ExitFailure
	}
	cat, err := catalog.Load(a.Config.CatalogPath(), a.Log)
	if err != nil {
		a.Log.Error("cannot load catalog", "error", err)
		return subcommands.ExitFailure
	}
	run.PrintStatus(os.Stdout, a.Config, cat)
	return subcommands.ExitSuccess
}
