package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"fx-data/internal/app"
	"fx-data/internal/fetch"
	"fx-data/internal/slogx"
	"fx-data/internal/store"
)

// App holds application dependencies built by Wire.
type App struct {
	Config  *app.Config
	Log     *slog.Logger
	Fetcher *fetch.Client
	Writer  *store.Writer
}

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&backfillCmd{}, "")
	subcommands.Register(&statusCmd{}, "")
	subcommands.Register(&validateCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
