//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"fx-data/internal/app"
)

// InitializeApp builds App (Config + logger + feed client + writer) via Wire.
func InitializeApp() (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideFetchClient,
		app.ProvideWriter,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
