//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"signalcore/internal/config"
)

func buildAppWithWire(cfg *config.Config, configPath string) (*App, error) {
	appBuilder := provideAppBuilder(cfg)
	app, err := provideAppFromBuilder(appBuilder, configPath)
	if err != nil {
		return nil, err
	}
	return app, nil
}

type appBuilderDeps interface {
	Build(string) (*App, error)
}

func provideAppFromBuilder(b appBuilderDeps, configPath string) (*App, error) {
	return b.Build(configPath)
}

func provideAppBuilder(cfg *config.Config) *AppBuilder {
	return NewAppBuilder(cfg)
}
