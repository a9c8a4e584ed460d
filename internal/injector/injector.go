//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/bricksmash/internal/game"
	"github.com/zeusync/bricksmash/internal/spectator"
)

func InitializeApp(cfg game.Config, spectatorCfg spectator.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
