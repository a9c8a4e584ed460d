package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/loop"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/observability/metrics"
	"github.com/zeusync/bricksmash/internal/engine"
	"github.com/zeusync/bricksmash/internal/engine/sim"
	"github.com/zeusync/bricksmash/internal/game"
	"github.com/zeusync/bricksmash/internal/spectator"
)

// App is the fully wired headless game.
type App struct {
	Config     game.Config
	Logger     *log.Logger
	Bus        bus.EventBus
	Loop       *loop.Loop
	Engine     *sim.Engine
	Controller *game.Controller
	Metrics    *metrics.Recorder
	Spectator  *spectator.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	ProvideLoop,
	ProvideSimEngine,
	wire.Bind(new(engine.Engine), new(*sim.Engine)),
	game.NewController,
	wire.Bind(new(spectator.StateSource), new(*game.Controller)),
	ProvideMetrics,
	ProvideSpectator,
	NewApp,
)

func ProvideLogger(cfg game.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(level), nil
}

func ProvideLoop(cfg game.Config) *loop.Loop {
	return loop.New(cfg.Session.QueueSize)
}

func ProvideSimEngine(logger log.Log) (*sim.Engine, func()) {
	eng := sim.New(sim.WithLogger(logger.With(log.String("component", "sim"))))
	return eng, eng.Close
}

func ProvideMetrics(b bus.EventBus) (*metrics.Recorder, func(), error) {
	r, err := metrics.New()
	if err != nil {
		return nil, nil, err
	}
	if err := r.Attach(b); err != nil {
		return nil, nil, err
	}
	return r, r.Detach, nil
}

func ProvideSpectator(cfg spectator.Config, state spectator.StateSource, b bus.EventBus, logger log.Log) (*spectator.Server, error) {
	s := spectator.New(cfg, state, logger)
	if err := s.Attach(b); err != nil {
		return nil, err
	}
	return s, nil
}

// NewApp hooks the controller up as the engine's listener.
func NewApp(cfg game.Config, logger *log.Logger, b bus.EventBus, lp *loop.Loop, eng *sim.Engine, ctrl *game.Controller, rec *metrics.Recorder, spec *spectator.Server) *App {
	eng.Attach(ctrl)
	return &App{
		Config:     cfg,
		Logger:     logger,
		Bus:        b,
		Loop:       lp,
		Engine:     eng,
		Controller: ctrl,
		Metrics:    rec,
		Spectator:  spec,
	}
}
