package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/game"
	"github.com/zeusync/bricksmash/internal/injector"
	"github.com/zeusync/bricksmash/internal/spectator"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or JSON game config")
		addr       = flag.String("addr", "", "spectator listen address, empty to disable")
		token      = flag.String("token", "", "token required by spectator clients")
		shots      = flag.Int("shots", 6, "shots fired by the scripted scenario")
		logLevel   = flag.String("log-level", "", "overrides log_level from the config")
		linger     = flag.Bool("linger", false, "keep serving after the scenario until interrupted")
	)
	flag.Parse()

	if err := run(*configPath, *addr, *token, *logLevel, *shots, *linger); err != nil {
		fmt.Fprintln(os.Stderr, "bricksmash:", err)
		os.Exit(1)
	}
}

func run(configPath, addr, token, logLevel string, shots int, linger bool) error {
	cfg := game.DefaultConfig()
	if configPath != "" {
		loaded, err := game.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	spectatorCfg := spectator.DefaultConfig()
	spectatorCfg.Addr = addr
	spectatorCfg.Token = token

	app, cleanup, err := injector.InitializeApp(cfg, spectatorCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = app.Logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopCh)
	go func() {
		select {
		case sig := <-stopCh:
			app.Logger.Info("signal received", log.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if addr != "" {
		g.Go(func() error { return app.Spectator.ListenAndServe(gctx) })
	}
	g.Go(func() error {
		sc := newScenario(app, shots)
		sum, err := sc.run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		sc.report(sum)

		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		if linger && err == nil {
			<-gctx.Done()
		}
		if stopErr := app.Controller.Stop(stopCtx); stopErr != nil {
			app.Logger.Warn("stop controller", log.Error(stopErr))
		}
		cancel()
		return nil
	})

	return g.Wait()
}
