package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/input"
	"github.com/zeusync/orbiter/internal/core/observability/log"
	"github.com/zeusync/orbiter/internal/core/simulation"
	"github.com/zeusync/orbiter/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	scriptPath := flag.String("script", "", "path to a YAML steering script")
	frames := flag.Int64("frames", 0, "run this many fixed steps headless and exit")
	deltaTime := flag.Float64("dt", 1.0/60, "step length in seconds for -frames")
	flag.Parse()

	if err := run(*configPath, *scriptPath, *frames, *deltaTime); err != nil {
		fmt.Fprintln(os.Stderr, "orbiter:", err)
		os.Exit(1)
	}
}

func run(configPath, scriptPath string, frames int64, deltaTime float64) error {
	app, err := injector.InitializeApp(injector.ConfigPath(configPath))
	if err != nil {
		return err
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	var source input.Source = input.Static{}
	switch {
	case scriptPath != "":
		script, err := input.LoadScript(scriptPath)
		if err != nil {
			return err
		}
		source = script
	case app.Config.Server.Enabled:
		source = app.Feed.Input()
	}

	digest := simulation.NewDigest()
	var last simulation.Frame
	if _, err = app.Events.Subscribe(simulation.EventFrameCompleted, func(e bus.Event) error {
		last = e.Data().(simulation.Frame)
		digest.Add(last)
		return nil
	}); err != nil {
		return err
	}

	if frames > 0 {
		if _, err = app.Simulation.RunFixed(frames, deltaTime, source); err != nil {
			return err
		}
		report(logger, last, digest)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	loopCtx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		defer cancel()
		return app.Simulation.Run(loopCtx, source)
	})
	if app.Config.Server.Enabled {
		g.Go(func() error {
			return app.Feed.ListenAndServe(loopCtx)
		})
	}

	err = g.Wait()
	report(logger, last, digest)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func report(logger log.Log, last simulation.Frame, digest *simulation.Digest) {
	p, c := last.Agent.Position, last.Camera.Position
	logger.Info("final pose",
		log.Int64("frame", last.Number),
		log.Vector("agent_position", p.X, p.Y, p.Z),
		log.Vector("camera_position", c.X, c.Y, c.Z),
		log.String("digest", fmt.Sprintf("%016x", digest.Sum64())),
	)
}
