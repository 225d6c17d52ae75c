package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/orbiter/internal/config"
	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/observability/log"
	"github.com/zeusync/orbiter/internal/core/simulation"
	"github.com/zeusync/orbiter/internal/server"
)

// ConfigPath is the YAML file to load; empty means defaults.
type ConfigPath string

// App bundles everything the orbiter command needs.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Events     bus.EventBus
	Simulation *simulation.Simulation
	Feed       *server.PoseFeed
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideEventBus,
	ProvideSimulation,
	ProvidePoseFeed,
	wire.Bind(new(log.Log), new(*log.Logger)),
	wire.Struct(new(App), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(log.Options{
		Level:    log.ParseLevel(cfg.Log.Level),
		Encoding: cfg.Log.Encoding,
	})
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideSimulation(cfg *config.Config, logger log.Log, events bus.EventBus) (*simulation.Simulation, error) {
	return simulation.New(cfg, logger, events)
}

// ProvidePoseFeed builds the websocket feed and attaches it to the bus.
func ProvidePoseFeed(cfg *config.Config, logger log.Log, events bus.EventBus) (*server.PoseFeed, error) {
	feed := server.NewPoseFeed(cfg.Server, logger, nil)
	if err := feed.Attach(events); err != nil {
		return nil, err
	}
	return feed, nil
}
