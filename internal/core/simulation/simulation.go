package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/config"
	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/input"
	"github.com/zeusync/orbiter/internal/core/observability/log"
	"github.com/zeusync/orbiter/internal/core/systems"
	"github.com/zeusync/orbiter/internal/core/systems/camera"
	"github.com/zeusync/orbiter/internal/core/systems/locomotion"
	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

var _ systems.World = (*Simulation)(nil)

// Simulation owns the sphere, the agent and the camera and advances them one
// frame at a time. It is single-threaded: Step and Run must not be called
// concurrently. Frames leave through the event bus as immutable values.
type Simulation struct {
	cfg     config.Config
	logger  log.Log
	events  bus.EventBus
	manager *systems.Manager

	sphere physics.Sphere
	agent  *locomotion.Agent
	camera *camera.Follow

	input     input.Snapshot
	frames    int64
	elapsed   time.Duration
	resources map[string]any
}

// New builds a simulation from cfg. A nil events bus gets a private one.
func New(cfg *config.Config, logger log.Log, events bus.EventBus) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if events == nil {
		events = bus.New()
	}

	sphere, err := physics.NewSphere(cfg.Sphere.Radius)
	if err != nil {
		return nil, err
	}

	var opts []locomotion.Option
	if cfg.Agent.Start != nil {
		opts = append(opts, locomotion.WithStart(vec(cfg.Agent.Start), vec(cfg.Agent.Forward)))
	}
	agent, err := locomotion.New(sphere, locomotion.Config{
		ForwardSpeed:       cfg.Agent.ForwardSpeed,
		RotationSpeed:      cfg.Agent.RotationSpeed,
		HeightAboveSurface: cfg.Agent.HeightAboveSurface,
		MaxDeltaTime:       cfg.Agent.MaxDeltaTime,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	follow, err := camera.New(camera.Config{
		Distance:          cfg.Camera.Distance,
		Height:            cfg.Camera.Height,
		DampingFactor:     cfg.Camera.DampingFactor,
		LookAheadDistance: cfg.Camera.LookAheadDistance,
		Start:             vec(cfg.Camera.Start),
	})
	if err != nil {
		return nil, fmt.Errorf("create camera: %w", err)
	}

	s := &Simulation{
		cfg:       *cfg,
		logger:    logger.With(log.String("component", "simulation")),
		events:    events,
		manager:   systems.NewManager(),
		sphere:    sphere,
		agent:     agent,
		camera:    follow,
		resources: make(map[string]any),
	}
	if err = s.manager.RegisterSystem(&agentSystem{agent: agent, logger: s.logger}); err != nil {
		return nil, err
	}
	if err = s.manager.RegisterSystem(&cameraSystem{camera: follow}); err != nil {
		return nil, err
	}
	return s, nil
}

// Step advances one frame by deltaTime seconds with the given steering.
func (s *Simulation) Step(deltaTime float64, snapshot input.Snapshot) (Frame, error) {
	if !(deltaTime >= 0) || math.IsInf(deltaTime, 0) {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidDeltaTime, deltaTime)
	}

	s.input = snapshot
	if err := s.manager.Update(deltaTime, s); err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", s.frames, err)
	}

	frame := s.frame(deltaTime)
	s.frames++
	s.elapsed = advance(s.elapsed, deltaTime)

	if err := s.events.Publish(bus.NewEvent(EventFrameCompleted, "simulation", frame.Number, frame)); err != nil {
		s.logger.Warn("frame subscriber failed", log.Int64("frame", frame.Number), log.Error(err))
	}
	if every := s.cfg.Loop.SummaryEvery; every > 0 && s.frames%every == 0 {
		p := frame.Agent.Position
		s.logger.Debug("frame summary",
			log.Int64("frame", frame.Number),
			log.Duration("elapsed", s.elapsed),
			log.Vector("agent_position", p.X, p.Y, p.Z),
			log.Float64("altitude", r3.Norm(p)-s.sphere.Radius()),
		)
	}
	return frame, nil
}

// RunFixed steps frames times with a constant deltaTime, sampling source for
// each frame. It returns the last frame.
func (s *Simulation) RunFixed(frames int64, deltaTime float64, source input.Source) (Frame, error) {
	var last Frame
	for i := int64(0); i < frames; i++ {
		frame, err := s.Step(deltaTime, source.Sample(s.frames))
		if err != nil {
			return last, err
		}
		last = frame
	}
	return last, nil
}

// Run drives the simulation in real time at loop.tick_rate, feeding each
// step the wall-clock time elapsed since the previous one. It returns nil
// after loop.max_frames frames, or the context error once ctx is done.
func (s *Simulation) Run(ctx context.Context, source input.Source) error {
	interval := time.Duration(float64(time.Second) / s.cfg.Loop.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("simulation started",
		log.Duration("interval", interval),
		log.Int64("max_frames", s.cfg.Loop.MaxFrames),
	)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulation stopped", log.Int64("frames", s.frames), log.Error(ctx.Err()))
			return ctx.Err()
		case now := <-ticker.C:
			deltaTime := now.Sub(last).Seconds()
			last = now
			if _, err := s.Step(deltaTime, source.Sample(s.frames)); err != nil {
				s.logger.Error("simulation step failed", log.Error(err))
				return err
			}
			if limit := s.cfg.Loop.MaxFrames; limit > 0 && s.frames >= limit {
				s.logger.Info("simulation finished", log.Int64("frames", s.frames), log.Duration("elapsed", s.elapsed))
				return nil
			}
		}
	}
}

func (s *Simulation) frame(deltaTime float64) Frame {
	f := Frame{
		Number:    s.frames,
		DeltaTime: deltaTime,
		Elapsed:   s.elapsed,
		Rotation:  s.input.Rotation,
	}
	if pose, ok := s.resources[ResourceAgentPose].(AgentPose); ok {
		f.Agent = pose
	}
	if pose, ok := s.resources[ResourceCameraPose].(CameraPose); ok {
		f.Camera = pose
	}
	return f
}

func (s *Simulation) Input() input.Snapshot { return s.input }

func (s *Simulation) FrameCount() int64 { return s.frames }

// TotalTime is the simulated time consumed so far.
func (s *Simulation) TotalTime() time.Duration { return s.elapsed }

func (s *Simulation) GetResource(name string) (any, bool) {
	v, ok := s.resources[name]
	return v, ok
}

func (s *Simulation) SetResource(name string, value any) { s.resources[name] = value }

func (s *Simulation) PublishEvent(event bus.Event) error { return s.events.Publish(event) }

func (s *Simulation) Events() bus.EventBus { return s.events }

func (s *Simulation) Agent() *locomotion.Agent { return s.agent }

func (s *Simulation) Camera() *camera.Follow { return s.camera }

func (s *Simulation) Sphere() physics.Sphere { return s.sphere }

// ExecutionOrder lists system names in tick order.
func (s *Simulation) ExecutionOrder() []string { return s.manager.GetExecutionOrder() }

// advance adds deltaTime seconds to d, saturating at the largest Duration.
func advance(d time.Duration, deltaTime float64) time.Duration {
	const maxDuration = time.Duration(math.MaxInt64)
	step := deltaTime * float64(time.Second)
	if step >= float64(maxDuration-d) {
		return maxDuration
	}
	return d + time.Duration(step)
}

func vec(v []float64) r3.Vec {
	if len(v) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
