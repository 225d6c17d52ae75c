package locomotion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

// Config holds the agent's movement constants.
type Config struct {
	// ForwardSpeed is the tangent travel speed in units per second.
	ForwardSpeed float64
	// RotationSpeed is the steering rate in radians per second at full input.
	RotationSpeed float64
	// HeightAboveSurface is the fixed altitude of the agent over the sphere.
	HeightAboveSurface float64
	// MaxDeltaTime caps the elapsed time consumed by a single tick.
	// Zero disables the cap.
	MaxDeltaTime float64
}

// Option customizes an Agent at construction.
type Option func(*Agent)

// WithStart places the agent at position heading along forward. The position
// is projected onto the agent's shell and forward onto the tangent plane.
func WithStart(position, forward r3.Vec) Option {
	return func(a *Agent) {
		a.position = position
		a.frame.Forward = forward
	}
}

// Agent moves over a sphere, keeping a constant height and an orthonormal
// frame. It is not safe for concurrent use; one tick owns it at a time.
type Agent struct {
	surface  physics.Surface
	cfg      Config
	position r3.Vec
	frame    Frame
	skips    uint64
}

// New creates an agent on surface. Without WithStart it starts above the
// north pole heading along +Z.
func New(surface physics.Surface, cfg Config, opts ...Option) (*Agent, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrInvalidConfig)
	}
	if err := cfg.validate(surface.Radius()); err != nil {
		return nil, err
	}

	a := &Agent{
		surface:  surface,
		cfg:      cfg,
		position: r3.Vec{Y: surface.Radius() + cfg.HeightAboveSurface},
		frame: Frame{
			Forward: r3.Vec{Z: 1},
			Right:   r3.Vec{X: 1},
			Up:      r3.Vec{Y: 1},
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	up, ok := surface.NormalAt(a.position)
	if !ok {
		return nil, fmt.Errorf("%w: start position %v is at the center", ErrDegenerateFrame, a.position)
	}
	if _, ok = physics.Unit(r3.Cross(a.frame.Forward, up)); !ok {
		return nil, fmt.Errorf("%w: forward %v is parallel to up %v", ErrDegenerateFrame, a.frame.Forward, up)
	}
	a.position, _ = surface.Shell(a.position, cfg.HeightAboveSurface)
	a.frame, _ = deriveFrame(a.position, a.frame.Forward, a.frame.Right)

	return a, nil
}

func (c Config) validate(radius float64) error {
	for name, v := range map[string]float64{
		"forward speed":  c.ForwardSpeed,
		"rotation speed": c.RotationSpeed,
		"max delta time": c.MaxDeltaTime,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidConfig, name, v)
		}
	}
	if math.IsNaN(c.HeightAboveSurface) || math.IsInf(c.HeightAboveSurface, 0) || radius+c.HeightAboveSurface <= 0 {
		return fmt.Errorf("%w: height above surface %v puts the agent below the center", ErrInvalidConfig, c.HeightAboveSurface)
	}
	return nil
}

// Tick advances the agent by deltaTime seconds while steering with
// rotationInput in [-1, 1]. A zero (or negative) deltaTime changes nothing.
func (a *Agent) Tick(deltaTime, rotationInput float64) {
	if !(deltaTime > 0) {
		return
	}
	if a.cfg.MaxDeltaTime > 0 && deltaTime > a.cfg.MaxDeltaTime {
		deltaTime = a.cfg.MaxDeltaTime
	}

	if amount := rotationInput * a.cfg.RotationSpeed * deltaTime; amount != 0 && !math.IsNaN(amount) {
		a.rotateAboutCenter(amount)
	}

	previous := a.position
	a.position = r3.Add(a.position, r3.Scale(a.cfg.ForwardSpeed*deltaTime, a.frame.Forward))

	if !a.reproject() {
		a.skips++
		a.position = previous
	}

	frame, _ := deriveFrame(a.position, a.frame.Forward, a.frame.Right)
	a.frame = frame
}

// rotateAboutCenter swings position and heading around the axis
// perpendicular to both the heading and the local vertical.
func (a *Agent) rotateAboutCenter(amount float64) {
	radial, ok := physics.Unit(a.position)
	if !ok {
		a.skips++
		return
	}
	axis, ok := physics.Unit(r3.Cross(a.frame.Forward, radial))
	if !ok {
		a.skips++
		return
	}
	rot := r3.NewRotation(amount, axis)
	a.position = rot.Rotate(a.position)
	a.frame.Forward = rot.Rotate(a.frame.Forward)
}

// reproject snaps the candidate position back onto the agent's shell.
func (a *Agent) reproject() bool {
	p, ok := a.surface.Shell(a.position, a.cfg.HeightAboveSurface)
	if !ok {
		return false
	}
	a.position = p
	return true
}

// Position returns the agent's world position.
func (a *Agent) Position() r3.Vec { return a.position }

// Forward returns the unit heading, tangent to the sphere.
func (a *Agent) Forward() r3.Vec { return a.frame.Forward }

// Up returns the unit radial direction at the agent.
func (a *Agent) Up() r3.Vec { return a.frame.Up }

// Right returns forward × up.
func (a *Agent) Right() r3.Vec { return a.frame.Right }

func (a *Agent) Frame() Frame { return a.frame }

func (a *Agent) Config() Config { return a.cfg }

// DegenerateSkips counts sub-steps skipped because a direction collapsed to
// zero length.
func (a *Agent) DegenerateSkips() uint64 { return a.skips }
