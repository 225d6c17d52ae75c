package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

// WorldUp is the reference up vector used to orient the camera.
var WorldUp = r3.Vec{Y: 1}

// Config holds the follow camera tunables.
type Config struct {
	// Distance is how far behind the agent the camera trails.
	Distance float64
	// Height is the offset along the agent's up vector.
	Height float64
	// DampingFactor is the fraction of the remaining gap closed each tick,
	// in (0, 1]. One snaps to the target.
	DampingFactor float64
	// LookAheadDistance is how far ahead of the agent the camera aims.
	LookAheadDistance float64
	// Start is the camera position before the first tick.
	Start r3.Vec
}

// Follow trails an agent with exponential smoothing. It keeps no velocity,
// so it never overshoots the desired position.
type Follow struct {
	cfg        Config
	position   r3.Vec
	desired    r3.Vec
	lookTarget r3.Vec
}

func New(cfg Config) (*Follow, error) {
	if !(cfg.DampingFactor > 0 && cfg.DampingFactor <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDamping, cfg.DampingFactor)
	}
	for _, v := range []float64{cfg.Distance, cfg.Height, cfg.LookAheadDistance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: offset %v", ErrInvalidConfig, v)
		}
	}
	return &Follow{cfg: cfg, position: cfg.Start, desired: cfg.Start, lookTarget: cfg.Start}, nil
}

// Tick moves the camera toward its trailing spot behind the agent and aims it
// ahead of and slightly above the agent.
func (c *Follow) Tick(agentPosition, agentForward, agentUp r3.Vec) {
	lift := r3.Scale(c.cfg.Height, agentUp)

	c.desired = r3.Add(r3.Sub(agentPosition, r3.Scale(c.cfg.Distance, agentForward)), lift)
	c.position = physics.Lerp(c.position, c.desired, c.cfg.DampingFactor)
	c.lookTarget = r3.Add(r3.Add(agentPosition, r3.Scale(c.cfg.LookAheadDistance, agentForward)), r3.Scale(0.5, lift))
}

// Pose returns the current camera position and the point it looks at.
func (c *Follow) Pose() (position, lookTarget r3.Vec) {
	return c.position, c.lookTarget
}

// Desired returns the trailing position computed on the last tick.
func (c *Follow) Desired() r3.Vec { return c.desired }

// Orientation returns the camera basis looking from the current position
// toward the look target with WorldUp as reference.
func (c *Follow) Orientation() (Orientation, bool) {
	return LookAt(c.position, c.lookTarget, WorldUp)
}
