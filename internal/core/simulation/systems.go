package simulation

import (
	"fmt"

	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/observability/log"
	"github.com/zeusync/orbiter/internal/core/systems"
	"github.com/zeusync/orbiter/internal/core/systems/camera"
	"github.com/zeusync/orbiter/internal/core/systems/locomotion"
)

var (
	_ systems.System = (*agentSystem)(nil)
	_ systems.System = (*cameraSystem)(nil)
)

// agentSystem steers the agent from the frame's input snapshot and publishes
// its pose for the camera.
type agentSystem struct {
	agent  *locomotion.Agent
	logger log.Log
	skips  uint64
}

func (s *agentSystem) Name() string                           { return "locomotion" }
func (s *agentSystem) Priority() systems.Priority             { return systems.PriorityHigh }
func (s *agentSystem) ExecutionPhase() systems.ExecutionPhase { return systems.PhaseUpdate }

func (s *agentSystem) Update(deltaTime float64, world systems.World) error {
	s.agent.Tick(deltaTime, world.Input().Clamped().Rotation)

	if skips := s.agent.DegenerateSkips(); skips != s.skips {
		s.skips = skips
		s.logger.Debug("skipped degenerate sub-step",
			log.Int64("frame", world.FrameCount()),
			log.Uint64("total_skips", skips),
		)
		if err := world.PublishEvent(bus.NewEvent(EventAgentDegenerate, s.Name(), world.FrameCount(), skips)); err != nil {
			s.logger.Warn("degenerate subscriber failed", log.Int64("frame", world.FrameCount()), log.Error(err))
		}
	}

	world.SetResource(ResourceAgentPose, AgentPose{
		Position: s.agent.Position(),
		Forward:  s.agent.Forward(),
		Right:    s.agent.Right(),
		Up:       s.agent.Up(),
		Basis:    matFrom(s.agent.Frame().Basis()),
	})
	return nil
}

// cameraSystem trails the pose left by agentSystem in the same tick.
type cameraSystem struct {
	camera *camera.Follow
	// last good look-at basis
	orientation Mat3
}

func (s *cameraSystem) Name() string                           { return "camera" }
func (s *cameraSystem) Priority() systems.Priority             { return systems.PriorityNormal }
func (s *cameraSystem) ExecutionPhase() systems.ExecutionPhase { return systems.PhaseLateUpdate }

func (s *cameraSystem) Update(_ float64, world systems.World) error {
	res, ok := world.GetResource(ResourceAgentPose)
	if !ok {
		return ErrMissingAgentPose
	}
	pose, ok := res.(AgentPose)
	if !ok {
		return fmt.Errorf("%w: resource holds %T", ErrMissingAgentPose, res)
	}

	s.camera.Tick(pose.Position, pose.Forward, pose.Up)

	position, lookTarget := s.camera.Pose()
	o, ok := s.camera.Orientation()
	if ok {
		s.orientation = matFrom(o.Mat())
	}
	world.SetResource(ResourceCameraPose, CameraPose{
		Position:      position,
		LookTarget:    lookTarget,
		Orientation:   s.orientation,
		OrientationOK: ok,
	})
	return nil
}
