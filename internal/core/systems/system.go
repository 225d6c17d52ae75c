package systems

import (
	"time"

	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/input"
)

// System is one stage of the per-tick pipeline.
type System interface {
	// Identity

	Name() string

	// Configuration

	Priority() Priority
	ExecutionPhase() ExecutionPhase

	// Execution

	// Update runs the system once for the current frame. It must finish
	// within the call; nothing carries over to the next tick except state.
	Update(deltaTime float64, world World) error
}

// World gives systems access to the state shared within a tick.
type World interface {
	// Input is the steering snapshot sampled for this frame.
	Input() input.Snapshot

	// Time management

	FrameCount() int64
	TotalTime() time.Duration

	// Resource management

	GetResource(name string) (any, bool)
	SetResource(name string, value any)

	// Event system access

	PublishEvent(event bus.Event) error
}

// Priority orders systems within a phase. Higher runs first.
type Priority uint16

const (
	PriorityLowest  Priority = 200
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// ExecutionPhase defines when a system runs within a tick.
type ExecutionPhase uint8

const (
	PhasePreUpdate ExecutionPhase = iota
	PhaseUpdate
	PhasePostUpdate
	PhaseLateUpdate
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseLateUpdate:
		return "late_update"
	default:
		return "unknown"
	}
}

// Metrics provides runtime metrics for a system.
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
}
