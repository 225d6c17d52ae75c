package simulation

import "errors"

var (
	ErrMissingAgentPose = errors.New("agent pose not available")
	ErrInvalidDeltaTime = errors.New("delta time must be a non-negative finite number")
)
