package camera

import "errors"

var (
	ErrInvalidDamping = errors.New("damping factor must be in (0, 1]")
	ErrInvalidConfig  = errors.New("invalid camera config")
)
