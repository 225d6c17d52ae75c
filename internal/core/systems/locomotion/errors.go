package locomotion

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid locomotion config")
	ErrDegenerateFrame = errors.New("degenerate orientation frame")
)
