package physics

import "errors"

var ErrInvalidRadius = errors.New("sphere radius must be positive and finite")
