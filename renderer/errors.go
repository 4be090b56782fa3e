package renderer

import "errors"

var (
	ErrNoDevice            = errors.New("renderer: no device supplied")
	ErrMissingPass         = errors.New("renderer: missing draw pass")
	ErrOutputSlotCollision = errors.New("renderer: output slot collision")
	ErrInvalidSize         = errors.New("renderer: invalid frame size")
)
