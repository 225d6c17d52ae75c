package camera

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

// Orientation is a right-handed camera basis. The camera looks down -Back.
type Orientation struct {
	Right r3.Vec
	Up    r3.Vec
	Back  r3.Vec
}

// LookAt builds the camera basis for an eye looking at target.
//
// ok is false when eye and target coincide or the view direction is parallel
// to up. No substitute axis is chosen in that case; the caller decides.
func LookAt(eye, target, up r3.Vec) (o Orientation, ok bool) {
	back, ok := physics.Unit(r3.Sub(eye, target))
	if !ok {
		return Orientation{}, false
	}
	right, ok := physics.Unit(r3.Cross(up, back))
	if !ok {
		return Orientation{Back: back}, false
	}
	return Orientation{Right: right, Up: r3.Cross(back, right), Back: back}, true
}

// Mat returns the rotation with columns right, up and back.
func (o Orientation) Mat() *r3.Mat {
	return r3.NewMat([]float64{
		o.Right.X, o.Up.X, o.Back.X,
		o.Right.Y, o.Up.Y, o.Back.Y,
		o.Right.Z, o.Up.Z, o.Back.Z,
	})
}
