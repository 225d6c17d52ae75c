package locomotion

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

// Frame is the agent's local orthonormal basis. Up is radial, Forward and
// Right are tangent to the sphere.
type Frame struct {
	Forward r3.Vec
	Right   r3.Vec
	Up      r3.Vec
}

// deriveFrame rebuilds a frame at position from a heading hint.
// fallbackRight is used when hint is parallel to the radial direction.
// ok is false only when position itself is degenerate.
func deriveFrame(position, hint, fallbackRight r3.Vec) (f Frame, ok bool) {
	up, ok := physics.Unit(position)
	if !ok {
		return Frame{}, false
	}
	right, ok := physics.Unit(r3.Cross(hint, up))
	if !ok {
		// heading collapsed onto the vertical, keep turning sense of the old frame
		right, ok = physics.Unit(r3.Sub(fallbackRight, r3.Scale(r3.Dot(fallbackRight, up), up)))
		if !ok {
			right = perpendicular(up)
		}
	}
	forward, _ := physics.Unit(r3.Cross(up, right))
	return Frame{Forward: forward, Right: right, Up: up}, true
}

// perpendicular returns some unit vector orthogonal to the unit vector v.
func perpendicular(v r3.Vec) r3.Vec {
	axis := r3.Vec{X: 1}
	if math.Abs(v.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}
	p, _ := physics.Unit(r3.Cross(v, axis))
	return p
}

// Orthonormal reports whether all three axes are unit length and pairwise
// perpendicular within tol.
func (f Frame) Orthonormal(tol float64) bool {
	for _, v := range []r3.Vec{f.Forward, f.Right, f.Up} {
		if math.Abs(r3.Norm(v)-1) > tol {
			return false
		}
	}
	return math.Abs(r3.Dot(f.Forward, f.Right)) <= tol &&
		math.Abs(r3.Dot(f.Forward, f.Up)) <= tol &&
		math.Abs(r3.Dot(f.Right, f.Up)) <= tol
}

// Basis returns the model rotation matrix with columns right, up and -forward,
// the layout renderers expect for a model facing down its local -Z axis.
func (f Frame) Basis() *r3.Mat {
	return r3.NewMat([]float64{
		f.Right.X, f.Up.X, -f.Forward.X,
		f.Right.Y, f.Up.Y, -f.Forward.Y,
		f.Right.Z, f.Up.Z, -f.Forward.Z,
	})
}
