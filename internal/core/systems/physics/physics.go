package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the norm below which a vector is treated as zero length.
const Epsilon = 1e-9

var _ Surface = Sphere{}

// Sphere is a perfect sphere centered at the world origin.
type Sphere struct {
	radius float64
}

// NewSphere creates a sphere. The radius must be finite and positive.
func NewSphere(radius float64) (Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return Sphere{radius: radius}, nil
}

func (s Sphere) Radius() float64 { return s.radius }

func (s Sphere) NormalAt(point r3.Vec) (r3.Vec, bool) {
	return Unit(point)
}

func (s Sphere) NearestSurfacePoint(point r3.Vec) (r3.Vec, bool) {
	n, ok := Unit(point)
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Scale(s.radius, n), true
}

// Shell returns the point at the given height above the surface along the
// radial direction of point.
func (s Sphere) Shell(point r3.Vec, height float64) (r3.Vec, bool) {
	n, ok := Unit(point)
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Scale(s.radius+height, n), true
}

// Unit normalizes v. It reports false instead of producing NaNs when v is
// shorter than Epsilon.
func Unit(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < Epsilon || math.IsNaN(n) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// Lerp interpolates linearly from a to b by t. t == 1 yields b exactly.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	if t == 1 {
		return b
	}
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Distance computes the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(b, a)) }
