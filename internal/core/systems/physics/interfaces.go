package physics

import "gonum.org/v1/gonum/spatial/r3"

// Surface answers geometric queries against a constraint surface.
// Implementations are stateless apart from their construction parameters.
type Surface interface {
	// Radius returns the distance from the center to the surface.
	Radius() float64
	// NormalAt returns the outward unit normal for point. ok is false when
	// point is degenerate (at the center) and no normal exists.
	NormalAt(point r3.Vec) (normal r3.Vec, ok bool)
	// NearestSurfacePoint returns the point on the surface closest to point.
	// ok is false for the same degenerate inputs as NormalAt.
	NearestSurfacePoint(point r3.Vec) (surface r3.Vec, ok bool)
	// Shell returns the point height above the surface along the normal
	// through point.
	Shell(point r3.Vec, height float64) (shell r3.Vec, ok bool)
}
