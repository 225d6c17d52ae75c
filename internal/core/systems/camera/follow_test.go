package camera

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/orbiter/internal/core/systems/physics"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func newTestCamera(t *testing.T, damping float64) *Follow {
	t.Helper()
	c, err := New(Config{Distance: 8, Height: 3, DampingFactor: damping, LookAheadDistance: 5, Start: r3.Vec{Z: 5}})
	require.NoError(t, err)
	return c
}

var (
	agentPosition = r3.Vec{Y: 11.5}
	agentForward  = r3.Vec{Z: 1}
	agentUp       = r3.Vec{Y: 1}
)

func TestNewRejectsInvalidDamping(t *testing.T) {
	for _, d := range []float64{0, -0.5, 1.01, math.NaN()} {
		_, err := New(Config{DampingFactor: d})
		assert.ErrorIs(t, err, ErrInvalidDamping, "damping %v", d)
	}
	_, err := New(Config{DampingFactor: 0.5, Height: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTickFullDampingSnaps(t *testing.T) {
	c := newTestCamera(t, 1)

	c.Tick(agentPosition, agentForward, agentUp)

	position, lookTarget := c.Pose()
	assert.Equal(t, c.Desired(), position)
	assert.Equal(t, r3.Vec{Y: 14.5, Z: -8}, position)
	assert.Equal(t, r3.Vec{Y: 13, Z: 5}, lookTarget)
}

func TestTickConvergesMonotonically(t *testing.T) {
	c := newTestCamera(t, 0.1)
	desired := r3.Vec{Y: 14.5, Z: -8}

	prev := physics.Distance(c.cfg.Start, desired)
	for i := 0; i < 200; i++ {
		c.Tick(agentPosition, agentForward, agentUp)
		position, _ := c.Pose()
		d := physics.Distance(position, desired)
		require.Less(t, d, prev, "tick %d", i)
		require.InDelta(t, 0.9*prev, d, 1e-9, "tick %d", i)
		prev = d
	}
	assert.Less(t, prev, 1e-6)
}

func TestTickLagsBehindTarget(t *testing.T) {
	c := newTestCamera(t, 0.1)

	c.Tick(agentPosition, agentForward, agentUp)

	position, _ := c.Pose()
	want := physics.Lerp(r3.Vec{Z: 5}, r3.Vec{Y: 14.5, Z: -8}, 0.1)
	if diff := cmp.Diff(want, position, approx); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
	assert.Greater(t, physics.Distance(position, c.Desired()), 10.0)
}

func TestOrientationLooksAtTarget(t *testing.T) {
	c := newTestCamera(t, 1)
	c.Tick(agentPosition, agentForward, agentUp)

	o, ok := c.Orientation()
	require.True(t, ok)

	position, lookTarget := c.Pose()
	view, _ := physics.Unit(r3.Sub(lookTarget, position))
	if diff := cmp.Diff(view, r3.Scale(-1, o.Back), approx); diff != "" {
		t.Fatalf("view direction mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 0, r3.Dot(o.Right, o.Up), 1e-12)
	assert.InDelta(t, 0, r3.Dot(o.Right, o.Back), 1e-12)
	assert.InDelta(t, 1, r3.Norm(o.Up), 1e-12)
	assert.Greater(t, o.Up.Y, 0.0)
}

func TestLookAtVerticalIsReported(t *testing.T) {
	_, ok := LookAt(r3.Vec{Y: 10}, r3.Vec{}, WorldUp)
	assert.False(t, ok)

	_, ok = LookAt(r3.Vec{X: 1}, r3.Vec{X: 1}, WorldUp)
	assert.False(t, ok)
}

func TestOrientationMatColumns(t *testing.T) {
	o, ok := LookAt(r3.Vec{Z: 5}, r3.Vec{}, WorldUp)
	require.True(t, ok)

	m := o.Mat()
	for i, col := range []r3.Vec{o.Right, o.Up, o.Back} {
		assert.Equal(t, col.X, m.At(0, i))
		assert.Equal(t, col.Y, m.At(1, i))
		assert.Equal(t, col.Z, m.At(2, i))
	}
	assert.Equal(t, r3.Vec{X: 1}, o.Right)
	assert.Equal(t, r3.Vec{Z: 1}, o.Back)
}
