package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2Float_Basics(t *testing.T) {
	a := Vec2Float{X: 3, Y: 4}
	b := Vec2Float{X: 1, Y: 1}

	assert.Equal(t, Vec2Float{X: 4, Y: 5}, a.Add(b))
	assert.Equal(t, Vec2Float{X: 2, Y: 3}, a.Sub(b))
	assert.Equal(t, Vec2Float{X: 6, Y: 8}, a.Mul(2))
	assert.Equal(t, 5.0, a.Length())
	assert.InDelta(t, 1.0, a.Normalized().Length(), 1e-9)
}

func TestVec2Float_NormalizedZero(t *testing.T) {
	// Нулевой вектор не должен порождать NaN
	n := Vec2Float{}.Normalized()
	assert.False(t, math.IsNaN(n.X) || math.IsNaN(n.Y))
	assert.True(t, n.IsZero())
}

func TestVec2Float_AngleAndFromAngle(t *testing.T) {
	origin := Vec2Float{X: 100, Y: 100}

	up := origin.AngleTo(Vec2Float{X: 100, Y: 0})
	assert.InDelta(t, -math.Pi/2, up, 1e-9)

	v := FromAngle(up, 8)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, -8, v.Y, 1e-9)
	assert.InDelta(t, 100, origin.DistanceTo(Vec2Float{X: 100, Y: 0}), 1e-9)
}

func TestBounds_ClampAndContains(t *testing.T) {
	b := Bounds{Width: 200, Height: 100}

	assert.Equal(t, Vec2Float{X: 100, Y: 50}, b.Center())
	assert.True(t, b.Contains(Vec2Float{X: 0, Y: 100}))
	assert.False(t, b.Contains(Vec2Float{X: -0.1, Y: 10}))

	clamped := b.ClampCircle(Vec2Float{X: -5, Y: 120}, 20)
	assert.Equal(t, Vec2Float{X: 20, Y: 80}, clamped)
}
