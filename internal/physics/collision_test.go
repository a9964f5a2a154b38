package physics

import (
	"math"
	"testing"

	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestTouching_Tolerance(t *testing.T) {
	a := vec.Vec2Float{X: 0, Y: 0}

	// Перекрытие
	assert.True(t, Touching(a, 5, vec.Vec2Float{X: 14.5}, 10))
	// Зазор 0.5 — внутри допуска
	assert.True(t, Touching(a, 5, vec.Vec2Float{X: 15.5}, 10))
	// Зазор ровно 1 — уже не контакт
	assert.False(t, Touching(a, 5, vec.Vec2Float{X: 16}, 10))

	// Касание вплотную
	assert.True(t, Touching(a, 20, vec.Vec2Float{X: 30}, 10))
}

func TestPursue(t *testing.T) {
	step := Pursue(vec.Vec2Float{X: 0, Y: 0}, vec.Vec2Float{X: 10, Y: 0}, 2)
	assert.InDelta(t, 2, step.X, 1e-9)
	assert.InDelta(t, 0, step.Y, 1e-9)

	// Совпадающие точки: без NaN и без движения
	same := Pursue(vec.Vec2Float{X: 3, Y: 3}, vec.Vec2Float{X: 3, Y: 3}, 2)
	assert.False(t, math.IsNaN(same.X))
	assert.True(t, same.IsZero())
}
