package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
)

var field = vec.Bounds{Width: 800, Height: 600}

func newDirector(seed uint64) *Director {
	return NewDirector(field, config.DefaultDifficulty(), seed)
}

func TestEnemyInterval(t *testing.T) {
	d := newDirector(1)

	assert.Equal(t, 55, d.EnemyInterval(1))
	assert.Equal(t, 10, d.EnemyInterval(10))
	assert.Equal(t, 10, d.EnemyInterval(50))

	prev := d.EnemyInterval(1)
	for level := 2; level < 20; level++ {
		cur := d.EnemyInterval(level)
		assert.LessOrEqual(t, cur, prev, "level %d", level)
		assert.GreaterOrEqual(t, cur, 10)
		prev = cur
	}
}

func TestSpawnEnemy_OffScreenEdge(t *testing.T) {
	d := newDirector(42)
	for i := 0; i < 500; i++ {
		e := d.SpawnEnemy(1)
		p := e.Position
		onVertical := (p.X == -20 || p.X == 820) && p.Y >= 0 && p.Y < 600
		onHorizontal := (p.Y == -20 || p.Y == 620) && p.X >= 0 && p.X < 800
		assert.True(t, onVertical || onHorizontal, "spawn %v not on an outer edge", p)
		assert.True(t, e.Alive)
	}
}

func TestEnemyKind_LevelGates(t *testing.T) {
	t.Run("low levels spawn only weak", func(t *testing.T) {
		d := newDirector(7)
		for i := 0; i < 300; i++ {
			assert.Equal(t, entity.EnemyWeak, d.EnemyKind(2))
		}
	})

	t.Run("tanky after level 2, fast after level 4", func(t *testing.T) {
		d := newDirector(7)
		seen := map[entity.EnemyKind]int{}
		for i := 0; i < 2000; i++ {
			seen[d.EnemyKind(4)]++
		}
		assert.Positive(t, seen[entity.EnemyTanky])
		assert.Zero(t, seen[entity.EnemyFast])

		seen = map[entity.EnemyKind]int{}
		for i := 0; i < 2000; i++ {
			seen[d.EnemyKind(5)]++
		}
		assert.Positive(t, seen[entity.EnemyWeak], "base kind stays eligible")
		assert.Positive(t, seen[entity.EnemyTanky])
		assert.Positive(t, seen[entity.EnemyFast])
	})

	t.Run("speed scales with level", func(t *testing.T) {
		e := entity.NewEnemy(vec.Vec2Float{}, entity.EnemyWeak, 3)
		assert.InDelta(t, 1.8, e.Speed, 1e-9)
		assert.Equal(t, 15.0, e.Radius)
	})
}

func TestSpawnItem_Inset(t *testing.T) {
	d := newDirector(3)
	seen := map[entity.ItemKind]int{}
	for i := 0; i < 1000; i++ {
		it := d.SpawnItem()
		assert.GreaterOrEqual(t, it.Position.X, 50.0)
		assert.Less(t, it.Position.X, 750.0)
		assert.GreaterOrEqual(t, it.Position.Y, 50.0)
		assert.Less(t, it.Position.Y, 550.0)
		assert.Equal(t, entity.ItemLifetime, it.Lifetime)
		seen[it.Kind]++
	}
	assert.Len(t, seen, 3)
	assert.Greater(t, seen[entity.ItemHeal], seen[entity.ItemShield]/2)
}

func TestDirectorState_RoundTrip(t *testing.T) {
	a := newDirector(99)
	for i := 0; i < 10; i++ {
		a.SpawnEnemy(6)
	}
	state, err := a.State()
	require.NoError(t, err)

	b := newDirector(1)
	require.NoError(t, b.SetState(state))

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.SpawnEnemy(6), b.SpawnEnemy(6))
		assert.Equal(t, a.SpawnItem(), b.SpawnItem())
	}

	assert.Error(t, b.SetState([]byte("garbage")))
}
