package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
)

func newPlayer() entity.Player {
	return entity.NewPlayer(vec.Vec2Float{X: 100, Y: 100})
}

func TestGainExperience(t *testing.T) {
	t.Run("exact threshold", func(t *testing.T) {
		p := newPlayer()
		p.Experience = 80
		ups := GainExperience(&p, 20)

		assert.Equal(t, 1, ups)
		assert.Equal(t, 2, p.Level)
		assert.Equal(t, 0, p.Experience)
		assert.Equal(t, 150, p.ExperienceToNext)
	})

	t.Run("surplus carries over", func(t *testing.T) {
		p := newPlayer()
		p.Experience = 90
		ups := GainExperience(&p, 20)

		assert.Equal(t, 1, ups)
		assert.Equal(t, 10, p.Experience)
	})

	t.Run("multiple level ups from one gain", func(t *testing.T) {
		p := newPlayer()
		ups := GainExperience(&p, 260)

		// 260-100=160, 160-150=10, next threshold floor(150*1.5)=225
		assert.Equal(t, 2, ups)
		assert.Equal(t, 3, p.Level)
		assert.Equal(t, 10, p.Experience)
		assert.Equal(t, 225, p.ExperienceToNext)
	})

	t.Run("below threshold", func(t *testing.T) {
		p := newPlayer()
		assert.Zero(t, GainExperience(&p, 99))
		assert.Equal(t, 1, p.Level)
	})

	t.Run("threshold floors", func(t *testing.T) {
		p := newPlayer()
		p.ExperienceToNext = 225
		GainExperience(&p, 225)
		assert.Equal(t, 337, p.ExperienceToNext)
	})
}

func TestApplyUpgrade(t *testing.T) {
	t.Run("max health", func(t *testing.T) {
		p := newPlayer()
		p.Health = 50
		require.NoError(t, ApplyUpgrade(&p, 0))
		assert.Equal(t, 120, p.MaxHealth)
		assert.Equal(t, 70, p.Health)
	})

	t.Run("attack speed", func(t *testing.T) {
		p := newPlayer()
		require.NoError(t, ApplyUpgrade(&p, 1))
		assert.InDelta(t, 1.1, p.AttackSpeed, 1e-9)
	})

	t.Run("move speed", func(t *testing.T) {
		p := newPlayer()
		require.NoError(t, ApplyUpgrade(&p, 2))
		assert.InDelta(t, 4.2, p.Speed, 1e-9)
	})

	t.Run("out of range leaves player untouched", func(t *testing.T) {
		for _, id := range []int{-1, 3, 100} {
			p := newPlayer()
			before := p
			err := ApplyUpgrade(&p, id)
			assert.ErrorIs(t, err, ErrInvalidUpgrade)
			assert.Equal(t, before, p)
		}
	})

	assert.Len(t, Options(), 3)
}

func TestMachine(t *testing.T) {
	t.Run("level up pauses until every choice is made", func(t *testing.T) {
		m := NewMachine()
		p := newPlayer()

		m.LevelUp(2)
		assert.Equal(t, AwaitingUpgradeChoice, m.Phase())
		assert.Equal(t, 2, m.Pending())

		require.NoError(t, m.Choose(&p, 0))
		assert.Equal(t, AwaitingUpgradeChoice, m.Phase())

		require.NoError(t, m.Choose(&p, 2))
		assert.Equal(t, Running, m.Phase())
		assert.Zero(t, m.Pending())
	})

	t.Run("invalid choice keeps phase", func(t *testing.T) {
		m := NewMachine()
		p := newPlayer()
		m.LevelUp(1)

		assert.ErrorIs(t, m.Choose(&p, 7), ErrInvalidUpgrade)
		assert.Equal(t, AwaitingUpgradeChoice, m.Phase())
		assert.Equal(t, 1, m.Pending())
	})

	t.Run("choose while running is rejected", func(t *testing.T) {
		m := NewMachine()
		p := newPlayer()
		assert.ErrorIs(t, m.Choose(&p, 0), ErrInvalidUpgrade)
		assert.Equal(t, entity.PlayerMaxHealth, p.MaxHealth)
	})

	t.Run("game over is terminal", func(t *testing.T) {
		m := NewMachine()
		m.Die()
		m.LevelUp(1)
		assert.Equal(t, GameOver, m.Phase())
		assert.True(t, m.IsGameOver())
	})

	t.Run("restore normalizes pending", func(t *testing.T) {
		m := RestoreMachine(AwaitingUpgradeChoice, 0)
		assert.Equal(t, Running, m.Phase())
	})
}
