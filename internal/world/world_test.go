package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
	"github.com/annel0/ufo-survivor/internal/world/progression"
)

func newTestRun() *Run {
	return NewRun(config.DefaultGame(), 1)
}

// stillEnemy создаёт неподвижного врага, чтобы проверки контакта не зависели от преследования
func stillEnemy(x, y float64, kind entity.EnemyKind) entity.Enemy {
	e := entity.NewEnemy(vec.Vec2Float{X: x, Y: y}, kind, 1)
	e.Speed = 0
	return e
}

func stillProjectile(x, y float64) entity.Projectile {
	return entity.NewProjectile(vec.Vec2Float{X: x, Y: y}, vec.Vec2Float{})
}

func eventsOf(events []Event, t EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestNewRun(t *testing.T) {
	r := newTestRun()

	assert.Equal(t, vec.Vec2Float{X: 400, Y: 300}, r.Player().Position)
	assert.Equal(t, 1, r.Level())
	assert.Zero(t, r.Score())
	assert.Zero(t, r.Elapsed())
	assert.Equal(t, progression.Running, r.Phase())
	assert.Empty(t, r.Enemies())
	assert.Empty(t, r.Projectiles())
	assert.Empty(t, r.Items())
	assert.Empty(t, r.Gems())
	assert.Empty(t, r.Particles())
	assert.Equal(t, 1.0, r.HealthFraction())
	assert.Zero(t, r.ExperienceFraction())
}

func TestStep_ProjectilePrunedOffscreen(t *testing.T) {
	r := newTestRun()
	r.projectiles = append(r.projectiles, entity.NewProjectile(vec.Vec2Float{X: 798, Y: 100}, vec.Vec2Float{X: 8}))
	r.projectiles = append(r.projectiles, entity.NewProjectile(vec.Vec2Float{X: 100, Y: 100}, vec.Vec2Float{X: 8}))

	require.True(t, r.Step(0))

	require.Len(t, r.projectiles, 1)
	assert.Equal(t, 108.0, r.projectiles[0].Position.X, "the remaining projectile keeps its order and moves")
}

func TestStep_ProjectileFiredUpPrunedAboveTop(t *testing.T) {
	r := newTestRun()
	r.player.Position = vec.Vec2Float{X: 100, Y: 100}

	// врагов нет - выстрел уходит строго вверх
	require.True(t, r.RequestManualShot())
	require.Len(t, r.projectiles, 1)
	assert.InDelta(t, -entity.ProjectileSpeed, r.projectiles[0].Velocity.Y, 1e-9)
	assert.InDelta(t, 0, r.projectiles[0].Velocity.X, 1e-9)

	// 100/8 = 12.5: после 12 шагов снаряд ещё над полем, на 13-м уходит за верхний край
	for i := 0; i < 12; i++ {
		require.True(t, r.Step(0))
	}
	require.Len(t, r.projectiles, 1)
	assert.InDelta(t, 4, r.projectiles[0].Position.Y, 1e-9)
	assert.InDelta(t, 100, r.projectiles[0].Position.X, 1e-9)

	require.True(t, r.Step(0))
	assert.Empty(t, r.projectiles)
}

func TestStep_ProjectileHitsEnemyWithinTolerance(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies, stillEnemy(100, 100, entity.EnemyWeak))
	// расстояние r1+r2-0.5
	r.projectiles = append(r.projectiles, stillProjectile(100+15+5-0.5, 100))

	r.Step(0)

	assert.Empty(t, r.enemies)
	assert.Empty(t, r.projectiles)
	assert.Len(t, r.particles, 15)
	for _, p := range r.particles {
		assert.Equal(t, "#ff4747", p.Color)
		assert.GreaterOrEqual(t, p.Radius, 1.0)
		assert.Less(t, p.Radius, 4.0)
	}
	require.Len(t, r.gems, 1)
	assert.Equal(t, vec.Vec2Float{X: 100, Y: 100}, r.gems[0].Position)
	assert.Equal(t, entity.GemValue, r.gems[0].Value)
	assert.Equal(t, 10, r.Score())

	killed := eventsOf(r.DrainEvents(), EventTypeEnemyKilled)
	require.Len(t, killed, 1)
	assert.Equal(t, "weak", killed[0].Kind)
}

func TestStep_GapOfOneIsNotAHit(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies, stillEnemy(100, 100, entity.EnemyWeak))
	r.projectiles = append(r.projectiles, stillProjectile(100+15+5+1, 100))

	r.Step(0)

	assert.Len(t, r.enemies, 1)
	assert.Len(t, r.projectiles, 1)
	assert.Zero(t, r.Score())
}

func TestStep_AdjacentEnemiesBothHit(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies,
		stillEnemy(100, 100, entity.EnemyWeak),
		stillEnemy(100, 200, entity.EnemyTanky),
	)
	r.projectiles = append(r.projectiles,
		stillProjectile(100, 100),
		stillProjectile(100, 200),
	)

	r.Step(0)

	assert.Empty(t, r.enemies, "removing the first enemy must not skip its neighbour")
	assert.Empty(t, r.projectiles)
	assert.Len(t, r.gems, 2)
	assert.Equal(t, 20, r.Score())
}

func TestStep_ProjectileHitsAtMostOneEnemy(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies,
		stillEnemy(100, 100, entity.EnemyWeak),
		stillEnemy(110, 100, entity.EnemyWeak),
	)
	r.projectiles = append(r.projectiles, stillProjectile(105, 100))

	r.Step(0)

	require.Len(t, r.enemies, 1)
	assert.Equal(t, 110.0, r.enemies[0].Position.X)
	assert.Equal(t, 10, r.Score())
}

func TestStep_PlayerContact(t *testing.T) {
	t.Run("damage and explosion at player", func(t *testing.T) {
		r := newTestRun()
		r.enemies = append(r.enemies, stillEnemy(400, 335, entity.EnemyWeak))

		r.Step(0)

		assert.Empty(t, r.enemies)
		assert.Equal(t, 90, r.Player().Health)
		require.Len(t, r.particles, 15)
		assert.Equal(t, ExplosionColorPlayer, r.particles[0].Color)
		assert.Empty(t, r.gems, "contact kills drop no gem")
		assert.Zero(t, r.Score())
	})

	t.Run("contact wins over a projectile in the same tick", func(t *testing.T) {
		r := newTestRun()
		r.enemies = append(r.enemies, stillEnemy(400, 335, entity.EnemyWeak))
		r.projectiles = append(r.projectiles, stillProjectile(400, 340))

		r.Step(0)

		assert.Empty(t, r.enemies)
		assert.Len(t, r.projectiles, 1, "projectile is not consumed by an enemy that already died")
		assert.Zero(t, r.Score())
	})

	t.Run("shield negates damage", func(t *testing.T) {
		r := newTestRun()
		r.player.Shield.Start(entity.ShieldDuration)
		r.enemies = append(r.enemies, stillEnemy(400, 300, entity.EnemyWeak))

		r.Step(0)

		assert.Empty(t, r.enemies)
		assert.Equal(t, 100, r.Player().Health)
		hits := eventsOf(r.DrainEvents(), EventTypePlayerHit)
		require.Len(t, hits, 1)
		assert.True(t, hits[0].Shielded)
	})

	t.Run("coincident enemy does not produce NaN", func(t *testing.T) {
		r := newTestRun()
		e := entity.NewEnemy(r.player.Position, entity.EnemyFast, 1)
		r.enemies = append(r.enemies, e)

		r.Step(0)

		p := r.Player().Position
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
		assert.Empty(t, r.enemies)
	})
}

func TestStep_HealthBoundsAndGameOver(t *testing.T) {
	r := newTestRun()
	r.player.Health = 5
	r.enemies = append(r.enemies, stillEnemy(400, 300, entity.EnemyWeak))

	r.Step(0)

	assert.Equal(t, 0, r.Player().Health)
	assert.Equal(t, progression.GameOver, r.Phase())
	assert.Len(t, eventsOf(r.DrainEvents(), EventTypeGameOver), 1)

	tick := r.Tick()
	assert.False(t, r.Step(1), "step after game over is a no-op")
	assert.Equal(t, tick, r.Tick())
	assert.False(t, r.RequestManualShot())
	assert.ErrorIs(t, r.ChooseUpgrade(0), progression.ErrInvalidUpgrade)

	r.Abort()
	assert.Empty(t, r.DrainEvents(), "abort after game over emits nothing")
}

func TestStep_HealClampsToMax(t *testing.T) {
	r := newTestRun()
	r.player.Health = 95
	r.items = append(r.items, entity.NewItem(r.player.Position, entity.ItemHeal))

	r.Step(0)

	assert.Equal(t, 100, r.Player().Health)
	assert.Empty(t, r.items)
	picked := eventsOf(r.DrainEvents(), EventTypeItemPicked)
	require.Len(t, picked, 1)
	assert.Equal(t, "heal", picked[0].Kind)
}

func TestStep_ShieldLasts300Ticks(t *testing.T) {
	cfg := config.DefaultGame()
	// большое поле, чтобы враги не долетели до игрока за время теста
	cfg.Playfield = vec.Bounds{Width: 8000, Height: 6000}
	r := NewRun(cfg, 1)
	r.items = append(r.items, entity.NewItem(r.player.Position, entity.ItemShield))

	r.Step(0)
	require.True(t, r.Player().Shield.Active)
	assert.Equal(t, 300, r.Player().Shield.Remaining)

	for i := 0; i < 299; i++ {
		r.Step(0)
	}
	assert.True(t, r.Player().Shield.Active)
	assert.Equal(t, 1, r.Player().Shield.Remaining)

	r.Step(0)
	assert.False(t, r.Player().Shield.Active)
}

func TestStep_ItemExpires(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.Playfield = vec.Bounds{Width: 8000, Height: 6000}
	r := NewRun(cfg, 1)
	r.items = append(r.items, entity.NewItem(vec.Vec2Float{X: 100, Y: 100}, entity.ItemAutoAttack))

	for i := 0; i < 299; i++ {
		r.Step(0)
	}
	assert.Len(t, r.items, 1)

	r.Step(0)
	assert.Empty(t, r.items)
}

func TestStep_LevelUpOnExactThreshold(t *testing.T) {
	r := newTestRun()
	r.player.Experience = 80
	r.gems = append(r.gems, entity.NewExperienceGem(r.player.Position, 20))

	require.True(t, r.Step(0))

	p := r.Player()
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 0, p.Experience)
	assert.Equal(t, 150, p.ExperienceToNext)
	assert.Equal(t, progression.AwaitingUpgradeChoice, r.Phase())
	assert.Len(t, eventsOf(r.DrainEvents(), EventTypeLevelUp), 1)

	tick := r.Tick()
	assert.False(t, r.Step(1), "paused run does not advance")
	assert.Equal(t, tick, r.Tick())
	assert.False(t, r.RequestManualShot())

	assert.ErrorIs(t, r.ChooseUpgrade(3), progression.ErrInvalidUpgrade)
	assert.Equal(t, 100, r.Player().MaxHealth)
	assert.Equal(t, progression.AwaitingUpgradeChoice, r.Phase())

	require.NoError(t, r.ChooseUpgrade(0))
	assert.Equal(t, 120, r.Player().MaxHealth)
	assert.Equal(t, 120, r.Player().Health)
	assert.Equal(t, progression.Running, r.Phase())
	assert.True(t, r.Step(1))
}

func TestStep_LargeGainQueuesEveryUpgrade(t *testing.T) {
	r := newTestRun()
	r.gems = append(r.gems, entity.NewExperienceGem(r.player.Position, 260))

	r.Step(0)

	assert.Equal(t, 3, r.Player().Level)
	assert.Equal(t, 2, r.PendingUpgrades())

	require.NoError(t, r.ChooseUpgrade(2))
	assert.Equal(t, progression.AwaitingUpgradeChoice, r.Phase())
	require.NoError(t, r.ChooseUpgrade(1))
	assert.Equal(t, progression.Running, r.Phase())
}

func TestStep_GemMagnet(t *testing.T) {
	r := newTestRun()
	r.gems = append(r.gems,
		entity.NewExperienceGem(vec.Vec2Float{X: 450, Y: 300}, 20),
		entity.NewExperienceGem(vec.Vec2Float{X: 550, Y: 300}, 20),
	)

	r.Step(0)

	require.Len(t, r.gems, 2)
	assert.InDelta(t, 448.0, r.gems[0].Position.X, 1e-9)
	assert.Equal(t, 550.0, r.gems[1].Position.X, "gems beyond the magnet radius stay put")
}

func TestStep_LevelIsMonotonic(t *testing.T) {
	r := newTestRun()

	r.Step(30)
	assert.Equal(t, 1, r.Level(), "30s is not more than 30s")

	r.Step(31)
	assert.Equal(t, 2, r.Level())

	r.Step(31.9)
	assert.Equal(t, 2, r.Level())

	r.Step(10)
	assert.Equal(t, 31.9, r.Elapsed(), "elapsed never goes back")

	r.Step(61)
	assert.Equal(t, 3, r.Level())
}

func TestStep_EnemySpawnCadence(t *testing.T) {
	r := newTestRun()
	for i := 0; i < 54; i++ {
		r.Step(0)
	}
	assert.Empty(t, r.enemies)

	r.Step(0)
	require.Len(t, r.enemies, 1, "level 1 spawns every 55 ticks")

	e := r.enemies[0]
	assert.False(t, r.bounds.Contains(e.Position), "enemies start off-screen")
}

func TestStep_ItemSpawnCadence(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.Playfield = vec.Bounds{Width: 20000, Height: 20000}
	r := NewRun(cfg, 5)

	for i := 0; i < 899; i++ {
		r.Step(0)
	}
	assert.Empty(t, r.items)

	r.Step(0)
	assert.Len(t, r.items, 1)
}

func TestStep_PlayerMovementClamped(t *testing.T) {
	r := newTestRun()
	r.SetPlayerIntent(vec.Vec2Float{X: -1000, Y: 0})

	r.Step(0)
	assert.Equal(t, vec.Vec2Float{X: 20, Y: 300}, r.Player().Position)

	r.SetPlayerDirection(vec.Vec2Float{X: 0, Y: 5})
	r.Step(0)
	assert.InDelta(t, 304.0, r.Player().Position.Y, 1e-9)
}

func TestStep_ParticlesFadeOut(t *testing.T) {
	r := newTestRun()
	r.explode(vec.Vec2Float{X: 100, Y: 100}, "#39ff14")
	require.Len(t, r.particles, 15)

	for i := 0; i < 45; i++ {
		r.Step(0)
	}
	assert.Len(t, r.particles, 15)

	for i := 0; i < 6; i++ {
		r.Step(0)
	}
	assert.Empty(t, r.particles)
}

func TestCombat(t *testing.T) {
	t.Run("manual shot without target fires up", func(t *testing.T) {
		r := newTestRun()
		require.True(t, r.RequestManualShot())
		require.Len(t, r.projectiles, 1)
		v := r.projectiles[0].Velocity
		assert.InDelta(t, 0, v.X, 1e-9)
		assert.InDelta(t, -8, v.Y, 1e-9)
	})

	t.Run("manual shot aims at nearest enemy", func(t *testing.T) {
		r := newTestRun()
		r.enemies = append(r.enemies, stillEnemy(700, 300, entity.EnemyWeak), stillEnemy(500, 300, entity.EnemyWeak))
		require.True(t, r.RequestManualShot())
		v := r.projectiles[0].Velocity
		assert.InDelta(t, 8, v.X, 1e-9)
		assert.InDelta(t, 0, v.Y, 1e-9)
	})

	t.Run("manual shot ignored during auto-attack", func(t *testing.T) {
		r := newTestRun()
		r.player.AutoAttack.Start(entity.AutoAttackDuration)
		assert.False(t, r.RequestManualShot())
		assert.Empty(t, r.projectiles)
	})

	t.Run("nearest enemy tie goes to the first", func(t *testing.T) {
		r := newTestRun()
		r.enemies = append(r.enemies, stillEnemy(300, 300, entity.EnemyWeak), stillEnemy(500, 300, entity.EnemyTanky))
		nearest := r.FindNearestEnemy()
		require.NotNil(t, nearest)
		assert.Equal(t, entity.EnemyWeak, nearest.Kind)
	})

	t.Run("no enemies", func(t *testing.T) {
		assert.Nil(t, newTestRun().FindNearestEnemy())
	})
}

func TestStep_AutoAttackPeriod(t *testing.T) {
	t.Run("base period", func(t *testing.T) {
		r := newTestRun()
		r.player.AutoAttack.Start(entity.AutoAttackDuration)
		for i := 0; i < 10; i++ {
			r.Step(0)
		}
		assert.Len(t, r.projectiles, 1)
		assert.Equal(t, 470, r.Player().AutoAttack.Remaining)
	})

	t.Run("attack speed shortens period", func(t *testing.T) {
		r := newTestRun()
		r.player.AttackSpeed = 2
		r.player.AutoAttack.Start(entity.AutoAttackDuration)
		for i := 0; i < 10; i++ {
			r.Step(0)
		}
		assert.Len(t, r.projectiles, 2)
	})

	t.Run("expires after 480 ticks", func(t *testing.T) {
		cfg := config.DefaultGame()
		cfg.Playfield = vec.Bounds{Width: 8000, Height: 6000}
		r := NewRun(cfg, 1)
		r.player.AutoAttack.Start(entity.AutoAttackDuration)
		for i := 0; i < 480; i++ {
			r.Step(0)
		}
		assert.False(t, r.Player().AutoAttack.Active)
		assert.True(t, r.RequestManualShot())
	})
}

func TestAccessorsReturnCopies(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies, stillEnemy(100, 100, entity.EnemyWeak))

	enemies := r.Enemies()
	enemies[0].Position.X = 999
	assert.Equal(t, 100.0, r.enemies[0].Position.X)
}
