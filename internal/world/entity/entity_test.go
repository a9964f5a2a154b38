package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ufo-survivor/internal/vec"
)

func TestPlayer_Damage(t *testing.T) {
	p := NewPlayer(vec.Vec2Float{X: 10, Y: 10})

	assert.False(t, p.TakeDamage(10))
	assert.Equal(t, 90, p.Health)

	p.Shield.Start(ShieldDuration)
	assert.False(t, p.TakeDamage(50))
	assert.Equal(t, 90, p.Health, "shield negates damage")

	p.Shield = Timer{}
	assert.True(t, p.TakeDamage(500))
	assert.Equal(t, 0, p.Health)
	assert.True(t, p.IsDead())
	assert.Zero(t, p.HealthFraction())
}

func TestPlayer_Heal(t *testing.T) {
	p := NewPlayer(vec.Vec2Float{})
	p.Health = 50
	p.Heal(HealAmount)
	assert.Equal(t, 70, p.Health)
	p.Heal(1000)
	assert.Equal(t, p.MaxHealth, p.Health)
}

func TestTimer(t *testing.T) {
	var tm Timer
	assert.False(t, tm.Tick(), "inactive timer does not tick")

	tm.Start(2)
	assert.True(t, tm.Tick())
	assert.True(t, tm.Active)
	assert.True(t, tm.Tick())
	assert.False(t, tm.Active)
	assert.Zero(t, tm.Remaining)

	tm.Start(5)
	tm.Tick()
	tm.Start(5)
	assert.Equal(t, 5, tm.Remaining, "restart resets countdown")
}

func TestItem_Apply(t *testing.T) {
	p := NewPlayer(vec.Vec2Float{})

	shield := NewItem(vec.Vec2Float{}, ItemShield)
	shield.Apply(&p)
	assert.Equal(t, Timer{Active: true, Remaining: 300}, p.Shield)

	auto := NewItem(vec.Vec2Float{}, ItemAutoAttack)
	auto.Apply(&p)
	assert.Equal(t, Timer{Active: true, Remaining: 480}, p.AutoAttack)

	total := 0.0
	for _, k := range ItemKinds() {
		total += k.Spec().Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestEnemyKinds(t *testing.T) {
	cases := []struct {
		kind   EnemyKind
		name   string
		radius float64
		speed  float64
	}{
		{EnemyWeak, "weak", 15, 1.6},
		{EnemyTanky, "tanky", 20, 1.08},
		{EnemyFast, "fast", 10, 2.12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEnemy(vec.Vec2Float{}, tc.kind, 1)
			assert.Equal(t, tc.name, tc.kind.String())
			assert.Equal(t, tc.radius, e.Radius)
			assert.InDelta(t, tc.speed, e.Speed, 1e-9)
			assert.True(t, e.Alive)
		})
	}

	e := NewEnemy(vec.Vec2Float{X: 0, Y: 0}, EnemyWeak, 0)
	e.Pursue(vec.Vec2Float{X: 10, Y: 0})
	assert.InDelta(t, 1.5, e.Position.X, 1e-9)
}

func TestCompact(t *testing.T) {
	items := []Particle{
		{Body: NewBody(vec.Vec2Float{X: 1}, 1)},
		{Body: NewBody(vec.Vec2Float{X: 2}, 1)},
		{Body: NewBody(vec.Vec2Float{X: 3}, 1)},
		{Body: NewBody(vec.Vec2Float{X: 4}, 1)},
	}
	items[1].Kill()
	items[2].Kill()

	out := Compact(items, func(p *Particle) bool { return p.Alive })
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Position.X)
	assert.Equal(t, 4.0, out[1].Position.X)
	assert.Equal(t, Particle{}, items[3], "tail is cleared")

	assert.Empty(t, Compact[Particle](nil, func(*Particle) bool { return true }))
}

func TestParticle_Fade(t *testing.T) {
	p := Particle{Body: NewBody(vec.Vec2Float{}, 2), Velocity: vec.Vec2Float{X: 1, Y: -1}, Opacity: 0.03}
	p.Move()
	assert.False(t, p.Faded())
	assert.Equal(t, vec.Vec2Float{X: 1, Y: -1}, p.Position)
	p.Move()
	assert.True(t, p.Faded())
}
