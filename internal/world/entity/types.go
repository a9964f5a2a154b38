package entity

import (
	"github.com/annel0/ufo-survivor/internal/vec"
)

// Параметры снарядов, кристаллов и частиц
const (
	ProjectileRadius = 5.0
	ProjectileSpeed  = 8.0
	ProjectileColor  = "#ff4747"

	GemRadius       = 6.0
	GemValue        = 20
	GemMagnetRadius = 100.0
	GemPullSpeed    = 2.0
	GemColor        = "#00ffdd"

	ParticleFade = 0.02
)

// Projectile представляет лазерный выстрел
type Projectile struct {
	Body
	Velocity vec.Vec2Float `json:"velocity" msgpack:"v"`
	Owner    EntityType    `json:"owner" msgpack:"o"`
}

// NewProjectile создаёт снаряд игрока
func NewProjectile(pos, velocity vec.Vec2Float) Projectile {
	return Projectile{
		Body:     NewBody(pos, ProjectileRadius),
		Velocity: velocity,
		Owner:    EntityTypePlayer,
	}
}

// Move сдвигает снаряд на один тик
func (p *Projectile) Move() {
	p.Position = p.Position.Add(p.Velocity)
}

// ExperienceGem представляет кристалл опыта
type ExperienceGem struct {
	Body
	Value int `json:"value" msgpack:"xp"`
}

// NewExperienceGem создаёт кристалл опыта в точке гибели врага
func NewExperienceGem(pos vec.Vec2Float, value int) ExperienceGem {
	return ExperienceGem{Body: NewBody(pos, GemRadius), Value: value}
}

// Particle — косметическая частица взрыва
type Particle struct {
	Body
	Color    string        `json:"color" msgpack:"c"`
	Velocity vec.Vec2Float `json:"velocity" msgpack:"v"`
	Opacity  float64       `json:"opacity" msgpack:"o"`
}

// Move сдвигает частицу и линейно гасит её прозрачность
func (p *Particle) Move() {
	p.Position = p.Position.Add(p.Velocity)
	p.Opacity -= ParticleFade
}

// Faded сообщает, что частица полностью погасла
func (p *Particle) Faded() bool {
	return p.Opacity <= 0
}
