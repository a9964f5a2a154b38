package world

import (
	"math"

	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
)

// Параметры стрельбы
const (
	// DefaultAimAngle — направление выстрела без цели (вверх по экрану)
	DefaultAimAngle = -math.Pi / 2
	// BaseAutoFirePeriod — период автоатаки в тиках при AttackSpeed = 1
	BaseAutoFirePeriod = entity.AutoAttackFirePeriod
)

// FireProjectile выпускает снаряд из origin в текущую позицию target,
// а без цели — прямо вверх
func (r *Run) FireProjectile(origin vec.Vec2Float, target *entity.Enemy) {
	angle := DefaultAimAngle
	if target != nil {
		angle = origin.AngleTo(target.Position)
	}
	velocity := vec.FromAngle(angle, entity.ProjectileSpeed)
	r.projectiles = append(r.projectiles, entity.NewProjectile(origin, velocity))
}

// FindNearestEnemy возвращает ближайшего к игроку живого врага или nil.
// При равных расстояниях побеждает первый в порядке обхода.
func (r *Run) FindNearestEnemy() *entity.Enemy {
	var nearest *entity.Enemy
	best := math.Inf(1)
	for i := range r.enemies {
		e := &r.enemies[i]
		if !e.Alive {
			continue
		}
		if d := r.player.Position.DistanceTo(e.Position); d < best {
			best = d
			nearest = e
		}
	}
	return nearest
}

// autoFirePeriod — период автоатаки с учётом улучшений скорости атаки
func (r *Run) autoFirePeriod() int {
	speed := r.player.AttackSpeed
	if speed <= 0 {
		return BaseAutoFirePeriod
	}
	return max(1, int(math.Floor(BaseAutoFirePeriod/speed)))
}

// explode добавляет вспышку частиц заданного цвета
func (r *Run) explode(at vec.Vec2Float, color string) {
	for i := 0; i < r.cfg.Difficulty.ExplosionParticles; i++ {
		radius := r.director.Float()*3 + 1
		vx := (r.director.Float() - 0.5) * (r.director.Float() * 6)
		vy := (r.director.Float() - 0.5) * (r.director.Float() * 6)
		r.particles = append(r.particles, entity.Particle{
			Body:     entity.NewBody(at, radius),
			Color:    color,
			Velocity: vec.Vec2Float{X: vx, Y: vy},
			Opacity:  1,
		})
	}
}
