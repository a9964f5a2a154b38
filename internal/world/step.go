package world

import (
	"math"

	"github.com/annel0/ufo-survivor/internal/physics"
	"github.com/annel0/ufo-survivor/internal/world/entity"
)

// Step продвигает забег на один тик. elapsed — секунды с начала забега без учёта пауз.
// В фазах GameOver и AwaitingUpgradeChoice ничего не делает и возвращает false.
//
// Порядок стадий фиксирован: поздние стадии видят изменения ранних в том же тике.
// Удалённые за тик сущности помечаются мёртвыми и вычищаются в конце.
func (r *Run) Step(elapsed float64) bool {
	if !r.machine.IsRunning() {
		return false
	}
	r.tick++

	r.advanceClock(elapsed)
	r.advancePlayer()
	r.advanceParticles()
	r.advanceProjectiles()
	r.advanceItems()
	r.advanceEnemies()
	r.advanceGems()
	r.advanceSpawns()

	r.compact()
	return true
}

// advanceClock обновляет время и уровень сложности: один уровень за каждые
// LevelDuration секунд, уровень никогда не убывает
func (r *Run) advanceClock(elapsed float64) {
	if elapsed > r.elapsed {
		r.elapsed = elapsed
	}
	if math.Floor(r.elapsed) > float64(r.level)*r.cfg.Difficulty.LevelDuration {
		r.level++
	}
}

func (r *Run) advancePlayer() {
	p := &r.player
	p.Position = r.bounds.ClampCircle(p.Position.Add(p.Velocity), p.Radius)

	p.Shield.Tick()
	if p.AutoAttack.Tick() && p.AutoAttack.Remaining%r.autoFirePeriod() == 0 {
		r.FireProjectile(p.Position, r.FindNearestEnemy())
	}
}

func (r *Run) advanceParticles() {
	for i := range r.particles {
		pt := &r.particles[i]
		pt.Move()
		if pt.Faded() {
			pt.Kill()
		}
	}
}

func (r *Run) advanceProjectiles() {
	for i := range r.projectiles {
		pr := &r.projectiles[i]
		pr.Move()
		if !r.bounds.Contains(pr.Position) {
			pr.Kill()
		}
	}
}

func (r *Run) advanceItems() {
	for i := range r.items {
		it := &r.items[i]
		it.Lifetime--
		if it.Lifetime <= 0 {
			it.Kill()
			continue
		}
		r.resolvePlayerItem(it)
	}
}

func (r *Run) advanceEnemies() {
	for i := range r.enemies {
		e := &r.enemies[i]
		if !e.Alive {
			continue
		}
		e.Pursue(r.player.Position)

		if r.resolvePlayerEnemy(e) {
			continue
		}
		r.resolveProjectilesEnemy(e)
	}
}

func (r *Run) advanceGems() {
	for i := range r.gems {
		g := &r.gems[i]
		if g.Position.DistanceTo(r.player.Position) < entity.GemMagnetRadius {
			g.Position = g.Position.Add(physics.Pursue(g.Position, r.player.Position, entity.GemPullSpeed))
		}
		r.resolvePlayerGem(g)
	}
}

func (r *Run) advanceSpawns() {
	r.enemyTimer++
	if r.enemyTimer%r.director.EnemyInterval(r.level) == 0 {
		r.enemies = append(r.enemies, r.director.SpawnEnemy(r.level))
	}

	r.itemTimer++
	if r.itemTimer%r.director.ItemInterval() == 0 {
		r.items = append(r.items, r.director.SpawnItem())
	}
}

// compact удаляет мёртвые сущности, сохраняя порядок вставки
func (r *Run) compact() {
	r.enemies = entity.Compact(r.enemies, func(e *entity.Enemy) bool { return e.Alive })
	r.projectiles = entity.Compact(r.projectiles, func(p *entity.Projectile) bool { return p.Alive })
	r.items = entity.Compact(r.items, func(it *entity.Item) bool { return it.Alive })
	r.gems = entity.Compact(r.gems, func(g *entity.ExperienceGem) bool { return g.Alive })
	r.particles = entity.Compact(r.particles, func(p *entity.Particle) bool { return p.Alive })
}
