package world

import (
	"github.com/annel0/ufo-survivor/internal/world/entity"
	"github.com/annel0/ufo-survivor/internal/world/progression"
)

// ExplosionColorPlayer — цвет вспышки при столкновении с игроком
const ExplosionColorPlayer = "#ffffff"

// resolvePlayerEnemy обрабатывает контакт врага с игроком. Возвращает true,
// если враг уничтожен и дальше не проверяется.
func (r *Run) resolvePlayerEnemy(e *entity.Enemy) bool {
	if !e.Touches(r.player.Body) {
		return false
	}
	r.explode(r.player.Position, ExplosionColorPlayer)

	shielded := r.player.Shield.Active
	damage := r.cfg.Difficulty.ContactDamage
	died := r.player.TakeDamage(damage)
	e.Kill()

	r.emit(Event{
		Type:     EventTypePlayerHit,
		Position: r.player.Position,
		Kind:     e.Kind.String(),
		Value:    damage,
		Shielded: shielded,
	})
	if died && !r.machine.IsGameOver() {
		r.machine.Die()
		r.emit(Event{Type: EventTypeGameOver, Position: r.player.Position, Value: r.score})
	}
	return true
}

// resolveProjectilesEnemy проверяет врага против всех живых снарядов.
// Один снаряд поражает не больше одного врага.
func (r *Run) resolveProjectilesEnemy(e *entity.Enemy) {
	for i := range r.projectiles {
		pr := &r.projectiles[i]
		if !pr.Alive || !pr.Touches(e.Body) {
			continue
		}
		r.explode(e.Position, e.Color())
		r.gems = append(r.gems, entity.NewExperienceGem(e.Position, entity.GemValue))
		e.Kill()
		pr.Kill()
		r.score += r.cfg.Difficulty.KillScore

		r.emit(Event{
			Type:     EventTypeEnemyKilled,
			Position: e.Position,
			Kind:     e.Kind.String(),
			Value:    r.cfg.Difficulty.KillScore,
		})
		return
	}
}

func (r *Run) resolvePlayerItem(it *entity.Item) {
	if !it.Touches(r.player.Body) {
		return
	}
	it.Apply(&r.player)
	it.Kill()
	r.emit(Event{Type: EventTypeItemPicked, Position: it.Position, Kind: it.Kind.String()})
}

func (r *Run) resolvePlayerGem(g *entity.ExperienceGem) {
	if !g.Touches(r.player.Body) {
		return
	}
	g.Kill()
	r.emit(Event{Type: EventTypeGemCollected, Position: g.Position, Value: g.Value})

	ups := progression.GainExperience(&r.player, g.Value)
	if ups == 0 {
		return
	}
	r.machine.LevelUp(ups)
	r.emit(Event{Type: EventTypeLevelUp, Position: r.player.Position, Value: r.player.Level})
}
