// Package world содержит состояние одного забега и покадровую симуляцию.
//
// Run не потокобезопасен: все вызовы должны идти из одного владельца
// (см. internal/session).
package world

import (
	"fmt"
	"slices"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
	"github.com/annel0/ufo-survivor/internal/world/progression"
	"github.com/annel0/ufo-survivor/internal/world/spawn"
)

// Run — агрегат состояния одного забега
type Run struct {
	cfg    config.GameConfig
	bounds vec.Bounds

	player      entity.Player
	enemies     []entity.Enemy
	projectiles []entity.Projectile
	items       []entity.Item
	gems        []entity.ExperienceGem
	particles   []entity.Particle

	score      int
	elapsed    float64
	level      int
	enemyTimer int
	itemTimer  int
	tick       uint64

	machine  progression.Machine
	director *spawn.Director
	events   []Event
}

// NewRun создаёт свежий забег: игрок в центре поля, коллекции пусты,
// время 0, уровень 1, очки 0
func NewRun(cfg config.GameConfig, seed uint64) *Run {
	return &Run{
		cfg:      cfg,
		bounds:   cfg.Playfield,
		player:   entity.NewPlayer(cfg.Playfield.Center()),
		level:    1,
		machine:  progression.NewMachine(),
		director: spawn.NewDirector(cfg.Playfield, cfg.Difficulty, seed),
	}
}

// SetPlayerIntent задаёт желаемую скорость игрока. Ограничение полем
// применяется внутри Step.
func (r *Run) SetPlayerIntent(velocity vec.Vec2Float) {
	r.player.Velocity = velocity
}

// SetPlayerDirection переводит направление ввода в скорость с учётом текущей
// скорости игрока (включая улучшения)
func (r *Run) SetPlayerDirection(dir vec.Vec2Float) {
	r.player.Velocity = r.player.IntentFromDirection(dir)
}

// RequestManualShot стреляет по ближайшему врагу. Игнорируется, если
// автоатака активна или забег не в фазе Running.
func (r *Run) RequestManualShot() bool {
	if !r.machine.IsRunning() || r.player.AutoAttack.Active {
		return false
	}
	r.FireProjectile(r.player.Position, r.FindNearestEnemy())
	return true
}

// ChooseUpgrade применяет выбранное улучшение. При неверном индексе
// состояние не меняется и возвращается progression.ErrInvalidUpgrade.
func (r *Run) ChooseUpgrade(option int) error {
	if err := r.machine.Choose(&r.player, option); err != nil {
		return fmt.Errorf("choose upgrade: %w", err)
	}
	return nil
}

// Abort завершает забег по внешнему сигналу
func (r *Run) Abort() {
	if r.machine.IsGameOver() {
		return
	}
	r.machine.Die()
	r.emit(Event{Type: EventTypeGameOver, Position: r.player.Position, Value: r.score})
}

func (r *Run) Score() int                       { return r.score }
func (r *Run) Elapsed() float64                 { return r.elapsed }
func (r *Run) Level() int                       { return r.level }
func (r *Run) Tick() uint64                     { return r.tick }
func (r *Run) Phase() progression.Phase         { return r.machine.Phase() }
func (r *Run) PendingUpgrades() int             { return r.machine.Pending() }
func (r *Run) Bounds() vec.Bounds               { return r.bounds }
func (r *Run) Player() entity.Player            { return r.player }
func (r *Run) HealthFraction() float64          { return r.player.HealthFraction() }
func (r *Run) ExperienceFraction() float64      { return r.player.ExperienceFraction() }
func (r *Run) Config() config.GameConfig        { return r.cfg }
func (r *Run) Enemies() []entity.Enemy          { return slices.Clone(r.enemies) }
func (r *Run) Projectiles() []entity.Projectile { return slices.Clone(r.projectiles) }
func (r *Run) Items() []entity.Item             { return slices.Clone(r.items) }
func (r *Run) Gems() []entity.ExperienceGem     { return slices.Clone(r.gems) }
func (r *Run) Particles() []entity.Particle     { return slices.Clone(r.particles) }
