package entity

import (
	"github.com/annel0/ufo-survivor/internal/vec"
)

// Базовые параметры игрока (UFO)
const (
	PlayerRadius          = 20.0
	PlayerSpeed           = 4.0
	PlayerMaxHealth       = 100
	PlayerBaseXPThreshold = 100
)

// Timer — эффект с обратным отсчётом в тиках (щит, автоатака)
type Timer struct {
	Active    bool `json:"active" msgpack:"a"`
	Remaining int  `json:"remaining_ticks" msgpack:"t"`
}

// Start включает эффект на ticks тиков (повторный подбор перезапускает отсчёт)
func (t *Timer) Start(ticks int) {
	t.Active = true
	t.Remaining = ticks
}

// Tick уменьшает таймер на один тик и выключает эффект по истечении.
// Возвращает false, если эффект не был активен.
func (t *Timer) Tick() bool {
	if !t.Active {
		return false
	}
	t.Remaining--
	if t.Remaining <= 0 {
		t.Active = false
	}
	return true
}

// Player представляет игрока
type Player struct {
	Body
	Speed            float64       `json:"speed" msgpack:"s"`
	MaxHealth        int           `json:"max_health" msgpack:"mh"`
	Health           int           `json:"health" msgpack:"h"`
	Velocity         vec.Vec2Float `json:"velocity" msgpack:"v"`
	Shield           Timer         `json:"shield" msgpack:"sh"`
	AutoAttack       Timer         `json:"auto_attack" msgpack:"aa"`
	Experience       int           `json:"experience" msgpack:"xp"`
	Level            int           `json:"level" msgpack:"lv"`
	ExperienceToNext int           `json:"experience_to_next" msgpack:"xn"`
	AttackSpeed      float64       `json:"attack_speed" msgpack:"as"`
}

// NewPlayer создаёт игрока в указанной точке
func NewPlayer(pos vec.Vec2Float) Player {
	return Player{
		Body:             NewBody(pos, PlayerRadius),
		Speed:            PlayerSpeed,
		MaxHealth:        PlayerMaxHealth,
		Health:           PlayerMaxHealth,
		Level:            1,
		ExperienceToNext: PlayerBaseXPThreshold,
		AttackSpeed:      1.0,
	}
}

// TakeDamage наносит урон игроку. Под щитом урон полностью гасится.
// Здоровье не уходит ниже нуля; возвращает true, если урон привёл к смерти.
func (p *Player) TakeDamage(amount int) bool {
	if p.Shield.Active {
		return false
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}

// Heal восстанавливает здоровье, не превышая максимум
func (p *Player) Heal(amount int) {
	p.Health = min(p.MaxHealth, p.Health+amount)
}

// IsDead сообщает, закончилось ли здоровье
func (p *Player) IsDead() bool {
	return p.Health <= 0
}

// HealthFraction возвращает долю здоровья [0,1]
func (p *Player) HealthFraction() float64 {
	if p.MaxHealth <= 0 {
		return 0
	}
	return float64(p.Health) / float64(p.MaxHealth)
}

// ExperienceFraction возвращает заполненность шкалы опыта
func (p *Player) ExperienceFraction() float64 {
	if p.ExperienceToNext <= 0 {
		return 0
	}
	return float64(p.Experience) / float64(p.ExperienceToNext)
}

// IntentFromDirection переводит направление ввода (клавиши/джойстик) в скорость игрока.
// Нулевое направление означает остановку.
func (p *Player) IntentFromDirection(dir vec.Vec2Float) vec.Vec2Float {
	if dir.IsZero() {
		return vec.Vec2Float{}
	}
	return dir.Normalized().Mul(p.Speed)
}
