// Package progression реализует автомат фаз забега и таблицу улучшений.
package progression

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/ufo-survivor/internal/world/entity"
)

// ErrInvalidUpgrade возвращается при выборе несуществующего улучшения
var ErrInvalidUpgrade = errors.New("invalid upgrade option")

// ThresholdGrowth — множитель порога опыта после каждого уровня
const ThresholdGrowth = 1.5

// Phase — фаза забега
type Phase uint8

const (
	Running Phase = iota
	AwaitingUpgradeChoice
	GameOver
)

// String возвращает имя фазы
func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case AwaitingUpgradeChoice:
		return "awaiting_upgrade"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase_%d", p)
	}
}

// Machine хранит фазу забега и число невыбранных улучшений.
// Каждое повышение уровня добавляет одно ожидающее улучшение.
type Machine struct {
	phase   Phase
	pending int
}

// NewMachine создаёт автомат в фазе Running
func NewMachine() Machine {
	return Machine{phase: Running}
}

// RestoreMachine восстанавливает автомат из снимка
func RestoreMachine(phase Phase, pending int) Machine {
	m := Machine{phase: phase, pending: max(0, pending)}
	if m.phase == AwaitingUpgradeChoice && m.pending == 0 {
		m.phase = Running
	}
	return m
}

func (m *Machine) Phase() Phase     { return m.phase }
func (m *Machine) Pending() int     { return m.pending }
func (m *Machine) IsRunning() bool  { return m.phase == Running }
func (m *Machine) IsGameOver() bool { return m.phase == GameOver }

// LevelUp регистрирует count повышений уровня и ставит забег на паузу.
// После GameOver ничего не меняет.
func (m *Machine) LevelUp(count int) {
	if count <= 0 || m.phase == GameOver {
		return
	}
	m.pending += count
	m.phase = AwaitingUpgradeChoice
}

// Die переводит забег в терминальную фазу
func (m *Machine) Die() {
	m.phase = GameOver
	m.pending = 0
}

// Choose применяет улучшение option к игроку и снимает одно ожидание.
// Фаза возвращается в Running, когда ожидающих улучшений не осталось.
func (m *Machine) Choose(p *entity.Player, option int) error {
	if m.phase != AwaitingUpgradeChoice {
		return fmt.Errorf("choose upgrade in phase %s: %w", m.phase, ErrInvalidUpgrade)
	}
	if err := ApplyUpgrade(p, option); err != nil {
		return err
	}
	m.pending--
	if m.pending <= 0 {
		m.pending = 0
		m.phase = Running
	}
	return nil
}

// GainExperience начисляет опыт и проверяет порог в цикле: излишек переносится,
// порог растёт в ThresholdGrowth раз с округлением вниз. Возвращает число новых уровней.
func GainExperience(p *entity.Player, amount int) int {
	p.Experience += amount
	levelUps := 0
	for p.ExperienceToNext > 0 && p.Experience >= p.ExperienceToNext {
		p.Level++
		p.Experience -= p.ExperienceToNext
		p.ExperienceToNext = int(math.Floor(float64(p.ExperienceToNext) * ThresholdGrowth))
		levelUps++
	}
	return levelUps
}
