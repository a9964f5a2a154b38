package progression

import (
	"fmt"

	"github.com/annel0/ufo-survivor/internal/world/entity"
)

// Option описывает одно улучшение из меню повышения уровня
type Option struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	apply       func(p *entity.Player)
}

// Модификаторы улучшений
const (
	MaxHealthBonus   = 20
	AttackSpeedScale = 1.1
	MoveSpeedScale   = 1.05
)

var options = []Option{
	{
		ID:          0,
		Name:        "Health +20",
		Description: "Max health increases by 20.",
		apply: func(p *entity.Player) {
			p.MaxHealth += MaxHealthBonus
			p.Health += MaxHealthBonus
		},
	},
	{
		ID:          1,
		Name:        "Attack speed +10%",
		Description: "Auto-attack fires 10% faster.",
		apply: func(p *entity.Player) {
			p.AttackSpeed *= AttackSpeedScale
		},
	},
	{
		ID:          2,
		Name:        "Move speed +5%",
		Description: "UFO moves 5% faster.",
		apply: func(p *entity.Player) {
			p.Speed *= MoveSpeedScale
		},
	},
}

// Options возвращает меню улучшений
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// ApplyUpgrade применяет улучшение по индексу. Для индекса вне таблицы
// игрок не меняется и возвращается ErrInvalidUpgrade.
func ApplyUpgrade(p *entity.Player, id int) error {
	if id < 0 || id >= len(options) {
		return fmt.Errorf("upgrade %d: %w", id, ErrInvalidUpgrade)
	}
	options[id].apply(p)
	return nil
}
