// Package spawn решает, где и кого создавать на игровом поле.
package spawn

import (
	"fmt"
	"math/rand/v2"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
)

// Director хранит источник случайности забега, границы поля и параметры сложности.
// Состояние источника сериализуется вместе со снимком забега.
type Director struct {
	src    *rand.PCG
	rng    *rand.Rand
	bounds vec.Bounds
	diff   config.Difficulty
}

// NewDirector создаёт директора с детерминированным источником по seed
func NewDirector(bounds vec.Bounds, diff config.Difficulty, seed uint64) *Director {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Director{
		src:    src,
		rng:    rand.New(src),
		bounds: bounds,
		diff:   diff,
	}
}

// EnemyInterval возвращает интервал спавна врагов в тиках:
// max(floor, base - level*decay)
func (d *Director) EnemyInterval(level int) int {
	return max(d.diff.EnemyIntervalFloor, d.diff.EnemyBaseInterval-level*d.diff.EnemyIntervalDecay)
}

// ItemInterval возвращает фиксированный интервал спавна предметов
func (d *Director) ItemInterval() int {
	return d.diff.ItemInterval
}

// Float возвращает равномерное число из [0,1) из источника забега
func (d *Director) Float() float64 {
	return d.rng.Float64()
}

// SpawnEnemy создаёт врага за краем поля. Сторона выбирается равновероятно
// между парой лево/право и парой верх/низ, координата вдоль края равномерна.
func (d *Director) SpawnEnemy(level int) entity.Enemy {
	var pos vec.Vec2Float
	m := d.diff.EnemySpawnMargin
	if d.rng.Float64() < 0.5 {
		pos.X = d.pick(-m, d.bounds.Width+m)
		pos.Y = d.rng.Float64() * d.bounds.Height
	} else {
		pos.X = d.rng.Float64() * d.bounds.Width
		pos.Y = d.pick(-m, d.bounds.Height+m)
	}
	return entity.NewEnemy(pos, d.EnemyKind(level), level)
}

// EnemyKind выбирает вид врага. Проверки независимы, последняя успешная побеждает,
// поэтому базовый вид возможен на любом уровне.
func (d *Director) EnemyKind(level int) entity.EnemyKind {
	kind := entity.EnemyWeak
	for _, k := range entity.EnemyKinds()[1:] {
		s := k.Spec()
		if level > s.MinLevel && d.rng.Float64() < s.Chance {
			kind = k
		}
	}
	return kind
}

// SpawnItem создаёт предмет внутри поля с отступом от краёв
func (d *Director) SpawnItem() entity.Item {
	inset := d.diff.ItemSpawnInset
	pos := vec.Vec2Float{
		X: d.rng.Float64()*(d.bounds.Width-2*inset) + inset,
		Y: d.rng.Float64()*(d.bounds.Height-2*inset) + inset,
	}
	return entity.NewItem(pos, d.ItemKind())
}

// ItemKind выбирает вид предмета разбиением [0,1) по весам
func (d *Director) ItemKind() entity.ItemKind {
	r := d.rng.Float64()
	acc := 0.0
	kinds := entity.ItemKinds()
	for _, k := range kinds {
		acc += k.Spec().Weight
		if r < acc {
			return k
		}
	}
	return kinds[len(kinds)-1]
}

func (d *Director) pick(a, b float64) float64 {
	if d.rng.Float64() < 0.5 {
		return a
	}
	return b
}

// State возвращает бинарное состояние источника для снимка
func (d *Director) State() ([]byte, error) {
	state, err := d.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal rng state: %w", err)
	}
	return state, nil
}

// SetState восстанавливает состояние источника из снимка
func (d *Director) SetState(state []byte) error {
	if err := d.src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("unmarshal rng state: %w", err)
	}
	return nil
}
