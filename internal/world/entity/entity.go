package entity

import (
	"github.com/annel0/ufo-survivor/internal/physics"
	"github.com/annel0/ufo-survivor/internal/vec"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeProjectile
	EntityTypeEnemy
	EntityTypeItem
	EntityTypeGem
	EntityTypeParticle
)

// String возвращает имя типа сущности
func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeProjectile:
		return "projectile"
	case EntityTypeEnemy:
		return "enemy"
	case EntityTypeItem:
		return "item"
	case EntityTypeGem:
		return "gem"
	case EntityTypeParticle:
		return "particle"
	default:
		return "unknown"
	}
}

// Body — общая часть всех сущностей: круг на поле и флаг жизни.
// Alive используется для мягкого удаления внутри тика; мёртвые записи
// вычищаются уплотнением после полного прохода.
type Body struct {
	Position vec.Vec2Float `json:"position" msgpack:"p"`
	Radius   float64       `json:"radius" msgpack:"r"`
	Alive    bool          `json:"-" msgpack:"a"`
}

// NewBody создаёт живое тело
func NewBody(pos vec.Vec2Float, radius float64) Body {
	return Body{Position: pos, Radius: radius, Alive: true}
}

// Kill помечает тело как удалённое
func (b *Body) Kill() {
	b.Alive = false
}

// Touches проверяет контакт с другим телом (с допуском в 1 единицу)
func (b Body) Touches(other Body) bool {
	return physics.Touching(b.Position, b.Radius, other.Position, other.Radius)
}

// Compact удаляет мёртвые записи, сохраняя порядок вставки.
// alive вызывается для каждого элемента ровно один раз.
func Compact[T any](items []T, alive func(*T) bool) []T {
	n := 0
	for i := range items {
		if alive(&items[i]) {
			items[n] = items[i]
			n++
		}
	}
	// Обнуляем хвост, чтобы не держать ссылки
	var zero T
	for i := n; i < len(items); i++ {
		items[i] = zero
	}
	return items[:n]
}
