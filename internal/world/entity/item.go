package entity

import (
	"fmt"

	"github.com/annel0/ufo-survivor/internal/vec"
)

// Параметры предметов
const (
	ItemRadius           = 10.0
	ItemLifetime         = 300 // 5 секунд при 60 тиках
	HealAmount           = 20
	ShieldDuration       = 300
	AutoAttackDuration   = 480
	AutoAttackFirePeriod = 10
)

// ItemKind — вид предмета
type ItemKind uint8

const (
	ItemHeal ItemKind = iota
	ItemShield
	ItemAutoAttack
)

// ItemKindSpec описывает вид предмета. Weight — доля в случайном разбиении [0,1).
type ItemKindSpec struct {
	Name   string
	Symbol string
	Weight float64
}

var itemKinds = [...]ItemKindSpec{
	ItemHeal:       {Name: "heal", Symbol: "❤️", Weight: 0.4},
	ItemShield:     {Name: "shield", Symbol: "🛡️", Weight: 0.3},
	ItemAutoAttack: {Name: "auto-attack", Symbol: "⚡", Weight: 0.3},
}

// ItemKinds возвращает виды предметов в порядке разбиения
func ItemKinds() []ItemKind {
	return []ItemKind{ItemHeal, ItemShield, ItemAutoAttack}
}

// Spec возвращает таблицу параметров вида
func (k ItemKind) Spec() ItemKindSpec {
	if int(k) < len(itemKinds) {
		return itemKinds[k]
	}
	return itemKinds[ItemHeal]
}

// String возвращает имя вида
func (k ItemKind) String() string {
	if int(k) >= len(itemKinds) {
		return fmt.Sprintf("item_%d", k)
	}
	return itemKinds[k].Name
}

// Item представляет подбираемый предмет
type Item struct {
	Body
	Kind     ItemKind `json:"kind" msgpack:"k"`
	Lifetime int      `json:"lifetime_ticks" msgpack:"l"`
}

// NewItem создаёт предмет
func NewItem(pos vec.Vec2Float, kind ItemKind) Item {
	return Item{
		Body:     NewBody(pos, ItemRadius),
		Kind:     kind,
		Lifetime: ItemLifetime,
	}
}

// Apply применяет эффект предмета к игроку
func (it *Item) Apply(p *Player) {
	switch it.Kind {
	case ItemHeal:
		p.Heal(HealAmount)
	case ItemShield:
		p.Shield.Start(ShieldDuration)
	case ItemAutoAttack:
		p.AutoAttack.Start(AutoAttackDuration)
	}
}
