package entity

import (
	"fmt"

	"github.com/annel0/ufo-survivor/internal/physics"
	"github.com/annel0/ufo-survivor/internal/vec"
)

// EnemyKind — вид монстра
type EnemyKind uint8

const (
	EnemyWeak EnemyKind = iota
	EnemyTanky
	EnemyFast
)

// EnemyKindSpec описывает параметры вида монстра.
// Скорость растёт линейно с уровнем: BaseSpeed + level*SpeedPerLevel.
// Вид доступен при level > MinLevel и выпадает с вероятностью Chance
// (базовый вид доступен всегда).
type EnemyKindSpec struct {
	Name          string
	Color         string
	Radius        float64
	BaseSpeed     float64
	SpeedPerLevel float64
	MinLevel      int
	Chance        float64
}

var enemyKinds = [...]EnemyKindSpec{
	EnemyWeak:  {Name: "weak", Color: "#ff4747", Radius: 15, BaseSpeed: 1.5, SpeedPerLevel: 0.1, MinLevel: 0, Chance: 1},
	EnemyTanky: {Name: "tanky", Color: "#39ff14", Radius: 20, BaseSpeed: 1, SpeedPerLevel: 0.08, MinLevel: 2, Chance: 0.3},
	EnemyFast:  {Name: "fast", Color: "#1f51ff", Radius: 10, BaseSpeed: 2, SpeedPerLevel: 0.12, MinLevel: 4, Chance: 0.2},
}

// EnemyKinds возвращает все виды монстров в порядке проверки при спавне
func EnemyKinds() []EnemyKind {
	return []EnemyKind{EnemyWeak, EnemyTanky, EnemyFast}
}

// Spec возвращает таблицу параметров вида
func (k EnemyKind) Spec() EnemyKindSpec {
	if int(k) < len(enemyKinds) {
		return enemyKinds[k]
	}
	return enemyKinds[EnemyWeak]
}

// String возвращает имя вида
func (k EnemyKind) String() string {
	if int(k) >= len(enemyKinds) {
		return fmt.Sprintf("enemy_%d", k)
	}
	return enemyKinds[k].Name
}

// SpeedAt возвращает скорость вида на заданном уровне
func (k EnemyKind) SpeedAt(level int) float64 {
	s := k.Spec()
	return s.BaseSpeed + float64(level)*s.SpeedPerLevel
}

// Enemy представляет монстра
type Enemy struct {
	Body
	Kind  EnemyKind `json:"kind" msgpack:"k"`
	Speed float64   `json:"speed" msgpack:"s"`
}

// NewEnemy создаёт монстра; скорость фиксируется по уровню на момент спавна
func NewEnemy(pos vec.Vec2Float, kind EnemyKind, level int) Enemy {
	return Enemy{
		Body:  NewBody(pos, kind.Spec().Radius),
		Kind:  kind,
		Speed: kind.SpeedAt(level),
	}
}

// Color возвращает цвет монстра (для частиц взрыва)
func (e *Enemy) Color() string {
	return e.Kind.Spec().Color
}

// Pursue сдвигает монстра прямо к текущей позиции цели.
// Направление пересчитывается каждый тик.
func (e *Enemy) Pursue(target vec.Vec2Float) {
	e.Position = e.Position.Add(physics.Pursue(e.Position, target, e.Speed))
}
