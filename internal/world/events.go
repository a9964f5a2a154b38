package world

import (
	"fmt"

	"github.com/annel0/ufo-survivor/internal/vec"
)

// EventType определяет тип доменного события забега
type EventType uint8

const (
	EventTypeEnemyKilled  EventType = iota // Враг сбит снарядом
	EventTypePlayerHit                     // Враг врезался в игрока
	EventTypeItemPicked                    // Игрок подобрал предмет
	EventTypeGemCollected                  // Игрок подобрал кристалл опыта
	EventTypeLevelUp                       // Повышение уровня игрока
	EventTypeGameOver                      // Забег окончен
)

var eventTypeNames = [...]string{
	EventTypeEnemyKilled:  "enemy_killed",
	EventTypePlayerHit:    "player_hit",
	EventTypeItemPicked:   "item_picked",
	EventTypeGemCollected: "gem_collected",
	EventTypeLevelUp:      "level_up",
	EventTypeGameOver:     "game_over",
}

// String возвращает имя события
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// MarshalText кодирует тип события его именем
func (t EventType) MarshalText() ([]byte, error) {
	if int(t) >= len(eventTypeNames) {
		return nil, fmt.Errorf("unknown event type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(text []byte) error {
	for i, name := range eventTypeNames {
		if name == string(text) {
			*t = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", text)
}

// Event — доменное событие одного тика.
// Kind содержит вид врага или предмета, Value — очки, опыт, урон или уровень.
type Event struct {
	Type     EventType     `json:"type"`
	Tick     uint64        `json:"tick"`
	Position vec.Vec2Float `json:"position"`
	Kind     string        `json:"kind,omitempty"`
	Value    int           `json:"value,omitempty"`
	Shielded bool          `json:"shielded,omitempty"`
}

func (r *Run) emit(e Event) {
	e.Tick = r.tick
	r.events = append(r.events, e)
}

// DrainEvents возвращает накопленные события в порядке возникновения и очищает журнал
func (r *Run) DrainEvents() []Event {
	if len(r.events) == 0 {
		return nil
	}
	out := r.events
	r.events = nil
	return out
}
