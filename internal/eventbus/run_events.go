package eventbus

import (
	"github.com/annel0/ufo-survivor/internal/world"
)

// Source — имя источника событий забега
const Source = "ufo-survivor"

// MetaRunID — ключ метаданных с идентификатором забега
const MetaRunID = "run_id"

// RunEventPriority определяет приоритет доменного события
func RunEventPriority(t world.EventType) int {
	switch t {
	case world.EventTypeGameOver:
		return PriorityCritical
	case world.EventTypePlayerHit, world.EventTypeLevelUp:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// FromRunEvent упаковывает событие забега в конверт шины
func FromRunEvent(runID string, ev world.Event) (*Envelope, error) {
	env, err := NewEnvelope(Source, ev.Type.String(), runID, RunEventPriority(ev.Type), ev)
	if err != nil {
		return nil, err
	}
	env.Metadata = map[string]string{MetaRunID: runID}
	return env, nil
}

// RunEvent восстанавливает событие забега из конверта
func RunEvent(env *Envelope) (world.Event, error) {
	var ev world.Event
	err := env.Decode(&ev)
	return ev, err
}
