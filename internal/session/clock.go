package session

import "time"

// Clock отсчитывает реальное время с начала забега.
// Экран выбора улучшения время не останавливает.
type Clock struct {
	now   func() time.Time
	start time.Time
}

// NewClock запускает часы от текущего момента now()
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, start: now()}
}

// Elapsed возвращает время с начала забега
func (c *Clock) Elapsed() time.Duration {
	return c.now().Sub(c.start)
}
