// Package session держит забеги на сервере: у каждого забега своя горутина,
// которая владеет world.Run, ведёт тики и выполняет команды управления.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/ufo-survivor/internal/eventbus"
	"github.com/annel0/ufo-survivor/internal/logging"
	"github.com/annel0/ufo-survivor/internal/storage"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world"
	"github.com/annel0/ufo-survivor/internal/world/progression"
)

var (
	// ErrRunNotFound возвращается для неизвестного идентификатора забега
	ErrRunNotFound = errors.New("run not found")
	// ErrSessionClosed возвращается для команд закрытой сессии
	ErrSessionClosed = errors.New("session closed")
	// ErrTooManySessions возвращается при превышении лимита сессий
	ErrTooManySessions = errors.New("too many sessions")
)

// finishTimeout ограничивает запись рекорда и публикацию при закрытии
const finishTimeout = 2 * time.Second

// Info — сводка по забегу для списков и статуса
type Info struct {
	ID        string    `json:"run_id"`
	Phase     string    `json:"phase"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	Elapsed   float64   `json:"elapsed"`
	Pending   int       `json:"pending_upgrades"`
	HighScore int       `json:"high_score"`
	Finished  bool      `json:"finished"`
	CreatedAt time.Time `json:"created_at"`
}

// Session — один забег и горутина-владелец
type Session struct {
	id        string
	createdAt time.Time

	run      *world.Run
	clock    *Clock
	finished bool
	// ended дублирует finished для чтения вне горутины сессии
	ended atomic.Bool
	// highScore — рекорд на момент старта, обновляется после записи
	highScore int

	cmds   chan func()
	done   chan struct{}
	cancel context.CancelFunc

	bus     eventbus.EventBus
	scores  storage.HighScoreRepo
	metrics *Metrics
	logger  *logging.Logger

	tickInterval time.Duration
}

func (s *Session) ID() string { return s.id }

// Done закрывается после остановки горутины сессии
func (s *Session) Done() <-chan struct{} { return s.done }

// Finished сообщает, что забег окончен или горутина остановлена.
// Не обращается к горутине сессии и не блокируется.
func (s *Session) Finished() bool {
	if s.ended.Load() {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// loop — цикл сессии; работает до отмены ctx
func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	tickC := ticker.C

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case cmd := <-s.cmds:
			cmd()
		case <-tickC:
			s.tick(ctx)
		}
		if s.finished && tickC != nil {
			ticker.Stop()
			tickC = nil
		}
	}
}

// tick выполняет один кадр симуляции. Тики во время выбора улучшения
// отбрасываются: Step в этой фазе ничего не делает, но время забега идёт.
func (s *Session) tick(ctx context.Context) {
	if s.finished {
		return
	}
	start := time.Now()
	if s.run.Step(s.clock.Elapsed().Seconds()) && s.metrics != nil {
		s.metrics.ticks.Inc()
		s.metrics.tickDuration.Observe(time.Since(start).Seconds())
	}
	s.afterStep(ctx)
}

// afterStep публикует события и фиксирует конец забега
func (s *Session) afterStep(ctx context.Context) {
	s.publish(ctx, s.run.DrainEvents())

	if s.run.Phase() == progression.GameOver && !s.finished {
		s.finish(ctx)
	}
}

func (s *Session) publish(ctx context.Context, events []world.Event) {
	for _, ev := range events {
		if s.metrics != nil {
			switch ev.Type {
			case world.EventTypeEnemyKilled:
				s.metrics.kills.WithLabelValues(ev.Kind).Inc()
			case world.EventTypeGameOver:
				s.metrics.gameOvers.Inc()
			}
		}
		if ev.Type == world.EventTypeLevelUp {
			s.logger.Info("⬆️ Забег %s: уровень игрока %d", s.id, ev.Value)
		}
		if s.bus == nil {
			continue
		}
		env, err := eventbus.FromRunEvent(s.id, ev)
		if err != nil {
			s.logger.Warn("Забег %s: не удалось упаковать событие %s: %v", s.id, ev.Type, err)
			continue
		}
		if err := s.bus.Publish(ctx, env); err != nil {
			s.logger.Warn("Забег %s: не удалось опубликовать %s: %v", s.id, ev.Type, err)
		}
	}
}

// finish записывает рекорд и останавливает тики
func (s *Session) finish(ctx context.Context) {
	s.finished = true
	s.ended.Store(true)
	score := s.run.Score()
	s.logger.Info("💀 Забег %s окончен: очки=%d уровень=%d время=%.1fс", s.id, score, s.run.Level(), s.run.Elapsed())

	if s.scores == nil {
		return
	}
	updated, err := s.scores.Submit(ctx, score)
	if err != nil {
		s.logger.Error("Забег %s: не удалось записать рекорд: %v", s.id, err)
		return
	}
	if updated {
		s.highScore = score
		s.logger.Info("🏆 Новый рекорд: %d (забег %s)", score, s.id)
		if s.metrics != nil {
			s.metrics.records.Inc()
		}
	}
}

// shutdown прерывает незавершённый забег при закрытии сессии
func (s *Session) shutdown() {
	if s.finished {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	s.run.Abort()
	s.afterStep(ctx)
}

// do выполняет fn в горутине сессии и ждёт завершения
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Принятая команда выполняется до следующей итерации цикла
	<-done
	return nil
}

// SetIntent задаёт скорость игрока
func (s *Session) SetIntent(ctx context.Context, velocity vec.Vec2Float) error {
	return s.do(ctx, func() { s.run.SetPlayerIntent(velocity) })
}

// SetDirection задаёт направление движения, скорость берётся от игрока
func (s *Session) SetDirection(ctx context.Context, dir vec.Vec2Float) error {
	return s.do(ctx, func() { s.run.SetPlayerDirection(dir) })
}

// Shoot запрашивает ручной выстрел. false — выстрел проигнорирован.
func (s *Session) Shoot(ctx context.Context) (bool, error) {
	var fired bool
	err := s.do(ctx, func() { fired = s.run.RequestManualShot() })
	return fired, err
}

// ChooseUpgrade применяет улучшение и снимает паузу, когда выборов не осталось
func (s *Session) ChooseUpgrade(ctx context.Context, option int) error {
	var chooseErr error
	err := s.do(ctx, func() {
		if chooseErr = s.run.ChooseUpgrade(option); chooseErr == nil {
			s.afterStep(ctx)
		}
	})
	if err != nil {
		return err
	}
	return chooseErr
}

// Snapshot возвращает копию состояния забега
func (s *Session) Snapshot(ctx context.Context) (*world.Snapshot, error) {
	var (
		snap    *world.Snapshot
		snapErr error
	)
	if err := s.do(ctx, func() { snap, snapErr = s.run.Snapshot() }); err != nil {
		return nil, err
	}
	if snapErr != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.id, snapErr)
	}
	return snap, nil
}

// Info возвращает сводку по забегу
func (s *Session) Info(ctx context.Context) (Info, error) {
	var info Info
	err := s.do(ctx, func() {
		info = Info{
			ID:        s.id,
			Phase:     s.run.Phase().String(),
			Score:     s.run.Score(),
			Level:     s.run.Level(),
			Elapsed:   s.run.Elapsed(),
			Pending:   s.run.PendingUpgrades(),
			HighScore: s.highScore,
			Finished:  s.finished,
			CreatedAt: s.createdAt,
		}
	})
	return info, err
}

// advance выполняет n тиков подряд в горутине сессии
func (s *Session) advance(ctx context.Context, n int) error {
	return s.do(ctx, func() {
		for i := 0; i < n; i++ {
			s.tick(ctx)
		}
	})
}

// stop отменяет горутину и ждёт её завершения
func (s *Session) stop() {
	s.cancel()
	<-s.done
}
