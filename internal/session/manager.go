package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/eventbus"
	"github.com/annel0/ufo-survivor/internal/logging"
	"github.com/annel0/ufo-survivor/internal/storage"
	"github.com/annel0/ufo-survivor/internal/world"
)

// Option настраивает Manager
type Option func(*Manager)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSeed подменяет генератор зёрен забегов
func WithSeed(seed func() uint64) Option {
	return func(m *Manager) { m.seed = seed }
}

// WithTickInterval переопределяет период тиков из конфигурации
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tickInterval = d }
}

// Manager владеет сессиями забегов
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg          config.GameConfig
	maxSessions  int
	tickInterval time.Duration
	now          func() time.Time
	seed         func() uint64

	scores  storage.HighScoreRepo
	bus     eventbus.EventBus
	metrics *Metrics
	logger  *logging.Logger
}

// NewManager создаёт менеджер сессий. scores, bus и metrics могут быть nil.
func NewManager(cfg config.GameConfig, maxSessions int, scores storage.HighScoreRepo, bus eventbus.EventBus, metrics *Metrics, opts ...Option) *Manager {
	m := &Manager{
		sessions:     make(map[string]*Session),
		cfg:          cfg,
		maxSessions:  maxSessions,
		tickInterval: cfg.TickInterval(),
		now:          time.Now,
		seed:         rand.Uint64,
		scores:       scores,
		bus:          bus,
		metrics:      metrics,
		logger:       logging.GetSessionLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create начинает новый забег и запускает его горутину
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	highScore := 0
	if m.scores != nil {
		hs, err := m.scores.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load high score: %w", err)
		}
		highScore = hs
	}

	if m.maxSessions > 0 && m.Len() >= m.maxSessions {
		m.evictFinished()
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.maxSessions)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:           uuid.NewString(),
		createdAt:    m.now(),
		run:          world.NewRun(m.cfg, m.seed()),
		clock:        NewClock(m.now),
		highScore:    highScore,
		cmds:         make(chan func()),
		done:         make(chan struct{}),
		cancel:       cancel,
		bus:          m.bus,
		scores:       m.scores,
		metrics:      m.metrics,
		logger:       m.logger,
		tickInterval: m.tickInterval,
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.active.Inc()
	}
	go s.loop(loopCtx)
	m.logger.Info("🛸 Забег %s создан (рекорд %d)", s.id, highScore)
	return s, nil
}

// evictFinished закрывает завершённые забеги, освобождая место.
// Горутины сессий не опрашиваются, блокировка держится только на удаление.
func (m *Manager) evictFinished() {
	for _, s := range m.List() {
		if !s.Finished() {
			continue
		}

		m.mu.Lock()
		current, ok := m.sessions[s.id]
		if ok && current == s {
			delete(m.sessions, s.id)
		}
		m.mu.Unlock()
		if !ok || current != s {
			continue
		}

		// Горутина завершится сама, ждать её здесь не нужно
		s.cancel()
		if m.metrics != nil {
			m.metrics.active.Dec()
		}
		m.logger.Debug("Забег %s вытеснен", s.id)
	}
}

// Get возвращает сессию по идентификатору
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return s, nil
}

// Close прерывает забег и удаляет сессию
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	s.stop()
	if m.metrics != nil {
		m.metrics.active.Dec()
	}
	m.logger.Info("Забег %s закрыт", id)
	return nil
}

// CloseAll закрывает все сессии
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.stop()
		}(s)
	}
	wg.Wait()

	if m.metrics != nil {
		m.metrics.active.Sub(float64(len(sessions)))
	}
	if len(sessions) > 0 {
		m.logger.Info("Закрыто сессий: %d", len(sessions))
	}
}

// List возвращает сессии в порядке создания
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
