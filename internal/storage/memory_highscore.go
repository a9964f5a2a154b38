package storage

import (
	"context"
	"sync"
)

// MemoryHighScoreRepo реализует HighScoreRepo в памяти.
// Используется по умолчанию и в тестах.
// ВНИМАНИЕ: рекорд теряется при перезапуске сервера!
type MemoryHighScoreRepo struct {
	mu     sync.RWMutex
	score  int
	closed bool
}

// NewMemoryHighScoreRepo создает хранилище рекорда в памяти
func NewMemoryHighScoreRepo() *MemoryHighScoreRepo {
	return &MemoryHighScoreRepo{}
}

// Load возвращает текущий рекорд
func (r *MemoryHighScoreRepo) Load(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, ErrNotReady
	}
	return r.score, nil
}

// Submit обновляет рекорд, если score больше
func (r *MemoryHighScoreRepo) Submit(ctx context.Context, score int) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, ErrNotReady
	}
	if score <= r.score {
		return false, nil
	}
	r.score = score
	return true, nil
}

func (r *MemoryHighScoreRepo) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
