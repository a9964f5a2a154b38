package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/ufo-survivor/internal/config"
)

// HighScoreKey — фиксированный ключ рекорда во всех хранилищах
const HighScoreKey = "ufoSurvivorHighScore"

// ErrNotReady возвращается при обращении к закрытому хранилищу
var ErrNotReady = errors.New("storage is not ready")

// HighScoreRepo хранит единственное значение — лучший счёт.
type HighScoreRepo interface {
	// Load возвращает текущий рекорд (0, если его ещё нет).
	Load(ctx context.Context) (int, error)

	// Submit записывает score, только если он строго больше рекорда.
	// Возвращает true, если рекорд обновлён.
	Submit(ctx context.Context, score int) (bool, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}

// Open создаёт хранилище рекорда по конфигурации
func Open(cfg config.StorageConfig) (HighScoreRepo, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryHighScoreRepo(), nil
	case "badger":
		return NewBadgerHighScoreRepo(cfg.Path)
	case "redis":
		return NewRedisHighScoreRepo(cfg.RedisURL)
	case "maria":
		return NewMariaHighScoreRepo(cfg.MariaDSN)
	case "mongo":
		return NewMongoHighScoreRepo(MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDB})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
