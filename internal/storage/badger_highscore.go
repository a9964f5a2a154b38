package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerHighScoreRepo хранит рекорд во встроенной BadgerDB.
// Значение записывается десятичной строкой под ключом HighScoreKey.
type BadgerHighScoreRepo struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerHighScoreRepo открывает BadgerDB в каталоге path.
// Пустой path открывает базу в памяти.
func NewBadgerHighScoreRepo(path string) (*BadgerHighScoreRepo, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerHighScoreRepo{db: db, isReady: true}, nil
}

// Load читает рекорд
func (r *BadgerHighScoreRepo) Load(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return 0, ErrNotReady
	}

	var score int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		score, err = readScore(txn)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return score, nil
}

// Submit записывает рекорд в одной транзакции чтения-записи
func (r *BadgerHighScoreRepo) Submit(ctx context.Context, score int) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return false, ErrNotReady
	}

	updated := false
	err := r.db.Update(func(txn *badger.Txn) error {
		current, err := readScore(txn)
		if err != nil {
			return err
		}
		if score <= current {
			return nil
		}
		updated = true
		return txn.Set([]byte(HighScoreKey), []byte(strconv.Itoa(score)))
	})
	if err != nil {
		return false, fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return updated, nil
}

// Close закрывает базу
func (r *BadgerHighScoreRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	return r.db.Close()
}

func readScore(txn *badger.Txn) (int, error) {
	item, err := txn.Get([]byte(HighScoreKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var score int
	err = item.Value(func(val []byte) error {
		score, err = strconv.Atoi(string(val))
		return err
	})
	return score, err
}
