package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaHighScoreRepo хранит рекорд в MariaDB/MySQL.
// Использует таблицу high_scores с одной строкой на ключ.
type MariaHighScoreRepo struct {
	db *sql.DB
}

// NewMariaHighScoreRepo подключается к базе и создает таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaHighScoreRepo(dsn string) (*MariaHighScoreRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := NewMariaHighScoreRepoWithDB(db)
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

// NewMariaHighScoreRepoWithDB оборачивает открытое соединение
func NewMariaHighScoreRepoWithDB(db *sql.DB) *MariaHighScoreRepo {
	return &MariaHighScoreRepo{db: db}
}

func (r *MariaHighScoreRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS high_scores (
			name       VARCHAR(64) PRIMARY KEY,
			score      BIGINT      NOT NULL DEFAULT 0,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы high_scores: %w", err)
	}
	return nil
}

// Load читает рекорд
func (r *MariaHighScoreRepo) Load(ctx context.Context) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, `SELECT score FROM high_scores WHERE name = ?`, HighScoreKey).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка загрузки рекорда: %w", err)
	}
	return score, nil
}

// Submit обновляет рекорд через GREATEST. Затронутые строки: 1 — вставка,
// 2 — обновление, 0 — значение не изменилось.
func (r *MariaHighScoreRepo) Submit(ctx context.Context, score int) (bool, error) {
	if score <= 0 {
		return false, nil
	}
	query := `
		INSERT INTO high_scores (name, score)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			score = GREATEST(score, VALUES(score))
	`
	res, err := r.db.ExecContext(ctx, query, HighScoreKey, score)
	if err != nil {
		return false, fmt.Errorf("ошибка сохранения рекорда: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка чтения результата: %w", err)
	}
	return affected > 0, nil
}

func (r *MariaHighScoreRepo) Close() error {
	return r.db.Close()
}
