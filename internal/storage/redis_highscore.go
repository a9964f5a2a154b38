package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/ufo-survivor/internal/logging"
)

// submitScript атомарно записывает счёт, только если он больше текущего
var submitScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if tonumber(ARGV[1]) > cur then
	redis.call('SET', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// RedisHighScoreRepo хранит рекорд в Redis
type RedisHighScoreRepo struct {
	client *redis.Client
}

// NewRedisHighScoreRepo подключается к Redis по URL вида redis://host:6379/0
func NewRedisHighScoreRepo(url string) (*RedisHighScoreRepo, error) {
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", opts.Addr)
	return NewRedisHighScoreRepoWithClient(client), nil
}

// NewRedisHighScoreRepoWithClient оборачивает готовый клиент
func NewRedisHighScoreRepoWithClient(client *redis.Client) *RedisHighScoreRepo {
	return &RedisHighScoreRepo{client: client}
}

// Load читает рекорд
func (r *RedisHighScoreRepo) Load(ctx context.Context) (int, error) {
	val, err := r.client.Get(ctx, HighScoreKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get high score: %w", err)
	}
	score, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("redis high score is not a number: %w", err)
	}
	return score, nil
}

// Submit обновляет рекорд скриптом на стороне Redis
func (r *RedisHighScoreRepo) Submit(ctx context.Context, score int) (bool, error) {
	if score <= 0 {
		return false, nil
	}
	res, err := submitScript.Run(ctx, r.client, []string{HighScoreKey}, score).Int()
	if err != nil {
		return false, fmt.Errorf("redis submit high score: %w", err)
	}
	return res == 1, nil
}

func (r *RedisHighScoreRepo) Close() error {
	return r.client.Close()
}
