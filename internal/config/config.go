package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/ufo-survivor/internal/vec"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Game      GameConfig      `yaml:"game"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auth      AuthConfig      `yaml:"auth"`
	Webhooks  []WebhookConfig `yaml:"webhooks"`
}

// GameConfig параметры симуляции одного забега
type GameConfig struct {
	Playfield  vec.Bounds `yaml:"playfield"`
	TickRate   int        `yaml:"tick_rate"`
	Difficulty Difficulty `yaml:"difficulty"`
}

// Difficulty — стартовые константы сложности
type Difficulty struct {
	EnemyBaseInterval  int     `yaml:"enemy_base_interval"`
	EnemyIntervalDecay int     `yaml:"enemy_interval_decay"`
	EnemyIntervalFloor int     `yaml:"enemy_interval_floor"`
	EnemySpawnMargin   float64 `yaml:"enemy_spawn_margin"`
	ItemInterval       int     `yaml:"item_interval"`
	ItemSpawnInset     float64 `yaml:"item_spawn_inset"`
	LevelDuration      float64 `yaml:"level_duration_seconds"`
	ContactDamage      int     `yaml:"contact_damage"`
	KillScore          int     `yaml:"kill_score"`
	ExplosionParticles int     `yaml:"explosion_particles"`
}

// TickInterval возвращает длительность одного кадра
func (g GameConfig) TickInterval() time.Duration {
	rate := g.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

type ServerConfig struct {
	HTTPPort        int     `yaml:"http_port"`
	KCPPort         int     `yaml:"kcp_port"`
	MetricsPort     int     `yaml:"metrics_port"`
	MaxSessions     int     `yaml:"max_sessions"`
	SnapshotRate    int     `yaml:"snapshot_rate"`
	ShutdownTimeout float64 `yaml:"shutdown_timeout_seconds"`
}

// GetHTTPPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "UFO_HTTP_PORT", 8088)
}

// GetKCPPort возвращает KCP порт с поддержкой fallback значений
func (s *ServerConfig) GetKCPPort() int {
	return getPortWithEnvFallback(s.KCPPort, "UFO_KCP_PORT", 7777)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "UFO_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// StorageConfig выбирает хранилище рекорда
type StorageConfig struct {
	Driver   string `yaml:"driver"` // memory | badger | redis | maria | mongo
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	MariaDSN string `yaml:"maria_dsn"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
}

type EventBusConfig struct {
	Driver    string `yaml:"driver"` // memory | jetstream
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type AuthConfig struct {
	JWTSecret     string  `yaml:"jwt_secret"`
	TokenTTLHours float64 `yaml:"token_ttl_hours"`
}

// WebhookConfig — внешний получатель событий забега
type WebhookConfig struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"` // типы событий или "*"
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	RetryCount     int      `yaml:"retry_count"`
}

// TokenTTL возвращает срок жизни токена управления забегом
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours * float64(time.Hour))
}

// DefaultDifficulty возвращает константы оригинальной аркады
func DefaultDifficulty() Difficulty {
	return Difficulty{
		EnemyBaseInterval:  60,
		EnemyIntervalDecay: 5,
		EnemyIntervalFloor: 10,
		EnemySpawnMargin:   20,
		ItemInterval:       900,
		ItemSpawnInset:     50,
		LevelDuration:      30,
		ContactDamage:      10,
		KillScore:          10,
		ExplosionParticles: 15,
	}
}

// DefaultGame возвращает параметры забега по умолчанию
func DefaultGame() GameConfig {
	return GameConfig{
		Playfield:  vec.Bounds{Width: 800, Height: 600},
		TickRate:   60,
		Difficulty: DefaultDifficulty(),
	}
}

// Default возвращает полную конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Game: DefaultGame(),
		Server: ServerConfig{
			MaxSessions:     64,
			SnapshotRate:    20,
			ShutdownTimeout: 10,
		},
		Storage: StorageConfig{
			Driver:  "memory",
			Path:    "data/highscore",
			MongoDB: "ufo_survivor",
		},
		EventBus: EventBusConfig{
			Driver:    "memory",
			URL:       "nats://127.0.0.1:4222",
			Stream:    "UFO_EVENTS",
			Retention: 24,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "ufo-survivor",
		},
		Auth: AuthConfig{
			JWTSecret:     "change-me",
			TokenTTLHours: 24,
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV UFO_CONFIG; без него возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("UFO_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет, что значения симуляции положительны
func (c *Config) Validate() error {
	g := c.Game
	if g.Playfield.Width <= 0 || g.Playfield.Height <= 0 {
		return fmt.Errorf("game.playfield must be positive, got %vx%v", g.Playfield.Width, g.Playfield.Height)
	}
	if g.TickRate <= 0 {
		return fmt.Errorf("game.tick_rate must be positive, got %d", g.TickRate)
	}
	d := g.Difficulty
	if d.EnemyIntervalFloor <= 0 || d.EnemyBaseInterval <= 0 || d.ItemInterval <= 0 {
		return fmt.Errorf("game.difficulty intervals must be positive")
	}
	if d.LevelDuration <= 0 {
		return fmt.Errorf("game.difficulty.level_duration_seconds must be positive")
	}
	if d.EnemySpawnMargin < 0 || d.ItemSpawnInset < 0 {
		return fmt.Errorf("game.difficulty spawn margins must not be negative")
	}
	// предметы появляются в [inset, size-inset], диапазон не должен схлопываться
	if g.Playfield.Width <= 2*d.ItemSpawnInset || g.Playfield.Height <= 2*d.ItemSpawnInset {
		return fmt.Errorf("game.playfield %vx%v leaves no room for items with inset %v",
			g.Playfield.Width, g.Playfield.Height, d.ItemSpawnInset)
	}
	switch c.Storage.Driver {
	case "memory", "badger", "redis", "maria", "mongo":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.EventBus.Driver {
	case "memory", "jetstream":
	default:
		return fmt.Errorf("unknown eventbus driver %q", c.EventBus.Driver)
	}
	for i, w := range c.Webhooks {
		if w.URL == "" || len(w.Events) == 0 {
			return fmt.Errorf("webhooks[%d]: url and events are required", i)
		}
	}
	return nil
}
