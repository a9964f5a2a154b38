package world

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
	"github.com/annel0/ufo-survivor/internal/world/progression"
	"github.com/annel0/ufo-survivor/internal/world/spawn"
)

// Snapshot — полное состояние забега на границе тика.
// Используется наблюдателями (REST, KCP) и для восстановления в тестах.
type Snapshot struct {
	Tick            uint64                 `json:"tick" msgpack:"tick"`
	Score           int                    `json:"score" msgpack:"score"`
	Elapsed         float64                `json:"elapsed" msgpack:"elapsed"`
	Level           int                    `json:"level" msgpack:"level"`
	Phase           progression.Phase      `json:"phase" msgpack:"phase"`
	PendingUpgrades int                    `json:"pending_upgrades" msgpack:"pending"`
	EnemyTimer      int                    `json:"enemy_timer" msgpack:"et"`
	ItemTimer       int                    `json:"item_timer" msgpack:"it"`
	Bounds          vec.Bounds             `json:"bounds" msgpack:"bounds"`
	Player          entity.Player          `json:"player" msgpack:"player"`
	Enemies         []entity.Enemy         `json:"enemies" msgpack:"enemies"`
	Projectiles     []entity.Projectile    `json:"projectiles" msgpack:"projectiles"`
	Items           []entity.Item          `json:"items" msgpack:"items"`
	Gems            []entity.ExperienceGem `json:"gems" msgpack:"gems"`
	Particles       []entity.Particle      `json:"particles" msgpack:"particles"`
	RNG             []byte                 `json:"-" msgpack:"rng"`
}

// PhaseName возвращает имя фазы для внешних клиентов
func (s *Snapshot) PhaseName() string {
	return s.Phase.String()
}

// Snapshot снимает копию состояния забега
func (r *Run) Snapshot() (*Snapshot, error) {
	state, err := r.director.State()
	if err != nil {
		return nil, fmt.Errorf("snapshot run: %w", err)
	}
	return &Snapshot{
		Tick:            r.tick,
		Score:           r.score,
		Elapsed:         r.elapsed,
		Level:           r.level,
		Phase:           r.machine.Phase(),
		PendingUpgrades: r.machine.Pending(),
		EnemyTimer:      r.enemyTimer,
		ItemTimer:       r.itemTimer,
		Bounds:          r.bounds,
		Player:          r.player,
		Enemies:         cloneEntities(r.enemies),
		Projectiles:     cloneEntities(r.projectiles),
		Items:           cloneEntities(r.items),
		Gems:            cloneEntities(r.gems),
		Particles:       cloneEntities(r.particles),
		RNG:             state,
	}, nil
}

// Restore собирает забег из снимка. С теми же входами восстановленный забег
// проходит ровно те же состояния, что и исходный.
func Restore(cfg config.GameConfig, snap *Snapshot) (*Run, error) {
	if snap == nil {
		return nil, fmt.Errorf("restore run: nil snapshot")
	}
	cfg.Playfield = snap.Bounds
	director := spawn.NewDirector(snap.Bounds, cfg.Difficulty, 0)
	if err := director.SetState(snap.RNG); err != nil {
		return nil, fmt.Errorf("restore run: %w", err)
	}
	return &Run{
		cfg:         cfg,
		bounds:      snap.Bounds,
		player:      snap.Player,
		enemies:     cloneEntities(snap.Enemies),
		projectiles: cloneEntities(snap.Projectiles),
		items:       cloneEntities(snap.Items),
		gems:        cloneEntities(snap.Gems),
		particles:   cloneEntities(snap.Particles),
		score:       snap.Score,
		elapsed:     snap.Elapsed,
		level:       snap.Level,
		enemyTimer:  snap.EnemyTimer,
		itemTimer:   snap.ItemTimer,
		tick:        snap.Tick,
		machine:     progression.RestoreMachine(snap.Phase, snap.PendingUpgrades),
		director:    director,
	}, nil
}

// cloneEntities копирует коллекцию; пустая коллекция всегда не nil,
// чтобы снимок одинаково выглядел до и после кодирования
func cloneEntities[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

var (
	snapshotEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	snapshotDecoder, _ = zstd.NewReader(nil)
)

// EncodeSnapshot кодирует снимок в msgpack и сжимает zstd
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	raw, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return snapshotEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeSnapshot распаковывает и декодирует снимок
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	raw, err := snapshotDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s Snapshot
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
