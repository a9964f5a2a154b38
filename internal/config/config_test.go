package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60, cfg.Game.TickRate)
	assert.Equal(t, 55, cfg.Game.Difficulty.EnemyBaseInterval-cfg.Game.Difficulty.EnemyIntervalDecay)
	assert.Equal(t, 900, cfg.Game.Difficulty.ItemInterval)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ufo.yaml")
	data := []byte(`
game:
  playfield:
    width: 1024
    height: 768
server:
  http_port: 9090
storage:
  driver: badger
  path: /tmp/hs
webhooks:
  - name: scoreboard
    url: http://127.0.0.1:9000/hook
    events: [game_over]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1024.0, cfg.Game.Playfield.Width)
	assert.Equal(t, 768.0, cfg.Game.Playfield.Height)
	assert.Equal(t, 60, cfg.Game.TickRate, "unspecified values keep defaults")
	assert.Equal(t, 9090, cfg.Server.GetHTTPPort())
	assert.Equal(t, "badger", cfg.Storage.Driver)
	require.Len(t, cfg.Webhooks, 1)
	assert.Equal(t, []string{"game_over"}, cfg.Webhooks[0].Events)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad driver", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: floppy\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "floppy")
	})

	t.Run("webhook without url", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hook.yaml")
		require.NoError(t, os.WriteFile(path, []byte("webhooks:\n  - name: x\n    events: [\"*\"]\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "webhooks[0]")
	})

	t.Run("zero playfield", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "zero.yaml")
		require.NoError(t, os.WriteFile(path, []byte("game:\n  playfield:\n    width: 0\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("playfield narrower than item inset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "narrow.yaml")
		require.NoError(t, os.WriteFile(path, []byte("game:\n  playfield:\n    width: 100\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "no room for items")
	})

	t.Run("negative spawn margin", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "margin.yaml")
		require.NoError(t, os.WriteFile(path, []byte("game:\n  difficulty:\n    enemy_spawn_margin: -5\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "must not be negative")
	})

	t.Run("negative item inset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inset.yaml")
		require.NoError(t, os.WriteFile(path, []byte("game:\n  difficulty:\n    item_spawn_inset: -1\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "must not be negative")
	})
}

func TestPortFallback(t *testing.T) {
	t.Setenv("UFO_KCP_PORT", "9999")
	s := ServerConfig{}
	assert.Equal(t, 9999, s.GetKCPPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.KCPPort = 1234
	assert.Equal(t, 1234, s.GetKCPPort())
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("UFO_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
