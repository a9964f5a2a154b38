package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world/entity"
	"github.com/annel0/ufo-survivor/internal/world/progression"
)

// drive гоняет забег по фиксированному сценарию ввода
func drive(r *Run, from, ticks int) {
	for i := from; i < from+ticks; i++ {
		dir := vec.Vec2Float{X: float64(i%7 - 3), Y: float64(i%5 - 2)}
		r.SetPlayerDirection(dir)
		if i%13 == 0 {
			r.RequestManualShot()
		}
		if r.Phase() == progression.AwaitingUpgradeChoice {
			_ = r.ChooseUpgrade(i % 3)
		}
		r.Step(float64(i) / 60)
	}
}

func TestSnapshot_RoundTripIsDeterministic(t *testing.T) {
	cfg := config.DefaultGame()
	original := NewRun(cfg, 2024)
	drive(original, 0, 400)

	snap, err := original.Snapshot()
	require.NoError(t, err)

	data, err := EncodeSnapshot(snap)
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	restored, err := Restore(cfg, decoded)
	require.NoError(t, err)

	drive(original, 400, 600)
	drive(restored, 400, 600)

	want, err := original.Snapshot()
	require.NoError(t, err)
	got, err := restored.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, original.Score(), restored.Score())
}

func TestSnapshot_SameSeedSameRun(t *testing.T) {
	a := NewRun(config.DefaultGame(), 7)
	b := NewRun(config.DefaultGame(), 7)
	drive(a, 0, 300)
	drive(b, 0, 300)

	sa, err := a.Snapshot()
	require.NoError(t, err)
	sb, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestSnapshot_Errors(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not zstd"))
	assert.Error(t, err)

	_, err = Restore(config.DefaultGame(), nil)
	assert.Error(t, err)

	_, err = Restore(config.DefaultGame(), &Snapshot{RNG: []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestSnapshot_IsACopy(t *testing.T) {
	r := newTestRun()
	r.enemies = append(r.enemies, stillEnemy(100, 100, entity.EnemyWeak))

	snap, err := r.Snapshot()
	require.NoError(t, err)
	snap.Enemies[0].Position.X = 1

	assert.Equal(t, 100.0, r.enemies[0].Position.X)
	assert.Equal(t, "running", snap.PhaseName())
}
