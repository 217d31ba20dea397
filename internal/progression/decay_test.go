package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDecayAppliesPastWindow(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-01")
	rec.XP = 1000
	rec.Level = Level(rec.XP)
	settings := Settings{DecayAfterDays: 7, DecayFraction: 0.1}

	out, changed := ResolveDecay(rec, settings, "2026-08-28")
	assert.True(t, changed)
	assert.EqualValues(t, 900, out.XP)
	assert.Equal(t, Level(900), out.Level)
	assert.Equal(t, "2026-08-01", out.LastActiveDate, "decay must not refresh activity")
}

func TestResolveDecaySkipsActiveMembers(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-25")
	rec.XP = 1000
	settings := Settings{DecayAfterDays: 7, DecayFraction: 0.1}

	out, changed := ResolveDecay(rec, settings, "2026-08-28")
	assert.False(t, changed)
	assert.Equal(t, rec, out)
}

func TestResolveDecayNeverRaisesOrGoesNegative(t *testing.T) {
	settings := Settings{DecayAfterDays: 1, DecayFraction: 1}
	rec := NewRecord("g1", "u1", "2026-01-01")
	rec.XP = 3
	rec.Level = Level(rec.XP)

	out, changed := ResolveDecay(rec, settings, "2026-08-28")
	assert.True(t, changed)
	assert.EqualValues(t, 0, out.XP)
	assert.Equal(t, 1, out.Level)

	// A fully drained record stops changing.
	out2, changed := ResolveDecay(out, settings, "2026-08-29")
	assert.False(t, changed)
	assert.EqualValues(t, 0, out2.XP)
}

func TestResolveDecayCompounds(t *testing.T) {
	settings := Settings{DecayAfterDays: 7, DecayFraction: 0.5}
	rec := NewRecord("g1", "u1", "2026-01-01")
	rec.XP = 100
	rec.Level = Level(rec.XP)

	out, _ := ResolveDecay(rec, settings, "2026-08-28")
	assert.EqualValues(t, 50, out.XP)
	out, _ = ResolveDecay(out, settings, "2026-08-29")
	assert.EqualValues(t, 25, out.XP)
}

func TestResolveDecayDisabledByZeroConfig(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-01-01")
	rec.XP = 100

	_, changed := ResolveDecay(rec, Settings{DecayAfterDays: 0, DecayFraction: 0.5}, "2026-08-28")
	assert.False(t, changed)
	_, changed = ResolveDecay(rec, Settings{DecayAfterDays: 7, DecayFraction: 0}, "2026-08-28")
	assert.False(t, changed)
}

func TestValidateDecay(t *testing.T) {
	assert.NoError(t, ValidateDecay(7, 0.1))
	assert.NoError(t, ValidateDecay(0, 0))
	assert.NoError(t, ValidateDecay(7, 1))
	assert.ErrorIs(t, ValidateDecay(7, -0.1), ErrDecayFraction)
	assert.ErrorIs(t, ValidateDecay(7, 1.5), ErrDecayFraction)
	assert.Error(t, ValidateDecay(-1, 0.1))
}
