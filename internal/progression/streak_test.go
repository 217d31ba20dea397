package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStreakExtends(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-27")
	rec.Streak = 4
	settings := Settings{RequiredMessagesPerDay: 3}

	out, changed := ResolveStreak(rec, settings, 3, "2026-08-28")
	assert.True(t, changed)
	assert.Equal(t, 5, out.Streak)
	assert.Equal(t, "2026-08-28", out.LastStreakDate)
}

func TestResolveStreakResets(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-27")
	rec.Streak = 4
	settings := Settings{RequiredMessagesPerDay: 3}

	out, changed := ResolveStreak(rec, settings, 2, "2026-08-28")
	assert.True(t, changed)
	assert.Equal(t, 1, out.Streak)
}

func TestResolveStreakIdempotentPerDay(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-27")
	rec.Streak = 4
	settings := Settings{RequiredMessagesPerDay: 3}

	first, changed := ResolveStreak(rec, settings, 3, "2026-08-28")
	assert.True(t, changed)

	// Replaying the sweep for the same day must not double-increment.
	second, changed := ResolveStreak(first, settings, 3, "2026-08-28")
	assert.False(t, changed)
	assert.Equal(t, first.Streak, second.Streak)
}

func TestResolveStreakDefaultThreshold(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-27")
	rec.Streak = 2

	out, _ := ResolveStreak(rec, Settings{}, DefaultMessagesPerDay, "2026-08-28")
	assert.Equal(t, 3, out.Streak)

	out, _ = ResolveStreak(rec, Settings{}, DefaultMessagesPerDay-1, "2026-08-28")
	assert.Equal(t, 1, out.Streak)
}
