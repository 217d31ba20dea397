package leveling

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type discardNotifier struct{}

func (discardNotifier) Apply(string, []progression.Effect) {}

func newTestModule(t *testing.T, db *gorm.DB, enabled bool) *Leveling {
	t.Helper()
	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	log := zerolog.Nop()
	lv := New("Test Guild", "g1", "app1", session, db, discardNotifier{}, &log)

	require.NoError(t, db.Create(&database.Module{
		GuildSnowflake: "g1",
		Name:           name,
		Description:    description,
		Enabled:        enabled,
		Config:         datatypes.JSON([]byte("{}")),
		Commands:       datatypes.JSON([]byte("{}")),
	}).Error)
	return lv
}

func TestDisabledModuleSkipsVoiceGrant(t *testing.T) {
	db := setupTestDB(t)
	lv := newTestModule(t, db, false)

	lv.GrantVoiceMinute("u1", "vc1")

	var count int64
	db.Model(&database.MemberProgress{}).Where("guild_snowflake = ?", "g1").Count(&count)
	assert.EqualValues(t, 0, count, "a disabled module must not grant voice XP")
}

func TestEnabledModuleGrantsVoiceMinute(t *testing.T) {
	db := setupTestDB(t)
	lv := newTestModule(t, db, true)

	lv.GrantVoiceMinute("u1", "vc1")

	prog, err := lv.repo.Progress("g1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, progression.DefaultXPPerVoiceMinute, prog.XP)
}

func TestDisabledModuleSkipsSweeps(t *testing.T) {
	db := setupTestDB(t)
	lv := newTestModule(t, db, false)

	settings, err := lv.repo.Settings("g1")
	require.NoError(t, err)
	settings.DecayAfterDays = 7
	settings.DecayFraction = 0.5
	settings.RewardRole = "crown"
	require.NoError(t, lv.repo.SaveSettings(settings))

	require.NoError(t, db.Create(&database.MemberProgress{
		GuildSnowflake: "g1", UserSnowflake: "idle",
		XP: 100, Level: progression.Level(100), Streak: 5,
		LastActiveDate: "2026-01-01",
	}).Error)

	now := time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC)
	lv.RunDecaySweep(now)
	lv.RunStreakSweep(now)
	lv.RunTopRoleRotation()

	prog, err := lv.repo.Progress("g1", "idle")
	require.NoError(t, err)
	assert.EqualValues(t, 100, prog.XP, "a disabled module must not decay members")
	assert.Equal(t, 5, prog.Streak)
	assert.Empty(t, prog.LastStreakDate)

	settings, err = lv.repo.Settings("g1")
	require.NoError(t, err)
	assert.Empty(t, settings.LastTopUser, "a disabled module must not rotate the reward role")
}
