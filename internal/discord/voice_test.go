package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voiceEvent(guild, user, channel string) *discordgo.VoiceStateUpdate {
	return &discordgo.VoiceStateUpdate{
		VoiceState: &discordgo.VoiceState{
			GuildID:   guild,
			UserID:    user,
			ChannelID: channel,
		},
	}
}

func TestVoiceRegistryTracksJoin(t *testing.T) {
	v := NewVoiceRegistry()

	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u1", "vc1"))
	v.HandleVoiceStateUpdate(nil, voiceEvent("g2", "u2", "vc9"))

	snap := v.Snapshot()
	require.Len(t, snap, 2)
	assert.Contains(t, snap, VoiceSession{GuildSnowflake: "g1", UserSnowflake: "u1", ChannelSnowflake: "vc1"})
	assert.Contains(t, snap, VoiceSession{GuildSnowflake: "g2", UserSnowflake: "u2", ChannelSnowflake: "vc9"})
}

func TestVoiceRegistryMoveReplacesSession(t *testing.T) {
	v := NewVoiceRegistry()

	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u1", "vc1"))
	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u1", "vc2"))

	snap := v.Snapshot()
	require.Len(t, snap, 1, "a member is in at most one channel at a time")
	assert.Equal(t, "vc2", snap[0].ChannelSnowflake)
}

func TestVoiceRegistryDisconnectEvicts(t *testing.T) {
	v := NewVoiceRegistry()

	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u1", "vc1"))
	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u2", "vc1"))

	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u1", ""))
	snap := v.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "u2", snap[0].UserSnowflake)

	// Last member leaving drops the guild bucket entirely.
	v.HandleVoiceStateUpdate(nil, voiceEvent("g1", "u2", ""))
	assert.Empty(t, v.Snapshot())
	assert.Empty(t, v.sessions)
}

func TestVoiceRegistryIgnoresBots(t *testing.T) {
	v := NewVoiceRegistry()

	ev := voiceEvent("g1", "bot1", "vc1")
	ev.Member = &discordgo.Member{User: &discordgo.User{ID: "bot1", Bot: true}}
	v.HandleVoiceStateUpdate(nil, ev)

	assert.Empty(t, v.Snapshot())
}
