package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// VoiceSession is one member currently connected to a voice channel.
type VoiceSession struct {
	GuildSnowflake   string
	UserSnowflake    string
	ChannelSnowflake string
}

// VoiceRegistry tracks which members are connected to voice, keyed by
// (guild, user). A member is in at most one channel at a time; joining a new
// channel replaces the previous session and disconnecting evicts it. The
// minute sweep snapshots the registry to grant voice XP.
type VoiceRegistry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string // guild -> user -> channel
}

func NewVoiceRegistry() *VoiceRegistry {
	return &VoiceRegistry{sessions: make(map[string]map[string]string)}
}

// HandleVoiceStateUpdate keeps the registry in sync with gateway voice
// events.
func (v *VoiceRegistry) HandleVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if vs.ChannelID == "" {
		if users, ok := v.sessions[vs.GuildID]; ok {
			delete(users, vs.UserID)
			if len(users) == 0 {
				delete(v.sessions, vs.GuildID)
			}
		}
		return
	}

	users, ok := v.sessions[vs.GuildID]
	if !ok {
		users = make(map[string]string)
		v.sessions[vs.GuildID] = users
	}
	users[vs.UserID] = vs.ChannelID
}

// Snapshot returns the currently connected sessions.
func (v *VoiceRegistry) Snapshot() []VoiceSession {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []VoiceSession
	for guild, users := range v.sessions {
		for user, channel := range users {
			out = append(out, VoiceSession{
				GuildSnowflake:   guild,
				UserSnowflake:    user,
				ChannelSnowflake: channel,
			})
		}
	}
	return out
}
