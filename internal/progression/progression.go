// Package progression holds the platform-independent progression rules: XP
// grants, level math, daily streaks, inactivity decay, currency transfers and
// the gambling mini-games. Functions here operate on plain records and return
// updated records plus side effects; persistence and Discord delivery are the
// caller's problem.
package progression

import "time"

// DateLayout is the day-granularity format used for activity bookkeeping.
const DateLayout = "2006-01-02"

// Exchange and default rates shared by every guild unless overridden.
const (
	CoinExchangeRate         = 10 // xp per coin
	DefaultXPPerMessage      = 2
	DefaultXPPerVoiceMinute  = 1
	DefaultBoosterMultiplier = 1.0
	DefaultMessagesPerDay    = 3
	GambleXPBonus            = 5
)

// EventKind discriminates the sources that can grant XP.
type EventKind string

const (
	EventMessage     EventKind = "message"
	EventVoiceMinute EventKind = "voice_minute"
)

// Record is one member's progression state within a guild. Level is derived
// from XP and must be recomputed whenever XP changes; the helpers in this
// package never persist XP without also recomputing Level.
type Record struct {
	UserID         string
	GuildID        string
	XP             int64
	Level          int
	Coins          int64
	Streak         int
	LastActiveDate string
	LastStreakDate string
}

// NewRecord returns the state a member starts with on their first observed
// event.
func NewRecord(guildID, userID, today string) Record {
	return Record{
		UserID:         userID,
		GuildID:        guildID,
		XP:             0,
		Level:          1,
		Coins:          0,
		Streak:         1,
		LastActiveDate: today,
	}
}

// Settings is the per-guild rule configuration the engine evaluates against.
// XP rates are honored as configured, including zero (the repository seeds
// new guilds with the defaults above); a zero streak threshold falls back to
// DefaultMessagesPerDay.
type Settings struct {
	XPPerMessage           int64
	XPPerVoiceMinute       int64
	BoosterMultiplier      float64
	RequiredMessagesPerDay int
	DecayAfterDays         int
	DecayFraction          float64
	LevelUpChannelID       string
	RewardRoleID           string
	AllowedChannels        []string
	RoleRanges             []RoleRange
}

// RoleRange maps a closed level interval to an auto-assigned role.
type RoleRange struct {
	MinLevel int
	MaxLevel int
	RoleID   string
}

// Effect is a side effect the caller should deliver to Discord after the
// record mutation has been committed. Delivery is best-effort: a failed role
// mutation or announcement never rolls back progression state.
type Effect interface {
	effect()
}

// Announce posts a formatted message to a channel.
type Announce struct {
	ChannelID string
	Text      string
}

// GrantRole adds a role to a member.
type GrantRole struct {
	UserID string
	RoleID string
}

// RevokeRole removes a role from a member.
type RevokeRole struct {
	UserID string
	RoleID string
}

func (Announce) effect()   {}
func (GrantRole) effect()  {}
func (RevokeRole) effect() {}

// Today formats t as a platform-local calendar date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole calendar days from one date to another.
// Unparseable dates count as zero days apart.
func DaysBetween(from, to string) int {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}
