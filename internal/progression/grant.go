package progression

import (
	"fmt"
	"math"
)

// GrantEvent is one XP-qualifying occurrence: a sent message or an elapsed
// voice minute.
type GrantEvent struct {
	Kind      EventKind
	ChannelID string
	Booster   bool
	Today     string
}

// GrantResult reports what a grant did to the record.
type GrantResult struct {
	Granted   bool
	Amount    int64
	LeveledUp bool
}

// ResolveGrant applies one qualifying event to a record. The returned record
// carries the new XP, recomputed level and refreshed LastActiveDate; effects
// contain the level-up announcement and role grants when the event crossed a
// level boundary. A gated channel returns the record untouched.
func ResolveGrant(rec Record, s Settings, ev GrantEvent) (Record, GrantResult, []Effect) {
	if !channelPermitted(s.AllowedChannels, ev.ChannelID) {
		return rec, GrantResult{}, nil
	}

	amount := grantAmount(rec, s, ev)
	newXP := rec.XP + amount
	newLevel := Level(newXP)
	leveledUp := newLevel > rec.Level

	out := rec
	out.XP = newXP
	out.Level = newLevel
	out.LastActiveDate = ev.Today

	var effects []Effect
	if leveledUp {
		channel := s.LevelUpChannelID
		if channel == "" {
			channel = ev.ChannelID
		}
		effects = append(effects, Announce{
			ChannelID: channel,
			Text:      fmt.Sprintf("<@%s> reached level **%d**!", rec.UserID, newLevel),
		})
		// Crossing out of a range revokes its role before the new band's
		// role is granted, so a member only ever holds their current band.
		oldRoles := MatchRoleRanges(s.RoleRanges, rec.Level)
		newRoles := MatchRoleRanges(s.RoleRanges, newLevel)
		for _, roleID := range oldRoles {
			if !containsRole(newRoles, roleID) {
				effects = append(effects, RevokeRole{UserID: rec.UserID, RoleID: roleID})
			}
		}
		for _, roleID := range newRoles {
			if !containsRole(oldRoles, roleID) {
				effects = append(effects, GrantRole{UserID: rec.UserID, RoleID: roleID})
			}
		}
	}
	return out, GrantResult{Granted: true, Amount: amount, LeveledUp: leveledUp}, effects
}

// channelPermitted implements the allow-list gating policy: an empty list
// permits every channel, a non-empty list permits only its members.
func channelPermitted(allowed []string, channelID string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, id := range allowed {
		if id == channelID {
			return true
		}
	}
	return false
}

func grantAmount(rec Record, s Settings, ev GrantEvent) int64 {
	// Rates are taken as configured. A guild's settings row is seeded with
	// the package defaults on creation, so zero here means an admin set the
	// rate to zero to pause that grant kind.
	var base int64
	switch ev.Kind {
	case EventVoiceMinute:
		base = s.XPPerVoiceMinute
	default:
		base = s.XPPerMessage
	}
	if base <= 0 {
		return 0
	}

	mult := 1.0
	if ev.Booster {
		if s.BoosterMultiplier > 1 {
			mult = s.BoosterMultiplier
		}
	}
	// Message XP carries a loyalty bonus scaled by the member's streak.
	if ev.Kind == EventMessage {
		mult *= 1 + float64(rec.Streak)*0.01
	}

	amount := int64(math.Floor(float64(base) * mult))
	if amount < 0 {
		amount = 0
	}
	return amount
}

func containsRole(roles []string, roleID string) bool {
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}
