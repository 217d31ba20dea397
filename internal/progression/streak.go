package progression

// ResolveStreak applies the nightly threshold policy for one member: a day
// with at least RequiredMessagesPerDay qualifying messages extends the streak,
// anything less resets it to 1. The resolution is idempotent per (member,
// day): a record already stamped for today is returned unchanged, so the
// sweep can safely be replayed.
func ResolveStreak(rec Record, s Settings, yesterdayCount int, today string) (Record, bool) {
	if rec.LastStreakDate == today {
		return rec, false
	}

	required := s.RequiredMessagesPerDay
	if required <= 0 {
		required = DefaultMessagesPerDay
	}

	out := rec
	if yesterdayCount >= required {
		out.Streak = rec.Streak + 1
	} else {
		out.Streak = 1
	}
	out.LastStreakDate = today
	return out, true
}
