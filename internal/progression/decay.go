package progression

import (
	"errors"
	"math"
)

// ErrDecayFraction rejects decay configuration outside the unit interval.
var ErrDecayFraction = errors.New("decay fraction must be between 0 and 1")

// ValidateDecay checks a decay policy before it is written to settings.
func ValidateDecay(afterDays int, fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return ErrDecayFraction
	}
	if afterDays < 0 {
		return errors.New("decay window must not be negative")
	}
	return nil
}

// ResolveDecay applies the daily decay sweep to one record. A member whose
// LastActiveDate is more than DecayAfterDays days before today loses
// floor(xp * fraction) XP, with the level recomputed in the same step. Decay
// leaves LastActiveDate alone, so a permanently inactive account keeps
// decaying geometrically on every sweep until XP reaches zero.
func ResolveDecay(rec Record, s Settings, today string) (Record, bool) {
	if s.DecayAfterDays <= 0 || s.DecayFraction <= 0 {
		return rec, false
	}
	if DaysBetween(rec.LastActiveDate, today) <= s.DecayAfterDays {
		return rec, false
	}
	if rec.XP == 0 {
		return rec, false
	}

	newXP := int64(math.Floor(float64(rec.XP) * (1 - s.DecayFraction)))
	if newXP < 0 {
		newXP = 0
	}

	out := rec
	out.XP = newXP
	out.Level = Level(newXP)
	return out, true
}
