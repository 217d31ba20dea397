package progression

import (
	"errors"
	"fmt"
)

var ErrRangeInverted = errors.New("level range minimum exceeds maximum")

// MatchRoleRanges returns the role IDs of every configured range whose
// [MinLevel, MaxLevel] interval contains level.
func MatchRoleRanges(ranges []RoleRange, level int) []string {
	var roles []string
	for _, r := range ranges {
		if level >= r.MinLevel && level <= r.MaxLevel {
			roles = append(roles, r.RoleID)
		}
	}
	return roles
}

// ValidateRoleRange rejects a candidate range that is inverted or overlaps an
// already-configured range for the same guild.
func ValidateRoleRange(existing []RoleRange, candidate RoleRange) error {
	if candidate.MinLevel > candidate.MaxLevel {
		return ErrRangeInverted
	}
	if candidate.MinLevel < 1 {
		return errors.New("level range must start at 1 or above")
	}
	for _, r := range existing {
		if candidate.MinLevel <= r.MaxLevel && r.MinLevel <= candidate.MaxLevel {
			return fmt.Errorf("range %d-%d overlaps existing range %d-%d",
				candidate.MinLevel, candidate.MaxLevel, r.MinLevel, r.MaxLevel)
		}
	}
	return nil
}
