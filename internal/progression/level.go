package progression

import "math"

// Level derives a member's level from their XP. Negative XP is clamped to
// zero before evaluation.
func Level(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp)/10)) + 1
}
