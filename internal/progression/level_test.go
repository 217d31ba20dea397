package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{-5, 1},
		{0, 1},
		{9, 1},
		{10, 2},
		{39, 2},
		{40, 3},
		{89, 3},
		{90, 4},
		{1000, 11},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Level(c.xp), "xp=%d", c.xp)
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := Level(0)
	for xp := int64(1); xp <= 5000; xp++ {
		cur := Level(xp)
		assert.GreaterOrEqual(t, cur, prev, "level decreased at xp=%d", xp)
		prev = cur
	}
}
