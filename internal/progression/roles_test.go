package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchRoleRanges(t *testing.T) {
	ranges := []RoleRange{
		{MinLevel: 1, MaxLevel: 4, RoleID: "novice"},
		{MinLevel: 5, MaxLevel: 9, RoleID: "regular"},
		{MinLevel: 10, MaxLevel: 99, RoleID: "veteran"},
	}

	assert.Equal(t, []string{"novice"}, MatchRoleRanges(ranges, 1))
	assert.Equal(t, []string{"regular"}, MatchRoleRanges(ranges, 5))
	assert.Equal(t, []string{"veteran"}, MatchRoleRanges(ranges, 42))
	assert.Empty(t, MatchRoleRanges(ranges, 100))
}

func TestValidateRoleRangeRejectsOverlap(t *testing.T) {
	existing := []RoleRange{{MinLevel: 5, MaxLevel: 9, RoleID: "regular"}}

	assert.Error(t, ValidateRoleRange(existing, RoleRange{MinLevel: 9, MaxLevel: 12, RoleID: "x"}))
	assert.Error(t, ValidateRoleRange(existing, RoleRange{MinLevel: 1, MaxLevel: 5, RoleID: "x"}))
	assert.Error(t, ValidateRoleRange(existing, RoleRange{MinLevel: 6, MaxLevel: 7, RoleID: "x"}))
	assert.Error(t, ValidateRoleRange(existing, RoleRange{MinLevel: 1, MaxLevel: 99, RoleID: "x"}))

	assert.NoError(t, ValidateRoleRange(existing, RoleRange{MinLevel: 1, MaxLevel: 4, RoleID: "x"}))
	assert.NoError(t, ValidateRoleRange(existing, RoleRange{MinLevel: 10, MaxLevel: 20, RoleID: "x"}))
}

func TestValidateRoleRangeRejectsBadBounds(t *testing.T) {
	assert.ErrorIs(t, ValidateRoleRange(nil, RoleRange{MinLevel: 5, MaxLevel: 4}), ErrRangeInverted)
	assert.Error(t, ValidateRoleRange(nil, RoleRange{MinLevel: 0, MaxLevel: 4}))
}
