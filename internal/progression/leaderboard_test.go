package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTopRoleRotation(t *testing.T) {
	standings := []Standing{{UserID: "a", XP: 100}, {UserID: "b", XP: 90}}

	// First resolution seats A without a revoke.
	top, effects := ResolveTopRole("", standings, "crown")
	assert.Equal(t, "a", top)
	require.Len(t, effects, 1)
	assert.Equal(t, GrantRole{UserID: "a", RoleID: "crown"}, effects[0])

	// A still on top: nothing to do.
	top, effects = ResolveTopRole("a", standings, "crown")
	assert.Equal(t, "a", top)
	assert.Empty(t, effects)

	// B overtakes: revoke A, grant B.
	standings = []Standing{{UserID: "b", XP: 120}, {UserID: "a", XP: 100}}
	top, effects = ResolveTopRole("a", standings, "crown")
	assert.Equal(t, "b", top)
	require.Len(t, effects, 2)
	assert.Equal(t, RevokeRole{UserID: "a", RoleID: "crown"}, effects[0])
	assert.Equal(t, GrantRole{UserID: "b", RoleID: "crown"}, effects[1])
}

func TestResolveTopRoleNoConfig(t *testing.T) {
	standings := []Standing{{UserID: "a", XP: 100}}

	top, effects := ResolveTopRole("prev", standings, "")
	assert.Equal(t, "prev", top)
	assert.Empty(t, effects)

	top, effects = ResolveTopRole("prev", nil, "crown")
	assert.Equal(t, "prev", top)
	assert.Empty(t, effects)
}
