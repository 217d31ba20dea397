package progression

// Standing is one leaderboard row.
type Standing struct {
	UserID string
	XP     int64
}

// ResolveTopRole diffs the current rank-1 member against the previously
// recorded holder of the reward role. When the top spot changed hands it
// emits a revoke for the old holder and a grant for the new one, keeping the
// at-most-one-holder invariant. The caller must persist the returned top user
// in the same transaction as the effects are derived from, so a later
// resolution never diffs against a stale holder.
func ResolveTopRole(prevTop string, standings []Standing, rewardRoleID string) (string, []Effect) {
	if rewardRoleID == "" || len(standings) == 0 {
		return prevTop, nil
	}

	top := standings[0].UserID
	if top == prevTop {
		return prevTop, nil
	}

	var effects []Effect
	if prevTop != "" {
		effects = append(effects, RevokeRole{UserID: prevTop, RoleID: rewardRoleID})
	}
	effects = append(effects, GrantRole{UserID: top, RoleID: rewardRoleID})
	return top, effects
}
