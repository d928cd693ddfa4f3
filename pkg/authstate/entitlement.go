package authstate

import "context"

// ConsumeGeneration records one recipe generation. Premium users are
// unaffected; for free users the remaining count is decremented in memory
// first and then persisted to the profile store and the shadow copy.
// The persist step is optimistic: a failed write is logged, never rolled
// back and never surfaced — availability over consistency.
func (m *Manager) ConsumeGeneration(ctx context.Context) error {
	m.mu.Lock()
	u := m.state.User
	if u == nil {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if u.IsPremium {
		m.mu.Unlock()
		return nil
	}
	u.RecipeCount--
	userID := u.ID
	newCount := u.RecipeCount
	m.mu.Unlock()

	if err := m.profiles.SetGenerationsLeft(ctx, userID, newCount); err != nil {
		m.log.ErrorContext(ctx, "failed to persist generations left",
			"user_id", userID, "generations_left", newCount, "error", err)
	}
	m.persistState(ctx)

	return nil
}

// SetPremium overrides the user's premium flag in memory and in the shadow
// copy. The caller is responsible for confirming the authoritative
// subscription record first; this does not talk to the payment provider.
func (m *Manager) SetPremium(ctx context.Context, isPremium bool) error {
	m.mu.Lock()
	if m.state.User == nil {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.state.User.IsPremium = isPremium
	m.mu.Unlock()

	m.persistState(ctx)
	return nil
}
