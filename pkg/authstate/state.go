package authstate

import (
	"github.com/google/uuid"

	"github.com/barakahq/authkit/pkg/identity"
)

// UserProfile is the application-level view of the signed-in user.
type UserProfile struct {
	ID             uuid.UUID
	Name           string
	Email          string
	EmailConfirmed bool
	IsPremium      bool
	// RecipeCount is the remaining free-tier generation count. Premium
	// users keep whatever value the profile carries; it is not consulted
	// for them.
	RecipeCount int
}

// State is a point-in-time snapshot of the session manager's state.
// IsAuthenticated is true iff a user is present and their email is
// confirmed. IsInitialized becomes true exactly once per process and
// never reverts.
type State struct {
	User            *UserProfile
	Session         *identity.Session
	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool
	Error           string
}

func newProfile(sess *identity.Session, recipeCount int, isPremium, emailConfirmed bool) *UserProfile {
	name := sess.Name
	if name == "" {
		name = "User"
	}
	return &UserProfile{
		ID:             sess.UserID,
		Name:           name,
		Email:          sess.Email,
		EmailConfirmed: emailConfirmed,
		IsPremium:      isPremium,
		RecipeCount:    recipeCount,
	}
}

func cloneState(s State) State {
	c := s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Session != nil {
		c.Session = s.Session.Clone()
	}
	return c
}
