package identity

import "github.com/google/uuid"

// Caller identifies who owns a cart: a logged-in user or a guest session.
// Exactly one of UserID and SessionToken is set.
type Caller struct {
	UserID       *uuid.UUID
	SessionToken *string
}

// ForUser builds a Caller for an authenticated user.
func ForUser(userID uuid.UUID) Caller {
	return Caller{UserID: &userID}
}

// ForSession builds a Caller for a guest session token.
func ForSession(token string) Caller {
	return Caller{SessionToken: &token}
}

// IsGuest reports whether the caller is session-scoped.
func (c Caller) IsGuest() bool {
	return c.UserID == nil
}

// IsValid reports whether exactly one owner is set.
func (c Caller) IsValid() bool {
	if c.UserID != nil {
		return c.SessionToken == nil
	}
	return c.SessionToken != nil && *c.SessionToken != ""
}
