package auth

import (
	"github.com/prn-tf/cityguide/internal/domain"
)

// Guards evaluates authorization predicates against the session identity.
// Ownership is always compared with the owner recorded in storage, never
// with identifiers supplied by the client.
type Guards struct {
	adminUsername string
}

// NewGuards creates guards for the given reserved admin username.
func NewGuards(adminUsername string) Guards {
	return Guards{adminUsername: adminUsername}
}

// IsAdmin reports whether user is the administrator.
func (g Guards) IsAdmin(user *domain.User) bool {
	return user != nil && g.adminUsername != "" && user.Username == g.adminUsername
}

// IsAdminOrAuthor reports whether user is the administrator or the recorded owner.
func (g Guards) IsAdminOrAuthor(user *domain.User, ownerID string) bool {
	if user == nil {
		return false
	}
	return g.IsAdmin(user) || (ownerID != "" && user.ID == ownerID)
}

// RequireUser fails with ErrNotAuthenticated for anonymous requests.
func (g Guards) RequireUser(user *domain.User) error {
	if user == nil {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin fails unless user is the administrator.
func (g Guards) RequireAdmin(user *domain.User) error {
	if !g.IsAdmin(user) {
		return domain.ErrNotAuthorized
	}
	return nil
}

// RequireAdminOrAuthor fails unless user is the administrator or owns the resource.
func (g Guards) RequireAdminOrAuthor(user *domain.User, ownerID string) error {
	if !g.IsAdminOrAuthor(user, ownerID) {
		return domain.ErrNotAuthorized
	}
	return nil
}
