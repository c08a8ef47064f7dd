package domain

import "time"

// FlashKind separates success notices from failure notices.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashFailure FlashKind = "failure"
)

// Flash is a one-shot notice carried across a redirect.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Session is the server-side state bound to a session cookie:
// the authenticated user (if any) and a queue of pending flashes.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSession creates an anonymous session with the given id.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// SignIn binds the session to userID.
func (s *Session) SignIn(userID string) {
	s.UserID = userID
}

// SignOut clears the user binding and any pending flashes.
func (s *Session) SignOut() {
	s.UserID = ""
	s.Flashes = nil
}

// AddFlash queues a notice for the next rendered page.
func (s *Session) AddFlash(kind FlashKind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns and clears all queued notices.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}
