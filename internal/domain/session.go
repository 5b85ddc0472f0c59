package domain

import "time"

type UserID string

type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticating  AuthState = "authenticating"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateFailed          AuthState = "failed"
)

type Identity struct {
	UserID    UserID
	Anonymous bool
	// IDToken is the opaque bearer token presented to the document store.
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type Session struct {
	State    AuthState
	Identity *Identity
	Err      error
}

func (s Session) Authenticated() bool {
	return s.State == AuthStateAuthenticated && s.Identity != nil && s.Identity.UserID != ""
}

func (s Session) UserID() UserID {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UserID
}

// Credential is the persisted part of an identity used to resume a session.
type Credential struct {
	UserID       UserID
	RefreshToken string
	Anonymous    bool
	SavedAt      time.Time
}
