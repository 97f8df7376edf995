// Package identity is the sign-in service: password and federated sign-in,
// bearer sessions and the auth-state subscription the session component
// listens on.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSessionRevoked     = errors.New("session has been signed out")
	ErrFederatedDisabled  = errors.New("federated sign-in is not configured")
)

const MinPasswordLength = 6

// Profile is the optional information a user gives when signing up, or that
// a federated assertion carries.
type Profile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	ShopName string `json:"shop_name"`
}

// AuthSession is a signed-in identity and the bearer token for it.
type AuthSession struct {
	SessionID  string    `json:"session_id"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Provider   string    `json:"provider"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Profile    Profile   `json:"-"`
}

// Listener receives every auth-state change: the new session after a
// sign-in, or nil after a sign-out. A listener that returns an error on a
// sign-in rejects it; the session is signed out again and the sign-in
// returns that error.
type Listener func(ctx context.Context, state *AuthSession) error

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignUp(ctx context.Context, email, password string, profile Profile) (*AuthSession, error)
	SignInWithFederatedProvider(ctx context.Context, assertion string) (*AuthSession, error)
	SignOut(ctx context.Context, sessionID string) error
	OnAuthStateChanged(l Listener) (unsubscribe func())
	Verify(ctx context.Context, token string) (*Claims, error)
	RevokeAll(ctx context.Context, identityID string) error
}
