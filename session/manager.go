// Package session turns identity sign-ins into application accounts. It
// listens on the identity provider and, for every sign-in, makes sure an
// account exists, refreshes its last login and refuses blocked accounts.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"billweave-backend/identity"
	"billweave-backend/models"
	"billweave-backend/services"
)

// ErrBlockedAccount is returned when a blocked account signs in. The session
// that was issued for it has already been signed out.
var ErrBlockedAccount = errors.New("this account has been blocked, contact the administrator")

// State is what the rest of the system knows about a signed-in account.
type State struct {
	SessionID string          `json:"session_id"`
	Account   *models.Account `json:"account"`
	IsAdmin   bool            `json:"is_admin"`
}

// Manager runs the profile sync step on every sign-in event.
type Manager struct {
	provider identity.Provider
	accounts *services.AccountService

	mu     sync.RWMutex
	states map[string]*State
	stop   func()
}

// NewManager subscribes to provider. Call Close to unsubscribe.
func NewManager(provider identity.Provider, accounts *services.AccountService) *Manager {
	m := &Manager{
		provider: provider,
		accounts: accounts,
		states:   make(map[string]*State),
	}
	m.stop = provider.OnAuthStateChanged(m.onAuthStateChanged)
	return m
}

func (m *Manager) Close() {
	m.stop()
}

func (m *Manager) onAuthStateChanged(ctx context.Context, s *identity.AuthSession) error {
	if s == nil {
		return nil
	}
	state, err := m.sync(ctx, s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.states[s.SessionID] = state
	m.mu.Unlock()
	return nil
}

// sync bootstraps the account for s, records the login and checks the
// blocked flag.
func (m *Manager) sync(ctx context.Context, s *identity.AuthSession) (*State, error) {
	profile := services.Profile{Name: s.Profile.Name, Phone: s.Profile.Phone, ShopName: s.Profile.ShopName}
	account, _, err := m.accounts.EnsureAccount(ctx, s.IdentityID, s.Email, profile)
	if err != nil {
		return nil, err
	}
	if account.IsBlocked {
		slog.Warn("blocked account tried to sign in", "account", account.ID)
		return nil, ErrBlockedAccount
	}

	at, err := m.accounts.TouchLastLogin(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.LastLogin = &at

	return &State{SessionID: s.SessionID, Account: account, IsAdmin: account.IsAdmin()}, nil
}

// SignIn signs in with a password and returns the session with its account.
// A blocked account yields ErrBlockedAccount and no usable session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*identity.AuthSession, *State, error) {
	return m.settle(m.provider.SignIn(ctx, email, password))
}

func (m *Manager) SignUp(ctx context.Context, email, password string, profile identity.Profile) (*identity.AuthSession, *State, error) {
	return m.settle(m.provider.SignUp(ctx, email, password, profile))
}

func (m *Manager) SignInWithFederatedProvider(ctx context.Context, assertion string) (*identity.AuthSession, *State, error) {
	return m.settle(m.provider.SignInWithFederatedProvider(ctx, assertion))
}

func (m *Manager) SignOut(ctx context.Context, sessionID string) error {
	return m.provider.SignOut(ctx, sessionID)
}

func (m *Manager) settle(s *identity.AuthSession, err error) (*identity.AuthSession, *State, error) {
	if err != nil {
		return nil, nil, err
	}
	state := m.take(s.SessionID)
	if state == nil {
		return nil, nil, errors.New("session: no account state recorded for sign-in")
	}
	return s, state, nil
}

// take hands the state recorded for sessionID to the caller and forgets it.
func (m *Manager) take(sessionID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.states[sessionID]
	delete(m.states, sessionID)
	return state
}

// Current loads the state of an already signed-in account, for requests that
// carry a verified token. A blocked account gets ErrBlockedAccount.
func (m *Manager) Current(ctx context.Context, sessionID, accountID string) (*State, error) {
	account, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsBlocked {
		return nil, ErrBlockedAccount
	}
	isAdmin, err := m.accounts.IsAdmin(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &State{SessionID: sessionID, Account: account, IsAdmin: isAdmin}, nil
}
