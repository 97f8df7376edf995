package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"billweave-backend/database"
	"billweave-backend/models"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	// FederatedIssuer and FederatedSecret verify federated assertions. An
	// empty issuer disables federated sign-in.
	FederatedIssuer string
	FederatedSecret []byte
	Now             func() time.Time
}

// LocalProvider keeps identities and sessions in the application database.
type LocalProvider struct {
	db   *gorm.DB
	opts Options

	// notifyMu delivers one auth-state change at a time.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewLocalProvider(db *gorm.DB, opts Options) (*LocalProvider, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("identity: token secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LocalProvider{db: db, opts: opts, listeners: make(map[int]Listener)}, nil
}

func (p *LocalProvider) now() time.Time {
	return p.opts.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) findIdentity(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	err := database.Conn(ctx, p.db).Where("email = ?", email).Take(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &identity, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	identity, err := p.findIdentity(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if identity == nil || len(identity.PasswordHash) == 0 {
		return nil, ErrInvalidCredentials
	}
	if err := identity.ComparePassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.startSession(ctx, identity, models.ProviderPassword, Profile{})
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, profile Profile) (*AuthSession, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	existing, err := p.findIdentity(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	identity := &models.Identity{Email: email, Provider: models.ProviderPassword}
	if err := identity.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := database.Conn(ctx, p.db).Create(identity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return p.startSession(ctx, identity, models.ProviderPassword, profile)
}

// SignInWithFederatedProvider accepts an HS256 assertion from the configured
// upstream issuer. The identity for the asserted email is created on first use
// and shared with a password login for the same address.
func (p *LocalProvider) SignInWithFederatedProvider(ctx context.Context, assertion string) (*AuthSession, error) {
	if p.opts.FederatedIssuer == "" || len(p.opts.FederatedSecret) == 0 {
		return nil, ErrFederatedDisabled
	}
	var claims FederatedClaims
	if err := parseHS256(assertion, p.opts.FederatedSecret, &claims); err != nil {
		return nil, ErrInvalidCredentials
	}
	email := normalizeEmail(claims.Email)
	if claims.Issuer != p.opts.FederatedIssuer || email == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := p.findIdentity(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		identity = &models.Identity{Email: email, Provider: models.ProviderFederated}
		if err := database.Conn(ctx, p.db).Create(identity).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("create identity: %w", err)
			}
			if identity, err = p.findIdentity(ctx, email); err != nil || identity == nil {
				return nil, fmt.Errorf("create identity: %w", gorm.ErrDuplicatedKey)
			}
		}
	}
	return p.startSession(ctx, identity, models.ProviderFederated, Profile{Name: claims.Name})
}

// startSession records a session, signs its token and tells the listeners.
func (p *LocalProvider) startSession(ctx context.Context, identity *models.Identity, provider string, profile Profile) (*AuthSession, error) {
	now := p.now()
	session := &models.Session{
		IdentityID: identity.ID,
		ExpiresAt:  now.Add(p.opts.TokenTTL),
		CreatedAt:  now,
	}
	if err := database.Conn(ctx, p.db).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := signToken(p.opts.Secret, &Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	state := &AuthSession{
		SessionID:  session.ID,
		IdentityID: identity.ID,
		Email:      identity.Email,
		Provider:   provider,
		Token:      token,
		ExpiresAt:  session.ExpiresAt,
		Profile:    profile,
	}
	if err := p.signedIn(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// signedIn publishes state. If any listener rejects it, the session is
// revoked and the signed-out state is published before returning the error.
func (p *LocalProvider) signedIn(ctx context.Context, state *AuthSession) error {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	for _, l := range p.snapshot() {
		if err := l(ctx, state); err != nil {
			if rerr := p.revoke(ctx, state.SessionID); rerr != nil {
				slog.Error("revoke rejected session failed", "session", state.SessionID, "error", rerr)
			}
			p.publish(ctx, nil)
			return err
		}
	}
	return nil
}

// publish delivers state to every listener, logging but otherwise ignoring
// their errors. Callers hold notifyMu.
func (p *LocalProvider) publish(ctx context.Context, state *AuthSession) {
	for _, l := range p.snapshot() {
		if err := l(ctx, state); err != nil {
			slog.Warn("auth state listener failed", "error", err)
		}
	}
}

func (p *LocalProvider) snapshot() []Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Listener, 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if l, ok := p.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}

// OnAuthStateChanged registers l; calling the returned func removes it.
func (p *LocalProvider) OnAuthStateChanged(l Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// SignOut revokes sessionID and publishes the signed-out state. Signing out
// an already revoked session is not an error.
func (p *LocalProvider) SignOut(ctx context.Context, sessionID string) error {
	if err := p.revoke(ctx, sessionID); err != nil {
		return err
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.publish(ctx, nil)
	return nil
}

func (p *LocalProvider) revoke(ctx context.Context, sessionID string) error {
	now := p.now()
	err := database.Conn(ctx, p.db).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now).Error
	if err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

// RevokeAll signs out every live session of identityID.
func (p *LocalProvider) RevokeAll(ctx context.Context, identityID string) error {
	now := p.now()
	err := database.Conn(ctx, p.db).Model(&models.Session{}).
		Where("identity_id = ? AND revoked_at IS NULL", identityID).
		Update("revoked_at", &now).Error
	if err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", identityID, err)
	}
	return nil
}

// Verify checks token's signature and expiry and that its session is still
// live.
func (p *LocalProvider) Verify(ctx context.Context, token string) (*Claims, error) {
	var claims Claims
	if err := parseHS256(token, p.opts.Secret, &claims); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	var session models.Session
	err := database.Conn(ctx, p.db).Where("id = ?", claims.ID).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.IdentityID != claims.Subject {
		return nil, ErrInvalidToken
	}
	if !session.Active(p.now()) {
		return nil, ErrSessionRevoked
	}
	return &claims, nil
}
