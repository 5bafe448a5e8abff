// Package auth owns the credential and session lifecycle against the
// remote provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"glucobar/internal/core/model"
	"glucobar/internal/dexcom"

	"go.uber.org/zap"
)

// ErrNoCredentials indicates authentication was requested with empty
// credentials. The provider is never contacted in this case.
var ErrNoCredentials = errors.New("auth: username and password required")

// Provider performs the remote authentication step.
type Provider interface {
	Authenticate(ctx context.Context, credentials model.Credentials) (dexcom.Session, error)
}

// State describes the manager's position in the session lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// Manager is the exclusive owner of the provider session. A session is
// invalidated wholesale, never partially repaired.
type Manager struct {
	mu          sync.Mutex
	provider    Provider
	credentials model.Credentials
	session     dexcom.Session
	state       State
	log         *zap.Logger
}

// NewManager creates a manager seeded with the persisted credentials.
func NewManager(provider Provider, credentials model.Credentials, log *zap.Logger) *Manager {
	return &Manager{
		provider:    provider,
		credentials: credentials,
		state:       StateUnauthenticated,
		log:         log,
	}
}

// SetCredentials replaces the stored credentials and drops the current
// session. It does not authenticate; the next EnsureSession does.
func (manager *Manager) SetCredentials(credentials model.Credentials) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.credentials = credentials
	manager.session = dexcom.Session{}
	manager.state = StateUnauthenticated
}

// Credentials returns the currently stored credentials.
func (manager *Manager) Credentials() model.Credentials {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.credentials
}

// State reports the current lifecycle state.
func (manager *Manager) State() State {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.state
}

// EnsureSession returns the cached session or authenticates with the
// current credentials. Authentication failures are not retried here;
// the caller decides when to try again.
func (manager *Manager) EnsureSession(ctx context.Context) (dexcom.Session, error) {
	manager.mu.Lock()
	if manager.session.ID != "" {
		session := manager.session
		manager.mu.Unlock()
		return session, nil
	}

	credentials := manager.credentials
	if credentials.Empty() {
		manager.mu.Unlock()
		return dexcom.Session{}, ErrNoCredentials
	}
	manager.state = StateAuthenticating
	manager.mu.Unlock()

	session, err := manager.provider.Authenticate(ctx, credentials)

	manager.mu.Lock()
	defer manager.mu.Unlock()
	if err != nil {
		manager.state = StateUnauthenticated
		return dexcom.Session{}, fmt.Errorf("authenticate: %w", err)
	}
	if manager.credentials != credentials {
		// Credentials were replaced while authenticating; the session
		// belongs to the old account and must not be kept.
		manager.state = StateUnauthenticated
		return dexcom.Session{}, errors.New("auth: credentials changed during authentication")
	}

	manager.session = session
	manager.state = StateAuthenticated
	manager.log.Info("authenticated", zap.String("region", string(credentials.Region)))
	return session, nil
}

// Invalidate drops the current session so the next EnsureSession
// re-authenticates. Called when the provider reports an expired session
// mid-use.
func (manager *Manager) Invalidate() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.session.ID != "" {
		manager.log.Debug("session invalidated")
	}
	manager.session = dexcom.Session{}
	manager.state = StateUnauthenticated
}
