// Package fetch performs single authenticated reads against the remote
// provider and normalizes outcomes into the core error taxonomy.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"glucobar/internal/auth"
	"glucobar/internal/core/model"
	"glucobar/internal/dexcom"

	"go.uber.org/zap"
)

// Kind classifies a fetch failure for propagation policy decisions.
type Kind string

const (
	// KindCredential: credentials are empty; nothing was sent to the
	// provider. Automatic fetching is suspended until they change.
	KindCredential Kind = "credential"
	// KindAuth: the provider rejected the credentials at ensure time.
	// Automatic fetching is suspended until they change.
	KindAuth Kind = "auth"
	// KindSessionExpired: the session died mid-read. The session has
	// been invalidated; the next cycle re-authenticates silently.
	KindSessionExpired Kind = "session_expired"
	// KindTransient: network or provider outage, malformed response.
	// Retried on the next natural tick.
	KindTransient Kind = "transient"
)

// Error is a classified fetch failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of one fetch cycle. A nil Reading with a nil
// Err means the provider has no current reading, which is valid.
type Result struct {
	Reading *model.Reading
	Err     *Error
}

// NoReading reports the valid no-current-reading outcome.
func (result Result) NoReading() bool {
	return result.Err == nil && result.Reading == nil
}

// Provider performs the authenticated read.
type Provider interface {
	CurrentReading(ctx context.Context, session dexcom.Session) (*model.Reading, error)
}

// Fetcher executes exactly one reading per call through a valid session.
type Fetcher struct {
	auth     *auth.Manager
	provider Provider
	log      *zap.Logger
}

// NewFetcher wires a fetcher to its session manager and provider.
func NewFetcher(authManager *auth.Manager, provider Provider, log *zap.Logger) *Fetcher {
	return &Fetcher{auth: authManager, provider: provider, log: log}
}

// FetchOnce ensures a session and performs one read. It never retries
// within the same call; retry cadence belongs to the scheduler.
func (fetcher *Fetcher) FetchOnce(ctx context.Context) Result {
	session, err := fetcher.auth.EnsureSession(ctx)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoCredentials):
			return Result{Err: &Error{Kind: KindCredential, Err: err}}
		case errors.Is(err, dexcom.ErrUnauthorized):
			fetcher.log.Warn("credentials rejected", zap.Error(err))
			return Result{Err: &Error{Kind: KindAuth, Err: err}}
		case errors.Is(err, dexcom.ErrSessionExpired):
			fetcher.log.Info("session rejected at login, will re-authenticate next cycle", zap.Error(err))
			return Result{Err: &Error{Kind: KindSessionExpired, Err: err}}
		}
		// An outage while authenticating says nothing about the
		// credentials; only a provider rejection does.
		fetcher.log.Warn("authentication attempt failed", zap.Error(err))
		return Result{Err: &Error{Kind: KindTransient, Err: err}}
	}

	reading, err := fetcher.provider.CurrentReading(ctx, session)
	if err != nil {
		if errors.Is(err, dexcom.ErrSessionExpired) || errors.Is(err, dexcom.ErrUnauthorized) {
			fetcher.auth.Invalidate()
			fetcher.log.Info("session rejected mid-read, will re-authenticate next cycle", zap.Error(err))
			return Result{Err: &Error{Kind: KindSessionExpired, Err: err}}
		}
		fetcher.log.Warn("read failed", zap.Error(err))
		return Result{Err: &Error{Kind: KindTransient, Err: err}}
	}

	return Result{Reading: reading}
}
