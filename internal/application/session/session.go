package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/court-scheduler/internal/domain/portal"
	"github.com/example/court-scheduler/internal/domain/reservation"
)

// Manager logs into the portal once and remembers that it did.
type Manager struct {
	Driver    portal.Driver
	LoginURL  string
	Selectors portal.Selectors
	Timeouts  portal.Timeouts
	Log       *zap.Logger

	authenticated bool
}

func New(d portal.Driver, loginURL string, sel portal.Selectors, to portal.Timeouts, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{Driver: d, LoginURL: loginURL, Selectors: sel, Timeouts: to, Log: log}
}

func (m *Manager) Authenticated() bool { return m.authenticated }

// Logout forgets the cached login so the next Login signs in again.
func (m *Manager) Logout() { m.authenticated = false }

// Login signs in with creds unless the session is already authenticated.
// A missing login form yields ErrNavigationTimeout; a missing signed-in marker
// after submitting yields ErrAuthenticationFailed. Neither is retried.
func (m *Manager) Login(ctx context.Context, creds portal.Credentials) error {
	if m.authenticated {
		return nil
	}
	if err := m.Driver.Navigate(ctx, m.LoginURL); err != nil {
		return fmt.Errorf("%w: open login page %s: %v", reservation.ErrNavigationTimeout, m.LoginURL, err)
	}

	user, err := m.Driver.Locate(ctx, m.Selectors.Username, m.Timeouts.Element)
	if err != nil {
		return missing(reservation.ErrNavigationTimeout, "login form", m.Selectors.Username, err)
	}
	if err := m.Driver.SendKeys(ctx, user, creds.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	pass, err := m.Driver.Locate(ctx, m.Selectors.Password, m.Timeouts.Element)
	if err != nil {
		return missing(reservation.ErrNavigationTimeout, "password field", m.Selectors.Password, err)
	}
	if err := m.Driver.SendKeys(ctx, pass, creds.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	submit, err := m.Driver.Locate(ctx, m.Selectors.Submit, m.Timeouts.Element)
	if err != nil {
		return missing(reservation.ErrNavigationTimeout, "login button", m.Selectors.Submit, err)
	}
	if err := m.Driver.Click(ctx, submit); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if _, err := m.Driver.Locate(ctx, m.Selectors.SignedIn, m.Timeouts.Element); err != nil {
		return missing(reservation.ErrAuthenticationFailed, "signed-in marker", m.Selectors.SignedIn, err)
	}

	m.authenticated = true
	m.Log.Info("logged in", zap.String("username", creds.Username))
	return nil
}

// missing builds the error for an indicator that never appeared. Driver
// failures other than a timeout are kept in the chain.
func missing(kind error, what, selector string, err error) error {
	if errors.Is(err, portal.ErrTimeout) {
		return fmt.Errorf("%w: %s %q did not appear", kind, what, selector)
	}
	return fmt.Errorf("%w: %s %q: %w", kind, what, selector, err)
}
