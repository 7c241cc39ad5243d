// Package auth establishes an authenticated Google session in the
// browser, reusing a previously persisted profile when possible.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rageshhub/youtube-email-scraper/internal/browser"
)

// ErrAuthentication indicates the login flow failed. Fatal for the
// batch; there is no retry.
var ErrAuthentication = errors.New("authentication failed")

const (
	accountsURL         = "https://accounts.google.com/"
	authenticatedMarker = "myaccount"

	identifierSelector = `input[name="identifier"]`
	identifierNext     = "#identifierNext"
	passwordSelector   = `input[type="password"]`
	passwordNext       = "#passwordNext"
)

// Config controls the Authenticator.
type Config struct {
	Email    string
	Password string
	// Settle is the fixed pause after each credential submission.
	Settle time.Duration
}

// Authenticator performs the two-step credential submission, skipping
// it entirely when the persisted profile is already signed in.
type Authenticator struct {
	cfg    Config
	wait   browser.Waiter
	logger *zap.Logger
}

// New creates an Authenticator.
func New(cfg Config, wait browser.Waiter, logger *zap.Logger) *Authenticator {
	if cfg.Settle <= 0 {
		cfg.Settle = 5 * time.Second
	}
	if wait == nil {
		wait = browser.Sleep
	}
	return &Authenticator{cfg: cfg, wait: wait, logger: logger}
}

// EnsureAuthenticated opens the identity provider's account page and,
// unless the current address already indicates an authenticated account
// area, submits the login identifier and secret in two steps.
func (a *Authenticator) EnsureAuthenticated(ctx context.Context, session browser.Session) error {
	a.logger.Info("Checking account authentication state")

	if err := session.Open(ctx, accountsURL); err != nil {
		return a.fail("open account page", err)
	}

	current, err := session.CurrentURL(ctx)
	if err != nil {
		return a.fail("read current address", err)
	}
	if strings.Contains(current, authenticatedMarker) {
		a.logger.Info("Already authenticated, reusing persisted session")
		return nil
	}

	a.logger.Info("Submitting credentials")
	if err := session.Type(ctx, identifierSelector, a.cfg.Email); err != nil {
		return a.fail("enter identifier", err)
	}
	if err := session.ClickVisible(ctx, identifierNext); err != nil {
		return a.fail("submit identifier", err)
	}
	a.wait(ctx, a.cfg.Settle)

	if err := session.Type(ctx, passwordSelector, a.cfg.Password); err != nil {
		return a.fail("enter secret", err)
	}
	if err := session.ClickVisible(ctx, passwordNext); err != nil {
		return a.fail("submit secret", err)
	}
	a.wait(ctx, a.cfg.Settle)

	a.logger.Info("Authentication flow completed")
	return nil
}

func (a *Authenticator) fail(step string, err error) error {
	a.logger.Error("Authentication step failed", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("%s: %w: %w", step, err, ErrAuthentication)
}
