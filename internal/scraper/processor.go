package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rageshhub/youtube-email-scraper/internal/browser"
	"github.com/rageshhub/youtube-email-scraper/internal/metrics"
	"github.com/rageshhub/youtube-email-scraper/internal/store"
)

// RecordStore persists the outcome of a processed record.
type RecordStore interface {
	MarkResolved(ctx context.Context, channelURL, email string) error
}

// ChallengeSolver exchanges a challenge site key for a response token.
type ChallengeSolver interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}

// Selectors identifies the page elements the processor interacts with.
type Selectors struct {
	Tagline          string
	ChallengeTrigger string
	Challenge        string
	SiteKeyAttr      string
	ResponseField    string
	Submit           string
	Result           string
}

// DefaultSelectors returns the selectors for the current channel page
// layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Tagline:          "#channel-tagline",
		ChallengeTrigger: "#view-email-button-container",
		Challenge:        "#recaptcha",
		SiteKeyAttr:      "data-sitekey",
		ResponseField:    "g-recaptcha-response",
		Submit:           "#submit-btn > span",
		Result:           "#email",
	}
}

// Config controls the per-record pipeline.
type Config struct {
	Selectors      Selectors
	NavigateSettle time.Duration
	SubmitSettle   time.Duration
}

// Processor runs a single record through the reveal pipeline.
type Processor struct {
	session browser.Session
	solver  ChallengeSolver
	store   RecordStore
	wait    browser.Waiter
	cfg     Config
	logger  *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(session browser.Session, solver ChallengeSolver, recordStore RecordStore, wait browser.Waiter, cfg Config, logger *zap.Logger) *Processor {
	if wait == nil {
		wait = browser.Sleep
	}
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = DefaultSelectors()
	}
	if cfg.NavigateSettle <= 0 {
		cfg.NavigateSettle = 5 * time.Second
	}
	if cfg.SubmitSettle <= 0 {
		cfg.SubmitSettle = time.Second
	}
	return &Processor{
		session: session,
		solver:  solver,
		store:   recordStore,
		wait:    wait,
		cfg:     cfg,
		logger:  logger,
	}
}

// Process advances rec through the pipeline and returns the state it
// reached. Records that already carry an email are skipped without
// touching the browser.
func (p *Processor) Process(ctx context.Context, rec store.Record) (State, error) {
	logger := p.logger.With(zap.String("channel_url", rec.ChannelURL))

	if rec.Email != "" {
		logger.Info("Record already resolved, skipping")
		return StateSkippedPreResolved, nil
	}

	if err := p.session.Open(ctx, rec.ChannelURL); err != nil {
		return StatePending, fmt.Errorf("open channel page: %w", err)
	}
	p.wait(ctx, p.cfg.NavigateSettle)
	p.dismissOverlay(ctx, logger)
	logger.Info("State transition", zap.String("state", string(StateNavigated)))

	if err := p.session.ClickVisible(ctx, p.cfg.Selectors.ChallengeTrigger); err != nil {
		if errors.Is(err, browser.ErrNotVisible) {
			logger.Warn("Reveal control not present on page")
			return StateSkippedChallengeUnavailable, ErrChallengeUnavailable
		}
		return StateNavigated, fmt.Errorf("trigger challenge: %w", err)
	}
	logger.Info("State transition", zap.String("state", string(StateChallengeTriggered)))

	token, err := p.solveChallenge(ctx, logger)
	if err != nil {
		return StateChallengeTriggered, err
	}
	logger.Info("State transition", zap.String("state", string(StateChallengeSolved)))

	email, err := p.submitAndExtract(ctx, token)
	if err != nil {
		return StateChallengeSolved, err
	}
	logger.Info("State transition",
		zap.String("state", string(StateExtracted)),
		zap.String("email", email))

	if err := p.store.MarkResolved(ctx, rec.ChannelURL, email); err != nil {
		return StateExtracted, fmt.Errorf("persist record: %w", err)
	}
	logger.Info("State transition", zap.String("state", string(StatePersisted)))
	return StatePersisted, nil
}

// dismissOverlay clicks the tagline to close any popover obscuring the
// page. The tagline is not always rendered, so failure is ignored.
func (p *Processor) dismissOverlay(ctx context.Context, logger *zap.Logger) {
	if err := p.session.ClickVisible(ctx, p.cfg.Selectors.Tagline); err != nil {
		logger.Debug("Tagline not clickable", zap.Error(err))
	}
}

func (p *Processor) solveChallenge(ctx context.Context, logger *zap.Logger) (string, error) {
	siteKey, err := p.session.Attribute(ctx, p.cfg.Selectors.Challenge, p.cfg.Selectors.SiteKeyAttr)
	if err != nil {
		return "", fmt.Errorf("read challenge site key: %w", err)
	}
	pageURL, err := p.session.CurrentURL(ctx)
	if err != nil {
		return "", fmt.Errorf("read page address: %w", err)
	}

	logger.Info("Requesting challenge solution", zap.String("site_key", siteKey))
	token, err := p.solver.Solve(ctx, siteKey, pageURL)
	if err != nil {
		metrics.ObserveSolve("error")
		return "", fmt.Errorf("solve challenge: %w", err)
	}
	metrics.ObserveSolve("ok")
	return token, nil
}

func (p *Processor) submitAndExtract(ctx context.Context, token string) (string, error) {
	script := fmt.Sprintf(
		`document.getElementById(%q).value = %q;`,
		p.cfg.Selectors.ResponseField, token,
	)
	if err := p.session.EvaluateScript(ctx, script); err != nil {
		return "", fmt.Errorf("inject challenge response: %w", err)
	}
	p.wait(ctx, p.cfg.SubmitSettle)

	if err := p.session.Click(ctx, p.cfg.Selectors.Submit); err != nil {
		return "", fmt.Errorf("submit challenge response: %w", err)
	}
	p.wait(ctx, p.cfg.SubmitSettle)

	email, err := p.session.Text(ctx, p.cfg.Selectors.Result)
	if err != nil || strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("read contact value: %w", ErrExtractionLimit)
	}
	return strings.TrimSpace(email), nil
}
