package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rageshhub/youtube-email-scraper/internal/browser"
	"github.com/rageshhub/youtube-email-scraper/internal/metrics"
	"github.com/rageshhub/youtube-email-scraper/internal/store"
)

// Authenticator establishes a signed-in session before the batch runs.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context, session browser.Session) error
}

// RecordProcessor advances one record through the pipeline.
type RecordProcessor interface {
	Process(ctx context.Context, rec store.Record) (State, error)
}

// RunnerConfig controls batch behavior.
type RunnerConfig struct {
	// HaltOnUnavailable stops the batch when the reveal control is
	// missing, on the assumption that the account quota is exhausted
	// and later records would fail the same way.
	HaltOnUnavailable bool
}

// Runner processes a batch of records in store order.
type Runner struct {
	auth      Authenticator
	session   browser.Session
	processor RecordProcessor
	cfg       RunnerConfig
	logger    *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(auth Authenticator, session browser.Session, processor RecordProcessor, cfg RunnerConfig, logger *zap.Logger) *Runner {
	return &Runner{
		auth:      auth,
		session:   session,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run authenticates once and then processes every record in order. A
// missing reveal control halts the batch cleanly when configured to;
// any other failure aborts with an error.
func (r *Runner) Run(ctx context.Context, records []store.Record) error {
	metrics.ObserveBatchRun()
	r.logger.Info("Starting batch", zap.Int("records", len(records)))

	if err := r.auth.EnsureAuthenticated(ctx, r.session); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := r.processor.Process(ctx, rec)
		metrics.ObserveRecord(string(state))

		switch {
		case err == nil:
		case errors.Is(err, ErrChallengeUnavailable):
			if r.cfg.HaltOnUnavailable {
				r.logger.Warn("Reveal control unavailable, halting batch",
					zap.String("channel_url", rec.ChannelURL),
					zap.Int("remaining", len(records)-i-1))
				return nil
			}
			r.logger.Warn("Reveal control unavailable, continuing",
				zap.String("channel_url", rec.ChannelURL))
		default:
			return fmt.Errorf("process %s: %w", rec.ChannelURL, err)
		}
	}

	r.logger.Info("Batch completed", zap.Int("records", len(records)))
	return nil
}
