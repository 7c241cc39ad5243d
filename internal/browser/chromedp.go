package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Config controls the behavior of the chromedp session.
type Config struct {
	Headless      bool
	UserAgent     string
	ProfileDir    string
	ActionTimeout time.Duration
	VisibleWait   time.Duration
}

// ChromedpSession implements Session using chromedp and headless
// Chrome. The browser profile persists in ProfileDir so cookies
// survive across runs.
type ChromedpSession struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *zap.Logger
}

// NewChromedp launches a browser session backed by chromedp.
func NewChromedp(cfg Config, logger *zap.Logger) (*ChromedpSession, error) {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 45 * time.Second
	}
	if cfg.VisibleWait <= 0 {
		cfg.VisibleWait = 5 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	logger.Info("Browser session started",
		zap.Bool("headless", cfg.Headless),
		zap.String("profile_dir", cfg.ProfileDir),
	)

	return &ChromedpSession{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (s *ChromedpSession) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

// Open navigates to url and waits for the document body to be ready.
func (s *ChromedpSession) Open(ctx context.Context, url string) error {
	actions := []chromedp.Action{
		s.networkSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := s.run(ctx, s.cfg.ActionTimeout, actions...); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (s *ChromedpSession) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// ClickVisible clicks the first visible element matching selector,
// mapping a bounded-wait timeout to ErrNotVisible.
func (s *ChromedpSession) ClickVisible(ctx context.Context, selector string) error {
	err := s.run(ctx, s.cfg.VisibleWait, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("click %s: %w", selector, ErrNotVisible)
		}
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Type sends text to the first visible element matching selector,
// mapping a bounded-wait timeout to ErrNotVisible.
func (s *ChromedpSession) Type(ctx context.Context, selector, text string) error {
	err := s.run(ctx, s.cfg.VisibleWait, chromedp.SendKeys(selector, text, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("type into %s: %w", selector, ErrNotVisible)
		}
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// CurrentURL returns the address of the current page.
func (s *ChromedpSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// PageSource returns the fully rendered DOM of the current page.
func (s *ChromedpSession) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

// Attribute reads an attribute from the first matching element.
func (s *ChromedpSession) Attribute(ctx context.Context, selector, attr string) (string, error) {
	var (
		value string
		ok    bool
	)
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.AttributeValue(selector, attr, &value, &ok, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("read attribute %s of %s: %w", attr, selector, err)
	}
	if !ok {
		return "", fmt.Errorf("attribute %s of %s not present", attr, selector)
	}
	return value, nil
}

// Text reads the visible text of the first matching element, mapping a
// bounded-wait timeout to ErrNotVisible.
func (s *ChromedpSession) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx, s.cfg.VisibleWait, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("read text of %s: %w", selector, ErrNotVisible)
		}
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return text, nil
}

// EvaluateScript executes JavaScript in the page, discarding the result.
func (s *ChromedpSession) EvaluateScript(ctx context.Context, js string) error {
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

func (s *ChromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	stopForward := forwardCancel(ctx, cancel)
	defer stopForward()

	return chromedp.Run(taskCtx, actions...)
}

func (s *ChromedpSession) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
