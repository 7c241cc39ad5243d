package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rageshhub/youtube-email-scraper/internal/browser"
	"github.com/rageshhub/youtube-email-scraper/internal/store"
)

// fakeSession simulates a channel page with a solvable challenge.
type fakeSession struct {
	opened    []string
	clicked   []string
	scripts   []string
	clickErr  map[string]error
	attrs     map[string]string
	texts     map[string]string
	source    string
	pageURL   string
}

func newPageSession() *fakeSession {
	return &fakeSession{
		clickErr: map[string]error{},
		attrs:    map[string]string{"#recaptcha": "site-key-123"},
		texts:    map[string]string{"#email": "creator@example.com"},
		pageURL:  "https://youtube.com/c/acme/about",
	}
}

func (f *fakeSession) Open(_ context.Context, url string) error {
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeSession) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	return f.clickErr[selector]
}

func (f *fakeSession) ClickVisible(ctx context.Context, selector string) error {
	return f.Click(ctx, selector)
}

func (f *fakeSession) Type(context.Context, string, string) error { return nil }

func (f *fakeSession) CurrentURL(context.Context) (string, error) { return f.pageURL, nil }

func (f *fakeSession) PageSource(context.Context) (string, error) { return f.source, nil }

func (f *fakeSession) Attribute(_ context.Context, selector, _ string) (string, error) {
	v, ok := f.attrs[selector]
	if !ok {
		return "", fmt.Errorf("attribute on %s: %w", selector, browser.ErrNotVisible)
	}
	return v, nil
}

func (f *fakeSession) Text(_ context.Context, selector string) (string, error) {
	v, ok := f.texts[selector]
	if !ok {
		return "", fmt.Errorf("text of %s: %w", selector, browser.ErrNotVisible)
	}
	return v, nil
}

func (f *fakeSession) EvaluateScript(_ context.Context, script string) error {
	f.scripts = append(f.scripts, script)
	return nil
}

func (f *fakeSession) Close() error { return nil }

type fakeSolver struct {
	token    string
	err      error
	siteKeys []string
	pageURLs []string
}

func (s *fakeSolver) Solve(_ context.Context, siteKey, pageURL string) (string, error) {
	s.siteKeys = append(s.siteKeys, siteKey)
	s.pageURLs = append(s.pageURLs, pageURL)
	return s.token, s.err
}

type fakeStore struct {
	resolved map[string]string
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{resolved: map[string]string{}}
}

func (s *fakeStore) MarkResolved(_ context.Context, channelURL, email string) error {
	if s.err != nil {
		return s.err
	}
	s.resolved[channelURL] = email
	return nil
}

func zeroWait(context.Context, time.Duration) {}

func newTestProcessor(session *fakeSession, solver *fakeSolver, recordStore *fakeStore) *Processor {
	return NewProcessor(session, solver, recordStore, zeroWait, Config{}, zap.NewNop())
}

func TestProcessResolvesRecord(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	solver := &fakeSolver{token: "token-abc"}
	recordStore := newFakeStore()
	p := newTestProcessor(session, solver, recordStore)

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.NoError(t, err)
	require.Equal(t, StatePersisted, state)

	require.Equal(t, []string{"https://youtube.com/c/acme"}, session.opened)
	require.Equal(t, []string{"site-key-123"}, solver.siteKeys)
	require.Equal(t, []string{session.pageURL}, solver.pageURLs)
	require.Equal(t,
		[]string{`document.getElementById("g-recaptcha-response").value = "token-abc";`},
		session.scripts)
	require.Equal(t, "creator@example.com", recordStore.resolved["https://youtube.com/c/acme"])
}

func TestProcessSkipsResolvedRecord(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	recordStore := newFakeStore()
	p := newTestProcessor(session, &fakeSolver{}, recordStore)

	state, err := p.Process(context.Background(), store.Record{
		ChannelURL: "https://youtube.com/c/acme",
		Email:      "already@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, StateSkippedPreResolved, state)
	require.Empty(t, session.opened)
	require.Empty(t, recordStore.resolved)
}

func TestProcessChallengeUnavailable(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	session.clickErr["#view-email-button-container"] = fmt.Errorf("click: %w", browser.ErrNotVisible)
	p := newTestProcessor(session, &fakeSolver{}, newFakeStore())

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.ErrorIs(t, err, ErrChallengeUnavailable)
	require.Equal(t, StateSkippedChallengeUnavailable, state)
	require.Empty(t, session.scripts)
}

func TestProcessSolverFailure(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	solver := &fakeSolver{err: errors.New("ERROR_CAPTCHA_UNSOLVABLE")}
	recordStore := newFakeStore()
	p := newTestProcessor(session, solver, recordStore)

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.Error(t, err)
	require.Equal(t, StateChallengeTriggered, state)
	require.Empty(t, recordStore.resolved)
}

func TestProcessExtractionLimit(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	delete(session.texts, "#email")
	// Unrelated addresses elsewhere in the page must not be persisted
	// in place of the missing result element.
	session.source = `<html><body><footer>support: helpdesk@video-ops.example</footer></body></html>`
	recordStore := newFakeStore()
	p := newTestProcessor(session, &fakeSolver{token: "token-abc"}, recordStore)

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.ErrorIs(t, err, ErrExtractionLimit)
	require.Equal(t, StateChallengeSolved, state)
	require.Empty(t, recordStore.resolved)
}

func TestProcessExtractionLimitOnEmptyResult(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	session.texts["#email"] = "   "
	recordStore := newFakeStore()
	p := newTestProcessor(session, &fakeSolver{token: "token-abc"}, recordStore)

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.ErrorIs(t, err, ErrExtractionLimit)
	require.Equal(t, StateChallengeSolved, state)
	require.Empty(t, recordStore.resolved)
}

func TestProcessProceedsWithoutTagline(t *testing.T) {
	t.Parallel()

	session := newPageSession()
	session.clickErr["#channel-tagline"] = fmt.Errorf("click: %w", browser.ErrNotVisible)
	recordStore := newFakeStore()
	p := newTestProcessor(session, &fakeSolver{token: "token-abc"}, recordStore)

	state, err := p.Process(context.Background(), store.Record{ChannelURL: "https://youtube.com/c/acme"})
	require.NoError(t, err)
	require.Equal(t, StatePersisted, state)
}
