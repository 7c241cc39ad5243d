// Package solver submits reCAPTCHA challenges to the 2captcha service
// and returns solution tokens.
package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the production 2captcha endpoint.
const DefaultBaseURL = "https://2captcha.com"

const notReadyStatus = "CAPCHA_NOT_READY"

// Error is returned for any transport, quota or rejection failure from
// the remote service. It is fatal for the batch; there is no local retry.
type Error struct {
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("solver %s: %s", e.Op, e.Reason)
}

// Client obtains a solution token for a page-scoped challenge.
type Client interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}

// Config controls the TwoCaptcha client.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// TwoCaptcha implements Client over the 2captcha HTTP API: a challenge
// is submitted once and the result polled at a fixed interval until the
// token is ready or the deadline expires.
type TwoCaptcha struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewTwoCaptcha creates a solver client.
func NewTwoCaptcha(cfg Config, logger *zap.Logger) *TwoCaptcha {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &TwoCaptcha{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type apiResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Solve submits the challenge and polls until a token is available.
func (t *TwoCaptcha) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	id, err := t.submit(ctx, siteKey, pageURL)
	if err != nil {
		return "", err
	}
	t.logger.Info("Challenge submitted to solver", zap.String("request_id", id))

	return t.poll(ctx, id)
}

func (t *TwoCaptcha) submit(ctx context.Context, siteKey, pageURL string) (string, error) {
	params := url.Values{}
	params.Set("key", t.cfg.APIKey)
	params.Set("method", "userrecaptcha")
	params.Set("googlekey", siteKey)
	params.Set("pageurl", pageURL)
	params.Set("json", "1")

	resp, err := t.call(ctx, "/in.php", params)
	if err != nil {
		return "", &Error{Op: "submit", Reason: err.Error()}
	}
	if resp.Status != 1 {
		return "", &Error{Op: "submit", Reason: resp.Request}
	}
	return resp.Request, nil
}

func (t *TwoCaptcha) poll(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("key", t.cfg.APIKey)
	params.Set("action", "get")
	params.Set("id", id)
	params.Set("json", "1")

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", &Error{Op: "poll", Reason: ctx.Err().Error()}
		case <-ticker.C:
		}

		resp, err := t.call(ctx, "/res.php", params)
		if err != nil {
			return "", &Error{Op: "poll", Reason: err.Error()}
		}
		if resp.Status == 1 {
			return resp.Request, nil
		}
		if resp.Request != notReadyStatus {
			return "", &Error{Op: "poll", Reason: resp.Request}
		}
		t.logger.Debug("Solution not ready yet", zap.String("request_id", id))
	}
}

func (t *TwoCaptcha) call(ctx context.Context, path string, params url.Values) (apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apiResponse{}, fmt.Errorf("build request: %w", err)
	}

	httpResp, err := t.client.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return apiResponse{}, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return apiResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
