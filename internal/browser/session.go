// Package browser abstracts the automated browser session behind a
// narrow capability surface so the processing pipeline can be tested
// without driving a real browser.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotVisible indicates a target element was absent or not visible
// within the bounded wait.
var ErrNotVisible = errors.New("element not visible")

// Session is the capability surface of one authenticated browser
// session. Implementations own exactly one browser for the duration of
// a run; calls are strictly sequential.
type Session interface {
	// Open navigates to url and waits for the document to be ready.
	Open(ctx context.Context, url string) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// ClickVisible clicks the first matching element, failing with
	// ErrNotVisible when no visible match appears within the bounded
	// wait.
	ClickVisible(ctx context.Context, selector string) error
	// Type sends text to the first visible element matching selector.
	Type(ctx context.Context, selector, text string) error
	// CurrentURL returns the address of the current page.
	CurrentURL(ctx context.Context) (string, error)
	// PageSource returns the rendered HTML of the current page.
	PageSource(ctx context.Context) (string, error)
	// Attribute reads an attribute from the first matching element.
	Attribute(ctx context.Context, selector, attr string) (string, error)
	// Text reads the visible text of the first matching element,
	// failing with ErrNotVisible when no visible match appears within
	// the bounded wait.
	Text(ctx context.Context, selector string) (string, error)
	// EvaluateScript executes JavaScript in the page, discarding the result.
	EvaluateScript(ctx context.Context, js string) error
	// Close tears the browser down.
	Close() error
}

// Waiter pauses for a settle period. The production implementation is
// Sleep; tests substitute a zero-wait fake.
type Waiter func(ctx context.Context, d time.Duration)

// Sleep blocks for d or until ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
