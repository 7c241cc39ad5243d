// Package scraper drives a logged-in browser session through each
// channel page, solves the contact-reveal challenge, and persists the
// extracted email back into the record store.
package scraper

import "errors"

// State tracks how far a record progressed through the pipeline.
type State string

const (
	StatePending                     State = "pending"
	StateNavigated                   State = "navigated"
	StateChallengeTriggered          State = "challenge_triggered"
	StateChallengeSolved             State = "challenge_solved"
	StateExtracted                   State = "extracted"
	StatePersisted                   State = "persisted"
	StateSkippedPreResolved          State = "skipped_pre_resolved"
	StateSkippedChallengeUnavailable State = "skipped_challenge_unavailable"
)

// ErrChallengeUnavailable indicates the reveal control was absent from
// the page, typically because the account hit its daily quota.
var ErrChallengeUnavailable = errors.New("challenge unavailable")

// ErrExtractionLimit indicates the challenge was solved and submitted
// but the contact value never appeared.
var ErrExtractionLimit = errors.New("contact extraction limit reached")
