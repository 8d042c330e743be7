package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrMaxRetries          = errors.New("max retries exceeded")
	ErrAllStrategiesFailed = errors.New("all rendering strategies exhausted")
	ErrNoSections          = errors.New("no usable sections found")
	ErrBodyTooShort        = errors.New("extracted body below minimum length")
	ErrTooFewTeams         = errors.New("not enough teams for matchup selection")
	ErrNoUsableRows        = errors.New("no usable rows in payload")
	ErrInvalidURL          = errors.New("invalid URL")
	ErrNoBrowser           = errors.New("headless browser not configured")
)

// FetchError wraps errors that occur during HTTP retrieval.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ChallengeError reports an anti-bot interstitial recognized by content
// signature. It triggers fallback to the next rendering strategy and is fatal
// only once every strategy has been exhausted.
type ChallengeError struct {
	URL    string
	Marker string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("anti-bot challenge detected for %s (marker %q)", e.URL, e.Marker)
}

// ExtractError reports insufficient content after all extraction strategies.
type ExtractError struct {
	URL string
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ValidationError reports a shape mismatch from an external data source.
// Individual malformed rows are skipped; it is surfaced only when zero usable
// rows remain.
type ValidationError struct {
	Source string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload from %s: %v", e.Source, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
