package domain

import (
	"fmt"
	"math"
	"time"
)

// ConfigError reports a missing required credential or setting. Never
// retriable; surfaces as a server error.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set in environment variables", e.Name)
}

// ProviderError reports a non-success HTTP status from an upstream quote
// provider, carrying the status code and raw error body.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

// DataNotFoundError reports a well-formed provider response that is missing
// the expected quote or series for a symbol. For Alpha Vantage this is
// ambiguous by design of the upstream API: it returns the same empty 200
// body when the symbol does not exist and when it is silently throttling the
// caller, so the two causes cannot be told apart here.
type DataNotFoundError struct {
	Provider string
	Symbol   string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("%s: no data found for symbol %s (rate limited or invalid symbol)", e.Provider, e.Symbol)
}

// RateLimitError reports that the local admission gate denied a request
// before any network call was made. RetryAfter is the time until the oldest
// counted request leaves the window.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	return fmt.Sprintf("%s rate limit exceeded, please wait %d seconds", e.Provider, secs)
}

// RetryAfterSeconds returns the wait rounded up to whole seconds, as
// presented to callers.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}
