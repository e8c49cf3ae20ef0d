package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorClass is the coarse category of a provider failure.
type ErrorClass string

const (
	ClassNone          ErrorClass = ""
	ClassAuth          ErrorClass = "auth"
	ClassRateLimited   ErrorClass = "rate_limited"
	ClassQuotaExceeded ErrorClass = "quota_exceeded"
	ClassTimeout       ErrorClass = "timeout"
	ClassUnknown       ErrorClass = "unknown"
)

// ErrAuth indicates the provider rejected the credentials (401/403).
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM provider authentication failed: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrQuotaExceeded indicates the account has exhausted its quota or credit.
// Unlike a rate limit it does not clear by waiting.
type ErrQuotaExceeded struct {
	Err error
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("LLM quota exceeded: %v", e.Err)
}

func (e *ErrQuotaExceeded) Unwrap() error { return e.Err }

// ErrTimeout indicates the request did not complete within its deadline.
type ErrTimeout struct {
	Err error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM request timed out: %v", e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable, or
// failed in a way that fits no other class.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// Classify maps an error returned by a Provider to its ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var (
		auth    *ErrAuth
		rl      *ErrRateLimit
		quota   *ErrQuotaExceeded
		timeout *ErrTimeout
	)
	switch {
	case errors.As(err, &auth):
		return ClassAuth
	case errors.As(err, &quota):
		return ClassQuotaExceeded
	case errors.As(err, &rl):
		return ClassRateLimited
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	default:
		return ClassUnknown
	}
}

// Retryable reports whether a caller may reasonably retry the request.
// Only rate limits and timeouts qualify.
func Retryable(err error) bool {
	switch Classify(err) {
	case ClassRateLimited, ClassTimeout:
		return true
	default:
		return false
	}
}

// RetryAfter returns the provider's suggested wait for a rate-limited error.
func RetryAfter(err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// UserMessage returns a short explanation of err suitable for end users.
func UserMessage(err error) string {
	switch Classify(err) {
	case ClassNone:
		return ""
	case ClassAuth:
		return "The tutor service is misconfigured. Please contact the administrator."
	case ClassRateLimited:
		return "The tutor is getting a lot of questions right now. Please try again in a moment."
	case ClassQuotaExceeded:
		return "The tutor service has run out of capacity. Please try again later."
	case ClassTimeout:
		return "The tutor took too long to respond. Please try again."
	default:
		return "The tutor is unavailable right now. Please try again later."
	}
}

// classifyStatus maps an HTTP status and provider message to a typed error.
// Providers report exhausted credit either as 429 or 402 with a quota message.
func classifyStatus(status int, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrAuth{Err: err}
	case status == http.StatusPaymentRequired || strings.Contains(msg, "quota"):
		return &ErrQuotaExceeded{Err: err}
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &ErrTimeout{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// mapTransportError handles failures that never produced an HTTP status.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ErrTimeout{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ErrProviderUnavailable{Err: err}
}
