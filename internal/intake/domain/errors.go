package domain

import (
	"errors"
	"fmt"
	"time"
)

// Caller input errors. None of them are retried by the service.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrInvalidField   = errors.New("message must be a string")
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message too long")
)

// ErrNotConfigured means the relay destination is missing. It is an operator problem.
var ErrNotConfigured = errors.New("relay destination not configured")

// ErrRateLimited is returned while the cooldown for a source key is active.
var ErrRateLimited = errors.New("rate limited")

// ErrRelayFailed wraps any failure of the outbound notification call.
var ErrRelayFailed = errors.New("relay failed")

// ErrLedgerUnavailable reports that the cooldown ledger backend could not be read or written.
var ErrLedgerUnavailable = errors.New("cooldown ledger unavailable")

// CooldownError は RateLimited の詳細 (残り待機時間) を保持する。
type CooldownError struct {
	SourceKey  string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active for %q: retry after %s", e.SourceKey, e.RetryAfter)
}

func (e *CooldownError) Unwrap() error {
	return ErrRateLimited
}

// IsClientError reports whether err is one of the 400-class input errors.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong)
}
