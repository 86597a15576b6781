// Package ratelimit implements consume-or-fail quotas keyed by an arbitrary
// string, typically "action:ip:email".
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// ExceededError is returned by Consume when the key has no points left.
type ExceededError struct {
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *ExceededError) Unwrap() error {
	return ErrLimitExceeded
}

// RetryAfter extracts the wait hint from err, or zero.
func RetryAfter(err error) time.Duration {
	var e *ExceededError
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

type Limiter interface {
	// Consume spends one point for key. It returns an error wrapping
	// ErrLimitExceeded when the window is exhausted.
	Consume(ctx context.Context, key string) error
}

// Actions used as the first key segment.
const (
	ActionSignIn = "customer_sign_in"
	ActionSignUp = "customer_sign_up"
)

// Key builds "action:ip:email" with the email normalised.
func Key(action, ip, email string) string {
	return action + ":" + ip + ":" + strings.ToLower(strings.TrimSpace(email))
}
