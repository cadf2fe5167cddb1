// Package llm defines the completion capability consumed by extraction
// and synthesis, plus the shared retry and response-parsing mechanics.
// Transport is a collaborator concern: core components only see the
// Completer interface.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kontext/internal/kerrors"
	"kontext/internal/logging"
)

// Completer is the completion capability: one synchronous request, one
// text completion. Rate limiting is signaled by wrapping
// kerrors.ErrRateLimited; any other error is a permanent API failure.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RetryPolicy bounds the retry loop for rate-limited calls
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the extraction pipeline contract: three
// attempts with an exponential backoff starting at two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// CallWithBackoff runs fn, retrying on rate-limit signals with
// exponential backoff (the delay doubles each attempt). Permanent API
// errors are returned immediately without retry. This is the single
// retry primitive shared by every extraction and synthesis call site.
func CallWithBackoff(ctx context.Context, logger *logging.Logger, policy RetryPolicy, fn func() (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, kerrors.ErrRateLimited) {
			return "", err
		}

		lastErr = err
		if attempt < policy.MaxAttempts-1 {
			delay := policy.BaseDelay * (1 << attempt)
			logger.Warn("Rate limited, retrying", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}

// sleep blocks for the given duration or until the context is canceled
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseFencedJSON strips optional triple-backtick code fencing from a
// model response and unmarshals the remainder into v. This is the
// defensive parse boundary: malformed output becomes an error for the
// caller to downgrade, never a panic.
func ParseFencedJSON(text string, v interface{}) error {
	text = StripCodeFence(text)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return kerrors.New(kerrors.ParseError, "model response is not valid JSON", err)
	}
	return nil
}

// StripCodeFence removes a surrounding ``` or ```json fence if present
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = text[3:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
