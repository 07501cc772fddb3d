package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/kstonekuan/docs-tree-ai/internal/logger"
	"github.com/kstonekuan/docs-tree-ai/internal/port"
)

// RetryPolicy bounds every generation call: MaxRetries additional attempts
// after the first, with a linearly increasing delay (Delay, 2*Delay, ...)
// between attempts.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy matches the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: 2 * time.Second}
}

// WithRetry wraps a generator so that each operation runs under the
// policy. The wrapper is independent of which operation is retried.
func WithRetry(g port.Generator, policy RetryPolicy) port.Generator {
	return &retryGenerator{inner: g, policy: policy}
}

type retryGenerator struct {
	inner  port.Generator
	policy RetryPolicy
}

func (r *retryGenerator) SummarizeFile(ctx context.Context, relPath, content string) (string, error) {
	return r.policy.do(ctx, func() (string, error) {
		return r.inner.SummarizeFile(ctx, relPath, content)
	})
}

func (r *retryGenerator) SummarizeDirectory(ctx context.Context, name string, childSummaries []string) (string, error) {
	return r.policy.do(ctx, func() (string, error) {
		return r.inner.SummarizeDirectory(ctx, name, childSummaries)
	})
}

func (r *retryGenerator) ProposeCorrection(ctx context.Context, prompt string) (string, error) {
	return r.policy.do(ctx, func() (string, error) {
		return r.inner.ProposeCorrection(ctx, prompt)
	})
}

func (p RetryPolicy) do(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("generation call failed (attempt %d/%d): %v", attempt, p.MaxRetries+1, lastErr)
			select {
			case <-time.After(p.Delay * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", p.MaxRetries+1, lastErr)
}
