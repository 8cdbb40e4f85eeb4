package lamini

import (
	"time"

	"github.com/zoobzio/pipz"
)

// Option wraps the inference queue's submission pipeline with a
// reliability layer. Options compose: each wraps the pipeline built so
// far, so order matters (a timeout inside a retry bounds each attempt, a
// timeout outside bounds the whole sequence).
type Option func(pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall]

// WithRetry re-submits a failed batch up to maxAttempts times before its
// items are delivered with Err set.
func WithRetry(maxAttempts int) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		return pipz.NewRetry("retry", pipeline, maxAttempts)
	}
}

// WithBackoff is WithRetry with a delay between attempts, starting at
// baseDelay and doubling after each failure.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		return pipz.NewBackoff("backoff", pipeline, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds each batch exchange; one that runs over is canceled
// and counts as a failure.
func WithTimeout(duration time.Duration) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		return pipz.NewTimeout("timeout", pipeline, duration)
	}
}

// WithCircuitBreaker stops submitting batches for the recovery duration
// after the given number of consecutive failures, failing fast instead of
// hammering an unhealthy endpoint.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		return pipz.NewCircuitBreaker("circuit-breaker", pipeline, failures, recovery)
	}
}

// WithRateLimit throttles batch submissions to rps per second with the
// given burst capacity. Useful when the account's platform rate limit is
// lower than the pipeline's natural throughput.
func WithRateLimit(rps float64, burst int) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		rateLimiter := pipz.NewRateLimiter[*InferenceCall]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", rateLimiter, pipeline)
	}
}

// WithErrorHandler observes batch failures without changing the outcome:
// the handler sees the failed call and its error, then the failure
// continues to the batch's items as usual.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*InferenceCall]]) Option {
	return func(pipeline pipz.Chainable[*InferenceCall]) pipz.Chainable[*InferenceCall] {
		return pipz.NewHandle("error-handler", pipeline, handler)
	}
}
