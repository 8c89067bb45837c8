package ports

import "context"

// RateLimiter tracks consecutive authentication failures per client
// key and enforces a temporary lockout once a threshold is crossed.
type RateLimiter interface {
	// CheckAllowed returns core.ErrRateLimited while a lockout is
	// active for key. An expired lockout is cleared and the request
	// is allowed.
	CheckAllowed(ctx context.Context, key string) error

	// RecordFailure increments the failure counter for key and starts
	// a lockout when the counter reaches the threshold. Concurrent
	// failures must never be under-counted.
	RecordFailure(ctx context.Context, key string) error

	// RecordSuccess clears the failure counter and any lockout for key.
	RecordSuccess(ctx context.Context, key string) error
}
