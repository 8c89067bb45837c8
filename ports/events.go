package ports

import "context"

// EventPublisher publishes security-relevant events for other systems
// to consume. Publishing is best-effort; failures must not abort the
// operation that triggered the event.
type EventPublisher interface {
	PublishRegistered(ctx context.Context, username string) error
	PublishLockout(ctx context.Context, clientKey string) error
	PublishTwoFactorChanged(ctx context.Context, username string, enabled bool) error
}
