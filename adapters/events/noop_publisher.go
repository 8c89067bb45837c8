package events

import (
	"context"

	"github.com/securechat/server/ports"
)

// NoopPublisher discards all events. Used when no broker is configured
// and in tests.
type NoopPublisher struct{}

// NewNoopPublisher creates a new NoopPublisher
func NewNoopPublisher() ports.EventPublisher {
	return NoopPublisher{}
}

// PublishRegistered discards the event
func (NoopPublisher) PublishRegistered(ctx context.Context, username string) error { return nil }

// PublishLockout discards the event
func (NoopPublisher) PublishLockout(ctx context.Context, clientKey string) error { return nil }

// PublishTwoFactorChanged discards the event
func (NoopPublisher) PublishTwoFactorChanged(ctx context.Context, username string, enabled bool) error {
	return nil
}
