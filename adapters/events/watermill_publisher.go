package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/securechat/server/ports"
)

const (
	// TopicRegistered carries new-account events
	TopicRegistered = "securechat.user.registered"

	// TopicLockout carries rate-limit lockout events
	TopicLockout = "securechat.auth.lockout"

	// TopicTwoFactor carries 2FA enable/disable events
	TopicTwoFactor = "securechat.auth.twofactor"
)

// RegisteredEvent is published when a new account is created
type RegisteredEvent struct {
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LockoutEvent is published when a locked-out client is rejected
type LockoutEvent struct {
	ClientKey  string    `json:"client_key"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TwoFactorEvent is published when 2FA is enabled or disabled
type TwoFactorEvent struct {
	Username   string    `json:"username"`
	Enabled    bool      `json:"enabled"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishRegistered publishes a new-account event
func (p *WatermillPublisher) PublishRegistered(ctx context.Context, username string) error {
	return p.publish(TopicRegistered, RegisteredEvent{Username: username, OccurredAt: time.Now().UTC()})
}

// PublishLockout publishes a lockout event
func (p *WatermillPublisher) PublishLockout(ctx context.Context, clientKey string) error {
	return p.publish(TopicLockout, LockoutEvent{ClientKey: clientKey, OccurredAt: time.Now().UTC()})
}

// PublishTwoFactorChanged publishes a 2FA state-change event
func (p *WatermillPublisher) PublishTwoFactorChanged(ctx context.Context, username string, enabled bool) error {
	return p.publish(TopicTwoFactor, TwoFactorEvent{Username: username, Enabled: enabled, OccurredAt: time.Now().UTC()})
}
