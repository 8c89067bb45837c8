package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/securechat/server/core"
	"github.com/securechat/server/ports"
)

// MessageService relays client-encrypted messages between accounts.
// Content stays opaque to the server.
type MessageService struct {
	messages ports.MessageStore
	users    ports.CredentialStore
	logger   zerolog.Logger
}

// NewMessageService creates a new message service
func NewMessageService(messages ports.MessageStore, users ports.CredentialStore, logger zerolog.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// Send stores a message from sender to the receiver named in out.
func (s *MessageService) Send(ctx context.Context, sender string, out core.OutgoingMessage) error {
	if _, err := s.users.FindByUsername(ctx, sender); err != nil {
		return err
	}
	if _, err := s.users.FindByUsername(ctx, out.Receiver); err != nil {
		return err
	}

	msg := &core.Message{
		ID:                  uuid.New().String(),
		Sender:              sender,
		Receiver:            out.Receiver,
		EncryptedContent:    out.EncryptedContent,
		EncryptedSessionKey: out.EncryptedSessionKey,
		Signature:           out.Signature,
		IV:                  out.IV,
		Read:                false,
		SentAt:              time.Now().UTC(),
	}

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	return nil
}

// Inbox lists username's received messages, newest first, without bodies.
func (s *MessageService) Inbox(ctx context.Context, username string) ([]core.MessageSummary, error) {
	msgs, err := s.messages.ListByReceiver(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	summaries := make([]core.MessageSummary, 0, len(msgs))
	for _, msg := range msgs {
		summaries = append(summaries, core.MessageSummary{
			ID:     msg.ID,
			Sender: msg.Sender,
			Read:   msg.Read,
			SentAt: msg.SentAt,
		})
	}
	return summaries, nil
}

// Get returns a full message. Only the receiver may read it.
func (s *MessageService) Get(ctx context.Context, id, username string) (*core.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.Receiver != username {
		return nil, core.ErrAccessDenied
	}
	return msg, nil
}

// MarkRead flags a message as read. Only the receiver may do so.
func (s *MessageService) MarkRead(ctx context.Context, id, username string) error {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.Receiver != username {
		return core.ErrAccessDenied
	}

	msg.Read = true
	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

// Delete removes a message. Only the receiver may delete it.
func (s *MessageService) Delete(ctx context.Context, id, username string) error {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.Receiver != username {
		return core.ErrAccessDenied
	}

	if err := s.messages.DeleteMessage(ctx, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
