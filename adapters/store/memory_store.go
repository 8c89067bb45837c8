package store

import (
	"context"
	"sort"
	"sync"

	"github.com/securechat/server/core"
	"github.com/securechat/server/ports"
)

var (
	_ ports.CredentialStore = (*MemoryStore)(nil)
	_ ports.MessageStore    = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory implementation of CredentialStore and
// MessageStore. It is primarily intended for testing and for running
// the server without a database file.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]core.UserCredential // keyed by username
	byEmail     map[string]string              // email -> username
	messages    map[string]core.Message        // keyed by message id
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]core.UserCredential),
		byEmail:     make(map[string]string),
		messages:    make(map[string]core.Message),
	}
}

// FindByUsername returns the credential for username
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*core.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[username]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return &cred, nil
}

// FindByEmail returns the credential registered under email
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*core.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, ok := s.byEmail[email]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cred := s.credentials[username]
	return &cred, nil
}

// ExistsByUsername reports whether username is taken
func (s *MemoryStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.credentials[username]
	return ok, nil
}

// ExistsByEmail reports whether email is taken
func (s *MemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

// Save upserts a credential by username. The record is stored by
// value so later mutations of cred do not leak into the store.
func (s *MemoryStore) Save(ctx context.Context, cred *core.UserCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[cred.Username] = *cred
	s.byEmail[cred.Email] = cred.Username
	return nil
}

// Delete removes a credential
func (s *MemoryStore) Delete(ctx context.Context, cred *core.UserCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.credentials, cred.Username)
	delete(s.byEmail, cred.Email)
	return nil
}

// SaveMessage stores a message
func (s *MemoryStore) SaveMessage(ctx context.Context, msg *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ID] = *msg
	return nil
}

// ListByReceiver returns receiver's messages, newest first
func (s *MemoryStore) ListByReceiver(ctx context.Context, receiver string) ([]*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Message
	for id := range s.messages {
		msg := s.messages[id]
		if msg.Receiver == receiver {
			out = append(out, &msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

// FindByID returns the message with the given id
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, core.ErrMessageNotFound
	}
	return &msg, nil
}

// DeleteMessage removes the message with the given id
func (s *MemoryStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, id)
	return nil
}
