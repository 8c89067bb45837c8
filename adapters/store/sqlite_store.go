package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/securechat/server/core"
	"github.com/securechat/server/ports"
)

var (
	_ ports.CredentialStore = (*SQLiteStore)(nil)
	_ ports.MessageStore    = (*SQLiteStore)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username              TEXT PRIMARY KEY,
	email                 TEXT NOT NULL UNIQUE,
	password_hash         TEXT NOT NULL,
	public_key            TEXT NOT NULL,
	encrypted_private_key TEXT NOT NULL,
	key_salt              TEXT NOT NULL,
	two_factor_secret     TEXT NOT NULL DEFAULT '',
	two_factor_enabled    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	id                    TEXT PRIMARY KEY,
	sender                TEXT NOT NULL,
	receiver              TEXT NOT NULL,
	encrypted_content     TEXT NOT NULL,
	encrypted_session_key TEXT NOT NULL,
	signature             TEXT NOT NULL,
	iv                    TEXT NOT NULL,
	read                  INTEGER NOT NULL DEFAULT 0,
	sent_at               INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver, sent_at);
`

// SQLiteStore implements CredentialStore and MessageStore on a local
// SQLite database, keeping the server a single static binary.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) findCredential(ctx context.Context, where, arg string) (*core.UserCredential, error) {
	var cred core.UserCredential
	err := s.db.QueryRowContext(ctx,
		`SELECT username, email, password_hash, public_key, encrypted_private_key,
		        key_salt, two_factor_secret, two_factor_enabled
		 FROM users WHERE `+where, arg,
	).Scan(&cred.Username, &cred.Email, &cred.PasswordHash, &cred.PublicKey,
		&cred.EncryptedPrivateKey, &cred.KeySalt, &cred.TwoFactorSecret, &cred.TwoFactorEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &cred, nil
}

// FindByUsername returns the credential for username
func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (*core.UserCredential, error) {
	return s.findCredential(ctx, "username = ?", username)
}

// FindByEmail returns the credential registered under email
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*core.UserCredential, error) {
	return s.findCredential(ctx, "email = ?", email)
}

// ExistsByUsername reports whether username is taken
func (s *SQLiteStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username = ?", username)
}

// ExistsByEmail reports whether email is taken
func (s *SQLiteStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email = ?", email)
}

func (s *SQLiteStore) exists(ctx context.Context, where, arg string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE "+where, arg).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// Save upserts a credential by username
func (s *SQLiteStore) Save(ctx context.Context, cred *core.UserCredential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, public_key,
		                    encrypted_private_key, key_salt, two_factor_secret, two_factor_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
		   email = excluded.email,
		   password_hash = excluded.password_hash,
		   public_key = excluded.public_key,
		   encrypted_private_key = excluded.encrypted_private_key,
		   key_salt = excluded.key_salt,
		   two_factor_secret = excluded.two_factor_secret,
		   two_factor_enabled = excluded.two_factor_enabled`,
		cred.Username, cred.Email, cred.PasswordHash, cred.PublicKey,
		cred.EncryptedPrivateKey, cred.KeySalt, cred.TwoFactorSecret, cred.TwoFactorEnabled)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete removes a credential
func (s *SQLiteStore) Delete(ctx context.Context, cred *core.UserCredential) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", cred.Username); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// SaveMessage stores a message
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *core.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender, receiver, encrypted_content,
		                       encrypted_session_key, signature, iv, read, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET read = excluded.read`,
		msg.ID, msg.Sender, msg.Receiver, msg.EncryptedContent,
		msg.EncryptedSessionKey, msg.Signature, msg.IV, msg.Read, msg.SentAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// ListByReceiver returns receiver's messages, newest first
func (s *SQLiteStore) ListByReceiver(ctx context.Context, receiver string) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, receiver, encrypted_content, encrypted_session_key,
		        signature, iv, read, sent_at
		 FROM messages WHERE receiver = ? ORDER BY sent_at DESC`, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*core.Message
	for rows.Next() {
		var msg core.Message
		var sentAt int64
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.EncryptedContent,
			&msg.EncryptedSessionKey, &msg.Signature, &msg.IV, &msg.Read, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.SentAt = time.Unix(0, sentAt).UTC()
		out = append(out, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}

// FindByID returns the message with the given id
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*core.Message, error) {
	var msg core.Message
	var sentAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sender, receiver, encrypted_content, encrypted_session_key,
		        signature, iv, read, sent_at
		 FROM messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.EncryptedContent,
		&msg.EncryptedSessionKey, &msg.Signature, &msg.IV, &msg.Read, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	msg.SentAt = time.Unix(0, sentAt).UTC()
	return &msg, nil
}

// DeleteMessage removes the message with the given id
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
