package ports

import (
	"context"

	"github.com/securechat/server/core"
)

// CredentialStore persists user credentials. Lookups return
// core.ErrUserNotFound when no record matches. Save upserts by
// username; single-record updates are atomic, but read-then-write
// sequences are not.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*core.UserCredential, error)
	FindByEmail(ctx context.Context, email string) (*core.UserCredential, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, cred *core.UserCredential) error
	Delete(ctx context.Context, cred *core.UserCredential) error
}

// MessageStore persists relayed messages. FindByID returns
// core.ErrMessageNotFound when no record matches.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *core.Message) error
	ListByReceiver(ctx context.Context, receiver string) ([]*core.Message, error)
	FindByID(ctx context.Context, id string) (*core.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}
