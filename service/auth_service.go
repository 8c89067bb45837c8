package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/securechat/server/core"
	"github.com/securechat/server/internal/password"
	"github.com/securechat/server/internal/twofactor"
	"github.com/securechat/server/ports"
)

// AuthService orchestrates registration, login, second-factor
// enrollment and session issuance. Every call is stateless; the only
// shared mutable state lives behind the injected RateLimiter.
//
// Ordering contract: the rate limiter is always consulted before any
// password or TOTP work, and key material is only released on a fully
// authenticated path.
type AuthService struct {
	store     ports.CredentialStore
	tokenizer ports.Tokenizer
	limiter   ports.RateLimiter
	eventPub  ports.EventPublisher
	logger    zerolog.Logger

	now func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store ports.CredentialStore,
	tokenizer ports.Tokenizer,
	limiter ports.RateLimiter,
	eventPub ports.EventPublisher,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokenizer: tokenizer,
		limiter:   limiter,
		eventPub:  eventPub,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a new account with 2FA disabled. No session is created.
func (s *AuthService) Register(ctx context.Context, reg core.Registration) error {
	taken, err := s.store.ExistsByUsername(ctx, reg.Username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return core.ErrUsernameTaken
	}

	taken, err = s.store.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return core.ErrEmailTaken
	}

	hash, err := password.Encode(reg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &core.UserCredential{
		Username:            reg.Username,
		Email:               reg.Email,
		PasswordHash:        hash,
		PublicKey:           reg.PublicKey,
		EncryptedPrivateKey: reg.EncryptedPrivateKey,
		KeySalt:             reg.KeySalt,
		TwoFactorEnabled:    false,
	}

	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if err := s.eventPub.PublishRegistered(ctx, reg.Username); err != nil {
		s.logger.Warn().Err(err).Str("username", reg.Username).Msg("failed to publish registration event")
	}

	return nil
}

// Login verifies a password. With 2FA disabled it issues a session
// token and returns it with the key bundle. With 2FA enabled it only
// reports that a second factor is required; the key bundle is withheld
// until Verify2FA succeeds.
func (s *AuthService) Login(ctx context.Context, loginID, pass, clientKey string) (*core.AuthResult, error) {
	if err := s.checkAllowed(ctx, clientKey); err != nil {
		return nil, err
	}

	cred, err := s.resolve(ctx, loginID)
	if errors.Is(err, core.ErrUserNotFound) {
		// Burn a verification against a dummy hash so unknown
		// accounts cost the same as wrong passwords.
		password.Verify(pass, password.DummyHash)
		return nil, s.authFailed(ctx, clientKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}

	if !password.Verify(pass, cred.PasswordHash) {
		return nil, s.authFailed(ctx, clientKey)
	}

	if cred.TwoFactorEnabled {
		// Password verified, second factor outstanding. No token, no
		// key material. Failures so far keep counting until Verify2FA
		// completes the sequence.
		return &core.AuthResult{TwoFactorRequired: true}, nil
	}

	s.recordSuccess(ctx, clientKey)

	token, err := s.tokenizer.Issue(cred.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &core.AuthResult{
		Token:               token,
		EncryptedPrivateKey: cred.EncryptedPrivateKey,
		KeySalt:             cred.KeySalt,
	}, nil
}

// Verify2FA completes a login for an account with 2FA enabled. On a
// valid code it issues the session token and releases the key bundle.
func (s *AuthService) Verify2FA(ctx context.Context, loginID, code, clientKey string) (*core.AuthResult, error) {
	if err := s.checkAllowed(ctx, clientKey); err != nil {
		return nil, err
	}

	cred, err := s.resolve(ctx, loginID)
	if errors.Is(err, core.ErrUserNotFound) {
		return nil, s.authFailed(ctx, clientKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}

	if !cred.TwoFactorEnabled {
		return nil, s.authFailed(ctx, clientKey)
	}

	ok, verr := twofactor.VerifyCode(cred.TwoFactorSecret, code, s.now())
	if verr != nil {
		// A stored secret that fails base32 decoding is a
		// data-integrity fault; report it, fail closed.
		s.logger.Error().Err(verr).Str("username", cred.Username).Msg("totp verification rejected input")
	}
	if !ok {
		return nil, s.authFailed(ctx, clientKey)
	}

	s.recordSuccess(ctx, clientKey)

	token, err := s.tokenizer.Issue(cred.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &core.AuthResult{
		Token:               token,
		EncryptedPrivateKey: cred.EncryptedPrivateKey,
		KeySalt:             cred.KeySalt,
	}, nil
}

// Setup2FA generates a fresh shared secret and stores it as a pending
// enrollment. The two-factor flag stays off until Confirm2FA verifies
// a code; calling Setup2FA again replaces the pending secret.
func (s *AuthService) Setup2FA(ctx context.Context, username string) (*core.TwoFactorSetup, error) {
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	secret, err := twofactor.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	cred.TwoFactorSecret = secret
	if err := s.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	return &core.TwoFactorSetup{
		Secret: secret,
		URI:    twofactor.EnrollmentURI(secret, username),
	}, nil
}

// Confirm2FA verifies a code against the pending secret and, on
// success, enables the second factor. On failure nothing changes and
// the account stays loggable-in without a code.
func (s *AuthService) Confirm2FA(ctx context.Context, username, code string) error {
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	ok, verr := twofactor.VerifyCode(cred.TwoFactorSecret, code, s.now())
	if verr != nil {
		s.logger.Error().Err(verr).Str("username", username).Msg("totp verification rejected input")
	}
	if !ok {
		return core.ErrInvalidCode
	}

	cred.TwoFactorEnabled = true
	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if err := s.eventPub.PublishTwoFactorChanged(ctx, username, true); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to publish 2fa event")
	}

	return nil
}

// Disable2FA clears the shared secret and turns the second factor off.
// It deliberately requires no password or code re-entry; the caller is
// already authenticated and this doubles as a recovery path.
func (s *AuthService) Disable2FA(ctx context.Context, username string) error {
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	cred.TwoFactorSecret = ""
	cred.TwoFactorEnabled = false
	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if err := s.eventPub.PublishTwoFactorChanged(ctx, username, false); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to publish 2fa event")
	}

	return nil
}

// PublicKey returns the public key another user encrypts against.
func (s *AuthService) PublicKey(ctx context.Context, username string) (string, error) {
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if cred.PublicKey == "" {
		return "", core.ErrNoPublicKey
	}
	return cred.PublicKey, nil
}

// resolve finds a credential by username first, then by email.
func (s *AuthService) resolve(ctx context.Context, loginID string) (*core.UserCredential, error) {
	cred, err := s.store.FindByUsername(ctx, loginID)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return nil, err
	}
	return s.store.FindByEmail(ctx, loginID)
}

// checkAllowed consults the rate limiter before any expensive work.
func (s *AuthService) checkAllowed(ctx context.Context, clientKey string) error {
	err := s.limiter.CheckAllowed(ctx, clientKey)
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrRateLimited) {
		if pubErr := s.eventPub.PublishLockout(ctx, clientKey); pubErr != nil {
			s.logger.Warn().Err(pubErr).Str("client_key", clientKey).Msg("failed to publish lockout event")
		}
		return err
	}
	return fmt.Errorf("failed to check rate limit: %w", err)
}

// authFailed records a failure for the client and returns the generic
// authentication error, so callers cannot tell which step failed.
func (s *AuthService) authFailed(ctx context.Context, clientKey string) error {
	if err := s.limiter.RecordFailure(ctx, clientKey); err != nil {
		s.logger.Error().Err(err).Str("client_key", clientKey).Msg("failed to record auth failure")
	}
	return core.ErrInvalidCredentials
}

func (s *AuthService) recordSuccess(ctx context.Context, clientKey string) {
	if err := s.limiter.RecordSuccess(ctx, clientKey); err != nil {
		s.logger.Error().Err(err).Str("client_key", clientKey).Msg("failed to clear rate limit state")
	}
}
