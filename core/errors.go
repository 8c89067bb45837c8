package core

import "errors"

var (
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username already exists")

	// ErrEmailTaken is returned when registering an existing email
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials is returned for any failed login or 2FA
	// verification. It is deliberately generic so callers cannot tell
	// an unknown account from a wrong password or a wrong code.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode is returned when a 2FA enrollment confirmation fails
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrRateLimited is returned while a lockout is active for a client
	ErrRateLimited = errors.New("too many attempts")

	// ErrUserNotFound is returned when a credential cannot be resolved
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPublicKey is returned when a user has no published public key
	ErrNoPublicKey = errors.New("user has no public key")

	// ErrMessageNotFound is returned when a message id does not exist
	ErrMessageNotFound = errors.New("message not found")

	// ErrAccessDenied is returned when a user touches a message that is not theirs
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidToken is returned when a session token fails verification
	ErrInvalidToken = errors.New("invalid token")
)
