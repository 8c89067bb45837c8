package core

// UserCredential is the stored authentication record for one account.
// The key material is encrypted client-side; the server only relays it.
type UserCredential struct {
	Username            string // Unique account name
	Email               string // Unique email address
	PasswordHash        string // Self-describing argon2id hash (PHC string)
	PublicKey           string // Public key published to other users
	EncryptedPrivateKey string // Private key blob, encrypted by the client
	KeySalt             string // Salt the client uses to derive its local key
	TwoFactorSecret     string // Base32 TOTP secret, empty when never enrolled
	TwoFactorEnabled    bool   // True only after the secret has been confirmed
}

// Registration carries the fields a new account is created from.
type Registration struct {
	Username            string
	Email               string
	Password            string
	PublicKey           string
	EncryptedPrivateKey string
	KeySalt             string
}

// AuthResult is returned by login and 2FA verification. Either
// TwoFactorRequired is set and everything else is empty, or a token
// and the key bundle are present. Key material is never released
// while a second factor is still outstanding.
type AuthResult struct {
	Token               string
	TwoFactorRequired   bool
	EncryptedPrivateKey string
	KeySalt             string
}

// TwoFactorSetup is the result of starting a 2FA enrollment.
type TwoFactorSetup struct {
	Secret string // Base32 shared secret, shown once to the user
	URI    string // otpauth:// provisioning URI for QR enrollment
}
