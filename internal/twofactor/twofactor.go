// Package twofactor implements TOTP second-factor enrollment and
// verification with a 30-second time step.
package twofactor

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Issuer identifies this application in provisioning URIs.
const Issuer = "SecureChat"

const (
	secretLength = 20 // bytes, 160 bits
	period       = 30 // seconds
)

// GenerateSecret returns a fresh 160-bit shared secret, base32-encoded
// for display and QR provisioning.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// VerifyCode reports whether code is valid for secret at the time
// steps covering now, now-30s and now+30s, tolerating one step of
// clock skew between client and server. Malformed input fails closed;
// the returned error describes why the input was rejected and is
// intended for logging, never for the end user.
func VerifyCode(secret, code string, now time.Time) (bool, error) {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("totp input rejected: %w", err)
	}
	return ok, nil
}

// EnrollmentURI builds the otpauth provisioning URI an authenticator
// app consumes during QR enrollment.
func EnrollmentURI(secret, username string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", Issuer, username, secret, Issuer)
}
