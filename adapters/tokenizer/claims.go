package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims carried by a session token. The
// subject is the username the token was issued for.
type SessionClaims struct {
	jwt.RegisteredClaims
}
