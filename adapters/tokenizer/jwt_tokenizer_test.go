package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestIssueAndSubject(t *testing.T) {
	tok := NewJWTTokenizer(newTestKey(t), time.Hour)

	token, err := tok.Issue("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := tok.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestSubjectRejectsExpiredToken(t *testing.T) {
	tok := NewJWTTokenizer(newTestKey(t), -time.Minute)

	token, err := tok.Issue("alice")
	require.NoError(t, err)

	_, err = tok.Subject(token)
	assert.Error(t, err)
}

func TestSubjectRejectsForeignToken(t *testing.T) {
	issuing := NewJWTTokenizer(newTestKey(t), time.Hour)
	verifying := NewJWTTokenizer(newTestKey(t), time.Hour)

	token, err := issuing.Issue("alice")
	require.NoError(t, err)

	_, err = verifying.Subject(token)
	assert.Error(t, err)
}

func TestSubjectRejectsGarbage(t *testing.T) {
	tok := NewJWTTokenizer(newTestKey(t), time.Hour)

	_, err := tok.Subject("not.a.token")
	assert.Error(t, err)

	_, err = tok.Subject("")
	assert.Error(t, err)
}
