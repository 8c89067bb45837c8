package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securechat/server/adapters/events"
	"github.com/securechat/server/adapters/limiter"
	"github.com/securechat/server/adapters/store"
	"github.com/securechat/server/adapters/tokenizer"
	"github.com/securechat/server/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	st := store.NewMemoryStore()
	tok := tokenizer.NewJWTTokenizer(key, time.Hour)
	authService := service.NewAuthService(st, tok, limiter.NewMemoryLimiter(), events.NewNoopPublisher(), zerolog.Nop())
	messageService := service.NewMessageService(st, st, zerolog.Nop())

	return SetupRouter(authService, messageService, tok)
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, username, email string) {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/auth/register", "", gin.H{
		"username":            username,
		"email":               email,
		"password":            "correct horse battery",
		"publicKey":           "pub-" + username,
		"encryptedPrivateKey": "priv-" + username,
		"keySalt":             "salt-" + username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func loginUser(t *testing.T, router *gin.Engine, login string) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"login":    login,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token *string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Token)
	return *resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")

	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"login":    "alice",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token               *string `json:"token"`
		TwoFactorEnabled    bool    `json:"isTwoFactorEnabled"`
		EncryptedPrivateKey string  `json:"encryptedPrivateKey"`
		KeySalt             string  `json:"keySalt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Token)
	assert.NotEmpty(t, *resp.Token)
	assert.False(t, resp.TwoFactorEnabled)
	assert.Equal(t, "priv-alice", resp.EncryptedPrivateKey)
	assert.Equal(t, "salt-alice", resp.KeySalt)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")

	w := doJSON(router, http.MethodPost, "/auth/register", "", gin.H{
		"username":            "alice",
		"email":               "other@example.com",
		"password":            "pw",
		"publicKey":           "pk",
		"encryptedPrivateKey": "epk",
		"keySalt":             "ks",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
}

func TestRegisterMissingFields(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(router, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")

	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"login":    "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")

	for i := 0; i < 5; i++ {
		w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
			"login":    "alice",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Correct credentials are refused once the client is locked out
	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"login":    "alice",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/messages/inbox", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/messages/inbox", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/2fa/setup", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTwoFactorFlow(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")
	token := loginUser(t, router, "alice")

	w := doJSON(router, http.MethodPost, "/auth/2fa/setup", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var setup struct {
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &setup))
	require.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URI, "otpauth://totp/")

	// Wrong code does not enable anything
	w = doJSON(router, http.MethodPost, "/auth/2fa/confirm", token, gin.H{"code": "000000"})
	if w.Code != http.StatusUnauthorized {
		t.Skip("generated secret accepted the probe code")
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/2fa/confirm", token, gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Password alone now yields no token and no key material
	w = doJSON(router, http.MethodPost, "/auth/login", "", gin.H{
		"login":    "alice",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var pending struct {
		Token            *string `json:"token"`
		TwoFactorEnabled bool    `json:"isTwoFactorEnabled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	assert.Nil(t, pending.Token)
	assert.True(t, pending.TwoFactorEnabled)
	assert.NotContains(t, w.Body.String(), "priv-alice")

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/verify-2fa", "", gin.H{
		"username": "alice",
		"code":     code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var final struct {
		Token               *string `json:"token"`
		EncryptedPrivateKey string  `json:"encryptedPrivateKey"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	require.NotNil(t, final.Token)
	assert.Equal(t, "priv-alice", final.EncryptedPrivateKey)
}

func TestPublicKeyLookup(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")
	registerUser(t, router, "bob", "bob@example.com")
	token := loginUser(t, router, "alice")

	w := doJSON(router, http.MethodGet, "/users/bob/public-key", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pub-bob")

	w = doJSON(router, http.MethodGet, "/users/nobody/public-key", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageFlow(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")
	registerUser(t, router, "bob", "bob@example.com")
	aliceToken := loginUser(t, router, "alice")
	bobToken := loginUser(t, router, "bob")

	w := doJSON(router, http.MethodPost, "/messages/send", aliceToken, gin.H{
		"receiverName":        "bob",
		"encryptedContent":    "ciphertext",
		"encryptedSessionKey": "wrapped-key",
		"signature":           "sig",
		"iv":                  "iv",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Receiver sees it in the inbox
	w = doJSON(router, http.MethodGet, "/messages/inbox", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var inbox []struct {
		ID     string `json:"id"`
		Sender string `json:"sender"`
		Read   bool   `json:"isRead"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "alice", inbox[0].Sender)
	assert.False(t, inbox[0].Read)

	id := inbox[0].ID

	// Sender cannot read the stored message back
	w = doJSON(router, http.MethodGet, "/messages/"+id, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodGet, "/messages/"+id, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ciphertext")

	w = doJSON(router, http.MethodPut, "/messages/"+id+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/messages/"+id, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/messages/"+id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendToUnknownReceiver(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice", "alice@example.com")
	token := loginUser(t, router, "alice")

	w := doJSON(router, http.MethodPost, "/messages/send", token, gin.H{
		"receiverName":        "nobody",
		"encryptedContent":    "ciphertext",
		"encryptedSessionKey": "wrapped-key",
		"signature":           "sig",
		"iv":                  "iv",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
