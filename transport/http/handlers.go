package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securechat/server/core"
	"github.com/securechat/server/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// authResponse is the body returned by login and verify-2fa. Field
// names follow what the client expects.
type authResponse struct {
	Token               *string `json:"token"`
	TwoFactorEnabled    bool    `json:"isTwoFactorEnabled"`
	EncryptedPrivateKey string  `json:"encryptedPrivateKey,omitempty"`
	KeySalt             string  `json:"keySalt,omitempty"`
}

func newAuthResponse(result *core.AuthResult) authResponse {
	resp := authResponse{
		TwoFactorEnabled:    result.TwoFactorRequired,
		EncryptedPrivateKey: result.EncryptedPrivateKey,
		KeySalt:             result.KeySalt,
	}
	if result.Token != "" {
		token := result.Token
		resp.Token = &token
	}
	return resp
}

// Register handles new account creation
func (h *AuthHandlers) Register(c *gin.Context) {
	var req struct {
		Username            string `json:"username" binding:"required"`
		Email               string `json:"email" binding:"required,email"`
		Password            string `json:"password" binding:"required"`
		PublicKey           string `json:"publicKey" binding:"required"`
		EncryptedPrivateKey string `json:"encryptedPrivateKey" binding:"required"`
		KeySalt             string `json:"keySalt" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.authService.Register(c.Request.Context(), core.Registration{
		Username:            req.Username,
		Email:               req.Email,
		Password:            req.Password,
		PublicKey:           req.PublicKey,
		EncryptedPrivateKey: req.EncryptedPrivateKey,
		KeySalt:             req.KeySalt,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		case errors.Is(err, core.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login handles the password step of authentication. The client key
// for rate limiting is the caller's IP.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Login, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Try again later."})
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// Verify2FA handles the second-factor step of authentication
func (h *AuthHandlers) Verify2FA(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.Verify2FA(c.Request.Context(), req.Username, req.Code, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Try again later."})
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// Setup2FA starts a 2FA enrollment for the authenticated user
func (h *AuthHandlers) Setup2FA(c *gin.Context) {
	username := c.GetString("username")

	setup, err := h.authService.Setup2FA(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"secret": setup.Secret, "uri": setup.URI})
}

// Confirm2FA completes a pending 2FA enrollment
func (h *AuthHandlers) Confirm2FA(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	username := c.GetString("username")

	err := h.authService.Confirm2FA(c.Request.Context(), username, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
		case errors.Is(err, core.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm 2FA"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled successfully"})
}

// Disable2FA turns the second factor off for the authenticated user
func (h *AuthHandlers) Disable2FA(c *gin.Context) {
	username := c.GetString("username")

	if err := h.authService.Disable2FA(c.Request.Context(), username); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled successfully"})
}

// PublicKey returns the public key other users encrypt against
func (h *AuthHandlers) PublicKey(c *gin.Context) {
	username := c.Param("username")

	key, err := h.authService.PublicKey(c.Request.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUserNotFound), errors.Is(err, core.ErrNoPublicKey):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up public key"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": key})
}
