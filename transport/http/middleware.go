package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/securechat/server/ports"
)

// AuthMiddleware creates middleware that validates bearer tokens and
// stores the authenticated username in the request context.
func AuthMiddleware(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := auth[7:]

		username, err := tokenizer.Subject(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", username)

		c.Next()
	}
}
