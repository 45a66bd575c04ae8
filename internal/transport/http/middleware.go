package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gurukulx/internal/app"
	"gurukulx/internal/domain"
)

const userContextKey = "user"

// AccessValidator checks a bearer token and returns its subject.
type AccessValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// RequireAuth validates the Authorization header and resolves the account
// into the request context.
func RequireAuth(tokens AccessValidator, auth *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		name, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		user, err := auth.Lookup(c.Request.Context(), name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(domain.User); ok {
			return user
		}
	}
	return domain.GuestUser()
}
