package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"eshop/internal/models"
	"eshop/internal/services/auth"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Authenticator checks bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// BearerToken returns the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid token. With roles set the
// token must also carry one of them.
func RequireAuth(authenticator Authenticator, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		claims, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			message := "Invalid token"
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				message = "Token expired"
			case errors.Is(err, auth.ErrTokenRevoked):
				message = "Token revoked"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches the claims of a valid token and lets every request
// through.
func OptionalAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if claims, err := authenticator.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the claims set by RequireAuth or OptionalAuth.
func Claims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

func hasRole(role models.UserRole, roles []models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
