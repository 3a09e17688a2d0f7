package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const ContextAccountIDKey = "accountID"

// AuthMiddleware creates a Gin middleware for JWT authentication. Token
// parsing lives in the auth service so the claim shape stays in one
// place.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		accountID, err := authService.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextAccountIDKey, accountID)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get the account ID from context (used by handlers)
func getAccountIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextAccountIDKey)
	if !exists {
		return "", errors.New("account ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid account ID type in context")
	}
	return idStr, nil
}
