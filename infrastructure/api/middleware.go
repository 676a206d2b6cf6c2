// Package api exposes the HTTP surface: account endpoints, conversation
// endpoints, the websocket upgrade route and the debug stats page.
package api

import (
	"net/http"

	"converse/contract"

	"github.com/gin-gonic/gin"
)

const identityKey = "user_id"

// RequireAuth resolves the caller's identity from the bearer credential
// and injects it into the request context. Browser websocket clients
// cannot set headers, so a "token" query parameter is accepted as a
// fallback.
func RequireAuth(resolver contract.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetHeader("Authorization")
		if credential == "" {
			credential = c.Query("token")
		}
		userID, err := resolver.Resolve(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(identityKey, userID)
		c.Next()
	}
}

// UserID returns the identity injected by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(identityKey)
}
