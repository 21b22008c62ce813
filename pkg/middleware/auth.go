package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apifoundry/apifoundry/internal/tokens"
)

// ContextKeyClaims is the gin context key holding the verified *tokens.AccessClaims.
const ContextKeyClaims = "claims"

// ContextKeySub is the gin context key holding the authenticated subject ID.
const ContextKeySub = "sub"

// ContextKeyAccessToken is the gin context key holding the verified raw bearer token.
const ContextKeyAccessToken = "accessToken"

// Verifier is the minimal token-verification interface the middleware depends on.
// Satisfied by *tokens.Issuer.
type Verifier interface {
	VerifyAccess(token string) (*tokens.AccessClaims, error)
}

// RevocationChecker reports whether a raw token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// AuthMiddleware returns a Gin middleware that verifies Bearer access tokens
// and rejects revoked ones. revocations may be nil to skip the denylist check.
func AuthMiddleware(ver Verifier, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		claims, err := ver.VerifyAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if revocations != nil && revocations.IsRevoked(c.Request.Context(), token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeySub, claims.Subject)
		c.Set(ContextKeyAccessToken, token)
		c.Next()
	}
}

// SubjectFrom returns the authenticated subject ID set by AuthMiddleware.
func SubjectFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextKeySub); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}
	return ""
}

// AccessTokenFrom returns the verified raw bearer token set by AuthMiddleware.
func AccessTokenFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyAccessToken); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}
	return ""
}

// ClaimsFrom returns the verified access claims set by AuthMiddleware.
func ClaimsFrom(c *gin.Context) *tokens.AccessClaims {
	if v, ok := c.Get(ContextKeyClaims); ok {
		if cl, ok2 := v.(*tokens.AccessClaims); ok2 {
			return cl
		}
	}
	return nil
}
