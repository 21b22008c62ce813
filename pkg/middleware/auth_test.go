package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/apifoundry/apifoundry/internal/config"
	"github.com/apifoundry/apifoundry/internal/revocation"
	"github.com/apifoundry/apifoundry/internal/tokens"
)

func testIssuer() *tokens.Issuer {
	return tokens.NewIssuer(config.JWTConfig{
		AccessSecret:  "access-secret-32-bytes-xxxxxxxxxx",
		RefreshSecret: "refresh-secret-32-bytes-xxxxxxxxx",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}, nil)
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(testIssuer(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(testIssuer(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(testIssuer(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	iss := testIssuer()
	tok, err := iss.IssueAccessToken("user1", "test@example.com", []string{"user"})
	require.NoError(t, err)

	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(iss, nil), func(c *gin.Context) {
		require.Equal(t, "user1", SubjectFrom(c))
		claims := ClaimsFrom(c)
		require.NotNil(t, claims)
		require.Equal(t, "test@example.com", claims.Email)
		require.Equal(t, tok, AccessTokenFrom(c))
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
}

func TestAuthMiddleware_RejectsRevokedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	reg := revocation.NewRegistry(client, "", true)

	iss := testIssuer()
	tok, err := iss.IssueAccessToken("user1", "test@example.com", nil)
	require.NoError(t, err)
	reg.Revoke(context.Background(), tok)

	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()

	g.GET("/", AuthMiddleware(iss, reg), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}
