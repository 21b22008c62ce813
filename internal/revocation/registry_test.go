package revocation

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestRevoke_ThenIsRevoked_UntilExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	reg := NewRegistry(client, "test:revoked:", true)

	ctx := context.Background()
	tok := signedToken(t, 2*time.Second)

	reg.Revoke(ctx, tok)
	require.True(t, reg.IsRevoked(ctx, tok))

	// entry must not outlive the token's own expiry
	m.FastForward(3 * time.Second)
	require.False(t, reg.IsRevoked(ctx, tok))
	require.False(t, m.Exists("test:revoked:"+tok))
}

func TestRevoke_ExpiredToken_Noop(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	reg := NewRegistry(client, "test:revoked:", true)

	ctx := context.Background()
	tok := signedToken(t, -1*time.Minute)

	reg.Revoke(ctx, tok)
	require.Empty(t, m.Keys())
	require.False(t, reg.IsRevoked(ctx, tok))
}

func TestRevoke_MalformedToken_Noop(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	reg := NewRegistry(client, "", true)

	// must not panic or write anything
	reg.Revoke(context.Background(), "not-a-jwt")
	require.Empty(t, m.Keys())
}

func TestRevoke_Idempotent(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	reg := NewRegistry(client, "test:revoked:", true)

	ctx := context.Background()
	tok := signedToken(t, time.Minute)
	reg.Revoke(ctx, tok)
	reg.Revoke(ctx, tok)
	require.True(t, reg.IsRevoked(ctx, tok))
	require.Len(t, m.Keys(), 1)
}

func TestIsRevoked_StoreError_FailOpen(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	m.Close()

	reg := NewRegistry(client, "", true)
	require.False(t, reg.IsRevoked(context.Background(), "any-token"))
}

func TestIsRevoked_StoreError_FailClosed(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	m.Close()

	reg := NewRegistry(client, "", false)
	require.True(t, reg.IsRevoked(context.Background(), "any-token"))
}

func TestRevoke_StoreError_NeverFailsCaller(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	m.Close()

	reg := NewRegistry(client, "", true)
	// logout must still complete when the store is down
	reg.Revoke(context.Background(), signedToken(t, time.Minute))
}
