package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/apifoundry/apifoundry/pkg/logger"
)

const revokedSentinel = "1"

// Registry is an auto-expiring denylist of revoked tokens backed by Redis.
// Entries are keyed by the raw token string and live exactly as long as the
// token's own remaining validity, so the denylist never outgrows the set of
// tokens it blocks.
type Registry struct {
	client *redis.Client
	prefix string
	// failOpen: when the store is unreachable, IsRevoked reports "not revoked"
	// instead of rejecting. Availability-over-strictness; configurable so
	// deployments can choose fail-closed.
	failOpen bool
}

// NewRegistry creates a registry using the given Redis client. Prefix may be
// empty, defaulting to "revoked:".
func NewRegistry(client *redis.Client, prefix string, failOpen bool) *Registry {
	if prefix == "" {
		prefix = "revoked:"
	}
	return &Registry{client: client, prefix: prefix, failOpen: failOpen}
}

func (r *Registry) key(token string) string {
	return r.prefix + token
}

// Revoke records the token in the denylist with a TTL equal to its remaining
// lifetime. Tokens that are malformed, missing an exp claim, or already
// expired are skipped. Revoke never fails the caller: store errors are logged
// and swallowed so a user-initiated logout always completes.
func (r *Registry) Revoke(ctx context.Context, token string) {
	exp, err := expiryOf(token)
	if err != nil {
		logger.Debugf("revocation: skipping token without usable exp: %v", err)
		return
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, r.key(token), revokedSentinel, ttl).Err(); err != nil {
		logger.Errorf("revocation: failed to record revoked token: %v", err)
	}
}

// IsRevoked reports whether the token is present in the denylist. On store
// error the configured fail-open/fail-closed policy decides the answer.
func (r *Registry) IsRevoked(ctx context.Context, token string) bool {
	exists, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		logger.Warnf("revocation: store error during check (failOpen=%v): %v", r.failOpen, err)
		return !r.failOpen
	}
	return exists > 0
}

// expiryOf decodes the token without verifying its signature and returns the
// exp claim. Revocation is advisory storage, not a trust boundary, so an
// unverified decode is sufficient to compute the TTL.
func expiryOf(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("exp claim not present")
	}
	return claims.ExpiresAt.Time, nil
}
