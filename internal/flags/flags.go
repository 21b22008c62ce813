package flags

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/apifoundry/apifoundry/pkg/logger"
)

// Client evaluates boolean feature flags stored in Redis under "<prefix><name>".
// Missing flags and store errors both resolve to the caller's default, so a
// flag lookup can never take a request down.
type Client struct {
	client *redis.Client
	prefix string
}

// NewClient creates a flag client. Prefix may be empty, defaulting to "flag:".
func NewClient(client *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = "flag:"
	}
	return &Client{client: client, prefix: prefix}
}

// Enabled returns the flag value, or def when the flag is unset or the store
// is unreachable.
func (c *Client) Enabled(ctx context.Context, name string, def bool) bool {
	v, err := c.client.Get(ctx, c.prefix+name).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf("flags: store error evaluating %q, using default %v: %v", name, def, err)
		}
		return def
	}
	return v == "1" || v == "true"
}

// Set writes the flag value without expiry.
func (c *Client) Set(ctx context.Context, name string, on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return c.client.Set(ctx, c.prefix+name, v, 0).Err()
}
