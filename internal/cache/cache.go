package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the narrow cache interface C3 (order-book engine) and C4 (trade
// aggregator) depend on, so neither ever holds a *redis.Client directly —
// mirroring the teacher's interface-over-concrete-client style
// (connection.Client).
type Client interface {
	// Set stores value under key, matching spec.md's SET operation.
	Set(ctx context.Context, key string, value string) error

	// HMSet stores the given field/value pairs in the hash at key,
	// matching spec.md's HMSET operation. fields must have an even length
	// (field, value, field, value, ...).
	HMSet(ctx context.Context, key string, fields []string) error

	// Close releases the underlying connection.
	Close() error
}

// client wraps a *redis.Client.
type client struct {
	rdb *redis.Client
}

// New returns a Client for the Redis instance at host:port. No connection
// is made here; go-redis connects on the first command (see Ping).
func New(host, port string) Client {
	return &client{
		rdb: redis.NewClient(&redis.Options{
			Addr: net.JoinHostPort(host, port),
		}),
	}
}

// Set implements Client.
func (c *client) Set(ctx context.Context, key string, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("cache: SET %s: %w", key, err)
	}
	return nil
}

// HMSet implements Client.
func (c *client) HMSet(ctx context.Context, key string, fields []string) error {
	if len(fields)%2 != 0 {
		return fmt.Errorf("cache: HMSET %s: odd number of field/value elements", key)
	}
	pairs := make([]interface{}, len(fields))
	for i, f := range fields {
		pairs[i] = f
	}
	if err := c.rdb.HMSet(ctx, key, pairs...).Err(); err != nil {
		return fmt.Errorf("cache: HMSET %s: %w", key, err)
	}
	return nil
}

// Close implements Client.
func (c *client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity with a short deadline, used at startup to fail
// fast per spec.md §6's exit-code-1 pre-run-failure contract.
func Ping(ctx context.Context, c Client) error {
	impl, ok := c.(*client)
	if !ok {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return impl.rdb.Ping(pingCtx).Err()
}
