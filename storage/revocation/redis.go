package revocation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ratiba/core/session"
)

const keyPrefix = "ratiba:revoked:"

type redisRevoker struct {
	client  *redis.Client
	nowFunc func() time.Time
}

var _ session.Revoker = (*redisRevoker)(nil)

// NewRedisRevoker stores revoked token IDs as keys that expire with the token.
func NewRedisRevoker(client *redis.Client) session.Revoker {
	return &redisRevoker{client: client, nowFunc: time.Now}
}

// OpenRedis parses a redis:// URL and checks the server answers.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (r *redisRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.nowFunc())
	if ttl <= 0 {
		return nil // already unusable
	}
	return errors.Wrap(r.client.Set(ctx, keyPrefix+tokenID, "1", ttl).Err(), "revoking token")
}

func (r *redisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}
