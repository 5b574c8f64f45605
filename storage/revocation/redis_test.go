package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/tests"
)

func Test_redisRevoker(t *testing.T) {
	url := testutil.LookupURL(t, "TEST_REDIS_URL")
	ctx := context.Background()

	client, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	revoker := NewRedisRevoker(client)

	live, expired := uuid.NewString(), uuid.NewString()
	require.NoError(t, revoker.Revoke(ctx, live, time.Now().Add(time.Minute)))
	require.NoError(t, revoker.Revoke(ctx, expired, time.Now().Add(-time.Minute)))

	for _, tt := range []struct {
		name    string
		tokenID string
		want    bool
	}{
		{name: "revoked", tokenID: live, want: true},
		{name: "already expired", tokenID: expired, want: false},
		{name: "unknown", tokenID: uuid.NewString(), want: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := revoker.IsRevoked(ctx, tt.tokenID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ttl, err := client.TTL(ctx, keyPrefix+live).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl = %v", ttl)
}
