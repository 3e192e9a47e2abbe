//go:build integration

package containers

import (
	"context"
	"testing"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
	platformredis "github.com/WestCoastInformatics/snowstorm-1/internal/platform/redis"
)

// RedisContainer is the Redis instance behind the concept term cache tests. Its client
// is built by the same constructor the server uses.
type RedisContainer struct {
	Container *tcredis.RedisContainer
	URL       string
	*platformredis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}
	client, err := platformredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 4})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect to redis: %v", err)
	}
	return &RedisContainer{Container: container, URL: url, Client: client}
}

// Reset drops every cached term so each test starts cold.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.FlushDB(ctx).Err()
}
