package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()

	var container testcontainers.Container
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("docker is not available: %v", r)
			}
		}()

		var err error
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			t.Skipf("could not start redis container: %v", err)
		}
	}()
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisCache(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	c, err := NewRedisCache(RedisConfig{Addr: addr, KeyPrefix: "test"})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.Get(ctx, "sets:fr")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "sets:fr", []byte(`[{"id":"sv01"}]`), time.Minute))
	got, err := c.Get(ctx, "sets:fr")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"sv01"}]`, string(got))

	require.NoError(t, c.Delete(ctx, "sets:fr"))
	_, err = c.Get(ctx, "sets:fr")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return err == ErrCacheMiss
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
