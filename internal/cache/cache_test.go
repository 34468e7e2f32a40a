package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// startRedis runs a throwaway Redis container, skipping when Docker is unavailable
func startRedis(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container in short mode")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker unavailable: %v", r)
		}
	}()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return Config{Host: host, Port: portNum, TTL: time.Minute, Prefix: "clover:test:"}
}

func TestCache(t *testing.T) {
	cfg := startRedis(t)
	c, err := NewCache(cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		body, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, body)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k1", []byte(`{"results":[]}`)))
		body, ok, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"results":[]}`, string(body))
	})

	t.Run("purge removes prefixed keys", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k2", []byte("x")))
		removed, err := c.Purge(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, 2)
		_, ok, err := c.Get(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNewCacheUnreachable(t *testing.T) {
	_, err := NewCache(Config{Host: "127.0.0.1", Port: 1}, testLogger())
	assert.Error(t, err)
}
