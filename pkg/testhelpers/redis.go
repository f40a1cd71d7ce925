package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisTestImage is the Redis image used for integration tests.
const RedisTestImage = "redis:7-alpine"

// EngineRedis holds a shared test Redis instance.
type EngineRedis struct {
	Container testcontainers.Container
	Client    *redis.Client
	Addr      string
}

var (
	sharedEngineRedis     *EngineRedis
	sharedEngineRedisOnce sync.Once
	sharedEngineRedisErr  error
)

// GetEngineRedis returns a shared Redis container. The container is created
// once and reused across all tests in the run; tests that need a clean slate
// should flush the database themselves.
func GetEngineRedis(t *testing.T) *EngineRedis {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedEngineRedisOnce.Do(func() {
		sharedEngineRedis, sharedEngineRedisErr = setupEngineRedis()
	})

	if sharedEngineRedisErr != nil {
		t.Fatalf("Failed to setup engine redis: %v", sharedEngineRedisErr)
	}

	return sharedEngineRedis
}

func setupEngineRedis() (*EngineRedis, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        RedisTestImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port.Port())
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &EngineRedis{
		Container: container,
		Client:    client,
		Addr:      addr,
	}, nil
}
