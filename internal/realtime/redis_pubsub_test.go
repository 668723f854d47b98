package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestChannel(t *testing.T) {
	require.Equal(t, "evento:42", Channel(42))
}

func TestRedisPubSub_CrossInstance(t *testing.T) {
	rdb := setupRedis(t)
	bus := NewRedisPubSub(rdb, nil)

	// two hubs sharing one Redis behave like two API instances
	publisher := NewHub(nil, bus, bus)
	watcher := NewHub(nil, bus, bus)
	c := testClient("c", 7)
	watcher.Register(c)
	<-c.send

	require.NoError(t, publisher.Publish(context.Background(), 7, EventAttendanceRecorded, map[string]int{"id": 1}))

	select {
	case msg := <-c.send:
		require.Equal(t, EventAttendanceRecorded, msg.Event)
		require.JSONEq(t, `{"id":1}`, string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered across instances")
	}
	watcher.Unregister(c)
}
