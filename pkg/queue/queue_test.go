package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
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
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestQueue_EnqueueDequeueRetry(t *testing.T) {
	rdb := setupRedis(t)
	q := NewQueue(rdb, nil)
	ctx := context.Background()
	payload := ExportPayload{ExportID: uuid.New(), EventID: 10}

	require.NoError(t, q.EnqueueExport(ctx, payload))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, JobTypeAttendanceExport, job.Type)
	got, err := DecodeExport(job)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	for attempt := 1; attempt < MaxRetries; attempt++ {
		dead, err := q.Retry(ctx, job)
		require.NoError(t, err)
		require.False(t, dead)
		job, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.Equal(t, attempt, job.Attempt)
	}

	dead, err := q.Retry(ctx, job)
	require.NoError(t, err)
	require.True(t, dead)
	n, err := rdb.LLen(ctx, QueueDLQ).Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestQueue_DequeueEmpty(t *testing.T) {
	rdb := setupRedis(t)
	q := NewQueue(rdb, nil)

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestDecodeExport_RejectsOtherTypes(t *testing.T) {
	_, err := DecodeExport(&Job{Type: "email"})
	require.Error(t, err)
}
