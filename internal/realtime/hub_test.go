package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/internal/models"
)

type published struct {
	eventID int64
	event   string
	payload []byte
}

type fakeBus struct {
	mu        sync.Mutex
	published []published
	handlers  map[int64]func(string, []byte)
	cancelled []int64
	subErr    error
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[int64]func(string, []byte))}
}

func (b *fakeBus) PublishEvent(_ context.Context, eventID int64, event string, payload []byte) error {
	b.mu.Lock()
	b.published = append(b.published, published{eventID, event, payload})
	h := b.handlers[eventID]
	b.mu.Unlock()
	if h != nil {
		h(event, payload)
	}
	return nil
}

func (b *fakeBus) SubscribeEvent(eventID int64, handler func(string, []byte)) (func(), error) {
	if b.subErr != nil {
		return nil, b.subErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventID] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, eventID)
		b.cancelled = append(b.cancelled, eventID)
	}, nil
}

func testClient(id string, eventID int64) *Client {
	return &Client{ID: id, EventID: eventID, send: make(chan WSMessage, 16)}
}

func next(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatalf("no message queued for %s", c.ID)
		return WSMessage{}
	}
}

func TestHub_ViewerCount(t *testing.T) {
	h := NewHub(nil, nil, nil)
	a, b := testClient("a", 1), testClient("b", 1)

	h.Register(a)
	require.Equal(t, EventViewers, next(t, a).Event)
	h.Register(b)
	msg := next(t, a)
	require.JSONEq(t, `{"count":2}`, string(msg.Data))
	require.Equal(t, 2, h.Viewers(1))

	h.Unregister(b)
	require.JSONEq(t, `{"count":1}`, string(next(t, a).Data))
	h.Unregister(b) // second call is a no-op
	require.Equal(t, 1, h.Viewers(1))
}

func TestHub_AttendanceRecordedLocal(t *testing.T) {
	h := NewHub(nil, nil, nil)
	watcher, other := testClient("w", 5), testClient("o", 6)
	h.Register(watcher)
	h.Register(other)
	next(t, watcher)
	next(t, other)

	a := &models.Attendance{ID: 9, UserID: 3, EventID: 5, Method: models.MethodQR, Status: models.StatusPresent}
	require.NoError(t, h.AttendanceRecorded(context.Background(), a))

	msg := next(t, watcher)
	require.Equal(t, EventAttendanceRecorded, msg.Event)
	var got models.Attendance
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Equal(t, int64(9), got.ID)
	require.Empty(t, other.send)
}

func TestHub_PublishesThroughRedis(t *testing.T) {
	bus := newFakeBus()
	h := NewHub(nil, bus, bus)
	c := testClient("c", 2)
	h.Register(c)
	next(t, c)

	require.NoError(t, h.AttendanceRecorded(context.Background(), &models.Attendance{ID: 1, EventID: 2}))
	require.Len(t, bus.published, 1)
	require.Equal(t, int64(2), bus.published[0].eventID)
	// delivered once, through the subscription
	require.Equal(t, EventAttendanceRecorded, next(t, c).Event)
	require.Empty(t, c.send)

	h.Unregister(c)
	require.Equal(t, []int64{2}, bus.cancelled)
}

func TestHub_SubscribeFailureStillServesLocally(t *testing.T) {
	bus := newFakeBus()
	bus.subErr = errors.New("redis down")
	h := NewHub(nil, nil, bus)
	c := testClient("c", 3)

	h.Register(c)
	require.Equal(t, EventViewers, next(t, c).Event)
	h.Broadcast(3, "x", map[string]string{"k": "v"})
	require.JSONEq(t, `{"k":"v"}`, string(next(t, c).Data))
}
