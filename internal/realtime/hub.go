// Package realtime streams attendance activity to instructors over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventAttendanceRecorded is sent for every committed attendance record.
	EventAttendanceRecorded = "asistencia_registrada"
	// EventViewers carries the number of connected observers of an event.
	EventViewers = "observadores"
)

// Hub maintains event_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: publish to Redis, every instance
// (including this one) broadcasts locally from its subscription.
type Hub struct {
	// eventID -> map[clientID]*Client
	rooms    map[int64]map[string]*Client
	subs     map[int64]func() // cancel Redis subscription per event
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishEvent(ctx context.Context, eventID int64, event string, payload []byte) error
}

// RedisSubscriber subscribes to event channels and invokes handler for incoming messages.
type RedisSubscriber interface {
	SubscribeEvent(eventID int64, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Both Redis sides may be nil for a
// single-instance deployment.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[int64]map[string]*Client),
		subs:     make(map[int64]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an event room. Starts the Redis subscription for the event on first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.redisSub != nil {
			eventID := c.EventID
			cancel, err := h.redisSub.SubscribeEvent(eventID, func(event string, payload []byte) {
				h.Broadcast(eventID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.Int64("event_id", eventID), zap.Error(err))
			} else {
				h.subs[eventID] = cancel
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	count := len(h.rooms[c.EventID])
	h.mu.Unlock()
	h.Broadcast(c.EventID, EventViewers, map[string]int{"count": count})
	h.logger.Debug("client joined event feed", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))
}

// Unregister removes a client from an event room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var count int
	if m, ok := h.rooms[c.EventID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		count = len(m)
		if count == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()
	if count > 0 {
		h.Broadcast(c.EventID, EventViewers, map[string]int{"count": count})
	}
	h.logger.Debug("client left event feed", zap.String("client_id", c.ID), zap.Int64("event_id", c.EventID))
}

// Broadcast sends a message to all clients of an event (local only).
func (h *Hub) Broadcast(eventID int64, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal broadcast payload", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers a message to every instance. Without Redis it broadcasts locally.
func (h *Hub) Publish(ctx context.Context, eventID int64, event string, payload interface{}) error {
	if h.redis == nil {
		h.Broadcast(eventID, event, payload)
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.redis.PublishEvent(ctx, eventID, event, data)
}

// AttendanceRecorded announces a committed attendance record on its event's feed.
func (h *Hub) AttendanceRecorded(ctx context.Context, a *models.Attendance) error {
	return h.Publish(ctx, a.EventID, EventAttendanceRecorded, a)
}

// Viewers returns the number of local clients watching an event.
func (h *Hub) Viewers(eventID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}
