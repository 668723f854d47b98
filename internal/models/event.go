package models

import (
	"strings"
	"time"
)

// EventType classifies events.
type EventType string

const (
	EventInduction EventType = "inducción"
	EventClass     EventType = "clase"
	EventTour      EventType = "recorrido"
	EventGeneral   EventType = "evento"
)

// ParseEventType accepts the type with or without the accent, any case.
func ParseEventType(s string) (EventType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inducción", "induccion":
		return EventInduction, true
	case "clase":
		return EventClass, true
	case "recorrido":
		return EventTour, true
	case "evento":
		return EventGeneral, true
	}
	return "", false
}

// Event is a scheduled activity attendance is recorded against.
type Event struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Type         EventType `json:"tipo"`
	StartsAt     time.Time `json:"fecha_inicio"`
	EndsAt       time.Time `json:"fecha_fin"`
	Shift        *string   `json:"jornada"`
	InstructorID *int64    `json:"docente"`
	CreatedBy    *int64    `json:"creado_por,omitempty"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fecha_creacion"`
}
