package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportStatus is the lifecycle state of an attendance export.
type ExportStatus string

const (
	ExportPending   ExportStatus = "pendiente"
	ExportCompleted ExportStatus = "completado"
	ExportFailed    ExportStatus = "fallido"
)

// AttendanceExport is a CSV snapshot of an event's attendance stored in S3.
type AttendanceExport struct {
	ID          uuid.UUID    `json:"id"`
	EventID     int64        `json:"evento"`
	RequestedBy *int64       `json:"solicitado_por"`
	Status      ExportStatus `json:"estado"`
	ObjectKey   string       `json:"-"`
	Rows        int          `json:"filas"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"fecha_creacion"`
	CompletedAt *time.Time   `json:"fecha_completado,omitempty"`
}
