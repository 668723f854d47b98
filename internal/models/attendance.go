package models

import (
	"strings"
	"time"
)

// Method is how an attendance claim was proven.
type Method string

const (
	MethodQR     Method = "qr"
	MethodGPS    Method = "gps"
	MethodManual Method = "manual"
)

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodQR, MethodGPS, MethodManual:
		return m, true
	}
	return "", false
}

// Status is the recorded attendance outcome.
type Status string

const (
	StatusPresent Status = "presente"
	StatusAbsent  Status = "ausente"
	StatusLate    Status = "tarde"
)

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPresent, StatusAbsent, StatusLate:
		return st, true
	}
	return "", false
}

// Attendance is an immutable record that a user attended an event.
type Attendance struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"usuario"`
	EventID    int64     `json:"evento"`
	PointID    *int64    `json:"punto"`
	QRTokenID  *int64    `json:"qr,omitempty"`
	RecordedAt time.Time `json:"fecha_registro"`
	Method     Method    `json:"metodo"`
	Status     Status    `json:"estado"`
}

// AttendanceDetail is an attendance row joined with the attendee's identity.
type AttendanceDetail struct {
	Attendance
	Document  string `json:"documento"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
}
