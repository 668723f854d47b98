package models

import "time"

// QRToken is an opaque identifier proving a user's identity at an event.
type QRToken struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"usuario"`
	Code      string     `json:"codigo"`
	EventID   *int64     `json:"evento"`
	PointID   *int64     `json:"punto"`
	CreatedAt time.Time  `json:"fecha_creacion"`
	ExpiresAt *time.Time `json:"fecha_expiracion"`
	Active    bool       `json:"activo"`
}

// Expired reports whether the token's expiry is at or before now.
func (t *QRToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Live reports whether the token is usable at now.
func (t *QRToken) Live(now time.Time) bool {
	return t.Active && !t.Expired(now)
}
