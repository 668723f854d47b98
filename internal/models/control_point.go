package models

import "github.com/shopspring/decimal"

// ControlPoint is a named geographic checkpoint, optionally scoped to one event.
type ControlPoint struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion"`
	Latitude    decimal.Decimal `json:"latitud"`
	Longitude   decimal.Decimal `json:"longitud"`
	EventID     *int64          `json:"evento"`
}

// BelongsTo reports whether the point can be used for the given event.
// Unscoped points are valid for any event.
func (p *ControlPoint) BelongsTo(eventID int64) bool {
	return p.EventID == nil || *p.EventID == eventID
}
