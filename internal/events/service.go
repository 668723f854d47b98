// Package events manages events and the control points attached to them.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

// CreateInput describes a new event.
type CreateInput struct {
	Name         string
	Type         string
	StartsAt     time.Time
	EndsAt       time.Time
	Shift        *string
	InstructorID *int64
}

// PointInput describes a new control point.
type PointInput struct {
	Name        string
	Description string
	Latitude    decimal.Decimal
	Longitude   decimal.Decimal
	EventID     *int64
}

// Service is the event registry.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an event service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Create registers an event on behalf of p. New events are active.
func (s *Service) Create(ctx context.Context, p models.Principal, in CreateInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("el nombre es obligatorio").WithField("nombre")
	}
	typ, ok := models.ParseEventType(in.Type)
	if !ok {
		return nil, apperr.InvalidInput("tipo de evento inválido").WithField("tipo")
	}
	if in.EndsAt.Before(in.StartsAt) {
		return nil, apperr.InvalidInput("la fecha de fin es anterior a la de inicio").WithField("fecha_fin")
	}
	if in.InstructorID != nil {
		if _, err := s.store.Users().GetByID(ctx, *in.InstructorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.NotFound("docente no encontrado").WithField("docente_id")
			}
			return nil, fmt.Errorf("load instructor: %w", err)
		}
	}
	createdBy := p.UserID
	e := &models.Event{
		Name:         name,
		Type:         typ,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Shift:        in.Shift,
		InstructorID: in.InstructorID,
		CreatedBy:    &createdBy,
	}
	if err := s.store.Events().Create(ctx, e); err != nil {
		// The instructor can vanish between the check and the insert.
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("docente no encontrado").WithField("docente_id")
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", zap.Int64("event_id", e.ID), zap.Int64("by", p.UserID))
	return e, nil
}

// Get returns the event with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Event, error) {
	e, err := s.store.Events().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evento no encontrado")
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	return e, nil
}

// List returns all events, latest start first.
func (s *Service) List(ctx context.Context) ([]models.Event, error) {
	list, err := s.store.Events().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// SetActive opens or closes an event for attendance.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*models.Event, error) {
	if err := s.store.Events().SetActive(ctx, id, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evento no encontrado")
		}
		return nil, fmt.Errorf("set event active: %w", err)
	}
	s.logger.Info("event activity changed", zap.Int64("event_id", id), zap.Bool("active", active))
	return s.Get(ctx, id)
}

// Delete removes an event with its points, tokens and attendance.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Events().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("evento no encontrado")
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("event deleted", zap.Int64("event_id", id))
	return nil
}

// CreatePoint registers a control point.
func (s *Service) CreatePoint(ctx context.Context, in PointInput) (*models.ControlPoint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("el nombre es obligatorio").WithField("nombre")
	}
	if in.Latitude.Abs().GreaterThan(maxLatitude) {
		return nil, apperr.InvalidInput("latitud fuera de rango").WithField("latitud")
	}
	if in.Longitude.Abs().GreaterThan(maxLongitude) {
		return nil, apperr.InvalidInput("longitud fuera de rango").WithField("longitud")
	}
	p := &models.ControlPoint{
		Name:        name,
		Description: in.Description,
		Latitude:    in.Latitude.Round(6),
		Longitude:   in.Longitude.Round(6),
		EventID:     in.EventID,
	}
	if err := s.store.ControlPoints().Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evento no encontrado").WithField("evento_id")
		}
		return nil, fmt.Errorf("create control point: %w", err)
	}
	return p, nil
}

// ListPoints returns control points, only those of eventID when set.
func (s *Service) ListPoints(ctx context.Context, eventID *int64) ([]models.ControlPoint, error) {
	list, err := s.store.ControlPoints().List(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list control points: %w", err)
	}
	return list, nil
}
