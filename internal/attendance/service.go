// Package attendance records and lists attendance at events.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/qr"
	"github.com/sena-asistencia/backend/internal/store"
)

// Notifier is told about committed records. Failures are logged, never returned.
type Notifier interface {
	AttendanceRecorded(ctx context.Context, a *models.Attendance) error
}

// Config controls the registrar.
type Config struct {
	AllowDuplicates bool
}

// RegisterInput is an attendance claim. The attendee is always the caller.
type RegisterInput struct {
	EventID int64
	Method  string
	Status  string
	Code    string
	PointID *int64
}

// Service is the attendance registrar.
type Service struct {
	store    store.Store
	qr       *qr.Service
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	clockMu sync.Mutex
	last    time.Time
	now     func() time.Time
}

// NewService creates a registrar. notifier may be nil.
func NewService(st store.Store, qrs *qr.Service, notifier Notifier, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, qr: qrs, notifier: notifier, cfg: cfg, logger: logger, now: time.Now}
}

// timestamp returns the node clock, never earlier than a previous call.
func (s *Service) timestamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// Register validates a claim and records it in a single transaction.
func (s *Service) Register(ctx context.Context, p models.Principal, in RegisterInput) (*models.Attendance, error) {
	method, ok := models.ParseMethod(in.Method)
	if !ok {
		return nil, apperr.InvalidInput("método inválido").WithField("metodo")
	}
	status, ok := models.ParseStatus(in.Status)
	if !ok {
		return nil, apperr.InvalidInput("estado inválido").WithField("estado")
	}
	code := strings.TrimSpace(in.Code)
	if method == models.MethodQR && code == "" {
		return nil, apperr.InvalidInput("el código QR es obligatorio para el método qr").WithField("codigo_qr")
	}

	a := &models.Attendance{
		UserID:  p.UserID,
		EventID: in.EventID,
		PointID: in.PointID,
		Method:  method,
		Status:  status,
	}
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		ev, err := tx.Events().GetForShare(ctx, in.EventID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("evento no encontrado").WithField("evento_id")
			}
			return fmt.Errorf("load event: %w", err)
		}
		if !ev.Active {
			return apperr.InvalidState("el evento no está activo").WithField("evento_id")
		}

		if method == models.MethodQR {
			tok, err := s.qr.ValidateWith(ctx, tx, code, ev.ID)
			if err != nil {
				return err
			}
			if tok.UserID != p.UserID {
				return apperr.InvalidToken("el código QR pertenece a otro usuario").WithField("codigo_qr")
			}
			if err := s.qr.Consume(ctx, tx, tok); err != nil {
				return err
			}
			a.QRTokenID = &tok.ID
			if a.PointID == nil {
				a.PointID = tok.PointID
			}
		}

		if a.PointID != nil {
			pt, err := tx.ControlPoints().GetByID(ctx, *a.PointID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.NotFound("punto de control no encontrado").WithField("punto_id")
				}
				return fmt.Errorf("load control point: %w", err)
			}
			if !pt.BelongsTo(ev.ID) {
				return apperr.InvalidInput("el punto de control pertenece a otro evento").WithField("punto_id")
			}
		}

		if !s.cfg.AllowDuplicates {
			if err := tx.Users().LockForUpdate(ctx, p.UserID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.NotFound("usuario no encontrado")
				}
				return fmt.Errorf("lock user: %w", err)
			}
			exists, err := tx.Attendance().ExistsForUserEvent(ctx, p.UserID, ev.ID)
			if err != nil {
				return fmt.Errorf("check duplicate attendance: %w", err)
			}
			if exists {
				return apperr.Conflict("la asistencia ya fue registrada para este evento")
			}
		}

		a.RecordedAt = s.timestamp()
		if err := tx.Attendance().Create(ctx, a); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("usuario no encontrado")
			}
			return fmt.Errorf("create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance recorded",
		zap.Int64("attendance_id", a.ID),
		zap.Int64("user_id", a.UserID),
		zap.Int64("event_id", a.EventID),
		zap.String("method", string(a.Method)),
	)
	if s.notifier != nil {
		if err := s.notifier.AttendanceRecorded(ctx, a); err != nil {
			s.logger.Warn("attendance notification failed", zap.Int64("attendance_id", a.ID), zap.Error(err))
		}
	}
	return a, nil
}

// HistoryForUser returns the user's records, newest first.
func (s *Service) HistoryForUser(ctx context.Context, userID int64) ([]models.Attendance, error) {
	list, err := s.store.Attendance().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return list, nil
}

// ListForEvent returns an event's records with attendee identity, oldest first.
func (s *Service) ListForEvent(ctx context.Context, eventID int64) ([]models.AttendanceDetail, error) {
	if _, err := s.store.Events().GetByID(ctx, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evento no encontrado")
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	list, err := s.store.Attendance().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event attendance: %w", err)
	}
	return list, nil
}
