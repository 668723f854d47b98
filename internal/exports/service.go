// Package exports produces CSV snapshots of an event's attendance in object storage.
package exports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
	"github.com/sena-asistencia/backend/pkg/queue"
)

// Enqueuer schedules export jobs.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, p queue.ExportPayload) error
}

// Presigner returns time-limited download links for stored exports.
type Presigner interface {
	PresignExport(ctx context.Context, key string) (string, error)
}

// View is an export plus its download link once completed.
type View struct {
	*models.AttendanceExport
	DownloadURL string `json:"url,omitempty"`
}

// Service accepts export requests and reports their progress.
type Service struct {
	store     store.Store
	jobs      Enqueuer
	presigner Presigner
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an export service.
func NewService(st store.Store, jobs Enqueuer, presigner Presigner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, jobs: jobs, presigner: presigner, logger: logger, now: time.Now}
}

// Request records a pending export for eventID and schedules it.
func (s *Service) Request(ctx context.Context, p models.Principal, eventID int64) (*models.AttendanceExport, error) {
	requestedBy := p.UserID
	x := &models.AttendanceExport{
		ID:          uuid.New(),
		EventID:     eventID,
		RequestedBy: &requestedBy,
		Status:      models.ExportPending,
	}
	if err := s.store.Exports().Create(ctx, x); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evento no encontrado")
		}
		return nil, fmt.Errorf("create export: %w", err)
	}
	if err := s.jobs.EnqueueExport(ctx, queue.ExportPayload{ExportID: x.ID, EventID: eventID}); err != nil {
		s.logger.Error("enqueue export failed", zap.String("export_id", x.ID.String()), zap.Error(err))
		if markErr := s.store.Exports().MarkFailed(ctx, x.ID, "no se pudo encolar", s.now()); markErr != nil {
			s.logger.Error("mark export failed", zap.String("export_id", x.ID.String()), zap.Error(markErr))
		}
		return nil, apperr.Unavailable("cola de trabajos no disponible", err)
	}
	s.logger.Info("export requested", zap.String("export_id", x.ID.String()), zap.Int64("event_id", eventID))
	return x, nil
}

// Get returns an export. Completed exports carry a pre-signed download URL.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	x, err := s.store.Exports().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("exportación no encontrada")
		}
		return nil, fmt.Errorf("load export: %w", err)
	}
	v := &View{AttendanceExport: x}
	if x.Status == models.ExportCompleted && x.ObjectKey != "" {
		url, err := s.presigner.PresignExport(ctx, x.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("presign export: %w", err)
		}
		v.DownloadURL = url
	}
	return v, nil
}
