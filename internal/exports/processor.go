package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
	"github.com/sena-asistencia/backend/pkg/queue"
	"github.com/sena-asistencia/backend/pkg/storage"
)

var csvHeader = []string{"id", "documento", "nombre", "apellido", "metodo", "estado", "fecha_registro", "punto_id"}

// ObjectStore receives finished export files.
type ObjectStore interface {
	PutExport(ctx context.Context, key string, body io.Reader, size int64) error
}

// Processor executes attendance export jobs.
type Processor struct {
	store   store.Store
	objects ObjectStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewProcessor creates an export job processor.
func NewProcessor(st store.Store, objects ObjectStore, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: st, objects: objects, logger: logger, now: time.Now}
}

// Process executes one export job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodeExport(job)
	if err != nil {
		return err
	}
	x, err := p.store.Exports().GetByID(ctx, payload.ExportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted together with its event; nothing to do.
			p.logger.Info("export gone, skipping", zap.String("export_id", payload.ExportID.String()))
			return nil
		}
		return fmt.Errorf("load export: %w", err)
	}
	if x.Status == models.ExportCompleted {
		p.logger.Info("export already completed", zap.String("export_id", x.ID.String()))
		return nil
	}

	rows, err := p.store.Attendance().ListByEvent(ctx, x.EventID)
	if err != nil {
		return fmt.Errorf("list attendance: %w", err)
	}
	body, err := encodeCSV(rows)
	if err != nil {
		return err
	}
	key := storage.ExportKey(x.EventID, x.ID.String())
	if err := p.objects.PutExport(ctx, key, bytes.NewReader(body), int64(len(body))); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.store.Exports().MarkCompleted(ctx, x.ID, key, len(rows), p.now()); err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	p.logger.Info("export completed", zap.String("export_id", x.ID.String()), zap.String("s3_key", key), zap.Int("rows", len(rows)))
	return nil
}

// Abandon marks the job's export as failed once retries are exhausted.
func (p *Processor) Abandon(ctx context.Context, job *queue.Job, cause error) {
	payload, err := queue.DecodeExport(job)
	if err != nil {
		return
	}
	if err := p.store.Exports().MarkFailed(ctx, payload.ExportID, cause.Error(), p.now()); err != nil && !errors.Is(err, store.ErrNotFound) {
		p.logger.Error("mark export failed", zap.String("export_id", payload.ExportID.String()), zap.Error(err))
	}
}

func encodeCSV(rows []models.AttendanceDetail) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	for _, r := range rows {
		point := ""
		if r.PointID != nil {
			point = strconv.FormatInt(*r.PointID, 10)
		}
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Document,
			r.FirstName,
			r.LastName,
			string(r.Method),
			string(r.Status),
			r.RecordedAt.UTC().Format(time.RFC3339),
			point,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
