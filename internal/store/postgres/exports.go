package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

type exportsRepo struct {
	db conn
}

func (r *exportsRepo) Create(ctx context.Context, e *models.AttendanceExport) error {
	const q = `INSERT INTO exportaciones (id, evento_id, solicitado_por, estado)
		VALUES ($1, $2, $3, $4) RETURNING fecha_creacion`
	return mapError(r.db.QueryRow(ctx, q, e.ID, e.EventID, e.RequestedBy, string(e.Status)).Scan(&e.CreatedAt))
}

func (r *exportsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceExport, error) {
	var e models.AttendanceExport
	err := r.db.QueryRow(ctx, `SELECT id, evento_id, solicitado_por, estado, object_key, filas, error,
		fecha_creacion, fecha_completado FROM exportaciones WHERE id = $1`, id).
		Scan(&e.ID, &e.EventID, &e.RequestedBy, &e.Status, &e.ObjectKey, &e.Rows, &e.Error, &e.CreatedAt, &e.CompletedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *exportsRepo) MarkCompleted(ctx context.Context, id uuid.UUID, objectKey string, rows int, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE exportaciones SET estado = $2, object_key = $3, filas = $4, error = '', fecha_completado = $5
		WHERE id = $1`, id, string(models.ExportCompleted), objectKey, rows, at)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *exportsRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE exportaciones SET estado = $2, error = $3, fecha_completado = $4
		WHERE id = $1`, id, string(models.ExportFailed), reason, at)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
