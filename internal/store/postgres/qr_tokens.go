package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

type qrTokensRepo struct {
	db conn
}

const qrColumns = `id, usuario_id, codigo, evento_id, punto_id, fecha_creacion, fecha_expiracion, activo`

func scanQR(row pgx.Row) (*models.QRToken, error) {
	var t models.QRToken
	err := row.Scan(&t.ID, &t.UserID, &t.Code, &t.EventID, &t.PointID, &t.CreatedAt, &t.ExpiresAt, &t.Active)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *qrTokensRepo) Create(ctx context.Context, t *models.QRToken) error {
	const q = `INSERT INTO qr_tokens (usuario_id, codigo, evento_id, punto_id, fecha_expiracion)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fecha_creacion, activo`
	err := r.db.QueryRow(ctx, q, t.UserID, t.Code, t.EventID, t.PointID, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt, &t.Active)
	return mapError(err)
}

func (r *qrTokensRepo) GetByID(ctx context.Context, id int64) (*models.QRToken, error) {
	return scanQR(r.db.QueryRow(ctx, `SELECT `+qrColumns+` FROM qr_tokens WHERE id = $1`, id))
}

func (r *qrTokensRepo) GetByCode(ctx context.Context, code string) (*models.QRToken, error) {
	return scanQR(r.db.QueryRow(ctx, `SELECT `+qrColumns+` FROM qr_tokens WHERE codigo = $1`, code))
}

func (r *qrTokensRepo) ListByUser(ctx context.Context, userID int64) ([]models.QRToken, error) {
	rows, err := r.db.Query(ctx, `SELECT `+qrColumns+` FROM qr_tokens
		WHERE usuario_id = $1 ORDER BY fecha_creacion DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.QRToken{}
	for rows.Next() {
		t, err := scanQR(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, mapError(rows.Err())
}

func (r *qrTokensRepo) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE qr_tokens SET activo = FALSE WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *qrTokensRepo) RetireExpired(ctx context.Context, userID int64, eventID *int64, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE qr_tokens SET activo = FALSE
		WHERE usuario_id = $1 AND evento_id IS NOT DISTINCT FROM $2::bigint
		AND activo AND fecha_expiracion IS NOT NULL AND fecha_expiracion <= $3`, userID, eventID, now)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *qrTokensRepo) RetireAllExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE qr_tokens SET activo = FALSE
		WHERE activo AND fecha_expiracion IS NOT NULL AND fecha_expiracion <= $1`, now)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
