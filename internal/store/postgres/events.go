package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

type eventsRepo struct {
	db conn
}

const eventColumns = `id, nombre, tipo, fecha_inicio, fecha_fin, jornada, docente_id, creado_por, activo, fecha_creacion`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Type, &e.StartsAt, &e.EndsAt, &e.Shift, &e.InstructorID,
		&e.CreatedBy, &e.Active, &e.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *eventsRepo) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO eventos (nombre, tipo, fecha_inicio, fecha_fin, jornada, docente_id, creado_por)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, activo, fecha_creacion`
	err := r.db.QueryRow(ctx, q, e.Name, string(e.Type), e.StartsAt, e.EndsAt, e.Shift, e.InstructorID, e.CreatedBy).
		Scan(&e.ID, &e.Active, &e.CreatedAt)
	return mapError(err)
}

func (r *eventsRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM eventos WHERE id = $1`, id))
}

func (r *eventsRepo) GetForShare(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM eventos WHERE id = $1 FOR SHARE`, id))
}

func (r *eventsRepo) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM eventos ORDER BY fecha_inicio DESC, id DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, mapError(rows.Err())
}

func (r *eventsRepo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE eventos SET activo = $2 WHERE id = $1`, id, active)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *eventsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM eventos WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
