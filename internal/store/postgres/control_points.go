package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sena-asistencia/backend/internal/models"
)

type controlPointsRepo struct {
	db conn
}

const pointColumns = `id, nombre, descripcion, latitud, longitud, evento_id`

func scanPoint(row pgx.Row) (*models.ControlPoint, error) {
	var p models.ControlPoint
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Latitude, &p.Longitude, &p.EventID); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *controlPointsRepo) Create(ctx context.Context, p *models.ControlPoint) error {
	const q = `INSERT INTO puntos_control (nombre, descripcion, latitud, longitud, evento_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, q, p.Name, p.Description, p.Latitude, p.Longitude, p.EventID).Scan(&p.ID)
	return mapError(err)
}

func (r *controlPointsRepo) GetByID(ctx context.Context, id int64) (*models.ControlPoint, error) {
	return scanPoint(r.db.QueryRow(ctx, `SELECT `+pointColumns+` FROM puntos_control WHERE id = $1`, id))
}

func (r *controlPointsRepo) List(ctx context.Context, eventID *int64) ([]models.ControlPoint, error) {
	rows, err := r.db.Query(ctx, `SELECT `+pointColumns+` FROM puntos_control
		WHERE $1::bigint IS NULL OR evento_id = $1
		ORDER BY id`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.ControlPoint{}
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, mapError(rows.Err())
}
