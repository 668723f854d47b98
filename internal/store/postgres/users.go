package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

type usersRepo struct {
	db conn
}

const userColumns = `id, documento, nombre, apellido, email, rol, jornada, password_hash, acepta_terminos, activo, fecha_registro`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Document, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.Shift,
		&u.Password, &u.AcceptedTerms, &u.Active, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *usersRepo) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (documento, nombre, apellido, email, rol, jornada, password_hash, acepta_terminos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, activo, fecha_registro`
	err := r.db.QueryRow(ctx, q, u.Document, u.FirstName, u.LastName, u.Email, string(u.Role), u.Shift,
		u.Password, u.AcceptedTerms).Scan(&u.ID, &u.Active, &u.CreatedAt)
	return mapError(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetByDocument(ctx context.Context, document string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE documento = $1`, document))
}

func (r *usersRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY apellido, nombre, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, mapError(rows.Err())
}

func (r *usersRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET activo = $2 WHERE id = $1`, id, active)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) LockForUpdate(ctx context.Context, id int64) error {
	var locked int64
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapError(err)
}
