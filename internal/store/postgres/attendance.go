package postgres

import (
	"context"

	"github.com/sena-asistencia/backend/internal/models"
)

type attendanceRepo struct {
	db conn
}

func (r *attendanceRepo) Create(ctx context.Context, a *models.Attendance) error {
	const q = `INSERT INTO asistencias (usuario_id, evento_id, punto_id, qr_id, fecha_registro, metodo, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRow(ctx, q, a.UserID, a.EventID, a.PointID, a.QRTokenID, a.RecordedAt,
		string(a.Method), string(a.Status)).Scan(&a.ID)
	return mapError(err)
}

func (r *attendanceRepo) ListByUser(ctx context.Context, userID int64) ([]models.Attendance, error) {
	rows, err := r.db.Query(ctx, `SELECT id, usuario_id, evento_id, punto_id, qr_id, fecha_registro, metodo, estado
		FROM asistencias WHERE usuario_id = $1
		ORDER BY fecha_registro DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.Attendance{}
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.EventID, &a.PointID, &a.QRTokenID, &a.RecordedAt, &a.Method, &a.Status); err != nil {
			return nil, mapError(err)
		}
		list = append(list, a)
	}
	return list, mapError(rows.Err())
}

func (r *attendanceRepo) ListByEvent(ctx context.Context, eventID int64) ([]models.AttendanceDetail, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.usuario_id, a.evento_id, a.punto_id, a.qr_id, a.fecha_registro,
		a.metodo, a.estado, u.documento, u.nombre, u.apellido
		FROM asistencias a JOIN users u ON u.id = a.usuario_id
		WHERE a.evento_id = $1
		ORDER BY a.fecha_registro, a.id`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	list := []models.AttendanceDetail{}
	for rows.Next() {
		var d models.AttendanceDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.EventID, &d.PointID, &d.QRTokenID, &d.RecordedAt,
			&d.Method, &d.Status, &d.Document, &d.FirstName, &d.LastName); err != nil {
			return nil, mapError(err)
		}
		list = append(list, d)
	}
	return list, mapError(rows.Err())
}

func (r *attendanceRepo) ExistsForUserEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM asistencias WHERE usuario_id = $1 AND evento_id = $2)`,
		userID, eventID).Scan(&exists)
	return exists, mapError(err)
}
