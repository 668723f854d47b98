package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sena-asistencia/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicateDocument = errors.New("store: documento already registered")
	ErrDuplicateEmail    = errors.New("store: email already registered")
	ErrDuplicateCode     = errors.New("store: qr codigo already exists")
	ErrLiveTokenExists   = errors.New("store: active qr token exists for user and event")
	ErrUnavailable       = errors.New("store: unavailable")
)

// Store is the root data access interface. Sub-repositories keep concerns
// apart; a Store returned to a WithTx callback is bound to that transaction.
type Store interface {
	Users() Users
	Events() Events
	ControlPoints() ControlPoints
	QRTokens() QRTokens
	Attendance() Attendance
	Exports() Exports

	// WithTx runs fn in a transaction, committing when fn returns nil.
	// Called on a transaction-bound Store it opens a savepoint instead, so a
	// failed inner step can be rolled back without aborting the outer work.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// Create inserts u and fills ID, CreatedAt and Active.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByDocument(ctx context.Context, document string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetActive(ctx context.Context, id int64, active bool) error

	// LockForUpdate takes a row lock on the user until the transaction ends.
	// Used to serialise per-user checks that cannot be expressed as constraints.
	LockForUpdate(ctx context.Context, id int64) error
}

type Events interface {
	// Create inserts e and fills ID, CreatedAt and Active.
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)

	// GetForShare reads the event and holds a shared lock on it, so a
	// concurrent deactivation waits for the caller's transaction.
	GetForShare(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type ControlPoints interface {
	Create(ctx context.Context, p *models.ControlPoint) error
	GetByID(ctx context.Context, id int64) (*models.ControlPoint, error)

	// List returns every point, or only those scoped to eventID when set.
	List(ctx context.Context, eventID *int64) ([]models.ControlPoint, error)
}

type QRTokens interface {
	// Create inserts t. It returns ErrDuplicateCode when the code is taken
	// and ErrLiveTokenExists when the user already holds an active token
	// for the same event (or for no event).
	Create(ctx context.Context, t *models.QRToken) error
	GetByID(ctx context.Context, id int64) (*models.QRToken, error)
	GetByCode(ctx context.Context, code string) (*models.QRToken, error)
	ListByUser(ctx context.Context, userID int64) ([]models.QRToken, error)
	Deactivate(ctx context.Context, id int64) error

	// RetireExpired deactivates the user's expired tokens for eventID
	// (nil meaning event-less tokens).
	RetireExpired(ctx context.Context, userID int64, eventID *int64, now time.Time) (int64, error)

	// RetireAllExpired deactivates every expired token.
	RetireAllExpired(ctx context.Context, now time.Time) (int64, error)
}

type Attendance interface {
	// Create inserts a; RecordedAt must already be set.
	Create(ctx context.Context, a *models.Attendance) error

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID int64) ([]models.Attendance, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.AttendanceDetail, error)
	ExistsForUserEvent(ctx context.Context, userID, eventID int64) (bool, error)
}

type Exports interface {
	Create(ctx context.Context, e *models.AttendanceExport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceExport, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, objectKey string, rows int, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}
