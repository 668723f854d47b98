package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
	"github.com/sena-asistencia/backend/internal/store/postgres"
	"github.com/sena-asistencia/backend/pkg/database"
)

// setupPostgres starts a throwaway PostgreSQL container, applies migrations
// and returns a store bound to it.
func setupPostgres(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "asistencia",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/asistencia?sslmode=disable", host, port.Port())
	require.NoError(t, database.Migrate(dsn, zap.NewNop()))
	// Second run must be a no-op.
	require.NoError(t, database.Migrate(dsn, zap.NewNop()))

	pool, err := database.NewPostgresPool(ctx, dsn, 20, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.New(pool), pool
}

func seedUser(t *testing.T, s store.Store, document string) *models.User {
	t.Helper()
	u := &models.User{
		Document:  document,
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     document + "@example.com",
		Role:      models.RoleLearner,
		Password:  "hash",
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedEvent(t *testing.T, s store.Store) *models.Event {
	t.Helper()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	e := &models.Event{Name: "Inducción", Type: models.EventInduction, StartsAt: start, EndsAt: start.Add(2 * time.Hour)}
	require.NoError(t, s.Events().Create(context.Background(), e))
	return e
}

func TestPostgresStore(t *testing.T) {
	s, pool := setupPostgres(t)
	ctx := context.Background()

	t.Run("duplicate documento and email map to sentinels", func(t *testing.T) {
		seedUser(t, s, "1001")

		dup := &models.User{Document: "1001", FirstName: "B", LastName: "B", Email: "other@example.com", Role: models.RoleLearner, Password: "x"}
		require.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrDuplicateDocument)

		dup = &models.User{Document: "1002", FirstName: "B", LastName: "B", Email: "1001@example.com", Role: models.RoleLearner, Password: "x"}
		require.ErrorIs(t, s.Users().Create(ctx, dup), store.ErrDuplicateEmail)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := s.Events().GetByID(ctx, 999999)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Events().SetActive(ctx, 999999, false), store.ErrNotFound)
	})

	t.Run("concurrent issuance leaves one active token per pair", func(t *testing.T) {
		u := seedUser(t, s, "2001")
		e := seedEvent(t, s)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.WithTx(ctx, func(tx store.Store) error {
					return tx.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, EventID: &e.ID, Code: fmt.Sprintf("race-%d", i)})
				})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			require.ErrorIs(t, err, store.ErrLiveTokenExists)
		}
		require.Equal(t, 1, ok)
	})

	t.Run("code collision inside a savepoint keeps the outer transaction usable", func(t *testing.T) {
		u := seedUser(t, s, "3001")
		other := seedUser(t, s, "3002")
		require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: other.ID, Code: "taken"}))

		err := s.WithTx(ctx, func(tx store.Store) error {
			inner := tx.WithTx(ctx, func(sp store.Store) error {
				return sp.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "taken"})
			})
			require.ErrorIs(t, inner, store.ErrDuplicateCode)
			return tx.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "fresh"})
		})
		require.NoError(t, err)

		tok, err := s.QRTokens().GetByCode(ctx, "fresh")
		require.NoError(t, err)
		require.Equal(t, u.ID, tok.UserID)
	})

	t.Run("expired tokens are retired for the pair", func(t *testing.T) {
		u := seedUser(t, s, "4001")
		past := time.Now().Add(-time.Minute)
		require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "old", ExpiresAt: &past}))

		n, err := s.QRTokens().RetireExpired(ctx, u.ID, nil, time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "new"}))
	})

	t.Run("attendance rows are immutable", func(t *testing.T) {
		u := seedUser(t, s, "5001")
		e := seedEvent(t, s)
		a := &models.Attendance{UserID: u.ID, EventID: e.ID, RecordedAt: time.Now(), Method: models.MethodManual, Status: models.StatusPresent}
		require.NoError(t, s.Attendance().Create(ctx, a))

		_, err := pool.Exec(ctx, `UPDATE asistencias SET estado = 'tarde' WHERE id = $1`, a.ID)
		require.Error(t, err)

		list, err := s.Attendance().ListByEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, models.StatusPresent, list[0].Status)
		require.Equal(t, "5001", list[0].Document)
	})

	t.Run("control point coordinates round-trip", func(t *testing.T) {
		e := seedEvent(t, s)
		p := &models.ControlPoint{
			Name:      "Portería",
			Latitude:  decimal.RequireFromString("4.609710"),
			Longitude: decimal.RequireFromString("-74.081750"),
			EventID:   &e.ID,
		}
		require.NoError(t, s.ControlPoints().Create(ctx, p))

		got, err := s.ControlPoints().GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, p.Latitude.Equal(got.Latitude))
		require.True(t, p.Longitude.Equal(got.Longitude))

		scoped, err := s.ControlPoints().List(ctx, &e.ID)
		require.NoError(t, err)
		require.Len(t, scoped, 1)
	})

	t.Run("deleting an event cascades", func(t *testing.T) {
		u := seedUser(t, s, "6001")
		e := seedEvent(t, s)
		require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, EventID: &e.ID, Code: "cascade"}))
		require.NoError(t, s.Events().Delete(ctx, e.ID))

		_, err := s.QRTokens().GetByCode(ctx, "cascade")
		require.True(t, errors.Is(err, store.ErrNotFound))
	})
}
