package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/internal/models"
)

// SeedUser inserts a user with the given document and role. The password
// hash is empty, so the user cannot log in.
func SeedUser(t testing.TB, s *Store, document string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Document:  document,
		FirstName: "Nombre" + document,
		LastName:  "Apellido" + document,
		Email:     document + "@sena.test",
		Role:      role,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

// SeedEvent inserts an event starting at 2026-03-02 08:00 UTC and sets its
// activity flag.
func SeedEvent(t testing.TB, s *Store, active bool) *models.Event {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	e := &models.Event{
		Name:     "Inducción",
		Type:     models.EventInduction,
		StartsAt: start,
		EndsAt:   start.Add(2 * time.Hour),
	}
	require.NoError(t, s.Events().Create(ctx, e))
	if !active {
		require.NoError(t, s.Events().SetActive(ctx, e.ID, false))
		e.Active = false
	}
	return e
}

// SeedPoint inserts a control point, optionally scoped to eventID.
func SeedPoint(t testing.TB, s *Store, eventID *int64) *models.ControlPoint {
	t.Helper()
	p := &models.ControlPoint{Name: "Portería", EventID: eventID}
	require.NoError(t, s.ControlPoints().Create(context.Background(), p))
	return p
}

// SeedToken inserts a QR token with the given code.
func SeedToken(t testing.TB, s *Store, userID int64, eventID *int64, code string, expiresAt *time.Time) *models.QRToken {
	t.Helper()
	tok := &models.QRToken{UserID: userID, EventID: eventID, Code: code, ExpiresAt: expiresAt}
	require.NoError(t, s.QRTokens().Create(context.Background(), tok))
	return tok
}
