package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store"
)

func TestWithTxRollsBack(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Store) error {
		u := &models.User{Document: "1", Email: "a@x.co", Role: models.RoleLearner}
		require.NoError(t, tx.Users().Create(ctx, u))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetByDocument(ctx, "1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNestedTxActsAsSavepoint(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &models.User{Document: "1", Email: "a@x.co", Role: models.RoleLearner}
	require.NoError(t, s.Users().Create(ctx, u))

	err := s.WithTx(ctx, func(tx store.Store) error {
		inner := tx.WithTx(ctx, func(sp store.Store) error {
			require.NoError(t, sp.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "a"}))
			return errors.New("undo")
		})
		require.Error(t, inner)
		return tx.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "b"})
	})
	require.NoError(t, err)

	_, err = s.QRTokens().GetByCode(ctx, "a")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.QRTokens().GetByCode(ctx, "b")
	require.NoError(t, err)
}

func TestLiveTokenUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &models.User{Document: "1", Email: "a@x.co", Role: models.RoleLearner}
	require.NoError(t, s.Users().Create(ctx, u))
	eventID := int64(42)

	require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "a"}))
	require.ErrorIs(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "b"}), store.ErrLiveTokenExists)
	require.NoError(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "c", EventID: &eventID}))
	require.ErrorIs(t, s.QRTokens().Create(ctx, &models.QRToken{UserID: u.ID, Code: "a", EventID: &eventID}), store.ErrDuplicateCode)
}

func TestFailNextIsOneShot(t *testing.T) {
	s := New()
	ctx := context.Background()
	down := errors.New("down")
	s.FailNext("ping", down)

	require.ErrorIs(t, s.Ping(ctx), down)
	require.NoError(t, s.Ping(ctx))
}
