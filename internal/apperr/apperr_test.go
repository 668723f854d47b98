package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("evento no encontrado").WithField("evento_id")
	wrapped := fmt.Errorf("register attendance: %w", base)

	e, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, KindNotFound, e.Kind)
	require.Equal(t, "evento_id", e.Field)
	require.True(t, Is(wrapped, KindNotFound))
	require.False(t, Is(wrapped, KindConflict))
}

func TestUnclassified(t *testing.T) {
	require.Equal(t, Kind(""), KindOf(errors.New("boom")))
	_, ok := As(nil)
	require.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("almacenamiento no disponible", cause)
	require.ErrorIs(t, err, cause)

	c := Conflict("duplicado").Wrap(cause)
	require.ErrorIs(t, c, cause)
	require.Contains(t, c.Error(), "connection refused")
}

func TestWithFieldDoesNotMutate(t *testing.T) {
	orig := InvalidInput("valor inválido")
	_ = orig.WithField("rol")
	require.Empty(t, orig.Field)
}
