package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Body {
	t.Helper()
	var b Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperr.NotFound("evento no encontrado"), http.StatusNotFound, "not_found"},
		{"conflict", apperr.Conflict("ya existe"), http.StatusBadRequest, "conflict"},
		{"invalid state", apperr.InvalidState("evento inactivo"), http.StatusBadRequest, "invalid_state"},
		{"invalid token", fmt.Errorf("wrap: %w", apperr.InvalidToken("QR inválido")), http.StatusBadRequest, "invalid_token"},
		{"unauthorized", apperr.Unauthorized("no"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperr.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{"unavailable sentinel", fmt.Errorf("%w: dial", store.ErrUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{"unclassified", errors.New("pq: something"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)

			require.Equal(t, tt.status, w.Code)
			b := decode(t, w)
			require.False(t, b.Success)
			require.Equal(t, tt.code, b.Code)
			require.NotContains(t, b.Error, "pq:")
		})
	}
}

func TestError_CarriesField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, apperr.InvalidInput("fecha_fin anterior a fecha_inicio").WithField("fecha_fin"))

	b := decode(t, w)
	require.Equal(t, "fecha_fin", b.Field)
}

type sampleRequest struct {
	Documento string `json:"documento" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Cantidad  int    `json:"cantidad"`
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ok    bool
		field string
	}{
		{"valid", `{"documento":"123","email":"a@b.co"}`, true, ""},
		{"missing required", `{"email":"a@b.co"}`, false, "documento"},
		{"bad email", `{"documento":"1","email":"nope"}`, false, "email"},
		{"wrong type", `{"documento":"1","cantidad":"x"}`, false, "cantidad"},
		{"empty body", ``, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req sampleRequest
			require.Equal(t, tt.ok, BindJSON(c, &req))
			if tt.ok {
				return
			}
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tt.field, decode(t, w).Field)
		})
	}
}
