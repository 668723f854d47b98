package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/store/storetest"
	"github.com/sena-asistencia/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *storetest.Store) {
	t.Helper()
	st := storetest.New()
	staff := storetest.SeedUser(t, st, "1", models.RoleStaff)
	h := NewHandler(NewService(st, nil))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, staff.ID)
		c.Set(middleware.ContextUserRole, staff.Role)
	})
	r.POST("/eventos/crear", h.Create)
	r.GET("/eventos/listar", h.List)
	r.GET("/eventos/:id", h.Get)
	r.PATCH("/eventos/:id/activo", h.SetActive)
	r.DELETE("/eventos/:id", h.Delete)
	r.POST("/puntos/crear", h.CreatePoint)
	r.GET("/puntos/listar", h.ListPoints)
	return r, st
}

func send(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var b response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &b)
	return w, b
}

func TestHandler_EventLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w, body := send(r, http.MethodPost, "/eventos/crear",
		`{"nombre":"Inducción","tipo":"inducción","fecha_inicio":"2026-03-02T08:00:00Z","fecha_fin":"2026-03-02T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int64(body.Data.(map[string]interface{})["id"].(float64))

	w, body = send(r, http.MethodPost, "/eventos/crear",
		`{"nombre":"Clase","tipo":"clase","fecha_inicio":"ayer","fecha_fin":"2026-03-02T10:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "fecha_inicio", body.Field)

	w, _ = send(r, http.MethodPatch, fmt.Sprintf("/eventos/%d/activo", id), `{"activo":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = send(r, http.MethodPatch, fmt.Sprintf("/eventos/%d/activo", id), `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "activo", body.Field)

	w, body = send(r, http.MethodGet, fmt.Sprintf("/eventos/%d", id), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body.Data.(map[string]interface{})["activo"])

	w, _ = send(r, http.MethodGet, "/eventos/listar", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = send(r, http.MethodDelete, fmt.Sprintf("/eventos/%d", id), "")
	require.Equal(t, http.StatusNoContent, w.Code)
	w, _ = send(r, http.MethodGet, fmt.Sprintf("/eventos/%d", id), "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Points(t *testing.T) {
	r, st := newTestRouter(t)
	e := storetest.SeedEvent(t, st, true)

	w, body := send(r, http.MethodPost, "/puntos/crear",
		fmt.Sprintf(`{"nombre":"Portería","latitud":"4.60971","longitud":-74.08175,"evento_id":%d}`, e.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "4.60971", body.Data.(map[string]interface{})["latitud"])

	w, body = send(r, http.MethodPost, "/puntos/crear", `{"nombre":"x","longitud":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "latitud", body.Field)

	w, body = send(r, http.MethodPost, "/puntos/crear", `{"nombre":"x","latitud":91,"longitud":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "latitud", body.Field)

	w, body = send(r, http.MethodGet, fmt.Sprintf("/puntos/listar?evento_id=%d", e.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Data, 1)

	w, _ = send(r, http.MethodGet, "/puntos/listar?evento_id=abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
