package qr

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

func newTestRouter(h *Handler, p models.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, p.UserID)
		c.Set(middleware.ContextUserRole, p.Role)
	})
	r.POST("/qr/crear", h.Create)
	r.GET("/qr/listar", h.List)
	r.POST("/qr/:id/desactivar", h.Deactivate)
	return r
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var b response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &b)
	return w, b
}

func TestHandler_CreateAndList(t *testing.T) {
	svc, st := newTestService(t, Config{})
	u := storetest.SeedUser(t, st, "100", models.RoleLearner)
	e := storetest.SeedEvent(t, st, true)
	r := newTestRouter(NewHandler(svc), models.Principal{UserID: u.ID, Role: u.Role})

	w, body := do(r, http.MethodPost, "/qr/crear", fmt.Sprintf(`{"evento_id":%d}`, e.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, body.Success)

	w, body = do(r, http.MethodPost, "/qr/crear", fmt.Sprintf(`{"evento_id":%d}`, e.ID))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "conflict", body.Code)

	w, body = do(r, http.MethodPost, "/qr/crear", `{"evento_id":9999}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "evento_id", body.Field)

	w, body = do(r, http.MethodPost, "/qr/crear", `{"evento_id":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "evento_id", body.Field)

	w, body = do(r, http.MethodGet, "/qr/listar", "")
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := body.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
}

func TestHandler_Deactivate(t *testing.T) {
	svc, st := newTestService(t, Config{})
	owner := storetest.SeedUser(t, st, "100", models.RoleLearner)
	other := storetest.SeedUser(t, st, "200", models.RoleLearner)
	tok := storetest.SeedToken(t, st, owner.ID, nil, "code", nil)

	r := newTestRouter(NewHandler(svc), models.Principal{UserID: other.ID, Role: other.Role})
	w, _ := do(r, http.MethodPost, fmt.Sprintf("/qr/%d/desactivar", tok.ID), "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(r, http.MethodPost, "/qr/abc/desactivar", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(NewHandler(svc), models.Principal{UserID: owner.ID, Role: owner.Role})
	w, body := do(r, http.MethodPost, fmt.Sprintf("/qr/%d/desactivar", tok.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body.Data.(map[string]interface{})["activo"])
}
