package attendance

import (
	"github.com/gin-gonic/gin"

	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/pkg/response"
)

// RegisterRequest is the body for POST /asistencias/registrar.
type RegisterRequest struct {
	EventID int64  `json:"evento_id" binding:"required,gt=0"`
	Method  string `json:"metodo" binding:"required"`
	Status  string `json:"estado" binding:"required"`
	Code    string `json:"codigo_qr"`
	PointID *int64 `json:"punto_id" binding:"omitempty,gt=0"`
}

// Handler handles attendance endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an attendance handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles POST /asistencias/registrar.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !response.BindJSON(c, &req) {
		return
	}
	a, err := h.svc.Register(c.Request.Context(), middleware.CurrentPrincipal(c), RegisterInput{
		EventID: req.EventID,
		Method:  req.Method,
		Status:  req.Status,
		Code:    req.Code,
		PointID: req.PointID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// History handles GET /asistencias/listar and /asistencias/historial.
func (h *Handler) History(c *gin.Context) {
	list, err := h.svc.HistoryForUser(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListForEvent handles GET /eventos/:id/asistencias (docente/admin).
func (h *Handler) ListForEvent(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListForEvent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
