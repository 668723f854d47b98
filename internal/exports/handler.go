package exports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/pkg/response"
)

// Handler handles export endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an export handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Request handles POST /eventos/:id/asistencias/exportar.
func (h *Handler) Request(c *gin.Context) {
	eventID, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	x, err := h.svc.Request(c.Request.Context(), middleware.CurrentPrincipal(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, x)
}

// Get handles GET /exportaciones/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperr.InvalidInput("identificador inválido").WithField("id"))
		return
	}
	v, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}
