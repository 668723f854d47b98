package qr

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/pkg/response"
)

// CreateRequest is the body for POST /qr/crear.
type CreateRequest struct {
	EventID   *int64     `json:"evento_id" binding:"omitempty,gt=0"`
	PointID   *int64     `json:"punto_id" binding:"omitempty,gt=0"`
	ExpiresAt *time.Time `json:"fecha_expiracion"`
}

// Handler handles QR HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a QR handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /qr/crear. The token is always issued to the caller.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !response.BindJSON(c, &req) {
		return
	}
	p := middleware.CurrentPrincipal(c)
	tok, err := h.svc.Issue(c.Request.Context(), p.UserID, IssueInput{
		EventID:   req.EventID,
		PointID:   req.PointID,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tok)
}

// List handles GET /qr/listar.
func (h *Handler) List(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	list, err := h.svc.ListForUser(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Deactivate handles POST /qr/:id/desactivar.
func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	tok, err := h.svc.Deactivate(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tok)
}
