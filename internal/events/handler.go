package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /eventos/crear.
type CreateRequest struct {
	Name         string  `json:"nombre" binding:"required,max=100"`
	Type         string  `json:"tipo" binding:"required"`
	StartsAt     string  `json:"fecha_inicio" binding:"required"`
	EndsAt       string  `json:"fecha_fin" binding:"required"`
	Shift        *string `json:"jornada" binding:"omitempty,max=50"`
	InstructorID *int64  `json:"docente_id" binding:"omitempty,gt=0"`
}

// SetActiveRequest is the body for PATCH /eventos/:id/activo.
type SetActiveRequest struct {
	Active *bool `json:"activo" binding:"required"`
}

// CreatePointRequest is the body for POST /puntos/crear.
type CreatePointRequest struct {
	Name        string           `json:"nombre" binding:"required,max=100"`
	Description string           `json:"descripcion"`
	Latitude    *decimal.Decimal `json:"latitud" binding:"required"`
	Longitude   *decimal.Decimal `json:"longitud" binding:"required"`
	EventID     *int64           `json:"evento_id" binding:"omitempty,gt=0"`
}

// Handler handles event and control point endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an event handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /eventos/crear.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !response.BindJSON(c, &req) {
		return
	}
	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.Error(c, apperr.InvalidInput("fecha inválida, use RFC 3339").WithField("fecha_inicio"))
		return
	}
	endsAt, err := parseTime(req.EndsAt)
	if err != nil {
		response.Error(c, apperr.InvalidInput("fecha inválida, use RFC 3339").WithField("fecha_fin"))
		return
	}
	e, err := h.svc.Create(c.Request.Context(), middleware.CurrentPrincipal(c), CreateInput{
		Name:         req.Name,
		Type:         req.Type,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Shift:        req.Shift,
		InstructorID: req.InstructorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, e)
}

// List handles GET /eventos/listar.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /eventos/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// SetActive handles PATCH /eventos/:id/activo.
func (h *Handler) SetActive(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !response.BindJSON(c, &req) {
		return
	}
	e, err := h.svc.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /eventos/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreatePoint handles POST /puntos/crear.
func (h *Handler) CreatePoint(c *gin.Context) {
	var req CreatePointRequest
	if !response.BindJSON(c, &req) {
		return
	}
	p, err := h.svc.CreatePoint(c.Request.Context(), PointInput{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		EventID:     req.EventID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// ListPoints handles GET /puntos/listar?evento_id=.
func (h *Handler) ListPoints(c *gin.Context) {
	var eventID *int64
	if raw := c.Query("evento_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, apperr.InvalidInput("identificador inválido").WithField("evento_id"))
			return
		}
		eventID = &id
	}
	list, err := h.svc.ListPoints(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
