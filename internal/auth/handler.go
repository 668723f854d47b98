package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/pkg/response"
)

// RegisterRequest is the body for POST /register.
type RegisterRequest struct {
	Document      string  `json:"documento" binding:"required,max=20"`
	Password      string  `json:"password" binding:"required,max=72"`
	Confirm       string  `json:"confirm" binding:"required"`
	FirstName     string  `json:"nombre" binding:"required,max=100"`
	LastName      string  `json:"apellido" binding:"required,max=100"`
	Role          string  `json:"rol" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Shift         *string `json:"jornada" binding:"omitempty,max=50"`
	AcceptedTerms bool    `json:"acepta_terminos"`
}

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Document string `json:"documento" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body for POST /token/refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// ChangePasswordRequest is the body for PUT /perfil/password.
type ChangePasswordRequest struct {
	Current string `json:"actual" binding:"required"`
	New     string `json:"nueva" binding:"required,max=72"`
	Confirm string `json:"confirm" binding:"required"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !response.BindJSON(c, &req) {
		return
	}
	u, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Document:      req.Document,
		Password:      req.Password,
		Confirm:       req.Confirm,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Role:          req.Role,
		Shift:         req.Shift,
		AcceptedTerms: req.AcceptedTerms,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u.ToPublic())
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !response.BindJSON(c, &req) {
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Document, req.Password)
	if err != nil {
		h.logger.Debug("login rejected", zap.String("client_ip", c.ClientIP()))
		response.Error(c, err)
		return
	}
	response.OK(c, sess)
}

// Refresh handles POST /token/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !response.BindJSON(c, &req) {
		return
	}
	sess, err := h.svc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sess)
}

// Profile handles GET /perfil.
func (h *Handler) Profile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u.ToPublic())
}

// ChangePassword handles PUT /perfil/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !response.BindJSON(c, &req) {
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentPrincipal(c), req.Current, req.New, req.Confirm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUsers handles GET /usuarios (docente/admin).
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// GetUser handles GET /usuarios/:documento (docente/admin).
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.svc.FindByDocument(c.Request.Context(), c.Param("documento"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u.ToPublic())
}

// DeactivateUser handles DELETE /usuarios/:documento (admin).
func (h *Handler) DeactivateUser(c *gin.Context) {
	err := h.svc.Deactivate(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("documento"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
