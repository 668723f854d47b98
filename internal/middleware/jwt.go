package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID (int64) in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role (models.Role) in gin context.
	ContextUserRole = "user_role"
)

// TokenValidator validates bearer access tokens.
type TokenValidator interface {
	ValidateAccess(token string) (models.Principal, error)
}

// JWT returns a middleware that validates the bearer token and sets the caller in context.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "falta el encabezado Authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "encabezado Authorization inválido")
			c.Abort()
			return
		}
		p, err := tokens.ValidateAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "token inválido o expirado")
			c.Abort()
			return
		}
		c.Set(ContextUserID, p.UserID)
		c.Set(ContextUserRole, p.Role)
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by JWT. It panics outside routes guarded by JWT.
func CurrentPrincipal(c *gin.Context) models.Principal {
	return models.Principal{
		UserID: c.MustGet(ContextUserID).(int64),
		Role:   c.MustGet(ContextUserRole).(models.Role),
	}
}
