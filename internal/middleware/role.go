package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "usuario no autenticado")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "permisos insuficientes")
			c.Abort()
			return
		}
		c.Next()
	}
}
