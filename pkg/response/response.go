package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sena-asistencia/backend/internal/apperr"
	"github.com/sena-asistencia/backend/internal/store"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends a 202 JSON response with data.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error envelope with the given status.
func Fail(c *gin.Context, status int, code apperr.Kind, msg, field string) {
	c.JSON(status, Body{Success: false, Error: msg, Code: string(code), Field: field})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	Fail(c, http.StatusBadRequest, apperr.KindInvalidInput, err, "")
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	Fail(c, http.StatusUnauthorized, apperr.KindUnauthorized, err, "")
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	Fail(c, http.StatusForbidden, apperr.KindForbidden, err, "")
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	Fail(c, http.StatusNotFound, apperr.KindNotFound, err, "")
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context, err string) {
	c.JSON(http.StatusTooManyRequests, Body{Success: false, Error: err, Code: "rate_limited"})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	Fail(c, http.StatusServiceUnavailable, apperr.KindUnavailable, err, "")
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err, Code: "internal"})
}

// StatusFor maps an error kind to its HTTP status. Conflicts answer 400 so
// existing clients keep seeing the status they were built against.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidInput, apperr.KindInvalidState, apperr.KindInvalidToken:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes the response for err. Classified errors carry their message
// and field; anything else is attached to the context for the request logger
// and answered with a generic 500.
func Error(c *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Err != nil {
			_ = c.Error(e.Err)
		}
		Fail(c, StatusFor(e.Kind), e.Kind, e.Message, e.Field)
		return
	}
	_ = c.Error(err)
	if errors.Is(err, store.ErrUnavailable) {
		ServiceUnavailable(c, "servicio de almacenamiento no disponible")
		return
	}
	Internal(c, "error interno del servidor")
}
