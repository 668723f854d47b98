package response

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sena-asistencia/backend/internal/apperr"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// decimal.Decimal is validated as a number so latitude/longitude/required tags apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// BindJSON decodes and validates the request body into req. On failure it
// writes a 400 naming the offending field and returns false; the caller
// must return without writing another response.
func BindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	Error(c, bindError(err))
	return false
}

func bindError(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.InvalidInput(validationMessage(fe)).WithField(fe.Field())
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.InvalidInput("tipo de dato inválido").WithField(typeErr.Field)
	}
	if errors.Is(err, io.EOF) {
		return apperr.InvalidInput("cuerpo de la solicitud vacío")
	}
	return apperr.InvalidInput("JSON inválido")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obligatorio"
	case "email":
		return "email inválido"
	case "min":
		return "valor demasiado corto"
	case "max":
		return "valor demasiado largo"
	case "latitude":
		return "latitud fuera de rango"
	case "longitude":
		return "longitud fuera de rango"
	case "gt", "gte":
		return "valor fuera de rango"
	}
	return "valor inválido"
}

// PathID parses the named path parameter as a positive int64. On failure it
// writes a 400 and returns false.
func PathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		Error(c, apperr.InvalidInput("identificador inválido").WithField(name))
		return 0, false
	}
	return id, true
}
