package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/model"
)

// Validator adapts validator/v10 to echo. Field names in messages are the
// JSON names the client sent.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("intent", func(fl validator.FieldLevel) bool {
		return model.AttendanceIntent(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator. It reports the first failing field
// as a 400 with a Spanish message.
func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Datos inválidos.")
	}
	return echo.NewHTTPError(http.StatusBadRequest, message(verrs[0]))
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio.", f)
	case "email":
		return fmt.Sprintf("El campo %s debe ser un correo válido.", f)
	case "max":
		return fmt.Sprintf("El campo %s excede la longitud máxima (%s).", f, fe.Param())
	case "gte":
		return fmt.Sprintf("El campo %s debe ser mayor o igual a %s.", f, fe.Param())
	case "gt":
		return fmt.Sprintf("El campo %s debe ser mayor que %s.", f, fe.Param())
	case "intent":
		return fmt.Sprintf("El campo %s debe ser si, no, tal_vez o desconocido.", f)
	case "datetime":
		return fmt.Sprintf("El campo %s debe tener el formato AAAA-MM-DD.", f)
	}
	return fmt.Sprintf("El campo %s no es válido.", f)
}

// bind decodes the request into dst and validates it. Errors are returned
// as echo.HTTPError and rendered by ErrorHandler.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cuerpo de la petición inválido.")
	}
	return c.Validate(dst)
}
