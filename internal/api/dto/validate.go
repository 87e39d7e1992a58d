package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/holainformatica/soporte-backend/pkg/util"
)

var validate = validator.New()

// Validate runs struct tag validation and converts failures into the shared
// error shape, keyed by the offending field.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	details := map[string]any{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return util.NewValidationError("datos no validos", details)
}
