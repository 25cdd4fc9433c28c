package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var templates = map[string]string{
	"required":          "{field} is required",
	"gte":               "{field} must be greater than or equal to {param}",
	"lte":               "{field} must be less than or equal to {param}",
	"max":               "{field} must be at most {param} characters",
	"oneof":             "{field} must be one of {param}",
	"datetime":          "{field} must match the format {param}",
	"reservation_token": "{field} must be a reservation token",
}

// message renders every field error, in struct order, as one sentence each.
func message(err error) string {
	var fieldErrors val.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrors))

	for _, fieldErr := range fieldErrors {
		parts = append(parts, describe(fieldErr))
	}

	return strings.Join(parts, "; ")
}

func describe(fieldErr val.FieldError) string {
	template, ok := templates[fieldErr.Tag()]
	if !ok {
		return fieldErr.Field() + " failed the " + fieldErr.Tag() + " check"
	}

	return strings.NewReplacer("{field}", fieldErr.Field(), "{param}", fieldErr.Param()).Replace(template)
}
