// Package validate applies struct-tag validation rules to request payloads
// and converts failures into the API's ValidationError, enumerating every
// offending field rather than stopping at the first.
package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/artfolio/service/internal/apperror"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its validate tags.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = message(fe)
	}
	return &apperror.ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " characters"
	case "max":
		return "must not have more than " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
