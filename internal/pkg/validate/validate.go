// Package validate wraps go-playground/validator and reports failures as
// *domain.ValidationError keyed by the JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return instance
}

// Struct validates s. Only the first failing rule of each field is reported.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldError(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field must be defined", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address", field)
	case "min":
		return fmt.Sprintf("The %s field must have at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field and %s field must be the same", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("The %s field failed validation (%s)", field, fe.Tag())
	}
}
