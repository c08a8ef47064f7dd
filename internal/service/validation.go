package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prn-tf/cityguide/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their "form" tag, which is also the name
// users see in forms and JSON bodies.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct converts the first validator failure into a domain.ValidationError.
// rename maps internal field names to their category-specific external names.
func validateStruct(s any, rename map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	if external, ok := rename[field]; ok {
		field = external
	}

	switch fe.Tag() {
	case "required":
		return domain.MissingField(field)
	case "max":
		return domain.NewValidationError(field, fmt.Sprintf("`%s` must be at most %s characters", field, fe.Param()))
	case "min":
		return domain.NewValidationError(field, fmt.Sprintf("`%s` must be at least %s characters", field, fe.Param()))
	default:
		return domain.NewValidationError(field, fmt.Sprintf("`%s` is invalid", field))
	}
}

func trimAll(values ...*string) {
	for _, v := range values {
		*v = strings.TrimSpace(*v)
	}
}
