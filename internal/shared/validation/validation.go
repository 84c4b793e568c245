// Package validation holds request and document validation that is independent
// of the persistence layer.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/slug"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// report JSON field names instead of Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("slug", validateSlug)
		_ = validate.RegisterValidation("no_xss", validateNoXSS)
		_ = validate.RegisterValidation("visitor_status", validateVisitorStatus)
	})
	return validate
}

// Struct validates s and converts failures into a *errors.AppError (400)
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}

	out := apperrors.NewValidationErrors()
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe), fe.Value())
	}
	return out.ToAppError()
}

// Var validates a single value against a tag
func Var(field string, value interface{}, tag string) error {
	if err := Validator().Var(value, tag); err != nil {
		return apperrors.NewValidationErrors().Add(field, fmt.Sprintf("%s is invalid", field), value).ToAppError()
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof", "visitor_status":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), allowed(fe))
	case "slug":
		return fmt.Sprintf("%s must contain only lowercase letters, digits and single hyphens", fe.Field())
	case "no_xss":
		return fmt.Sprintf("%s contains forbidden markup", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func allowed(fe validator.FieldError) string {
	if fe.Tag() == "visitor_status" {
		return strings.Join(VisitorStatuses, " ")
	}
	return fe.Param()
}

// VisitorStatuses lists the lead states a visitor record may hold
var VisitorStatuses = []string{"new", "contacted", "converted", "rejected"}

func validateVisitorStatus(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, s := range VisitorStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func validateSlug(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || slug.IsValid(v)
}

func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range []string{"<script", "javascript:", "onerror=", "onload=", "<iframe"} {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}
