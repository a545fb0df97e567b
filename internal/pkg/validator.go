package pkg

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

var (
	trackingCodeRegex = regexp.MustCompile(`^SI-\d{8}-[0-9A-Z]{6}$`)
	phoneRegex        = regexp.MustCompile(`^\+?[0-9][0-9\- ]{6,18}$`)
	slugRegex         = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	extensionRegex    = regexp.MustCompile(`^[a-zA-Z0-9]{1,10}$`)
)

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("trackingcode", validateTrackingCode)
	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("slug", validateSlug)
	v.RegisterValidation("docext", validateDocExtension)

	// Report JSON field names instead of Go struct field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate validates a struct
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   err.Field(),
			Message: v.getErrorMessage(err),
			Value:   err.Value(),
		})
	}

	return errs
}

// ValidateField validates a single field
func (v *Validator) ValidateField(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// getErrorMessage returns a human-readable error message
func (v *Validator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "trackingcode":
		return fmt.Sprintf("%s must look like SI-YYYYMMDD-XXXXXX", err.Field())
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", err.Field())
	case "slug":
		return fmt.Sprintf("%s must be a valid slug (lowercase, alphanumeric, hyphens)", err.Field())
	case "docext":
		return fmt.Sprintf("%s must be a plain file extension without a dot", err.Field())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

// Custom validation functions

func validateTrackingCode(fl validator.FieldLevel) bool {
	return trackingCodeRegex.MatchString(strings.ToUpper(fl.Field().String()))
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func validateDocExtension(fl validator.FieldLevel) bool {
	return extensionRegex.MatchString(fl.Field().String())
}

// Global validator instance
var DefaultValidator = NewValidator()
