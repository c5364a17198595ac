package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EmailRegex is a simple email validation regex
var EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()
	// Report fields by their JSON names so messages match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a message per field.
// Errors that are not field validation failures yield an empty map.
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				fields[field] = fmt.Sprintf("%s is required", e.Field())
			case "email":
				fields[field] = "Invalid email format"
			case "min":
				fields[field] = fmt.Sprintf("%s must have at least %s %s", e.Field(), e.Param(), unitFor(e.Kind()))
			case "max":
				fields[field] = fmt.Sprintf("%s must have at most %s %s", e.Field(), e.Param(), unitFor(e.Kind()))
			case "gt":
				fields[field] = fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
			case "gte":
				fields[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				fields[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "oneof":
				fields[field] = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			default:
				fields[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return fields
}

func unitFor(kind reflect.Kind) string {
	if kind == reflect.String {
		return "characters"
	}
	return "entries"
}

// ValidateEmail checks if an email is valid
func ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return EmailRegex.MatchString(email)
}

