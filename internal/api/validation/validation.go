// Package validation checks request DTOs against their `validate` struct
// tags and reports failures keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and returns a field -> message map, empty when valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	err := instance().Struct(v)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field must be defined", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address", field)
	case "uuid":
		return fmt.Sprintf("The %s field must be a valid UUID", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must have at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid", field)
	case "eqfield":
		return fmt.Sprintf("The %s field and %s field must be the same", field, lowerFirst(fe.Param()))
	case "nefield":
		return fmt.Sprintf("The %s field and %s field must be different", field, lowerFirst(fe.Param()))
	}
	return fmt.Sprintf("The %s field is invalid", field)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
