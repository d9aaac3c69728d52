// Package validation holds the custom request validation rules.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom tags usable in binding struct tags
const (
	// TagNotBlank rejects strings that are empty after trimming whitespace.
	TagNotBlank = "notblank"
)

// Register adds the custom rules to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagNotBlank, notBlank); err != nil {
		return fmt.Errorf("failed to register %s rule: %w", TagNotBlank, err)
	}
	return nil
}

// notBlank passes non-string fields.
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}
