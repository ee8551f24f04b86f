package contextutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidDifficulty reports whether s is one of the supported difficulty levels
func IsValidDifficulty(s string) bool {
	return validate.Var(s, "required,oneof=1 2 3") == nil
}

// IsBlank reports whether s is empty or only whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateStruct runs the validate struct tags of v and wraps any failure
func ValidateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return WrapErrorf(ErrValidationFailed, "validation failed: %w", err)
	}
	return nil
}
