// Package validate provides centralized input validation utilities for the
// Tastemap client. Form controllers build their field-level error sets on
// top of these primitives.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort = errors.New("string is too short")
	ErrStringTooLong  = errors.New("string is too long")
	ErrEmpty          = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength  int  // Minimum length (0 = no minimum)
	MaxLength  int  // Maximum length (0 = no maximum)
	AllowEmpty bool // Whether empty strings are allowed
	TrimSpace  bool // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	// Optionally trim whitespace
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	// Check if empty
	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Get actual character count (not byte count)
	length := utf8.RuneCountInString(s)

	// Check minimum length
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}

	// Check maximum length
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	return s, nil
}

// FullName validates a profile full name:
// - Required
// - At least 3 characters after trimming
func FullName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength:  3,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// Username validates a profile username:
// - Required
// - At least 6 characters after trimming
func Username(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength:  6,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// Password validates a password:
// - Required
// - At least 8 characters after trimming
func Password(pw string) (string, error) {
	return String(pw, StringConstraints{
		MinLength:  8,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// Bio validates a profile bio:
// - Optional (can be empty)
// - Max 200 characters after trimming
func Bio(bio string) (string, error) {
	return String(bio, StringConstraints{
		MaxLength:  200,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// RecipeTitle validates a recipe title:
// - Required
// - Max 100 characters
func RecipeTitle(title string) (string, error) {
	return String(title, StringConstraints{
		MinLength:  1,
		MaxLength:  100,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// RecipeDescription validates a recipe description:
// - Optional (can be empty)
// - Max 500 characters
func RecipeDescription(desc string) (string, error) {
	return String(desc, StringConstraints{
		MaxLength:  500,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// IngredientName validates an ingredient name:
// - Required
// - Max 100 characters after trimming
func IngredientName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength:  1,
		MaxLength:  100,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}

// Measure validates an ingredient unit/measure:
// - Optional (can be empty)
// - Max 20 characters after trimming
func Measure(measure string) (string, error) {
	return String(measure, StringConstraints{
		MaxLength:  20,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// InstructionStep validates a single instruction step:
// - Required (an empty step among non-empty ones is still an error)
// - Max 200 characters after trimming
func InstructionStep(step string) (string, error) {
	return String(step, StringConstraints{
		MinLength:  1,
		MaxLength:  200,
		AllowEmpty: false,
		TrimSpace:  true,
	})
}
