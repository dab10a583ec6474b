package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateSelector validates a container selector.
//
// Selectors are XPath expressions or the #id / .class shorthands. The check
// only rejects inputs that can never resolve to an element:
//   - No empty selectors
//   - No control characters
//   - Maximum length of 512 characters
func ValidateSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return New(ErrCodeInvalidSelector, "selector cannot be empty")
	}

	if len(selector) > 512 {
		return New(ErrCodeInvalidSelector, "selector too long (max 512 characters)")
	}

	for _, r := range selector {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSelector, "selector contains invalid control characters")
		}
	}

	if selector == "#" || selector == "." {
		return New(ErrCodeInvalidSelector, "selector %q has no name", selector)
	}

	return nil
}

// ValidateDimension validates a container width or height override.
// Zero means "keep the document's value" and is accepted.
func ValidateDimension(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidOption, "%s must be a finite number", name)
	}
	if v < 0 {
		return New(ErrCodeInvalidOption, "%s cannot be negative: %g", name, v)
	}
	const maxDimension = 1 << 20
	if v > maxDimension {
		return New(ErrCodeInvalidOption, "%s too large (max %d)", name, maxDimension)
	}
	return nil
}
