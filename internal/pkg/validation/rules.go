package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation rule patterns
var (
	// SlugPattern accepts lowercase words joined by single hyphens
	SlugPattern = `^[a-z0-9]+(?:-[a-z0-9]+)*$`

	// Forum field limits
	TitleMaxLength = 100
	SlugMaxLength  = 50
	BodyMaxLength  = 65536
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Slug *regexp.Regexp
}{
	Slug: regexp.MustCompile(SlugPattern),
}

// StringValidation checks a single string field. Lengths are counted in
// runes after trimming surrounding whitespace.
type StringValidation struct {
	Field    string
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Check returns a description of the first failed rule, or "" when the
// value is valid.
func (v *StringValidation) Check() string {
	if v.Value == "" {
		if v.Required {
			return fmt.Sprintf("%s is required", v.Field)
		}
		return ""
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", v.Field, v.MinLen)
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters", v.Field, v.MaxLen)
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return fmt.Sprintf("%s has an invalid format", v.Field)
	}
	return ""
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	return v.Check() == ""
}

// IDListValidation checks a list of positive identifiers
type IDListValidation struct {
	Field  string
	Values []int64
	MaxLen int
}

// NewIDListValidation creates a new identifier list validation
func NewIDListValidation(field string, values []int64) *IDListValidation {
	return &IDListValidation{Field: field, Values: values}
}

// WithMaxLength caps the number of identifiers
func (v *IDListValidation) WithMaxLength(max int) *IDListValidation {
	v.MaxLen = max
	return v
}

// Check returns a description of the first failed rule, or ""
func (v *IDListValidation) Check() string {
	if v.MaxLen > 0 && len(v.Values) > v.MaxLen {
		return fmt.Sprintf("%s may hold at most %d entries", v.Field, v.MaxLen)
	}
	for _, id := range v.Values {
		if id <= 0 {
			return fmt.Sprintf("%s must contain positive identifiers", v.Field)
		}
	}
	return ""
}
