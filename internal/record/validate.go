package record

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError describes a malformed raw record. Validation failures are
// per-record: callers skip and log the offending row rather than aborting a
// cleaning run.
type ValidationError struct {
	ID     int64
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid raw record id=%d: %s", e.ID, strings.Join(e.Fields, "; "))
}

// Validate checks a raw row's shape before it is allowed into the cleaned
// table. Returns a *ValidationError on failure.
func Validate(raw RawRecord) error {
	err := validate.Struct(raw)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating raw record id=%d: %w", raw.ID, err)
	}

	ve := &ValidationError{ID: raw.ID}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, formatFieldError(fe))
	}
	return ve
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "gt":
		return fmt.Sprintf("%s must be a positive identifier", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
