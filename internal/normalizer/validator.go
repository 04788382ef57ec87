package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"articlefeed/internal/models"
)

// Validation errors.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Validator checks that a raw article carries every field a feed entry needs.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports the first required field that is absent or blank.
func (v *Validator) Validate(raw *models.RawArticle) error {
	required := []struct {
		name  string
		value string
	}{
		{"id", raw.ID},
		{"displayName", raw.DisplayName},
		{"author.fullName", raw.Author.FullName},
		{"addedAt", raw.AddedAt},
		{"type.slug", raw.Type.Slug},
		{"slug", raw.Slug},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}

	return nil
}
