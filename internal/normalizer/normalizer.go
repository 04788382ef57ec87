// Package normalizer turns raw API records into feed-ready articles.
package normalizer

import (
	"fmt"
	"strconv"
	"time"

	"articlefeed/internal/logger"
	"articlefeed/internal/models"
	"articlefeed/internal/sanitizer"
	"articlefeed/pkg/utils"
)

// SolvedPrefix marks the title of a closed discussion.
const SolvedPrefix = "[Solved] "

// closedAdjustment moves a closed discussion strictly after an open one with the same time.
const closedAdjustment = time.Second

// timestampLayouts are the accepted forms of API timestamps. All of them require a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Normalizer validates and transforms raw articles.
type Normalizer struct {
	validator *Validator
	strings   *utils.StringHelper
	logger    *logger.Logger
}

// NewNormalizer creates a new normalizer instance.
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{
		validator: NewValidator(),
		strings:   utils.NewStringHelper(),
		logger:    log,
	}
}

// Normalize derives the effective time, decorated title, sanitized content and link
// path of one article.
func (n *Normalizer) Normalize(raw *models.RawArticle) (models.NormalizedArticle, error) {
	if err := n.validator.Validate(raw); err != nil {
		return models.NormalizedArticle{}, err
	}

	added, err := ParseTimestamp(raw.AddedAt)
	if err != nil {
		return models.NormalizedArticle{}, fmt.Errorf("addedAt: %w", err)
	}

	effective := added
	if raw.Thread != nil && raw.Thread.LastEntryAt != nil && *raw.Thread.LastEntryAt != "" {
		effective, err = ParseTimestamp(*raw.Thread.LastEntryAt)
		if err != nil {
			return models.NormalizedArticle{}, fmt.Errorf("thread.lastEntryAt: %w", err)
		}
	}

	if raw.IsClosed() {
		effective = effective.Add(closedAdjustment)
	}

	return models.NormalizedArticle{
		ID:            raw.ID,
		EffectiveTime: effective,
		Published:     added,
		Title:         DecorateTitle(sanitizer.Sanitize(raw.DisplayName), raw.IsClosed(), raw.EntryCount()),
		AuthorName:    sanitizer.Sanitize(n.strings.NormalizeWhitespace(raw.Author.FullName)),
		ContentHTML:   sanitizer.SanitizeRichContent(raw.BodySummary),
		LinkPath:      raw.Type.Slug + "/" + raw.Slug,
	}, nil
}

// NormalizeAll normalizes records in API order. Archived records are skipped and
// repeated ids keep their first occurrence. Any invalid record fails the whole batch.
func (n *Normalizer) NormalizeAll(raws []models.RawArticle) ([]models.NormalizedArticle, error) {
	articles := make([]models.NormalizedArticle, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for i := range raws {
		raw := &raws[i]

		if raw.IsArchived {
			n.logger.Debug("skipping archived article", "id", raw.ID)

			continue
		}

		if seen[raw.ID] {
			n.logger.Debug("skipping duplicate article", "id", raw.ID)

			continue
		}

		article, err := n.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("article at index %d (id %q): %w", i, raw.ID, err)
		}

		seen[raw.ID] = true
		articles = append(articles, article)
	}

	return articles, nil
}

// DecorateTitle prefixes closed discussions with SolvedPrefix and appends the entry
// count in parentheses when it is positive.
func DecorateTitle(name string, closed bool, entryCount int) string {
	title := name
	if closed {
		title = SolvedPrefix + title
	}

	if entryCount > 0 {
		title += " (" + strconv.Itoa(entryCount) + ")"
	}

	return title
}

// ParseTimestamp parses an ISO-8601 timestamp that carries a zone offset.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 time with zone", ErrInvalidTimestamp, value)
}
