// Package feed assembles normalized articles into a feed and writes it as ATOM and RSS.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"articlefeed/internal/models"
)

// MaxEntries is the number of most recent articles kept in the feed.
// It must stay below fetcher.FetchPageSize.
const MaxEntries = 40

// articlePathSegment is the site path under which articles are linked.
const articlePathSegment = "/discussions/"

// dateIDLayout renders an instant as a fixed-width, lexically sortable number.
const dateIDLayout = "20060102150405"

// Metadata describes the feed channel.
type Metadata struct {
	Title       string
	Description string
	Language    string
}

// Assembler orders and truncates articles and builds feed entries below a base URL.
type Assembler struct {
	baseURL    string
	meta       Metadata
	maxEntries int
}

// NewAssembler creates an assembler for a site rooted at baseURL.
func NewAssembler(baseURL string, meta Metadata) *Assembler {
	return &Assembler{
		baseURL:    strings.TrimRight(baseURL, "/"),
		meta:       meta,
		maxEntries: MaxEntries,
	}
}

// Assemble sorts articles by effective time, most recent first, keeping fetch order
// for equal times, keeps at most MaxEntries and derives the feed id from the entry ids.
func (a *Assembler) Assemble(articles []models.NormalizedArticle) models.Feed {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(x, y models.NormalizedArticle) int {
		return y.EffectiveTime.Compare(x.EffectiveTime)
	})

	if len(sorted) > a.maxEntries {
		sorted = sorted[:a.maxEntries]
	}

	entries := make([]models.FeedEntry, 0, len(sorted))
	for _, article := range sorted {
		entries = append(entries, a.entry(article))
	}

	// An empty feed reports the Unix epoch.
	updated := time.Unix(0, 0).UTC()
	if len(entries) > 0 {
		updated = entries[0].Updated
	}

	f := models.Feed{
		Title:       a.meta.Title,
		Description: a.meta.Description,
		Language:    a.meta.Language,
		Link:        a.baseURL + "/",
		Updated:     updated,
		Entries:     entries,
	}
	f.ID = FeedID(a.baseURL, f.EntryIDs())

	return f
}

func (a *Assembler) entry(article models.NormalizedArticle) models.FeedEntry {
	return models.FeedEntry{
		ID:        a.baseURL + "/feed/article/" + article.ID + "-" + DateID(article.EffectiveTime),
		Title:     article.Title,
		Link:      a.baseURL + articlePathSegment + article.LinkPath,
		Author:    article.AuthorName,
		Content:   article.ContentHTML,
		Published: article.Published.UTC(),
		Updated:   article.EffectiveTime.UTC(),
	}
}

// DateID formats t in UTC as YYYYMMDDHHMMSS.
func DateID(t time.Time) string {
	return t.UTC().Format(dateIDLayout)
}

// FeedID returns a URL below baseURL embedding the hex SHA-256 of the concatenated
// entry ids, so any change in membership or order yields a new id.
func FeedID(baseURL string, entryIDs []string) string {
	h := sha256.New()
	for _, id := range entryIDs {
		h.Write([]byte(id))
	}

	return strings.TrimRight(baseURL, "/") + "/feed/" + hex.EncodeToString(h.Sum(nil))
}
