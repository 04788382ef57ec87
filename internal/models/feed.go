package models

import "time"

// FeedEntry is one article projected into the feed schema.
type FeedEntry struct {
	Published time.Time
	Updated   time.Time
	ID        string
	Title     string
	Link      string
	Author    string
	Content   string
}

// Feed is the assembled, ordered feed with its content-derived id.
type Feed struct {
	Updated     time.Time
	ID          string
	Title       string
	Description string
	Link        string
	Language    string
	Entries     []FeedEntry
}

// EntryIDs returns the entry ids in feed order.
func (f *Feed) EntryIDs() []string {
	ids := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		ids = append(ids, e.ID)
	}

	return ids
}
