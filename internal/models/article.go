// Package models defines the records flowing through the feed pipeline.
package models

import "time"

// RawArticle is one article record as received from the content API.
// Timestamps are kept as strings and parsed during normalization.
type RawArticle struct {
	Thread           *Thread           `json:"thread"`
	DiscussionStatus *DiscussionStatus `json:"discussionStatus"`
	Author           Author            `json:"author"`
	Type             ArticleType       `json:"type"`
	ID               string            `json:"id"`
	DisplayName      string            `json:"displayName"`
	BodySummary      string            `json:"bodySummary"`
	AddedAt          string            `json:"addedAt"`
	Slug             string            `json:"slug"`
	IsArchived       bool              `json:"isArchived"`
}

// Author identifies who wrote an article.
type Author struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

// Thread carries the discussion activity of an article.
type Thread struct {
	LastEntryAt *string `json:"lastEntryAt"`
	EntryCount  int     `json:"entryCount"`
}

// DiscussionStatus reports whether a discussion has been closed as solved.
type DiscussionStatus struct {
	IsClosed bool `json:"isClosed"`
}

// ArticleType is the content type an article belongs to.
type ArticleType struct {
	Slug string `json:"slug"`
}

// IsClosed reports whether the discussion is marked closed.
func (a *RawArticle) IsClosed() bool {
	return a.DiscussionStatus != nil && a.DiscussionStatus.IsClosed
}

// EntryCount returns the number of thread entries, zero without a thread.
func (a *RawArticle) EntryCount() int {
	if a.Thread == nil {
		return 0
	}

	return a.Thread.EntryCount
}

// NormalizedArticle is an article ready to be placed in a feed.
type NormalizedArticle struct {
	EffectiveTime time.Time
	Published     time.Time
	ID            string
	Title         string
	AuthorName    string
	ContentHTML   string
	LinkPath      string
}
