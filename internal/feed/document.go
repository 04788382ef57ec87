package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"articlefeed/internal/models"
)

// Format is an output document type.
type Format string

// Supported formats.
const (
	FormatAtom Format = "atom"
	FormatRSS  Format = "rss"
)

const (
	atomNS        = "http://www.w3.org/2005/Atom"
	dublinCoreNS  = "http://purl.org/dc/elements/1.1/"
	rssTimeLayout = time.RFC1123Z
)

type atomFeed struct {
	XMLName   xml.Name      `xml:"feed"`
	Xmlns     string        `xml:"xmlns,attr"`
	Lang      string        `xml:"xml:lang,attr,omitempty"`
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Subtitle  string        `xml:"subtitle,omitempty"`
	Link      atomLink      `xml:"link"`
	Updated   string        `xml:"updated"`
	Generator atomGenerator `xml:"generator"`
	Entries   []atomEntry   `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr,omitempty"`
	Href string `xml:"href,attr"`
}

type atomGenerator struct {
	Value string `xml:",chardata"`
}

type atomEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Published string      `xml:"published"`
	Updated   string      `xml:"updated"`
	Author    *atomPerson `xml:"author,omitempty"`
	Content   atomContent `xml:"content"`
	Link      atomLink    `xml:"link"`
}

type atomPerson struct {
	Name string `xml:"name"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	DCNS    string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	ID            string    `xml:"atom:id"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Generator     string    `xml:"generator"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Description string  `xml:"description"`
	Creator     string  `xml:"dc:creator,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// MarshalAtom renders f as an ATOM 1.0 document.
func MarshalAtom(f *models.Feed, generator string) ([]byte, error) {
	doc := atomFeed{
		Xmlns:     atomNS,
		Lang:      f.Language,
		ID:        f.ID,
		Title:     f.Title,
		Subtitle:  f.Description,
		Link:      atomLink{Rel: "alternate", Type: "text/html", Href: f.Link},
		Updated:   f.Updated.UTC().Format(time.RFC3339),
		Generator: atomGenerator{Value: generator},
		Entries:   make([]atomEntry, 0, len(f.Entries)),
	}

	for _, e := range f.Entries {
		entry := atomEntry{
			ID:        e.ID,
			Title:     e.Title,
			Published: e.Published.UTC().Format(time.RFC3339),
			Updated:   e.Updated.UTC().Format(time.RFC3339),
			Content:   atomContent{Type: "html", Body: e.Content},
			Link:      atomLink{Rel: "alternate", Type: "text/html", Href: e.Link},
		}
		if e.Author != "" {
			entry.Author = &atomPerson{Name: e.Author}
		}

		doc.Entries = append(doc.Entries, entry)
	}

	return encode(doc)
}

// MarshalRSS renders f as an RSS 2.0 document with dc:creator authors.
func MarshalRSS(f *models.Feed, generator string) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		AtomNS:  atomNS,
		DCNS:    dublinCoreNS,
		Channel: rssChannel{
			Title:         f.Title,
			Link:          f.Link,
			Description:   f.Description,
			Language:      f.Language,
			ID:            f.ID,
			LastBuildDate: f.Updated.UTC().Format(rssTimeLayout),
			Generator:     generator,
			Items:         make([]rssItem, 0, len(f.Entries)),
		},
	}

	for _, e := range f.Entries {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       e.Title,
			Link:        e.Link,
			GUID:        rssGUID{IsPermaLink: "false", Value: e.ID},
			PubDate:     e.Updated.UTC().Format(rssTimeLayout),
			Description: e.Content,
			Creator:     e.Author,
		})
	}

	return encode(doc)
}

// Marshal renders f in the requested format.
func Marshal(format Format, f *models.Feed, generator string) ([]byte, error) {
	switch format {
	case FormatAtom:
		return MarshalAtom(f, generator)
	case FormatRSS:
		return MarshalRSS(f, generator)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode XML: %w", err)
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
