package feed

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/feedmill/feedmill/pkg/domain"
)

// Generator renders surviving records into an RSS 2.0 document. The document
// is ephemeral, built fresh on every finalize cycle, the retention store
// stays the source of truth.
type Generator struct{}

// NewGenerator creates a new feed generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate creates an RSS 2.0 document from records, newest first as given.
// The XML declaration names the encoding the writer will apply, the string
// returned here is still UTF-8.
func (g *Generator) Generate(out Output, records []domain.FeedRecord, buildTime time.Time) (string, error) {
	rssItems := make([]*RSSItem, 0, len(records))
	for _, rec := range records {
		rssItems = append(rssItems, &RSSItem{
			Title:       rec.Title,
			Link:        rec.Link,
			Description: rec.Description,
			GUID:        rec.Link,
			PubDate:     rec.Published.Format(time.RFC1123Z),
		})
	}

	channelLink := out.RSSLink
	if channelLink == "" {
		channelLink = "http://localhost/"
	}

	doc := &RSS{
		Version: "2.0",
		Channel: &RSSChannel{
			Title:         out.ChannelTitle,
			Link:          channelLink,
			Description:   out.ChannelDescription,
			LastBuildDate: buildTime.Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	header := fmt.Sprintf("<?xml version=%q encoding=%q?>\n", "1.0", out.Encoding)
	return header + string(body) + "\n", nil
}
