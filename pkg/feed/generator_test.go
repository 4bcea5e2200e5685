package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedmill/feedmill/pkg/domain"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()
	buildTime := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	out := testOutput("gen.rss")
	out.RSSLink = "http://my.server.net/series.rss"

	records := []domain.FeedRecord{
		{Title: "newest item", Description: "first desc", Link: "http://example.com/1", Published: buildTime.Add(-1 * time.Hour)},
		{Title: "older item", Description: "second desc", Link: "http://example.com/2", Published: buildTime.Add(-2 * time.Hour)},
	}

	doc, err := g.Generate(out, records, buildTime)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="iso-8859-1"?>`))
	assert.Contains(t, doc, "<title>feedmill</title>")
	assert.Contains(t, doc, "<description>feedmill generated RSS feed</description>")
	assert.Contains(t, doc, "<link>http://my.server.net/series.rss</link>")
	assert.Contains(t, doc, "<lastBuildDate>Thu, 20 Aug 2026 12:00:00 +0000</lastBuildDate>")
	assert.Contains(t, doc, "<title>newest item</title>")
	assert.Contains(t, doc, "<link>http://example.com/1</link>")
	assert.Contains(t, doc, "<guid>http://example.com/1</guid>")

	// item order follows the record order, newest first
	assert.Less(t, strings.Index(doc, "newest item"), strings.Index(doc, "older item"))
}

func TestGenerator_EmptyFeed(t *testing.T) {
	g := NewGenerator()

	doc, err := g.Generate(testOutput("empty.rss"), nil, time.Now())
	require.NoError(t, err)

	assert.Contains(t, doc, `<rss version="2.0">`)
	assert.NotContains(t, doc, "<item>")
	// no rsslink configured, a placeholder channel link keeps the document valid
	assert.Contains(t, doc, "<link>http://localhost/</link>")
}

func TestGenerator_EscapesMarkup(t *testing.T) {
	g := NewGenerator()

	records := []domain.FeedRecord{{Title: "a <b> & c", Published: time.Now()}}
	doc, err := g.Generate(testOutput("esc.rss"), records, time.Now())
	require.NoError(t, err)

	assert.Contains(t, doc, "a &lt;b&gt; &amp; c")
}
