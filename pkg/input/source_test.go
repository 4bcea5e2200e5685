package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Releases</title>
    <link>http://releases.example.com/</link>
    <description>test</description>
    <item>
      <title>Some Show S01E01</title>
      <link>http://releases.example.com/some-show-s01e01</link>
      <description>episode one</description>
      <pubDate>Wed, 19 Aug 2026 10:00:00 +0000</pubDate>
      <enclosure url="http://releases.example.com/files/some.show.s01e01.mkv" length="1000" type="video/x-matroska"/>
      <enclosure url="http://releases.example.com/files/some.show.s01e01.nfo" length="10" type="text/plain"/>
    </item>
    <item>
      <title>Bare Item</title>
      <link>http://releases.example.com/bare</link>
      <description>no enclosures</description>
    </item>
  </channel>
</rss>`

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o600))
	return fn
}

func TestFileSource_Entries(t *testing.T) {
	src := NewFileSource(writeFeed(t, testFeed))

	entries, err := src.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	t.Run("item with enclosures carries a manifest", func(t *testing.T) {
		entry := entries[0]
		assert.Equal(t, "Some Show S01E01", entry.Title)
		assert.Equal(t, "http://releases.example.com/some-show-s01e01", entry.URL)
		assert.Equal(t, "episode one", entry.Description)
		assert.False(t, entry.Published.IsZero())
		assert.Equal(t, "http://releases.example.com/", entry.Fields["input_url"])

		require.NotNil(t, entry.Manifest)
		assert.Equal(t, []string{"some.show.s01e01.mkv", "some.show.s01e01.nfo"}, entry.Manifest.Files)
	})

	t.Run("item without enclosures has no manifest at all", func(t *testing.T) {
		entry := entries[1]
		assert.Equal(t, "Bare Item", entry.Title)
		assert.Nil(t, entry.Manifest)
		assert.True(t, entry.Published.IsZero())
	})
}

func TestFileSource_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource("/no/such/feed.xml").Entries(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open source")
	})

	t.Run("not a feed", func(t *testing.T) {
		fn := writeFeed(t, "this is not xml at all")
		_, err := NewFileSource(fn).Entries(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse source")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewFileSource(writeFeed(t, testFeed)).Entries(ctx)
		require.Error(t, err)
	})
}
