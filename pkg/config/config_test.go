package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "feedmill.yml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o600))
	return fn
}

func TestLoad_Defaults(t *testing.T) {
	fn := writeConfig(t, `
tasks:
  series-a:
    source: /data/feeds/series-a.xml
    rss:
      file: ~/public_html/series.rss
`)

	cfg, err := Load(fn)
	require.NoError(t, err)

	assert.Equal(t, "file:feedmill.db?cache=shared&mode=rwc", cfg.Store.DSN)
	assert.Equal(t, 10, cfg.Store.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxWorkers)

	task := cfg.Tasks["series-a"]
	require.NotNil(t, task.RSS)
	assert.Equal(t, "~/public_html/series.rss", task.RSS.File)
	assert.Equal(t, 7, *task.RSS.Days)
	assert.Equal(t, -1, *task.RSS.Items)
	assert.True(t, *task.RSS.History)
	assert.Equal(t, "iso-8859-1", task.RSS.Encoding)
	assert.Equal(t, "{{.Title}} (from {{.Task}})", task.RSS.Title)
	assert.Equal(t, []string{"imdb_url", "input_url", "url"}, task.RSS.Link)
}

func TestLoad_ScalarRSSShorthand(t *testing.T) {
	fn := writeConfig(t, `
tasks:
  quick:
    source: /data/quick.xml
    rss: ~/public_html/quick.rss
`)

	cfg, err := Load(fn)
	require.NoError(t, err)

	task := cfg.Tasks["quick"]
	require.NotNil(t, task.RSS)
	assert.Equal(t, "~/public_html/quick.rss", task.RSS.File)
	assert.Equal(t, 7, *task.RSS.Days, "defaults still applied to shorthand form")
}

func TestLoad_StringOrList(t *testing.T) {
	fn := writeConfig(t, `
tasks:
  movies:
    source: /data/movies.xml
    content_filter:
      require: "*.avi"
      reject:
        - "*.nfo"
        - "*.txt"
      strict: true
    rss:
      file: /var/www/movies.rss
`)

	cfg, err := Load(fn)
	require.NoError(t, err)

	f := cfg.Tasks["movies"].Filter
	require.NotNil(t, f)
	assert.Equal(t, StringOrList{"*.avi"}, f.Require)
	assert.Equal(t, StringOrList{"*.nfo", "*.txt"}, f.Reject)
	assert.True(t, f.Strict)

	rule := f.Rule()
	assert.Equal(t, []string{"*.avi"}, rule.Require)
	assert.Equal(t, []string{"*.nfo", "*.txt"}, rule.Reject)
	assert.True(t, rule.Strict)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	fn := writeConfig(t, `
tasks:
  custom:
    source: /data/custom.xml
    rss:
      file: /var/www/custom.rss
      days: -1
      items: 50
      history: false
      encoding: utf-8
      rsslink: http://my.server.net/custom.rss
      link: [input_url]
`)

	cfg, err := Load(fn)
	require.NoError(t, err)

	rss := cfg.Tasks["custom"].RSS
	assert.Equal(t, -1, *rss.Days)
	assert.Equal(t, 50, *rss.Items)
	assert.False(t, *rss.History)
	assert.Equal(t, "utf-8", rss.Encoding)
	assert.Equal(t, []string{"input_url", "url"}, rss.Link, "raw url appended as final fallback")

	out := rss.Output()
	assert.Equal(t, -1, out.Days)
	assert.Equal(t, 50, out.Items)
	assert.False(t, out.History)
	assert.Equal(t, "http://my.server.net/custom.rss", out.RSSLink)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("FEED_DIR", "/srv/feeds")
	fn := writeConfig(t, `
tasks:
  env:
    source: ${FEED_DIR}/env.xml
    rss: ${FEED_DIR}/env.rss
`)

	cfg, err := Load(fn)
	require.NoError(t, err)
	assert.Equal(t, "/srv/feeds/env.xml", cfg.Tasks["env"].Source)
	assert.Equal(t, "/srv/feeds/env.rss", cfg.Tasks["env"].RSS.File)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/no/such/config.yml")
		require.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		fn := writeConfig(t, "tasks: [not a map")
		_, err := Load(fn)
		require.Error(t, err)
	})
}
