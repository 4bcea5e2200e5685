package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	fn := writeConfig(t, `
tasks:
  series-a:
    source: /data/series-a.xml
    content_filter:
      require: ["*.avi", "*.mkv"]
    rss:
      file: /var/www/series.rss
`)
	cfg, err := Load(fn)
	require.NoError(t, err)
	return cfg
}

func TestVerify_OK(t *testing.T) {
	cfg := loadValid(t)
	require.NoError(t, Verify(cfg))
}

func TestVerify_Errors(t *testing.T) {
	t.Run("no tasks", func(t *testing.T) {
		err := Verify(&Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tasks")
	})

	t.Run("missing source", func(t *testing.T) {
		cfg := loadValid(t)
		task := cfg.Tasks["series-a"]
		task.Source = ""
		cfg.Tasks["series-a"] = task

		err := Verify(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source is required")
	})

	t.Run("missing rss file", func(t *testing.T) {
		cfg := loadValid(t)
		task := cfg.Tasks["series-a"]
		task.RSS.File = ""
		cfg.Tasks["series-a"] = task

		err := Verify(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rss file is required")
	})

	t.Run("malformed mask", func(t *testing.T) {
		cfg := loadValid(t)
		cfg.Tasks["series-a"].Filter.Require = StringOrList{"[bad"}

		err := Verify(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mask")
	})

	t.Run("malformed title template", func(t *testing.T) {
		cfg := loadValid(t)
		cfg.Tasks["series-a"].RSS.Title = "{{.Title"

		err := Verify(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid template")
	})

	t.Run("unknown encoding", func(t *testing.T) {
		cfg := loadValid(t)
		cfg.Tasks["series-a"].RSS.Encoding = "klingon-1"

		err := Verify(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown encoding")
	})
}

func TestFilterConfig_NilRule(t *testing.T) {
	var f *FilterConfig
	rule := f.Rule()
	assert.True(t, rule.Empty())
}
