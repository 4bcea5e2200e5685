package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"description=HTTP listen address for serving generated feeds, empty disables the server"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Feed serving configuration"`

	Store struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:feedmill.db?cache=shared&mode=rwc,description=Retention store connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"store" json:"store" jsonschema:"description=Retention store configuration"`

	MaxWorkers int `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent tasks per cycle"`

	Tasks map[string]Task `yaml:"tasks" json:"tasks" jsonschema:"required,description=Named processing tasks"`
}

// Task is one configured job: an entry source, an optional content filter
// and an RSS output destination
type Task struct {
	Source string        `yaml:"source" json:"source" jsonschema:"required,description=Path to a local RSS/Atom file supplying candidate entries"`
	Filter *FilterConfig `yaml:"content_filter,omitempty" json:"content_filter,omitempty" jsonschema:"description=Filename-based accept/reject rules"`
	RSS    *OutputConfig `yaml:"rss" json:"rss" jsonschema:"required,description=RSS output settings, a plain string is shorthand for the file field"`
}

// FilterConfig holds the filename pattern rules of one task. The mask
// fields accept either a single string or a list of strings in YAML.
type FilterConfig struct {
	Require    StringOrList `yaml:"require,omitempty" json:"require,omitempty" jsonschema:"description=Accept only when some file matches one of these masks"`
	RequireAll StringOrList `yaml:"require_all,omitempty" json:"require_all,omitempty" jsonschema:"description=Accept only when every mask is matched by at least one file"`
	Reject     StringOrList `yaml:"reject,omitempty" json:"reject,omitempty" jsonschema:"description=Reject when any file matches one of these masks"`
	Strict     bool         `yaml:"strict,omitempty" json:"strict,omitempty" jsonschema:"default=false,description=Reject entries without a content manifest"`
}

// OutputConfig holds the RSS output settings of one task. Days and items of
// -1 mean unlimited, history false wipes the destination's backlog on every
// run.
type OutputConfig struct {
	File        string   `yaml:"file" json:"file" jsonschema:"required,description=Destination file path, a leading ~ expands to the home directory"`
	Days        *int     `yaml:"days,omitempty" json:"days,omitempty" jsonschema:"default=7,description=Maximum record age in days, -1 for unlimited"`
	Items       *int     `yaml:"items,omitempty" json:"items,omitempty" jsonschema:"default=-1,description=Maximum number of records, -1 for unlimited"`
	History     *bool    `yaml:"history,omitempty" json:"history,omitempty" jsonschema:"default=true,description=Keep records across runs"`
	RSSLink     string   `yaml:"rsslink,omitempty" json:"rsslink,omitempty" jsonschema:"description=Public URL of the generated feed"`
	Encoding    string   `yaml:"encoding,omitempty" json:"encoding,omitempty" jsonschema:"default=iso-8859-1,description=Character encoding of the written file"`
	Title       string   `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"description=Item title template"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"description=Item description template"`
	Link        []string `yaml:"link,omitempty" json:"link,omitempty" jsonschema:"description=Entry fields tried in order for the item link, the raw url is always the final fallback"`
}

// UnmarshalYAML accepts either a full mapping or the scalar shorthand
// `rss: ~/path/to/feed.rss`
func (o *OutputConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&o.File)
	}
	type plain OutputConfig
	return node.Decode((*plain)(o))
}

// StringOrList is a []string that also accepts a single YAML string
type StringOrList []string

// UnmarshalYAML normalizes the string-vs-list shape at load time so the
// filter only ever sees a list
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = StringOrList{one}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Load reads configuration from a YAML file, expands environment variables
// and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Store.DSN == "" {
		c.Store.DSN = "file:feedmill.db?cache=shared&mode=rwc"
	}
	if c.Store.MaxOpenConns == 0 {
		c.Store.MaxOpenConns = 10
	}
	if c.Store.MaxIdleConns == 0 {
		c.Store.MaxIdleConns = 5
	}
	if c.Store.ConnMaxLifetime == 0 {
		c.Store.ConnMaxLifetime = 3600
	}

	if c.MaxWorkers == 0 {
		c.MaxWorkers = 5
	}

	for name, task := range c.Tasks {
		if task.RSS == nil {
			continue
		}
		task.RSS.applyDefaults()
		c.Tasks[name] = task
	}
}

func (o *OutputConfig) applyDefaults() {
	if o.Days == nil {
		days := 7
		o.Days = &days
	}
	if o.Items == nil {
		items := -1
		o.Items = &items
	}
	if o.History == nil {
		history := true
		o.History = &history
	}
	if o.Encoding == "" {
		o.Encoding = "iso-8859-1"
	}
	if o.Title == "" {
		o.Title = "{{.Title}} (from {{.Task}})"
	}
	if o.Description == "" {
		o.Description = "{{.Description}}"
	}
	if len(o.Link) == 0 {
		o.Link = []string{"imdb_url", "input_url"}
	}
	// the raw url field is always the last resort
	if o.Link[len(o.Link)-1] != "url" {
		o.Link = append(o.Link, "url")
	}
}
