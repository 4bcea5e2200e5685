package config

import (
	"fmt"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/feedmill/feedmill/pkg/feed"
	"github.com/feedmill/feedmill/pkg/filter"
)

// Verify validates the loaded configuration. Malformed glob masks, missing
// required fields, unparseable templates and unknown encodings are all
// configuration errors, fatal before any processing starts.
func Verify(cfg *Config) error {
	if len(cfg.Tasks) == 0 {
		return fmt.Errorf("no tasks configured")
	}

	for name, task := range cfg.Tasks {
		if task.Source == "" {
			return fmt.Errorf("task %s: source is required", name)
		}
		if task.RSS == nil || task.RSS.File == "" {
			return fmt.Errorf("task %s: rss file is required", name)
		}

		if task.Filter != nil {
			if err := task.Filter.Rule().Validate(); err != nil {
				return fmt.Errorf("task %s: %w", name, err)
			}
		}

		if err := feed.ValidateTemplate(task.RSS.Title); err != nil {
			return fmt.Errorf("task %s title: %w", name, err)
		}
		if err := feed.ValidateTemplate(task.RSS.Description); err != nil {
			return fmt.Errorf("task %s description: %w", name, err)
		}

		if _, err := htmlindex.Get(task.RSS.Encoding); err != nil {
			return fmt.Errorf("task %s: unknown encoding %q", name, task.RSS.Encoding)
		}
	}
	return nil
}

// Rule converts the raw filter config into a normalized filter rule
func (f *FilterConfig) Rule() filter.Rule {
	if f == nil {
		return filter.Rule{}
	}
	return filter.Rule{
		Require:    f.Require,
		RequireAll: f.RequireAll,
		Reject:     f.Reject,
		Strict:     f.Strict,
	}
}

// Output converts the raw output config into aggregator output settings
func (o *OutputConfig) Output() feed.Output {
	return feed.Output{
		File:               o.File,
		Days:               *o.Days,
		Items:              *o.Items,
		History:            *o.History,
		RSSLink:            o.RSSLink,
		Encoding:           o.Encoding,
		Title:              o.Title,
		Description:        o.Description,
		Link:               o.Link,
		ChannelTitle:       "feedmill",
		ChannelDescription: "feedmill generated RSS feed",
	}
}
