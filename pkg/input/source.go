// Package input supplies candidate entries for pipeline tasks from local
// RSS/Atom files. Nothing here reaches out to the network, the files are
// produced by whatever downloads or exports them.
package input

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/mmcdole/gofeed"

	"github.com/feedmill/feedmill/pkg/domain"
)

// FileSource reads candidate entries from one local feed file
type FileSource struct {
	path string
}

// NewFileSource creates a source for the given feed file path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Entries parses the feed file and converts its items to pipeline entries.
// Enclosure file names, when present, become the entry's content manifest.
func (s *FileSource) Entries(ctx context.Context) ([]domain.Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", s.path, err)
	}
	defer f.Close()

	parser := gofeed.NewParser()
	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse source %s: %w", s.path, err)
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := domain.Entry{
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Description,
			Fields:      map[string]string{"input_url": parsed.Link},
		}
		if item.PublishedParsed != nil {
			entry.Published = *item.PublishedParsed
		}
		for k, v := range item.Custom {
			entry.Fields[k] = v
		}
		entry.Manifest = manifestFromEnclosures(item.Enclosures)

		entries = append(entries, entry)
	}
	return entries, nil
}

// manifestFromEnclosures builds a file manifest from enclosure URLs. Items
// without enclosures yield no manifest at all, which is a distinct state
// from an empty one.
func manifestFromEnclosures(enclosures []*gofeed.Enclosure) *domain.Manifest {
	if len(enclosures) == 0 {
		return nil
	}
	files := make([]string, 0, len(enclosures))
	for _, enc := range enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if u, err := url.Parse(enc.URL); err == nil && u.Path != "" {
			files = append(files, path.Base(u.Path))
			continue
		}
		files = append(files, enc.URL)
	}
	if len(files) == 0 {
		return nil
	}
	return &domain.Manifest{Files: files}
}
