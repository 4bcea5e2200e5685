package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/feedmill/feedmill/pkg/domain"
)

// RecordStore is the durable retention store the aggregator records into
type RecordStore interface {
	CreateRecord(ctx context.Context, record *domain.FeedRecord) error
	ListRecords(ctx context.Context, destination string) ([]domain.FeedRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
	ClearDestination(ctx context.Context, destination string) (int64, error)
}

// Renderer renders title and description templates for one entry
type Renderer interface {
	Render(src string, ctx RenderContext) (string, error)
}

// DocumentWriter persists a rendered document to a destination path
type DocumentWriter interface {
	Write(path, charset, content string) error
}

// Aggregator records accepted entries into the retention store and, at cycle
// finalization, evicts stale records, renders the survivors into an RSS
// document and writes it. Each destination is written at most once per
// process lifetime, the marker map is reset at process start and never
// mid-run.
type Aggregator struct {
	store     RecordStore
	renderer  Renderer
	writer    DocumentWriter
	generator *Generator
	sanitizer *bluemonday.Policy
	nowFn     func() time.Time

	mu      sync.Mutex
	written map[string]bool
}

// NewAggregator creates an aggregator around the given collaborators
func NewAggregator(store RecordStore, renderer Renderer, writer DocumentWriter) *Aggregator {
	return &Aggregator{
		store:     store,
		renderer:  renderer,
		writer:    writer,
		generator: NewGenerator(),
		sanitizer: bluemonday.UGCPolicy(),
		nowFn:     time.Now,
		written:   make(map[string]bool),
	}
}

// Begin prepares a destination for a task's recording phase. With history
// disabled every prior record of the destination is dropped first, otherwise
// the backlog would grow forever without anyone reading it.
func (a *Aggregator) Begin(ctx context.Context, out Output) error {
	if out.History {
		return nil
	}
	deleted, err := a.store.ClearDestination(ctx, out.File)
	if err != nil {
		return fmt.Errorf("clear history for %s: %w", out.File, err)
	}
	if deleted > 0 {
		log.Printf("[DEBUG] history disabled, cleared %d records for %s", deleted, out.File)
	}
	return nil
}

// Record renders one accepted entry and inserts it into the retention store.
// Render failures are recovered locally with a plain-title fallback, store
// failures propagate.
func (a *Aggregator) Record(ctx context.Context, task string, entry domain.Entry, out Output) error {
	rctx := RenderContext{
		Title:       entry.Title,
		URL:         entry.URL,
		Description: entry.Description,
		Task:        task,
		Published:   entry.Published,
		Fields:      entry.Fields,
	}

	title, err := a.renderer.Render(out.Title, rctx)
	if err != nil {
		log.Printf("[WARN] title render failed for %q, using plain title: %v", entry.Title, err)
		title = entry.Title
	}

	description, err := a.renderer.Render(out.Description, rctx)
	if err != nil {
		log.Printf("[WARN] description render failed for %q, falling back to plain title: %v", entry.Title, err)
		description = entry.Title + " - (Render Error)"
	}
	description = a.sanitizer.Sanitize(description)

	record := &domain.FeedRecord{
		Destination: out.File,
		Title:       title,
		Description: description,
		Link:        a.selectLink(entry, out.Link),
		Published:   entry.Published,
	}
	if record.Published.IsZero() {
		record.Published = a.nowFn()
	}

	log.Printf("[DEBUG] saving %q into retention store for %s", record.Title, out.File)
	if err := a.store.CreateRecord(ctx, record); err != nil {
		return fmt.Errorf("record entry %q: %w", entry.Title, err)
	}
	return nil
}

// selectLink picks the record link from the preferred fields in order, the
// preference list always carries the raw url field last
func (a *Aggregator) selectLink(entry domain.Entry, prefs []string) string {
	for _, field := range prefs {
		if v, ok := entry.Field(field); ok {
			return v
		}
	}
	return ""
}

// Finalize runs once per destination per process lifetime: evicts records
// failing the retention policy, renders the survivors and writes the
// document. A second call for the same destination short-circuits to
// StatusSkipped without touching the store or the file. On write failure the
// destination is unmarked so a future process lifetime may retry, the error
// stays local to this destination.
func (a *Aggregator) Finalize(ctx context.Context, out Output) (Status, error) {
	a.mu.Lock()
	if a.written[out.File] {
		a.mu.Unlock()
		log.Printf("[DEBUG] skipping already written destination %s", out.File)
		return StatusSkipped, nil
	}
	a.written[out.File] = true
	a.mu.Unlock()

	status, err := a.finalize(ctx, out)
	if err != nil {
		a.mu.Lock()
		delete(a.written, out.File)
		a.mu.Unlock()
		return "", err
	}
	return status, nil
}

func (a *Aggregator) finalize(ctx context.Context, out Output) (Status, error) {
	records, err := a.store.ListRecords(ctx, out.File)
	if err != nil {
		return "", fmt.Errorf("finalize %s: %w", out.File, err)
	}

	policy := domain.RetentionPolicy{MaxAgeDays: out.Days, MaxItems: out.Items}
	now := a.nowFn()

	// eviction is destructive, records failing an active bound are deleted
	// from the store rather than merely excluded from the document. With no
	// bound active every record survives untouched.
	survivors := records
	if !policy.Unlimited() {
		survivors = make([]domain.FeedRecord, 0, len(records))
		for _, rec := range records {
			if policy.Keep(rec.Published, now, len(survivors)) {
				survivors = append(survivors, rec)
				continue
			}
			log.Printf("[DEBUG] evicting record %d (%q) from %s", rec.ID, rec.Title, out.File)
			if err := a.store.DeleteRecord(ctx, rec.ID); err != nil {
				return "", fmt.Errorf("evict record %d: %w", rec.ID, err)
			}
		}
	}

	document, err := a.generator.Generate(out, survivors, now)
	if err != nil {
		return "", fmt.Errorf("render feed for %s: %w", out.File, err)
	}

	if err := a.writer.Write(out.File, out.Encoding, document); err != nil {
		return "", fmt.Errorf("write feed: %w", err)
	}

	log.Printf("[INFO] wrote %d items to %s", len(survivors), out.File)
	return StatusWritten, nil
}

// Written reports whether a destination was successfully written during this
// process lifetime.
func (a *Aggregator) Written(destination string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.written[destination]
}
