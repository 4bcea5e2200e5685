// Package pipeline orchestrates one processing cycle: filter candidate
// entries per task, record the accepted ones, then finalize every distinct
// destination exactly once.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/feedmill/feedmill/pkg/domain"
	"github.com/feedmill/feedmill/pkg/feed"
	"github.com/feedmill/feedmill/pkg/filter"
)

// maxReruns bounds batch re-evaluation triggered by fresh rejections,
// mirrors the task rerun cap of the original system
const maxReruns = 5

// Source supplies candidate entries for one task per cycle
type Source interface {
	Entries(ctx context.Context) ([]domain.Entry, error)
}

// ManifestProvider supplies the optional file manifest for an entry. A nil
// manifest with a nil error means no manifest is available, strict-mode
// rules decide what happens then.
type ManifestProvider interface {
	Manifest(ctx context.Context, entry *domain.Entry) (*domain.Manifest, error)
}

// Aggregator records accepted entries and finalizes destinations
type Aggregator interface {
	Begin(ctx context.Context, out feed.Output) error
	Record(ctx context.Context, task string, entry domain.Entry, out feed.Output) error
	Finalize(ctx context.Context, out feed.Output) (feed.Status, error)
}

// Task is one logical job: a source of entries, a filter rule and an output
// destination. Several tasks may share one output file.
type Task struct {
	Name   string
	Source Source
	Rule   filter.Rule
	Output feed.Output
}

// Runner drives one cycle across all tasks
type Runner struct {
	tasks      []Task
	manifests  ManifestProvider
	aggregator Aggregator
	maxWorkers int
	dryRun     bool
}

// Config holds runner configuration
type Config struct {
	Tasks      []Task
	Manifests  ManifestProvider // optional
	Aggregator Aggregator
	MaxWorkers int
	DryRun     bool
}

// NewRunner creates a runner for the configured tasks
func NewRunner(cfg Config) *Runner {
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 5
	}
	return &Runner{
		tasks:      cfg.Tasks,
		manifests:  cfg.Manifests,
		aggregator: cfg.Aggregator,
		maxWorkers: cfg.MaxWorkers,
		dryRun:     cfg.DryRun,
	}
}

// Run executes one full cycle: all tasks record concurrently, then each
// distinct destination is finalized. Write failures are reported per
// destination and never abort the rest of the batch, recording failures
// (store unavailable) are fatal for the cycle.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)

	for _, task := range r.tasks {
		g.Go(func() error {
			return r.runTask(gctx, task)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	if r.dryRun {
		log.Printf("[INFO] dry-run, skipping finalize")
		return nil
	}

	// finalize each destination once, in task order; the aggregator's
	// written marker turns repeats into no-ops anyway
	seen := make(map[string]bool)
	for _, task := range r.tasks {
		if seen[task.Output.File] {
			continue
		}
		seen[task.Output.File] = true

		status, err := r.aggregator.Finalize(ctx, task.Output)
		if err != nil {
			log.Printf("[WARN] finalize %s failed, destination left for a future run: %v", task.Output.File, err)
			continue
		}
		log.Printf("[INFO] destination %s: %s", task.Output.File, status)
	}
	return nil
}

// runTask filters one task's batch and records the accepted entries
func (r *Runner) runTask(ctx context.Context, task Task) error {
	entries, err := task.Source.Entries(ctx)
	if err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}
	log.Printf("[INFO] task %s: %d candidate entries", task.Name, len(entries))

	if err := r.attachManifests(ctx, entries); err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}

	accepted := r.filterBatch(task, entries)
	log.Printf("[INFO] task %s: accepted %d of %d entries", task.Name, len(accepted), len(entries))

	if r.dryRun {
		for _, entry := range accepted {
			log.Printf("[INFO] dry-run, would record %q into %s", entry.Title, task.Output.File)
		}
		return nil
	}

	if err := r.aggregator.Begin(ctx, task.Output); err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}
	for _, entry := range accepted {
		if err := r.aggregator.Record(ctx, task.Name, entry, task.Output); err != nil {
			return fmt.Errorf("task %s: %w", task.Name, err)
		}
	}
	return nil
}

// attachManifests fills in manifests for entries that do not carry one yet
func (r *Runner) attachManifests(ctx context.Context, entries []domain.Entry) error {
	if r.manifests == nil {
		return nil
	}
	for i := range entries {
		if entries[i].Manifest != nil {
			continue
		}
		manifest, err := r.manifests.Manifest(ctx, &entries[i])
		if err != nil {
			return fmt.Errorf("manifest for %q: %w", entries[i].Title, err)
		}
		entries[i].Manifest = manifest
	}
	return nil
}

// filterBatch evaluates the batch with sticky rejections: a rejection is
// remembered for the rest of the run and triggers re-evaluation of the
// remaining batch, since dropping one entry can change batch-level decisions
// made by later stages.
func (r *Runner) filterBatch(task Task, entries []domain.Entry) []domain.Entry {
	if task.Rule.Empty() {
		// nothing to decide, nothing to rerun
		return entries
	}
	rejected := make(map[string]string)

	var accepted []domain.Entry
	for pass := 0; pass <= maxReruns; pass++ {
		rerun := false
		accepted = accepted[:0]

		for i := range entries {
			entry := &entries[i]
			if _, ok := rejected[entry.Key()]; ok {
				// sticky: the remembered rejection stands without re-matching
				continue
			}

			decision := filter.Decide(entry.Manifest, task.Rule)
			if decision.Accepted {
				accepted = append(accepted, *entry)
				continue
			}

			log.Printf("[INFO] task %s: rejecting %q: %s", task.Name, entry.Title, decision.Reason)
			rejected[entry.Key()] = decision.Reason
			rerun = true
		}

		if !rerun {
			break
		}
		log.Printf("[DEBUG] task %s: re-running batch evaluation after rejection (pass %d)", task.Name, pass+1)
	}
	return accepted
}
