package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/feedmill/feedmill/pkg/config"
	"github.com/feedmill/feedmill/pkg/feed"
	"github.com/feedmill/feedmill/pkg/input"
	"github.com/feedmill/feedmill/pkg/pipeline"
	"github.com/feedmill/feedmill/pkg/store"
	"github.com/feedmill/feedmill/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"feedmill.yml" description:"config file path"`
	DryRun bool   `long:"dry-run" description:"filter and report only, write nothing"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)

	log.Printf("[INFO] starting feedmill version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] feedmill failed: %v", err)
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("verify config: %w", err)
	}

	db, err := store.New(store.Config{
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Store.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open retention store: %w", err)
	}
	defer db.Close()

	aggregator := feed.NewAggregator(db, feed.NewTemplateRenderer(), feed.NewWriter())

	tasks, feeds, err := buildTasks(cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(pipeline.Config{
		Tasks:      tasks,
		Aggregator: aggregator,
		MaxWorkers: cfg.MaxWorkers,
		DryRun:     opts.DryRun,
	})

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	if cfg.Server.Listen == "" || opts.DryRun {
		return nil
	}

	srv := server.New(server.Config{
		Listen:  cfg.Server.Listen,
		Timeout: cfg.Server.Timeout,
		Version: revision,
		Debug:   opts.Debug,
		Feeds:   feeds,
		Tracker: aggregator,
	})
	return srv.Run(ctx)
}

// buildTasks converts config tasks into pipeline tasks, in stable name order
func buildTasks(cfg *config.Config) ([]pipeline.Task, []server.Feed, error) {
	names := make([]string, 0, len(cfg.Tasks))
	for name := range cfg.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]pipeline.Task, 0, len(names))
	feeds := make([]server.Feed, 0, len(names))
	for _, name := range names {
		task := cfg.Tasks[name]

		// expand the destination once so the store, the write tracker and
		// the server all key on the same path
		out := task.RSS.Output()
		file, err := feed.ExpandUser(out.File)
		if err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", name, err)
		}
		out.File = file

		tasks = append(tasks, pipeline.Task{
			Name:   name,
			Source: input.NewFileSource(task.Source),
			Rule:   task.Filter.Rule(),
			Output: out,
		})
		feeds = append(feeds, server.Feed{Name: name, File: file})
	}
	return tasks, feeds, nil
}

func setupLog(dbg, noColor bool) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
