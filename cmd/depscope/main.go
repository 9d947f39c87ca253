package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/depscope/depscope/pkg/analysis"
	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/output"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/queries"
	"github.com/depscope/depscope/pkg/store"
	"github.com/depscope/depscope/pkg/watcher"
)

func main() {
	flags := pflag.NewFlagSet("depscope", pflag.ExitOnError)
	flags.String("data", ".", "Directory of import graph files (*.json)")
	flags.String("import", "", "Analyze only the named import (default: all)")
	flags.Int("max-nodes", 1_000_000, "Per-import node limit (0 = unlimited)")
	flags.Int("workers", 4, "Number of imports analyzed in parallel")
	flags.Bool("watch", false, "Watch the data directory and recompute on change")
	flags.Bool("stale-only", false, "Recompute only stale contributions")
	flags.Bool("duplicates", false, "Report duplicated packages per import")
	flags.String("verbosity", "", "Log level (debug, info, warn, error)")
	flags.CountP("verbose", "v", "Increase log verbosity")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.NewMemory()
	if _, err := store.LoadDir(st, cfg.DataDir); err != nil {
		logging.Fatal("failed to load import data", "error", err)
	}

	ids, err := selectImports(ctx, st, cfg.Import)
	if err != nil {
		logging.Fatal("failed to select imports", "error", err)
	}
	if len(ids) == 0 {
		logging.Warn("no imports found", "data", cfg.DataDir)
		return
	}

	pub := pubsub.NewBroker()
	defer pub.Close()
	runner := analysis.NewRunner(st, pub, cfg.MaxNodes, cfg.Workers)

	results, _ := runner.RunAll(ctx, ids, analysis.Options{StaleOnly: cfg.StaleOnly, Reason: "initial analysis"})
	output.PrintRunReport(results)

	if cfg.Duplicates {
		reportDuplicates(ctx, st, ids, cfg.MaxNodes)
	}

	if cfg.Watch {
		if err := watchAndRecompute(ctx, st, runner, cfg); err != nil && ctx.Err() == nil {
			logging.Fatal("watch mode failed", "error", err)
		}
	}
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Verbosity {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.VerboseCnt > 0 {
		level = slog.LevelDebug
	}
	logging.SetLevel(level)
}

// selectImports resolves the configured import name to IDs, or returns all
// imports when no name is given.
func selectImports(ctx context.Context, st *store.Memory, name string) ([]model.ImportID, error) {
	imports, err := st.Imports(ctx)
	if err != nil {
		return nil, err
	}
	var ids []model.ImportID
	for _, imp := range imports {
		if name == "" || imp.Name == name {
			ids = append(ids, imp.ID)
		}
	}
	if name != "" && len(ids) == 0 {
		return nil, fmt.Errorf("import %q: %w", name, store.ErrNotFound)
	}
	return ids, nil
}

func reportDuplicates(ctx context.Context, st *store.Memory, ids []model.ImportID, maxNodes int) {
	for _, id := range ids {
		g, err := graph.Load(ctx, st, id, maxNodes)
		if err != nil {
			logging.Warn("skipping duplicate report", "importID", string(id), "error", err)
			continue
		}
		output.PrintDuplicateGroups(g.ImportName(), queries.FindDuplicates(g))
	}
}

// watchAndRecompute re-ingests the data directory on change and runs a
// stale-only pipeline pass over all imports.
func watchAndRecompute(ctx context.Context, st *store.Memory, runner *analysis.Runner, cfg *config.Config) error {
	w, err := watcher.NewDataWatcher(cfg.DataDir)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(w.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-debouncer.Output():
			if !ok {
				return nil
			}
			logging.Info("data changed, recomputing", "files", len(event.Paths))
			if _, err := store.LoadDir(st, cfg.DataDir); err != nil {
				logging.Warn("reload failed, keeping previous graphs", "error", err)
				continue
			}
			ids, err := selectImports(ctx, st, cfg.Import)
			if err != nil {
				logging.Warn("import selection failed", "error", err)
				continue
			}
			results, _ := runner.RunAll(ctx, ids, analysis.Options{StaleOnly: true, Reason: "data changed"})
			output.PrintRunReport(results)
		}
	}
}
