// Package main runs the signal pipeline over an NDJSON feed: one generic
// message per line, classified and driven through the candidate flow, with
// a summary printed at the end. Useful for replaying captured feeds and
// for dry-running classifier or policy changes.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/candidate"
	"launch-radar/internal/classify"
	"launch-radar/internal/config"
	"launch-radar/internal/domain"
	"launch-radar/internal/enrich"
	"launch-radar/internal/launch"
	"launch-radar/internal/normalize"
	"launch-radar/internal/pipeline"
	"launch-radar/internal/policy"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	inputPath := flag.String("input", "-", "NDJSON input file ('-' for stdin)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := buildLogger(*verbose)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, stopping...\n", sig)
		cancel()
	}()

	core, cache, events, err := buildCore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building pipeline: %v\n", err)
		os.Exit(1)
	}

	in, err := openInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	summary, err := run(ctx, core, in, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary, cache.List(), events)
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func buildCore(cfg config.Config, logger *zap.Logger) (*pipeline.Core, *candidate.Cache, *bus.Bus, error) {
	classifier, err := classify.New(cfg.Classifier)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build classifier: %w", err)
	}

	events := bus.New(
		bus.WithHistorySize(cfg.Bus.HistorySize),
		bus.WithLogger(logger),
	)
	cache := candidate.NewCache()

	var enricher pipeline.Enricher
	if cfg.Enrichment.Enabled {
		enricher = enrich.New(cfg.Enrichment.APIKey, enrichOptions(cfg.Enrichment)...)
	}

	var trigger *launch.Trigger
	if cfg.Launch.Enabled {
		executor := launch.NewHTTPExecutor(cfg.Launch.ExecutorURL, cfg.Launch.APIKey)
		trigger = launch.NewTrigger(candidate.NewMemoryGuard(), cache, executor, events, nil, logger)
	}

	core, err := pipeline.NewCore(pipeline.Options{
		Classifier: classifier,
		Evaluator:  policy.NewEvaluator(cfg.Policy),
		Cache:      cache,
		Events:     events,
		Enricher:   enricher,
		Trigger:    trigger,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return core, cache, events, nil
}

func enrichOptions(cfg config.EnrichmentConfig) []enrich.Option {
	var opts []enrich.Option
	if cfg.Endpoint != "" {
		opts = append(opts, enrich.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Model != "" {
		opts = append(opts, enrich.WithModel(cfg.Model))
	}
	return opts
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type runSummary struct {
	processed  int
	malformed  int
	byCategory map[domain.Category]int
}

func run(ctx context.Context, core *pipeline.Core, in io.Reader, logger *zap.Logger) (*runSummary, error) {
	summary := &runSummary{byCategory: make(map[domain.Category]int)}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return summary, nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg normalize.GenericMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			summary.malformed++
			logger.Warn("skipping malformed line", zap.Error(err))
			continue
		}

		cs, err := core.HandleSignal(ctx, normalize.FromGeneric(&msg))
		if err != nil {
			logger.Warn("signal handling failed", zap.String("source_id", msg.SourceID), zap.Error(err))
			continue
		}
		summary.processed++
		summary.byCategory[cs.Category]++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read input: %w", err)
	}
	return summary, nil
}

func printSummary(summary *runSummary, candidates []*domain.LaunchCandidate, events *bus.Bus) {
	fmt.Println("=== Pipeline Summary ===")
	fmt.Printf("Signals processed: %d\n", summary.processed)
	if summary.malformed > 0 {
		fmt.Printf("Malformed lines:   %d\n", summary.malformed)
	}

	fmt.Println("By category:")
	for _, cat := range domain.AllCategories() {
		if n := summary.byCategory[cat]; n > 0 {
			fmt.Printf("  %-16s %d\n", cat, n)
		}
	}

	fmt.Printf("Filtered: %d\n", len(events.EventsByType(bus.EventSignalFiltered, 0)))

	fmt.Printf("Candidates: %d\n", len(candidates))
	for _, cand := range candidates {
		fmt.Printf("  %-24s %s\n", cand.Key, cand.Status)
	}

	created := events.EventsByType(bus.EventTokenCreated, 0)
	fmt.Printf("Tokens launched: %d\n", len(created))
}
