// Package main runs the unified launch-radar service: HTTP signal
// ingestion, classification, enrichment, the policy gate, launch
// triggering, alert fan-out, a websocket event stream, and Prometheus
// metrics, with optional PostgreSQL and ClickHouse audit sinks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"launch-radar/internal/alert"
	"launch-radar/internal/bus"
	"launch-radar/internal/candidate"
	"launch-radar/internal/classify"
	"launch-radar/internal/config"
	"launch-radar/internal/domain"
	"launch-radar/internal/enrich"
	"launch-radar/internal/launch"
	"launch-radar/internal/normalize"
	"launch-radar/internal/observability"
	"launch-radar/internal/pipeline"
	"launch-radar/internal/policy"
	"launch-radar/internal/storage"
	"launch-radar/internal/storage/clickhouse"
	"launch-radar/internal/storage/migrations"
	pgstore "launch-radar/internal/storage/postgres"
	"launch-radar/internal/stream"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("server build failed", zap.Error(err))
	}
	defer cleanup()

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.routes(),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	srv.hub.Close()
	logger.Info("server stopped")
}

// server ties the running components to the HTTP surface.
type server struct {
	core    *pipeline.Core
	cache   *candidate.Cache
	events  *bus.Bus
	hub     *stream.Hub
	metrics *observability.Metrics
	logger  *zap.Logger
	started time.Time
}

func buildServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*server, func(), error) {
	metrics := observability.NewMetrics("launch_radar")

	events := bus.New(
		bus.WithHistorySize(cfg.Bus.HistorySize),
		bus.WithLogger(logger),
	)

	classifier, err := classify.New(cfg.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("build classifier: %w", err)
	}

	cache := candidate.NewCache()

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Audit sinks are optional; without DSNs the pipeline holds state in
	// memory only.
	var signals storage.SignalStore
	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}

		signals = pgstore.NewSignalStore(pool)
		pipeline.NewAuditRecorder(pgstore.NewEventStore(pool), metrics, logger).Bind(events)
		logger.Info("postgres audit sink enabled")
	}

	if cfg.Storage.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })

		archiver := newArchiver(clickhouse.NewArchiveStore(conn), metrics, logger)
		archiver.bind(events)
		go archiver.run(ctx)
		logger.Info("clickhouse archive sink enabled")
	}

	var enricher pipeline.Enricher
	if cfg.Enrichment.Enabled {
		var opts []enrich.Option
		if cfg.Enrichment.Endpoint != "" {
			opts = append(opts, enrich.WithEndpoint(cfg.Enrichment.Endpoint))
		}
		if cfg.Enrichment.Model != "" {
			opts = append(opts, enrich.WithModel(cfg.Enrichment.Model))
		}
		if cfg.Enrichment.TimeoutMS > 0 {
			opts = append(opts, enrich.WithTimeout(time.Duration(cfg.Enrichment.TimeoutMS)*time.Millisecond))
		}
		enricher = enrich.New(cfg.Enrichment.APIKey, opts...)
		logger.Info("enrichment enabled", zap.String("model", cfg.Enrichment.Model))
	}

	var trigger *launch.Trigger
	if cfg.Launch.Enabled {
		executor := launch.NewHTTPExecutor(cfg.Launch.ExecutorURL, cfg.Launch.APIKey)
		trigger = launch.NewTrigger(candidate.NewMemoryGuard(), cache, executor, events, metrics, logger)
		logger.Info("launch trigger enabled", zap.String("executor", cfg.Launch.ExecutorURL))
	} else {
		logger.Info("launch trigger disabled, running in observe mode")
	}

	coreOpts := pipeline.Options{
		Classifier: classifier,
		Evaluator:  policy.NewEvaluator(cfg.Policy),
		Cache:      cache,
		Events:     events,
		Enricher:   enricher,
		Trigger:    trigger,
		Signals:    signals,
		Metrics:    metrics,
		Logger:     logger,
	}
	core, err := pipeline.NewCore(coreOpts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	dispatcher := alert.NewDispatcher(logger, metrics, buildChannels(cfg.Alerts, logger)...)
	dispatcher.Bind(events)
	logger.Info("alert channels configured", zap.Strings("channels", dispatcher.Channels()))

	hub := stream.NewHub(logger)
	hub.Bind(events)

	// Count every event type for the dashboard.
	events.OnAll(func(evt bus.Event) {
		metrics.BusEvents.WithLabelValues(string(evt.Type)).Inc()
	})

	return &server{
		core:    core,
		cache:   cache,
		events:  events,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		started: time.Now().UTC(),
	}, cleanup, nil
}

func buildChannels(cfg config.AlertsConfig, logger *zap.Logger) []alert.Channel {
	channels := []alert.Channel{alert.NewConsoleChannel(logger)}
	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, alert.NewDiscordWebhookChannel(cfg.DiscordWebhookURL))
	}
	if cfg.GenericWebhookURL != "" {
		channels = append(channels, alert.NewWebhookChannel("webhook", cfg.GenericWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := alert.NewTelegramChannel(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram channel disabled", zap.Error(err))
		} else {
			channels = append(channels, tg)
		}
	}
	return channels
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/signals", s.handleSignals)
	mux.HandleFunc("/candidates", s.handleCandidates)
	mux.HandleFunc("/candidates/skip", s.handleSkip)
	mux.HandleFunc("/candidates/retry", s.handleRetry)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

type statusResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	Candidates   int    `json:"candidates"`
	StreamCount  int    `json:"stream_clients"`
	EventHistory int    `json:"event_history"`
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		Candidates:   s.cache.Len(),
		StreamCount:  s.hub.ClientCount(),
		EventHistory: len(s.events.History(0)),
	})
}

// handleSignals ingests one generic message and returns its
// classification.
func (s *server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg normalize.GenericMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cs, err := s.core.HandleSignal(r.Context(), normalize.FromGeneric(&msg))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category":   cs.Category,
		"priority":   cs.Priority,
		"confidence": cs.Confidence,
		"risk":       cs.Risk,
		"tickers":    cs.Tickers,
		"contracts":  cs.ContractAddresses,
	})
}

func (s *server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type candidateView struct {
		Key       string    `json:"key"`
		Status    string    `json:"status"`
		Ticker    string    `json:"ticker"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	candidates := s.cache.List()
	views := make([]candidateView, 0, len(candidates))
	for _, cand := range candidates {
		view := candidateView{
			Key:       cand.Key,
			Status:    string(cand.Status),
			UpdatedAt: cand.UpdatedAt,
		}
		if cand.Analysis != nil {
			view.Ticker = cand.Analysis.TokenTicker()
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.candidateAction(w, r, s.core.ManualSkip)
}

func (s *server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.candidateAction(w, r, s.core.Retry)
}

func (s *server) candidateAction(w http.ResponseWriter, r *http.Request, action func(string) bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	if !action(key) {
		http.Error(w, "candidate not found or not eligible", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "result": "ok"})
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}

	var history []bus.Event
	if typ := r.URL.Query().Get("type"); typ != "" {
		history = s.events.EventsByType(bus.EventType(typ), limit)
	} else {
		history = s.events.History(limit)
	}

	type eventView struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
		Payload   any       `json:"payload"`
	}
	views := make([]eventView, 0, len(history))
	for _, evt := range history {
		views = append(views, eventView{
			ID:        evt.ID,
			Type:      string(evt.Type),
			Timestamp: evt.Timestamp,
			Payload:   evt.Payload,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// archiver batches classified signals into the ClickHouse archive.
type archiver struct {
	store   *clickhouse.ArchiveStore
	metrics *observability.Metrics
	logger  *zap.Logger

	mu  sync.Mutex
	buf []*domain.ClassifiedSignal
}

const (
	archiveBatchSize     = 100
	archiveFlushInterval = 30 * time.Second
)

func newArchiver(store *clickhouse.ArchiveStore, metrics *observability.Metrics, logger *zap.Logger) *archiver {
	return &archiver{store: store, metrics: metrics, logger: logger}
}

func (a *archiver) bind(b *bus.Bus) {
	b.On(bus.EventSignalClassified, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.SignalClassified)
		if !ok || p.Signal == nil {
			return
		}
		a.mu.Lock()
		a.buf = append(a.buf, p.Signal)
		full := len(a.buf) >= archiveBatchSize
		a.mu.Unlock()
		if full {
			a.flush(context.Background())
		}
	})
}

func (a *archiver) run(ctx context.Context) {
	ticker := time.NewTicker(archiveFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.flush(context.Background())
			return
		case <-ticker.C:
			a.flush(ctx)
		}
	}
}

func (a *archiver) flush(ctx context.Context) {
	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := a.store.InsertBatch(ctx, batch); err != nil {
		if a.metrics != nil {
			a.metrics.AuditWriteFailures.WithLabelValues("archive").Inc()
		}
		a.logger.Warn("archive flush failed", zap.Int("batch", len(batch)), zap.Error(err))
	}
}
