// Package pipeline wires the stages together: classification, optional
// LLM enrichment, candidate tracking, the policy gate, and the launch
// trigger. Flow: normalize → classify → filter → enrich → gate → launch.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/candidate"
	"launch-radar/internal/classify"
	"launch-radar/internal/domain"
	"launch-radar/internal/launch"
	"launch-radar/internal/observability"
	"launch-radar/internal/policy"
	"launch-radar/internal/storage"
)

// ErrNilSignal is returned when HandleSignal receives nil.
var ErrNilSignal = errors.New("nil signal")

// Skip reasons for the candidates_skipped metric.
const (
	skipNoTicker        = "no_ticker"
	skipAnalysisMissing = "analysis_missing"
	skipClassifier      = "classifier"
	skipPolicy          = "policy"
	skipManual          = "manual"
	skipDuplicate       = "duplicate"
)

// Enricher produces an LLM launch assessment for a signal. The Groq
// client implements it; a nil Enricher keeps the pipeline on the
// deterministic keyword path.
type Enricher interface {
	Analyze(ctx context.Context, sig *domain.Signal) (*domain.GroqAnalysis, error)
}

// Core drives a signal from ingestion to a launch decision.
type Core struct {
	classifier *classify.Classifier
	evaluator  *policy.Evaluator
	enricher   Enricher
	cache      *candidate.Cache
	trigger    *launch.Trigger
	events     *bus.Bus
	signals    storage.SignalStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Options collects the Core dependencies. Classifier, Evaluator, Cache and
// Events are required; the rest may be nil and disable their stage.
type Options struct {
	Classifier *classify.Classifier
	Evaluator  *policy.Evaluator
	Cache      *candidate.Cache
	Events     *bus.Bus

	// Optional
	Enricher Enricher
	Trigger  *launch.Trigger
	Signals  storage.SignalStore
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewCore creates a Core.
func NewCore(opts Options) (*Core, error) {
	if opts.Classifier == nil || opts.Evaluator == nil || opts.Cache == nil || opts.Events == nil {
		return nil, errors.New("classifier, evaluator, cache and events are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Core{
		classifier: opts.Classifier,
		evaluator:  opts.Evaluator,
		enricher:   opts.Enricher,
		cache:      opts.Cache,
		trigger:    opts.Trigger,
		events:     opts.Events,
		signals:    opts.Signals,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// HandleSignal runs one signal through the full pipeline and returns its
// classification. Launch execution errors are not returned: by the time
// the trigger fires, the signal itself was handled, and failures surface
// through events and candidate status.
func (c *Core) HandleSignal(ctx context.Context, sig *domain.Signal) (*domain.ClassifiedSignal, error) {
	if sig == nil {
		return nil, ErrNilSignal
	}

	cs := c.classifier.Classify(sig)
	if c.metrics != nil {
		c.metrics.SignalsProcessed.WithLabelValues(string(sig.Source)).Inc()
		c.metrics.SignalsClassified.WithLabelValues(string(cs.Category)).Inc()
	}

	if filtered, reason := c.classifier.Filtered(cs); filtered {
		if c.metrics != nil {
			c.metrics.SignalsFiltered.WithLabelValues(reason).Inc()
		}
		c.events.Emit(bus.SignalFiltered{Signal: cs, Reason: reason})
		return cs, nil
	}

	c.persist(cs)
	c.events.Emit(bus.SignalClassified{Signal: cs})

	if cs.Category == domain.CategoryLaunchAlert {
		c.events.Emit(bus.LaunchDetected{Signal: cs})
	}

	// Only the Twitter feed drives launch candidates; other sources are
	// classified and forwarded to subscribers.
	if sig.Source == domain.SourceTwitter {
		c.processCandidate(ctx, sig, cs)
	}
	return cs, nil
}

// processCandidate runs the candidate flow: resolve an analysis, record
// the candidate, evaluate the gate, and fire the trigger when it passes.
func (c *Core) processCandidate(ctx context.Context, sig *domain.Signal, cs *domain.ClassifiedSignal) {
	keyword := domain.KeywordAnalysis{Classified: cs}
	ticker := keyword.TokenTicker()
	if ticker == "" {
		c.skip("", skipNoTicker)
		return
	}
	key := domain.CandidateKey(ticker, sig.SourceID)

	// A candidate already in flight or launched must not be re-scored.
	// The cache refuses the later Upsert too; this check just avoids the
	// analysis work for the common resend.
	if cand, ok := c.cache.Get(key); ok &&
		(cand.Status == domain.StatusQueued || cand.Status == domain.StatusLaunched) {
		c.skip(key, skipDuplicate)
		return
	}

	analysis, ok := c.resolveAnalysis(ctx, sig, keyword)
	if !ok {
		// Enrichment was configured but failed; park the candidate so an
		// operator can see it was never assessed.
		c.cache.Upsert(key, keyword, sig.Content, domain.StatusAnalysisMissing)
		c.skip(key, skipAnalysisMissing)
		return
	}

	if _, applied := c.cache.Upsert(key, analysis, sig.Content, domain.StatusCandidate); !applied {
		// Lost the race against a completing launch for the same key.
		c.skip(key, skipDuplicate)
		return
	}
	if c.metrics != nil {
		c.metrics.CandidatesCreated.Inc()
	}

	if !analysis.Actionable() {
		c.cache.UpdateStatus(key, domain.StatusSkippedClassifier)
		c.skip(key, skipClassifier)
		return
	}

	gate := c.evaluator.Evaluate(analysis)
	if !gate.Allowed {
		c.cache.UpdateStatus(key, domain.StatusSkippedPolicy)
		c.skip(key, skipPolicy)
		c.logger.Info("candidate rejected by policy",
			zap.String("key", key),
			zap.Strings("failed_checks", gate.FailedChecks()),
		)
		return
	}

	if c.trigger == nil {
		c.logger.Info("launch disabled, candidate left pending", zap.String("key", key))
		return
	}

	req := &domain.LaunchRequest{
		Ticker:        analysis.TokenTicker(),
		Name:          analysis.TokenName(),
		Description:   sig.Content,
		PublicSignals: []string{sig.Content},
	}
	if _, err := c.trigger.Fire(ctx, key, req); err != nil {
		if errors.Is(err, launch.ErrDuplicateLaunch) {
			return
		}
		// Fire already recorded the failure and emitted token:failed.
		c.logger.Warn("launch trigger failed", zap.String("key", key), zap.Error(err))
	}
}

// resolveAnalysis picks the analysis for the gate: the enricher's verdict
// when configured and reachable, the keyword adapter otherwise. The false
// return means enrichment was expected but unavailable.
func (c *Core) resolveAnalysis(ctx context.Context, sig *domain.Signal, keyword domain.KeywordAnalysis) (domain.Analysis, bool) {
	if c.enricher == nil {
		return keyword, true
	}

	start := time.Now()
	ga, err := c.enricher.Analyze(ctx, sig)
	if c.metrics != nil {
		c.metrics.EnrichmentLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.EnrichmentFailures.Inc()
		}
		c.logger.Warn("enrichment failed", zap.String("source_id", sig.SourceID), zap.Error(err))
		c.events.Emit(bus.SystemError{Component: "enrich", Err: err.Error()})
		return nil, false
	}
	return ga, true
}

// ManualSkip marks a candidate as skipped by an operator. Returns false if
// the key is unknown.
func (c *Core) ManualSkip(key string) bool {
	if !c.cache.UpdateStatus(key, domain.StatusSkippedManual) {
		return false
	}
	c.skip(key, skipManual)
	return true
}

// Retry re-arms a failed candidate for another launch attempt.
func (c *Core) Retry(key string) bool {
	if c.trigger == nil {
		return false
	}
	return c.trigger.Retry(key)
}

// Candidates returns a snapshot of all tracked candidates.
func (c *Core) Candidates() []*domain.LaunchCandidate {
	return c.cache.List()
}

func (c *Core) skip(key, reason string) {
	if c.metrics != nil {
		c.metrics.CandidatesSkipped.WithLabelValues(reason).Inc()
	}
	if key != "" {
		c.logger.Debug("candidate skipped", zap.String("key", key), zap.String("reason", reason))
	}
}

// auditWriteTimeout bounds the detached audit write.
const auditWriteTimeout = 5 * time.Second

// persist forwards the classified signal to the audit store without
// blocking the pipeline. Fire-and-forget: the write runs detached from
// the request context, and a storage failure is logged and counted,
// never propagated.
func (c *Core) persist(cs *domain.ClassifiedSignal) {
	if c.signals == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()
		err := c.signals.Insert(ctx, cs)
		if err == nil || errors.Is(err, storage.ErrDuplicateKey) {
			return
		}
		if c.metrics != nil {
			c.metrics.AuditWriteFailures.WithLabelValues("signals").Inc()
		}
		c.logger.Warn("signal audit write failed", zap.String("source_id", cs.SourceID), zap.Error(err))
	}()
}
