package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/domain"
	"launch-radar/internal/observability"
	"launch-radar/internal/storage"
)

// AuditRecorder persists every bus event into an EventStore. Writes are
// best-effort; failures are counted and logged, and event delivery to
// other subscribers is unaffected.
type AuditRecorder struct {
	store   storage.EventStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuditRecorder creates an AuditRecorder. Metrics may be nil.
func NewAuditRecorder(store storage.EventStore, metrics *observability.Metrics, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{store: store, metrics: metrics, logger: logger}
}

// Bind subscribes the recorder to every event on the bus.
func (r *AuditRecorder) Bind(b *bus.Bus) {
	b.OnAll(func(evt bus.Event) {
		r.record(evt)
	})
}

func (r *AuditRecorder) record(evt bus.Event) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		r.fail(evt, err)
		return
	}
	rec := &domain.EventRecord{
		EventID:   evt.ID,
		Type:      string(evt.Type),
		EmittedAt: evt.Timestamp.UnixMilli(),
		Payload:   payload,
	}
	if err := r.store.Insert(context.Background(), rec); err != nil {
		r.fail(evt, err)
	}
}

func (r *AuditRecorder) fail(evt bus.Event, err error) {
	if r.metrics != nil {
		r.metrics.AuditWriteFailures.WithLabelValues("events").Inc()
	}
	r.logger.Warn("event audit write failed",
		zap.String("event_id", evt.ID),
		zap.String("event_type", string(evt.Type)),
		zap.Error(err),
	)
}
