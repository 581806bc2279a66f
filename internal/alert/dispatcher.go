package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/domain"
	"launch-radar/internal/observability"
)

// Dispatcher fans alerts out to every configured channel concurrently.
// Channel failures are logged and counted, never propagated: one broken
// webhook must not silence the rest.
type Dispatcher struct {
	mu       sync.RWMutex
	channels []Channel

	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher over the given channels. Metrics may
// be nil.
func NewDispatcher(logger *zap.Logger, metrics *observability.Metrics, channels ...Channel) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		channels: channels,
		timeout:  DefaultSendTimeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Configure replaces the channel set wholesale. Deliveries already in
// flight finish against the old set.
func (d *Dispatcher) Configure(channels ...Channel) {
	d.mu.Lock()
	d.channels = channels
	d.mu.Unlock()
}

// Channels returns the names of the configured channels.
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch delivers one alert to every channel and waits for all
// deliveries to finish or time out.
func (d *Dispatcher) Dispatch(ctx context.Context, a *domain.Alert) {
	if a == nil {
		return
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	channels := make([]Channel, len(d.channels))
	copy(channels, d.channels)
	d.mu.RUnlock()

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := ch.Send(sendCtx, a); err != nil {
				d.logger.Warn("alert delivery failed",
					zap.String("channel", ch.Name()),
					zap.String("title", a.Title),
					zap.Error(err))
				if d.metrics != nil {
					d.metrics.AlertFailures.WithLabelValues(ch.Name()).Inc()
				}
				return
			}
			if d.metrics != nil {
				d.metrics.AlertsSent.WithLabelValues(ch.Name()).Inc()
			}
		}(ch)
	}
	wg.Wait()
}

// Bind subscribes the dispatcher to the bus events worth notifying on.
// Deliveries run off the emitting goroutine so slow channels never stall
// the pipeline.
func (d *Dispatcher) Bind(b *bus.Bus) {
	b.On(bus.EventAlert, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.AlertRaised)
		if !ok || p.Alert == nil {
			return
		}
		go d.Dispatch(context.Background(), p.Alert)
	})

	b.On(bus.EventLaunchDetected, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.LaunchDetected)
		if !ok || p.Signal == nil {
			return
		}
		go d.Dispatch(context.Background(), &domain.Alert{
			Level:   domain.AlertInfo,
			Title:   "Launch signal detected",
			Message: fmt.Sprintf("%s signal from %s looks like a token launch", p.Signal.Source, p.Signal.Author),
			Metadata: map[string]string{
				"category":   string(p.Signal.Category),
				"priority":   string(p.Signal.Priority),
				"confidence": fmt.Sprintf("%.2f", p.Signal.Confidence),
			},
		})
	})

	b.On(bus.EventTokenCreated, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.TokenCreated)
		if !ok {
			return
		}
		go d.Dispatch(context.Background(), &domain.Alert{
			Level:   domain.AlertSuccess,
			Title:   "Token launched",
			Message: fmt.Sprintf("$%s (%s) is live", p.Ticker, p.Name),
			Metadata: map[string]string{
				"key":       p.Key,
				"mint":      p.Mint,
				"signature": p.Signature,
			},
		})
	})

	b.On(bus.EventTokenFailed, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.TokenFailed)
		if !ok {
			return
		}
		go d.Dispatch(context.Background(), &domain.Alert{
			Level:   domain.AlertError,
			Title:   "Token launch failed",
			Message: fmt.Sprintf("launch of $%s failed: %s", p.Ticker, p.Err),
			Metadata: map[string]string{
				"key": p.Key,
			},
		})
	})

	b.On(bus.EventSystemError, func(evt bus.Event) {
		p, ok := evt.Payload.(bus.SystemError)
		if !ok {
			return
		}
		go d.Dispatch(context.Background(), &domain.Alert{
			Level:   domain.AlertWarning,
			Title:   "Component error",
			Message: p.Err,
			Metadata: map[string]string{
				"component": p.Component,
			},
		})
	})
}
