package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"launch-radar/internal/bus"
	"launch-radar/internal/domain"
)

type recordingChannel struct {
	mu     sync.Mutex
	name   string
	err    error
	alerts []*domain.Alert
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) Send(_ context.Context, a *domain.Alert) error {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	r.mu.Unlock()
	return r.err
}

func (r *recordingChannel) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func TestDispatch_FanOut(t *testing.T) {
	a := &recordingChannel{name: "a"}
	b := &recordingChannel{name: "b"}
	d := NewDispatcher(zap.NewNop(), nil, a, b)

	d.Dispatch(context.Background(), &domain.Alert{Level: domain.AlertInfo, Title: "t", Message: "m"})

	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", a.count(), b.count())
	}
}

func TestDispatch_FailureIsolation(t *testing.T) {
	bad := &recordingChannel{name: "bad", err: context.DeadlineExceeded}
	good := &recordingChannel{name: "good"}
	d := NewDispatcher(zap.NewNop(), nil, bad, good)

	d.Dispatch(context.Background(), &domain.Alert{Level: domain.AlertError, Title: "t", Message: "m"})

	if good.count() != 1 {
		t.Fatalf("good channel deliveries = %d, want 1", good.count())
	}
}

func TestDispatch_SetsTimestamp(t *testing.T) {
	ch := &recordingChannel{name: "ch"}
	d := NewDispatcher(zap.NewNop(), nil, ch)

	a := &domain.Alert{Level: domain.AlertInfo, Title: "t", Message: "m"}
	d.Dispatch(context.Background(), a)

	if a.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestConfigure_ReplacesChannels(t *testing.T) {
	old := &recordingChannel{name: "old"}
	d := NewDispatcher(zap.NewNop(), nil, old)

	next := &recordingChannel{name: "next"}
	d.Configure(next)

	d.Dispatch(context.Background(), &domain.Alert{Level: domain.AlertInfo, Title: "t", Message: "m"})

	if old.count() != 0 {
		t.Fatal("old channel still receiving")
	}
	if next.count() != 1 {
		t.Fatalf("next channel deliveries = %d, want 1", next.count())
	}
	if names := d.Channels(); len(names) != 1 || names[0] != "next" {
		t.Fatalf("channels = %v", names)
	}
}

func TestBind_LifecycleEvents(t *testing.T) {
	ch := &recordingChannel{name: "ch"}
	d := NewDispatcher(zap.NewNop(), nil, ch)

	b := bus.New()
	d.Bind(b)

	b.Emit(bus.TokenCreated{Key: "PEPE-1", Ticker: "PEPE", Name: "Pepe", Mint: "m", Signature: "s"})
	b.Emit(bus.TokenFailed{Key: "DOGE-2", Ticker: "DOGE", Err: "executor rejected"})
	b.Emit(bus.AlertRaised{Alert: &domain.Alert{Level: domain.AlertInfo, Title: "manual", Message: "m"}})

	// dispatch runs off the emitting goroutine
	deadline := time.Now().Add(2 * time.Second)
	for ch.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ch.count() != 3 {
		t.Fatalf("deliveries = %d, want 3", ch.count())
	}
}

func TestWebhookChannel(t *testing.T) {
	var got struct {
		Level   string `json:"level"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewWebhookChannel("generic", srv.URL)
	err := ch.Send(context.Background(), &domain.Alert{
		Level:     domain.AlertWarning,
		Title:     "heads up",
		Message:   "something happened",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Level != "warning" || got.Title != "heads up" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookChannel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewWebhookChannel("generic", srv.URL)
	err := ch.Send(context.Background(), &domain.Alert{Level: domain.AlertInfo, Title: "t", Message: "m"})
	if err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestDiscordWebhookChannel_EmbedShape(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Color       int    `json:"color"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewDiscordWebhookChannel(srv.URL)
	err := ch.Send(context.Background(), &domain.Alert{
		Level:   domain.AlertSuccess,
		Title:   "Token launched",
		Message: "$PEPE is live",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(got.Embeds))
	}
	if got.Embeds[0].Color != discordColors[domain.AlertSuccess] {
		t.Fatalf("color = %#x", got.Embeds[0].Color)
	}
}

func TestTelegramChannel_BoundedClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"radar"}}`))
	}))
	defer srv.Close()

	old := telegramEndpoint
	telegramEndpoint = srv.URL + "/bot%s/%s"
	defer func() { telegramEndpoint = old }()

	ch, err := NewTelegramChannel("test-token", 42)
	if err != nil {
		t.Fatalf("NewTelegramChannel: %v", err)
	}

	// The bot's HTTP client must enforce its own deadline; a hung
	// Telegram call would otherwise block the dispatch wait group past
	// the per-delivery budget.
	cli, ok := ch.bot.Client.(*http.Client)
	if !ok {
		t.Fatalf("bot client is %T, want *http.Client", ch.bot.Client)
	}
	if cli.Timeout != DefaultSendTimeout {
		t.Fatalf("client timeout = %v, want %v", cli.Timeout, DefaultSendTimeout)
	}
}
