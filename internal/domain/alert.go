package domain

import "time"

// AlertLevel is the severity of an outbound notification.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

// Alert is a human-readable notification fanned out to configured
// channels. Channel back-ends receive it as-is.
type Alert struct {
	Level     AlertLevel
	Title     string
	Message   string
	Timestamp time.Time
	Metadata  map[string]string
}

// LaunchRequest carries everything the external Launch Executor needs to
// mint a token. The call it feeds is atomic and non-cancelable.
type LaunchRequest struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Website       string   `json:"website,omitempty"`
	TwitterHandle string   `json:"twitterHandle,omitempty"`
	Proof         string   `json:"proof,omitempty"`
	PublicSignals []string `json:"publicSignals,omitempty"`
}

// LaunchResult is the executor's success response.
type LaunchResult struct {
	Mint      string `json:"mint"`
	Signature string `json:"signature"`
}

// EventRecord is the flattened form of a bus event for audit sinks.
type EventRecord struct {
	EventID   string
	Type      string
	EmittedAt int64  // Unix timestamp in milliseconds
	Payload   []byte // JSON-encoded payload
}
